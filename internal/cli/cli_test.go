package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "github.com/scijava/javadoc-wrangler/pkg/errors"
	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/pipeline"
	"github.com/scijava/javadoc-wrangler/pkg/resolver"
	"github.com/scijava/javadoc-wrangler/pkg/resolver/resolvertest"
)

var (
	bom       = gav.New("org.scijava", "pom-scijava", "37.0.0")
	component = gav.New("org.scijava", "scijava-common", "2.90.0")
	orphan    = gav.New("net.imagej", "ij", "1.54f")
	missing   = gav.New("org.scijava", "scijava-table", "1.0.2")
)

// newTestCLI returns a CLI whose runs use r instead of a real resolver.
func newTestCLI(r resolver.Resolver) *CLI {
	c := New(io.Discard, LogInfo)
	c.resolverFor = func(*Config) (resolver.Resolver, error) { return r, nil }
	return c
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func publish(t *testing.T, version string) *resolvertest.Resolver {
	t.Helper()
	b := gav.New(bom.GroupID, bom.ArtifactID, version)
	r := resolvertest.New()
	r.AddBOM(b, component, orphan, missing)
	r.AddComponent(t, component, b, map[string]string{
		"org/scijava/Context.html": `<a href="https://javadoc.scijava.org/Java8/java/lang/String.html">String</a>`,
		"element-list":             "org.scijava\n",
	})
	r.AddComponent(t, orphan, gav.Coordinate{}, map[string]string{
		"ij/IJ.html":   `<a href="https://javadoc.imagej.net/ImageJ/ij/ImagePlus.html">ImagePlus</a>`,
		"package-list": "ij\n",
	})
	return r
}

func TestParseBOM(t *testing.T) {
	def := BOMConfig{Group: "org.scijava", Artifact: "pom-scijava"}
	tests := []struct {
		arg     string
		want    gav.Coordinate
		wantErr bool
	}{
		{"37.0.0", bom, false},
		{"org.scijava:pom-scijava:37.0.0", bom, false},
		{"net.imagej:pom-imagej:15.0.0", gav.New("net.imagej", "pom-imagej", "15.0.0"), false},
		{"org.scijava:pom-scijava", gav.Coordinate{}, true},
		{"org.scijava::37.0.0", gav.Coordinate{}, true},
		{"..", gav.Coordinate{}, true},
		{"", gav.Coordinate{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseBOM(tt.arg, def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBOM(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if err != nil && !errs.Is(err, errs.ErrCodeInvalidCoordinate) {
				t.Errorf("parseBOM(%q) error code = %s, want %s", tt.arg, errs.GetCode(err), errs.ErrCodeInvalidCoordinate)
			}
			if got != tt.want {
				t.Errorf("parseBOM(%q) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	if err := root.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(root, "")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.BaseDir != pipeline.DefaultBaseDir || cfg.Jobs != 1 || cfg.Resolver != resolverMaven {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Metadata.TTL != defaultMetadataTTL {
		t.Errorf("metadata TTL = %v, want %v", cfg.Metadata.TTL, defaultMetadataTTL)
	}
	if len(cfg.LegacyHosts) != 2 || len(cfg.ToplevelDocs) == 0 {
		t.Errorf("legacy hosts = %v, toplevel docs = %d", cfg.LegacyHosts, len(cfg.ToplevelDocs))
	}
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrangler.toml")
	err := os.WriteFile(path, []byte(`
base_dir = "/srv/javadoc"
jobs = 3
resolver = "repository"
legacy_hosts = ["scijava.org"]

[maven]
settings = "/etc/maven/settings.xml"

[metadata]
ttl = "10m"
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("WRANGLER_JOBS", "5")

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	if err := root.ParseFlags([]string{"--config", path, "--resolver", "mvn"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(root, c.configPath)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.BaseDir != "/srv/javadoc" {
		t.Errorf("base_dir = %q, want file value", cfg.BaseDir)
	}
	if cfg.Jobs != 5 {
		t.Errorf("jobs = %d, want environment value 5", cfg.Jobs)
	}
	if cfg.Resolver != resolverMaven {
		t.Errorf("resolver = %q, want flag value", cfg.Resolver)
	}
	if cfg.Maven.Settings != "/etc/maven/settings.xml" || cfg.Maven.Command != "mvn" {
		t.Errorf("maven = %+v", cfg.Maven)
	}
	if cfg.Metadata.TTL != 10*time.Minute {
		t.Errorf("metadata TTL = %v, want 10m", cfg.Metadata.TTL)
	}
	if pc := cfg.Pipeline(); pc.Workers != 5 || len(pc.LegacyHosts) != 1 || pc.SiteDir != filepath.Join("/srv/javadoc", "site") {
		t.Errorf("Pipeline() = %+v", pc)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			BaseDir:    "target",
			Jobs:       1,
			Resolver:   resolverMaven,
			Repository: RepositoryConfig{URL: "https://repo1.maven.org/maven2"},
			DefaultBOM: BOMConfig{Group: "org.scijava", Artifact: "pom-scijava"},
		}
	}
	if cfg := valid(); cfg.Validate() != nil {
		t.Fatalf("valid config rejected: %v", cfg.Validate())
	}

	for name, mutate := range map[string]func(*Config){
		"empty base dir":   func(c *Config) { c.BaseDir = "" },
		"no jobs":          func(c *Config) { c.Jobs = 0 },
		"unknown resolver": func(c *Config) { c.Resolver = "gradle" },
		"bad repository":   func(c *Config) { c.Repository.URL = "ftp://example.org" },
		"no default BOM":   func(c *Config) { c.DefaultBOM.Artifact = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			if err := cfg.Validate(); !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("Validate() = %v, want invalid config", err)
			}
		})
	}
}

func TestRunProcessesBOMs(t *testing.T) {
	base := t.TempDir()
	r := publish(t, bom.Version)
	c := newTestCLI(r)

	if err := execute(t, c, "--base-dir", base, "-j", "2", bom.Version); err != nil {
		t.Fatalf("wrangler %s error: %v", bom.Version, err)
	}

	workDir := filepath.Join(base, "work")
	m, err := pipeline.ReadMarker(workDir, bom)
	if err != nil {
		t.Fatalf("ReadMarker() error: %v", err)
	}
	if m.Processed != 2 || m.Absent != 1 {
		t.Errorf("marker = %+v, want 2 processed and 1 absent", m)
	}

	boms, err := completedBOMs(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(boms) != 1 || boms[0] != bom {
		t.Errorf("completedBOMs() = %v, want [%v]", boms, bom)
	}
	if err := execute(t, c, "--base-dir", base, "status"); err != nil {
		t.Errorf("status error: %v", err)
	}
	if err := execute(t, c, "--base-dir", base, "status", "36.0.0", bom.String()); err != nil {
		t.Errorf("status with arguments error: %v", err)
	}

	// A second run finds the marker and touches nothing.
	calls := r.Calls()
	if err := execute(t, c, "--base-dir", base, bom.String()); err != nil {
		t.Fatal(err)
	}
	if r.Calls() != calls {
		t.Errorf("second run made %d resolver calls", r.Calls()-calls)
	}
}

func TestRunLatestRelease(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/org/scijava/pom-scijava/maven-metadata.xml" {
			http.NotFound(w, req)
			return
		}
		io.WriteString(w, `<metadata><versioning><latest>38.0.0-SNAPSHOT</latest><release>38.0.0</release></versioning></metadata>`)
	}))
	defer srv.Close()

	base := t.TempDir()
	c := newTestCLI(publish(t, "38.0.0"))
	if err := execute(t, c, "--base-dir", base, "--repository", srv.URL); err != nil {
		t.Fatalf("wrangler error: %v", err)
	}
	if _, err := pipeline.ReadMarker(filepath.Join(base, "work"), gav.New("org.scijava", "pom-scijava", "38.0.0")); err != nil {
		t.Errorf("latest release not processed: %v", err)
	}
}

func TestRunLatestReleaseUnknown(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newTestCLI(resolvertest.New())
	err := execute(t, c, "--base-dir", t.TempDir(), "--repository", srv.URL, "--refresh")
	if !errs.Is(err, errs.ErrCodeVersionUnknown) {
		t.Errorf("error = %v, want %s", err, errs.ErrCodeVersionUnknown)
	}
}

func TestRunFatalInterpolation(t *testing.T) {
	base := t.TempDir()
	r := publish(t, bom.Version)
	r.SetEffectivePOM(bom, []string{"<project>\n", "</project>\n"})

	err := execute(t, newTestCLI(r), "--base-dir", base, bom.Version)
	if !errs.Is(err, errs.ErrCodeInterpolation) {
		t.Errorf("error = %v, want %s", err, errs.ErrCodeInterpolation)
	}
}

func TestCacheCommands(t *testing.T) {
	base := t.TempDir()
	r := publish(t, bom.Version)
	c := newTestCLI(r)
	if err := execute(t, c, "--base-dir", base, bom.Version); err != nil {
		t.Fatal(err)
	}

	marker := filepath.Join(base, "jars", "scijava-table-1.0.2-javadoc.missing")
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("missing marker not written: %v", err)
	}
	if err := execute(t, c, "--base-dir", base, "cache", "stats"); err != nil {
		t.Errorf("cache stats error: %v", err)
	}
	if err := execute(t, c, "--base-dir", base, "cache", "forget", missing.String()); err != nil {
		t.Fatalf("cache forget error: %v", err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("cache forget should remove the missing marker")
	}
	if err := execute(t, c, "--base-dir", base, "cache", "forget", "not-a-coordinate"); !errs.Is(err, errs.ErrCodeInvalidCoordinate) {
		t.Errorf("cache forget with a bad coordinate = %v", err)
	}

	if err := execute(t, c, "--base-dir", base, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(base, "jars"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache clear left %d entries", len(entries))
	}
}

func TestAudit(t *testing.T) {
	base := t.TempDir()
	c := newTestCLI(publish(t, bom.Version))
	if err := execute(t, c, "--base-dir", base, bom.Version); err != nil {
		t.Fatal(err)
	}

	// The orphan declares no parent, so its links are left alone.
	err := execute(t, c, "--base-dir", base, "audit", "--urls", "--fail")
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("audit --fail = %v, want legacy links reported", err)
	}

	componentDir := filepath.Join(base, "site", filepath.FromSlash(component.Path()))
	if err := execute(t, c, "--base-dir", base, "audit", "--fail", componentDir); err != nil {
		t.Errorf("audit of a rewritten component = %v, want clean", err)
	}
}
