package pipeline

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scijava/javadoc-wrangler/pkg/aggregate"
	errs "github.com/scijava/javadoc-wrangler/pkg/errors"
	"github.com/scijava/javadoc-wrangler/pkg/gav"
	pkgio "github.com/scijava/javadoc-wrangler/pkg/io"
	"github.com/scijava/javadoc-wrangler/pkg/resolver/resolvertest"
)

var (
	bom        = gav.New("org.scijava", "pom-scijava", "37.0.0")
	common     = gav.New("org.scijava", "scijava-common", "2.90.0")
	parsington = gav.New("org.scijava", "parsington", "3.1.0")
	absent     = gav.New("org.scijava", "scijava-table", "1.0.2")
)

var (
	commonFiles = map[string]string{
		"index.html":               "<html>index</html>\n",
		"overview-summary.html":    "<html>overview</html>\n",
		"org/scijava/Context.html": "<a href=\"https://javadoc.scijava.org/Java8/java/lang/String.html\">String</a>\n",
		"element-list":             "org.scijava\n",
		"package-list":             "org.scijava\n",
	}
	parsingtonFiles = map[string]string{
		"index.html":                         "<html>index</html>\n",
		"org/scijava/parsington/Tokens.html": "<a href=\"https://javadoc.imagej.net/SciJava/org/scijava/Context.html\">Context</a>\n",
		"element-list":                       "org.scijava.parsington\norg.scijava\n",
	}
)

func discard() *log.Logger { return log.New(io.Discard) }

// newResolver publishes bom with the given components. common and
// parsington have javadoc archives; absent has none.
func newResolver(t *testing.T, components ...gav.Coordinate) *resolvertest.Resolver {
	t.Helper()
	r := resolvertest.New()
	r.AddBOM(bom, components...)
	r.AddComponent(t, common, bom, commonFiles)
	r.AddComponent(t, parsington, bom, parsingtonFiles)
	return r
}

func newRunner(t *testing.T, base string, r *resolvertest.Resolver, workers int) *Runner {
	t.Helper()
	cfg := DefaultConfig(base)
	cfg.Workers = workers
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return NewRunner(cfg, r, discard())
}

func readSite(t *testing.T, base string, c gav.Coordinate, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(base, "site", filepath.FromSlash(c.Path()), filepath.FromSlash(name)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func accumulators(t *testing.T, base string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, name := range aggregate.AccumulatorFiles {
		out[name] = readSite(t, base, bom, name)
	}
	return out
}

func TestProcessBOM(t *testing.T) {
	base := t.TempDir()
	r := newResolver(t, common, parsington, absent)

	result, err := newRunner(t, base, r, 1).ProcessBOM(context.Background(), bom)
	if err != nil {
		t.Fatalf("ProcessBOM() error: %v", err)
	}
	if result.State != StateFinalized || result.AlreadyComplete {
		t.Errorf("state = %v (already complete %v), want finalized", result.State, result.AlreadyComplete)
	}
	want := Stats{Components: 3, Absent: 1, Unpacked: 2}
	if result.Stats != want {
		t.Errorf("Stats = %+v, want %+v", result.Stats, want)
	}

	if got := readSite(t, base, bom, aggregate.ElementList); got != "org.scijava\norg.scijava.parsington\n" {
		t.Errorf("element-list = %q", got)
	}
	if got := readSite(t, base, bom, aggregate.PackageList); got != "org.scijava\n" {
		t.Errorf("package-list = %q", got)
	}
	if result.Lines[aggregate.ElementList] != 2 {
		t.Errorf("Lines = %v, want 2 element-list lines", result.Lines)
	}

	htaccess := readSite(t, base, bom, aggregate.Htaccess)
	for _, rule := range []string{
		aggregate.Redirect(bom, common, "org/scijava/Context.html"),
		aggregate.Redirect(bom, parsington, "org/scijava/parsington/Tokens.html"),
	} {
		if !strings.Contains(htaccess, rule) {
			t.Errorf(".htaccess missing %q", rule)
		}
	}
	for _, page := range []string{"index.html", "overview-summary.html"} {
		if strings.Contains(htaccess, "/"+page+"$") {
			t.Errorf(".htaccess should not redirect toplevel page %s", page)
		}
	}

	if got := readSite(t, base, common, "org/scijava/Context.html"); !strings.Contains(got, `href="/org.scijava/pom-scijava/37.0.0/java/lang/String.html"`) {
		t.Errorf("Context.html not rewritten: %q", got)
	}
	if _, err := os.Stat(filepath.Join(base, "site", filepath.FromSlash(absent.Path()))); !os.IsNotExist(err) {
		t.Error("component without javadoc should not be unpacked")
	}

	m, err := ReadMarker(filepath.Join(base, "work"), bom)
	if err != nil {
		t.Fatalf("ReadMarker() error: %v", err)
	}
	if m.BOM != bom.String() || m.RunID != result.RunID || m.Processed != 2 || m.Absent != 1 {
		t.Errorf("marker = %+v", m)
	}
	if _, err := os.Stat(filepath.Join(base, "work", filepath.FromSlash(bom.Path()), ComponentsFile)); err != nil {
		t.Errorf("components file not cached: %v", err)
	}
}

func TestProcessBOMAlreadyComplete(t *testing.T) {
	base := t.TempDir()
	r := newResolver(t, common, parsington)
	ctx := context.Background()

	if _, err := newRunner(t, base, r, 1).ProcessBOM(ctx, bom); err != nil {
		t.Fatal(err)
	}
	before := accumulators(t, base)
	calls := r.Calls()

	result, err := newRunner(t, base, r, 1).ProcessBOM(ctx, bom)
	if err != nil {
		t.Fatalf("second ProcessBOM() error: %v", err)
	}
	if !result.AlreadyComplete || result.State != StateFinalized {
		t.Errorf("second run = %+v, want already complete", result)
	}
	if r.Calls() != calls {
		t.Errorf("resolver called %d more times, want 0", r.Calls()-calls)
	}
	if after := accumulators(t, base); !mapsEqual(before, after) {
		t.Error("accumulators changed on a completed BOM")
	}
}

func TestProcessBOMResume(t *testing.T) {
	base := t.TempDir()
	r := newResolver(t, common, parsington, absent)
	ctx := context.Background()

	if _, err := newRunner(t, base, r, 1).ProcessBOM(ctx, bom); err != nil {
		t.Fatal(err)
	}
	before := accumulators(t, base)
	calls := r.Calls()

	// An interrupted run leaves everything but the marker.
	if err := os.Remove(MarkerPath(filepath.Join(base, "work"), bom)); err != nil {
		t.Fatal(err)
	}

	result, err := newRunner(t, base, r, 1).ProcessBOM(ctx, bom)
	if err != nil {
		t.Fatalf("resumed ProcessBOM() error: %v", err)
	}
	if r.Calls() != calls {
		t.Errorf("resumed run made %d resolver calls, want 0", r.Calls()-calls)
	}
	if result.Stats.Reused != 2 || result.Stats.Absent != 1 {
		t.Errorf("Stats = %+v, want 2 reused and 1 absent", result.Stats)
	}
	if after := accumulators(t, base); !mapsEqual(before, after) {
		t.Errorf("accumulators differ after resume:\nbefore %q\nafter  %q", before, after)
	}
}

func TestProcessBOMOrderIndependent(t *testing.T) {
	ctx := context.Background()

	forward := t.TempDir()
	if _, err := newRunner(t, forward, newResolver(t, common, parsington, absent), 1).ProcessBOM(ctx, bom); err != nil {
		t.Fatal(err)
	}
	reverse := t.TempDir()
	if _, err := newRunner(t, reverse, newResolver(t, absent, parsington, common), 1).ProcessBOM(ctx, bom); err != nil {
		t.Fatal(err)
	}

	if a, b := accumulators(t, forward), accumulators(t, reverse); !mapsEqual(a, b) {
		t.Errorf("component order changed the output:\n%q\n%q", a, b)
	}
}

func TestProcessBOMWorkers(t *testing.T) {
	ctx := context.Background()

	sequential := t.TempDir()
	if _, err := newRunner(t, sequential, newResolver(t, common, parsington, absent), 1).ProcessBOM(ctx, bom); err != nil {
		t.Fatal(err)
	}
	parallel := t.TempDir()
	result, err := newRunner(t, parallel, newResolver(t, common, parsington, absent), 4).ProcessBOM(ctx, bom)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.Processed() != 2 {
		t.Errorf("parallel run processed %d components, want 2", result.Stats.Processed())
	}
	if a, b := accumulators(t, sequential), accumulators(t, parallel); !mapsEqual(a, b) {
		t.Errorf("parallel output differs:\n%q\n%q", a, b)
	}
}

func TestProcessBOMSkipsInvalidAndDuplicates(t *testing.T) {
	base := t.TempDir()
	r := newResolver(t,
		common,
		gav.New("org.scijava", "", "1.0"),
		gav.New("org.scijava", "escape", ".."),
		common,
		parsington,
	)

	result, err := newRunner(t, base, r, 2).ProcessBOM(context.Background(), bom)
	if err != nil {
		t.Fatalf("ProcessBOM() error: %v", err)
	}
	want := Stats{Components: 5, Invalid: 2, Duplicates: 1, Unpacked: 2}
	if result.Stats != want {
		t.Errorf("Stats = %+v, want %+v", result.Stats, want)
	}
	if r.Copies(gav.Javadoc(common)) != 1 {
		t.Errorf("duplicate component fetched %d times, want 1", r.Copies(gav.Javadoc(common)))
	}
}

func TestProcessBOMNegativeCacheAcrossBOMs(t *testing.T) {
	base := t.TempDir()
	other := gav.New("org.scijava", "pom-scijava", "38.0.0")
	r := newResolver(t, common, absent)
	r.AddBOM(other, absent, parsington)
	runner := newRunner(t, base, r, 1)
	ctx := context.Background()

	for _, b := range []gav.Coordinate{bom, other} {
		result, err := runner.ProcessBOM(ctx, b)
		if err != nil {
			t.Fatalf("ProcessBOM(%s) error: %v", b, err)
		}
		if result.Stats.Absent != 1 {
			t.Errorf("%s: Absent = %d, want 1", b, result.Stats.Absent)
		}
	}
	if n := r.Copies(gav.Javadoc(absent)); n != 1 {
		t.Errorf("missing archive requested %d times, want 1", n)
	}
}

func TestProcessBOMCorruptArchive(t *testing.T) {
	base := t.TempDir()
	r := newResolver(t, common, absent)
	r.AddArtifact(gav.POM(absent), []byte(resolvertest.POM(absent, bom)))
	r.AddArtifact(gav.Javadoc(absent), []byte("not a zip archive"))

	result, err := newRunner(t, base, r, 1).ProcessBOM(context.Background(), bom)
	if err != nil {
		t.Fatalf("ProcessBOM() error: %v", err)
	}
	if result.Stats.Failed != 1 || result.Stats.Unpacked != 1 {
		t.Errorf("Stats = %+v, want 1 failed and 1 unpacked", result.Stats)
	}
	if _, err := os.Stat(filepath.Join(base, "site", filepath.FromSlash(absent.Path()))); !os.IsNotExist(err) {
		t.Error("corrupt archive should leave no component directory")
	}
	if result.State != StateFinalized {
		t.Errorf("State = %v, want finalized", result.State)
	}
}

func TestProcessBOMCorruptEntry(t *testing.T) {
	base := t.TempDir()
	r := newResolver(t, absent, parsington)
	r.AddArtifact(gav.POM(absent), []byte(resolvertest.POM(absent, bom)))
	r.AddArtifact(gav.Javadoc(absent), resolvertest.CorruptZip(t, "org/scijava/table/Table.html"))

	result, err := newRunner(t, base, r, 1).ProcessBOM(context.Background(), bom)
	if err != nil {
		t.Fatalf("ProcessBOM() error: %v", err)
	}
	if result.Stats.Failed != 1 || result.Stats.Unpacked != 1 {
		t.Errorf("Stats = %+v, want 1 failed and 1 unpacked", result.Stats)
	}
	if got := readSite(t, base, bom, aggregate.ElementList); !strings.Contains(got, "org.scijava.parsington\n") {
		t.Errorf("element-list = %q, want the component after the corrupt one", got)
	}
	if result.State != StateFinalized {
		t.Errorf("State = %v, want finalized", result.State)
	}
}

func TestProcessBOMFatal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *resolvertest.Resolver)
		code  errs.Code
		state State
	}{
		{
			name: "missing BOM POM",
			setup: func(r *resolvertest.Resolver) {
				r.Fail(gav.POM(bom), resolvertest.ErrUnavailable)
			},
			code:  errs.ErrCodeResolver,
			state: StateNotStarted,
		},
		{
			name: "no dependency management",
			setup: func(r *resolvertest.Resolver) {
				r.SetEffectivePOM(bom, []string{"<project>\n", "</project>\n"})
			},
			code:  errs.ErrCodeInterpolation,
			state: StateNotStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			r := newResolver(t, common)
			tt.setup(r)

			result, err := newRunner(t, base, r, 1).ProcessBOM(context.Background(), bom)
			if !errs.Is(err, tt.code) {
				t.Fatalf("ProcessBOM() error = %v, want code %s", err, tt.code)
			}
			if result.State != tt.state {
				t.Errorf("State = %v, want %v", result.State, tt.state)
			}
			if ok, _ := pkgio.Exists(MarkerPath(filepath.Join(base, "work"), bom)); ok {
				t.Error("fatal error should not write the completion marker")
			}
		})
	}
}

func TestProcessBOMInvalidCoordinate(t *testing.T) {
	runner := newRunner(t, t.TempDir(), resolvertest.New(), 1)
	_, err := runner.ProcessBOM(context.Background(), gav.New("org.scijava", "pom-scijava", ""))
	if !errs.Is(err, errs.ErrCodeInvalidCoordinate) {
		t.Errorf("ProcessBOM() error = %v, want invalid coordinate", err)
	}
}

func TestProcessBOMCanceled(t *testing.T) {
	base := t.TempDir()
	r := newResolver(t, common, parsington, absent)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newRunner(t, base, r, 1).ProcessBOM(ctx, bom); err == nil {
		t.Fatal("ProcessBOM() should fail when canceled")
	}
	if ok, _ := pkgio.Exists(MarkerPath(filepath.Join(base, "work"), bom)); ok {
		t.Error("canceled run should not write the completion marker")
	}
}

func TestReadMarkerLegacy(t *testing.T) {
	work := t.TempDir()
	if _, err := ReadMarker(work, bom); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadMarker() on missing marker = %v, want not exist", err)
	}

	path := MarkerPath(work, bom)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := pkgio.Touch(path); err != nil {
		t.Fatal(err)
	}
	m, err := ReadMarker(work, bom)
	if err != nil {
		t.Fatalf("ReadMarker() on empty marker error: %v", err)
	}
	if m.BOM != bom.String() || m.RunID != "" {
		t.Errorf("empty marker = %+v", m)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("")
	if cfg.SiteDir != filepath.Join("target", "site") || cfg.JarDir != filepath.Join("target", "jars") {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}

	cfg.Workers = 0
	if err := cfg.Validate(); err != nil || cfg.Workers != DefaultWorkers {
		t.Errorf("Validate() = %v, workers %d", err, cfg.Workers)
	}

	for _, mutate := range []func(*Config){
		func(c *Config) { c.SiteDir = "" },
		func(c *Config) { c.WorkDir = "" },
		func(c *Config) { c.JarDir = "" },
		func(c *Config) { c.Workers = -1 },
	} {
		c := DefaultConfig("base")
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%+v) should fail", c)
		}
	}
}

func TestConfigPaths(t *testing.T) {
	if got, want := DefaultConfig("base").SitePath(common), filepath.Join("base", "site", "org.scijava", "scijava-common", "2.90.0"); got != want {
		t.Errorf("SitePath() = %q, want %q", got, want)
	}
	if got, want := DefaultConfig("base").BOMWorkDir(bom), filepath.Join("base", "work", "org.scijava", "pom-scijava", "37.0.0"); got != want {
		t.Errorf("BOMWorkDir() = %q, want %q", got, want)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateNotStarted:           "not-started",
		StateDependenciesResolved: "dependencies-resolved",
		StateComponentsProcessed:  "components-processed",
		StateFinalized:            "finalized",
		State(9):                  "State(9)",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
