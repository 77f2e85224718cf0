package javadoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/resolver/resolvertest"
)

var component = gav.New("org.scijava", "parsington", "3.1.0")

var archiveFiles = map[string]string{
	"index.html":                         `<a href="https://javadoc.scijava.org/Java8/java/lang/String.html">`,
	"org/scijava/parsington/Tokens.html": `<a href="https://javadoc.imagej.net/SciJava/org/scijava/Context.html">`,
	"element-list":                       "org.scijava.parsington\n",
}

type fixture struct {
	resolver *resolvertest.Resolver
	unpacker *Unpacker
	archive  string
	target   string
}

func newFixture(t *testing.T, pomParent gav.Coordinate) *fixture {
	t.Helper()
	root := t.TempDir()
	r := resolvertest.New()
	r.AddArtifact(gav.POM(component), []byte(resolvertest.POM(component, pomParent)))
	return &fixture{
		resolver: r,
		unpacker: NewUnpacker(r, nil, discard()),
		archive:  resolvertest.WriteZip(t, filepath.Join(root, "jars", "parsington-3.1.0-javadoc.jar"), archiveFiles),
		target:   filepath.Join(root, "site", "org.scijava", "parsington", "3.1.0"),
	}
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.target, filepath.FromSlash(name)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestUnpackRewrites(t *testing.T) {
	pomScijava := gav.New("org.scijava", "pom-scijava", "37.0.0")
	f := newFixture(t, pomScijava)

	outcome, err := f.unpacker.Unpack(context.Background(), component, f.archive, f.target)
	if err != nil {
		t.Fatalf("Unpack() error: %v", err)
	}
	if outcome != OutcomeRewritten {
		t.Errorf("outcome = %v, want rewritten", outcome)
	}

	if got := f.read(t, "index.html"); got != `<a href="/org.scijava/pom-scijava/37.0.0/java/lang/String.html">` {
		t.Errorf("index.html = %q", got)
	}
	if got := f.read(t, "org/scijava/parsington/Tokens.html"); !strings.Contains(got, "/org.scijava/pom-scijava/37.0.0/org/scijava/Context.html") {
		t.Errorf("Tokens.html = %q", got)
	}
	if got := f.read(t, "parsington-3.1.0.pom"); !strings.Contains(got, "<artifactId>pom-scijava</artifactId>") {
		t.Error("component POM should be copied next to the docs")
	}

	entries, _ := os.ReadDir(filepath.Dir(f.target))
	if len(entries) != 1 {
		t.Errorf("version dir holds %d entries, want only the target (no staging)", len(entries))
	}
}

func TestUnpackSkipsExisting(t *testing.T) {
	f := newFixture(t, gav.New("org.scijava", "pom-scijava", "37.0.0"))
	os.MkdirAll(f.target, 0o755)

	outcome, err := f.unpacker.Unpack(context.Background(), component, f.archive, f.target)
	if err != nil || outcome != OutcomeSkipped {
		t.Fatalf("Unpack() = %v, %v; want skipped", outcome, err)
	}
	if f.resolver.Calls() != 0 {
		t.Errorf("resolver called %d times for an existing directory", f.resolver.Calls())
	}
}

func TestUnpackWithoutParent(t *testing.T) {
	f := newFixture(t, gav.Coordinate{})

	outcome, err := f.unpacker.Unpack(context.Background(), component, f.archive, f.target)
	if err != nil {
		t.Fatalf("Unpack() error: %v", err)
	}
	if outcome != OutcomeUnlinked {
		t.Errorf("outcome = %v, want unlinked", outcome)
	}
	if got := f.read(t, "index.html"); got != archiveFiles["index.html"] {
		t.Errorf("links rewritten without a parent: %q", got)
	}
}

func TestUnpackUnparsablePOM(t *testing.T) {
	f := newFixture(t, gav.Coordinate{})
	f.resolver.AddArtifact(gav.POM(component), []byte("<project>"))

	outcome, err := f.unpacker.Unpack(context.Background(), component, f.archive, f.target)
	if err != nil || outcome != OutcomeUnlinked {
		t.Fatalf("Unpack() = %v, %v; want unlinked", outcome, err)
	}
}

func TestUnpackBadArchive(t *testing.T) {
	f := newFixture(t, gav.New("org.scijava", "pom-scijava", "37.0.0"))
	os.WriteFile(f.archive, []byte("truncated"), 0o644)

	_, err := f.unpacker.Unpack(context.Background(), component, f.archive, f.target)
	if !errors.Is(err, ErrBadArchive) {
		t.Fatalf("Unpack() error = %v, want ErrBadArchive", err)
	}
	assertNothingLeft(t, f.target)
}

func TestUnpackPOMCopyFailure(t *testing.T) {
	f := newFixture(t, gav.New("org.scijava", "pom-scijava", "37.0.0"))
	f.resolver.Fail(gav.POM(component), errors.New("mvn exited 1"))

	_, err := f.unpacker.Unpack(context.Background(), component, f.archive, f.target)
	if err == nil || errors.Is(err, ErrBadArchive) {
		t.Fatalf("Unpack() error = %v, want a fatal error", err)
	}
	assertNothingLeft(t, f.target)
}

func TestUnpackReplacesStalePartial(t *testing.T) {
	f := newFixture(t, gav.New("org.scijava", "pom-scijava", "37.0.0"))
	stale := filepath.Join(filepath.Dir(f.target), ".3.1.0.partial")
	os.MkdirAll(stale, 0o755)
	os.WriteFile(filepath.Join(stale, "leftover.html"), []byte("x"), 0o644)

	if _, err := f.unpacker.Unpack(context.Background(), component, f.archive, f.target); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(f.target, "leftover.html")); !os.IsNotExist(err) {
		t.Error("stale partial content leaked into the target")
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeRewritten.String() != "rewritten" || Outcome(9).String() != "Outcome(9)" {
		t.Error("unexpected Outcome strings")
	}
}

func assertNothingLeft(t *testing.T, target string) {
	t.Helper()
	entries, _ := os.ReadDir(filepath.Dir(target))
	if len(entries) != 0 {
		t.Errorf("left %d entries behind after a failed unpack", len(entries))
	}
}
