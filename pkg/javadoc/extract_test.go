package javadoc

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scijava/javadoc-wrangler/pkg/resolver/resolvertest"
)

func discard() *log.Logger { return log.New(io.Discard) }

func TestExtract(t *testing.T) {
	src := resolvertest.WriteZip(t, filepath.Join(t.TempDir(), "a.jar"), map[string]string{
		"index.html":               "<html/>",
		"org/scijava/Context.html": "ctx",
		"META-INF/MANIFEST.MF":     "Manifest-Version: 1.0\n",
	})
	dir := t.TempDir()

	if err := Extract(src, dir); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "org", "scijava", "Context.html"))
	if err != nil || string(got) != "ctx" {
		t.Errorf("nested file = %q, %v", got, err)
	}
}

func TestExtractRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	src := resolvertest.WriteZip(t, filepath.Join(root, "evil.jar"), map[string]string{
		"../evil.html": "pwned",
	})
	dir := filepath.Join(root, "out")
	os.MkdirAll(dir, 0o755)

	if err := Extract(src, dir); !errors.Is(err, ErrBadArchive) {
		t.Fatalf("Extract() error = %v, want ErrBadArchive", err)
	}
	if _, err := os.Stat(filepath.Join(root, "evil.html")); !os.IsNotExist(err) {
		t.Error("entry escaped the target directory")
	}
}

func TestExtractCorrupt(t *testing.T) {
	src := filepath.Join(t.TempDir(), "corrupt.jar")
	os.WriteFile(src, []byte("this is not a zip"), 0o644)

	if err := Extract(src, t.TempDir()); !errors.Is(err, ErrBadArchive) {
		t.Errorf("Extract() error = %v, want ErrBadArchive", err)
	}
}

func TestExtractCorruptEntry(t *testing.T) {
	src := filepath.Join(t.TempDir(), "deflate.jar")
	if err := os.WriteFile(src, resolvertest.CorruptZip(t, "org/scijava/Context.html"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Extract(src, t.TempDir()); !errors.Is(err, ErrBadArchive) {
		t.Errorf("Extract() error = %v, want ErrBadArchive", err)
	}
}

func TestExtractWriteFailureIsNotBadArchive(t *testing.T) {
	src := resolvertest.WriteZip(t, filepath.Join(t.TempDir(), "a.jar"), map[string]string{
		"index.html": "<html/>",
	})
	dir := t.TempDir()
	// A directory where the file should go makes the write fail.
	if err := os.Mkdir(filepath.Join(dir, "index.html"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := Extract(src, dir)
	if err == nil {
		t.Fatal("Extract() should fail")
	}
	if errors.Is(err, ErrBadArchive) {
		t.Errorf("Extract() error = %v, should not be ErrBadArchive", err)
	}
}
