// Package resolvertest provides an in-memory [resolver.Resolver] and
// archive helpers for tests.
package resolvertest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
)

// ErrUnavailable is returned by CopyArtifact for artifacts never added.
var ErrUnavailable = errors.New("artifact unavailable")

// Resolver serves artifacts and effective POMs from memory and counts
// every call. It is safe for concurrent use.
type Resolver struct {
	mu        sync.Mutex
	artifacts map[string][]byte
	effective map[string][]string
	failures  map[string]error
	copies    map[string]int
	poms      int
}

// New returns an empty Resolver.
func New() *Resolver {
	return &Resolver{
		artifacts: make(map[string][]byte),
		effective: make(map[string][]string),
		failures:  make(map[string]error),
		copies:    make(map[string]int),
	}
}

// AddArtifact makes a available with the given content.
func (r *Resolver) AddArtifact(a gav.Artifact, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[a.String()] = data
}

// Fail makes CopyArtifact for a return err.
func (r *Resolver) Fail(a gav.Artifact, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[a.String()] = err
}

// AddBOM publishes the POM of bom and an effective POM whose
// dependencyManagement lists components in order. Empty coordinate fields
// are omitted from the rendered dependency.
func (r *Resolver) AddBOM(bom gav.Coordinate, components ...gav.Coordinate) {
	r.AddArtifact(gav.POM(bom), []byte(POM(bom, gav.Coordinate{})))

	lines := []string{
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n",
		"<project>\n",
		"  <modelVersion>4.0.0</modelVersion>\n",
		"  <groupId>" + bom.GroupID + "</groupId>\n",
		"  <artifactId>" + bom.ArtifactID + "</artifactId>\n",
		"  <version>" + bom.Version + "</version>\n",
		"  <dependencyManagement>\n",
		"    <dependencies>\n",
	}
	for _, c := range components {
		lines = append(lines, "      <dependency>\n")
		for _, f := range [][2]string{{"groupId", c.GroupID}, {"artifactId", c.ArtifactID}, {"version", c.Version}} {
			if f[1] != "" {
				lines = append(lines, "        <"+f[0]+">"+f[1]+"</"+f[0]+">\n")
			}
		}
		lines = append(lines, "      </dependency>\n")
	}
	lines = append(lines,
		"    </dependencies>\n",
		"  </dependencyManagement>\n",
		"</project>\n",
	)
	r.SetEffectivePOM(bom, lines)
}

// SetEffectivePOM sets the lines EffectivePOM returns for the POM file of bom.
func (r *Resolver) SetEffectivePOM(bom gav.Coordinate, lines []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effective[gav.POM(bom).FileName()] = lines
}

// AddComponent publishes the POM of c, declaring parent, and a javadoc
// archive holding files.
func (r *Resolver) AddComponent(t testing.TB, c, parent gav.Coordinate, files map[string]string) {
	t.Helper()
	r.AddArtifact(gav.POM(c), []byte(POM(c, parent)))
	r.AddArtifact(gav.Javadoc(c), Zip(t, files))
}

// CopyArtifact writes the artifact into outputDir.
func (r *Resolver) CopyArtifact(_ context.Context, a gav.Artifact, outputDir string) error {
	r.mu.Lock()
	r.copies[a.String()]++
	data, ok := r.artifacts[a.String()]
	err := r.failures[a.String()]
	r.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnavailable, a)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, a.FileName()), data, 0o644)
}

// EffectivePOM returns the lines registered for the POM file's name.
func (r *Resolver) EffectivePOM(_ context.Context, pomFile string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poms++
	lines, ok := r.effective[filepath.Base(pomFile)]
	if !ok {
		return nil, fmt.Errorf("no effective POM for %s", filepath.Base(pomFile))
	}
	if _, err := os.Stat(pomFile); err != nil {
		return nil, err
	}
	return slices.Clone(lines), nil
}

// Copies returns how often CopyArtifact was called for a.
func (r *Resolver) Copies(a gav.Artifact) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copies[a.String()]
}

// Calls returns the total number of resolver calls.
func (r *Resolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.poms
	for _, c := range r.copies {
		n += c
	}
	return n
}

// POM renders a minimal POM for c. A zero parent is omitted.
func POM(c, parent gav.Coordinate) string {
	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<project xmlns=\"http://maven.apache.org/POM/4.0.0\">\n")
	if parent != (gav.Coordinate{}) {
		fmt.Fprintf(&b, "  <parent>\n    <groupId>%s</groupId>\n    <artifactId>%s</artifactId>\n    <version>%s</version>\n  </parent>\n",
			parent.GroupID, parent.ArtifactID, parent.Version)
	}
	fmt.Fprintf(&b, "  <groupId>%s</groupId>\n  <artifactId>%s</artifactId>\n  <version>%s</version>\n",
		c.GroupID, c.ArtifactID, c.Version)
	b.WriteString("</project>\n")
	return b.String()
}

// Zip builds a zip archive of files, written in name order.
func Zip(t testing.TB, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// CorruptZip builds an archive whose single deflated entry has a corrupt
// compressed stream. The archive directory itself is intact.
func CorruptZip(t testing.TB, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               name,
		Method:             zip.Deflate,
		CompressedSize64:   3,
		UncompressedSize64: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	// A final block with the reserved block type.
	if _, err := w.Write([]byte{0x07, 0xff, 0xff}); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// WriteZip writes Zip(files) to path.
func WriteZip(t testing.TB, path string, files map[string]string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, Zip(t, files), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
