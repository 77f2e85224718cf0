package aggregate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestWriterSerializesConcurrentSubmits(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discard())

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range perWorker {
				contrib := &Contribution{
					Indices:   map[string][]string{PackageList: {fmt.Sprintf("pkg.%d.%d\n", i, j)}},
					Redirects: []string{fmt.Sprintf("rule %d %d\n", i, j), fmt.Sprintf("rule %d %d b\n", i, j)},
				}
				if err := w.Submit(context.Background(), contrib); err != nil {
					t.Errorf("Submit() error: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	w.Close()

	lines := strings.Split(strings.TrimSuffix(readFile(t, filepath.Join(dir, Htaccess)), "\n"), "\n")
	if len(lines) != 2*workers*perWorker {
		t.Fatalf("got %d redirect lines, want %d", len(lines), 2*workers*perWorker)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "rule ") {
			t.Fatalf("interleaved or torn line %q", l)
		}
	}
	if n := strings.Count(readFile(t, filepath.Join(dir, PackageList)), "\n"); n != workers*perWorker {
		t.Errorf("package-list has %d lines, want %d", n, workers*perWorker)
	}
}

func TestWriterSubmitIsAcknowledged(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discard())
	defer w.Close()

	if err := w.Submit(context.Background(), &Contribution{Redirects: []string{"r\n"}}); err != nil {
		t.Fatal(err)
	}
	// Visible immediately, before Close.
	if got := readFile(t, filepath.Join(dir, Htaccess)); got != "r\n" {
		t.Errorf(".htaccess = %q", got)
	}
}

func TestWriterSubmitCanceled(t *testing.T) {
	w := NewWriter(t.TempDir(), discard())
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Either branch may win the race; a canceled context must never block.
	_ = w.Submit(ctx, &Contribution{})
}
