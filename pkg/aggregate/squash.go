package aggregate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	pkgio "github.com/scijava/javadoc-wrangler/pkg/io"
)

// Squash rewrites the file at path as the sorted set of its distinct
// lines and returns how many remain.
func Squash(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	lines := splitLines(string(data))
	slices.Sort(lines)
	lines = slices.Compact(lines)

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if err := pkgio.WriteFile(path, []byte(strings.Join(lines, "")), info.Mode().Perm()); err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Finalize squashes the accumulator files of bomDir. Files no component
// contributed to are skipped; a file that cannot be squashed is logged and
// left as it is. The result maps each squashed file to its line count.
func Finalize(bomDir string, logger *log.Logger) map[string]int {
	counts := make(map[string]int)
	for _, name := range AccumulatorFiles {
		n, err := Squash(filepath.Join(bomDir, name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("nothing to squash", "file", name)
		case err != nil:
			logger.Error("Failed to squash", "file", filepath.Join(bomDir, name))
			logger.Debug("squash error", "file", name, "err", err)
		default:
			counts[name] = n
		}
	}
	return counts
}
