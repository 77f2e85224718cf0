package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/pipeline"
)

// statusCommand shows the completion records of BOMs.
func (c *CLI) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [version | groupId:artifactId:version ...]",
		Short: "Show which BOMs have been processed",
		Long: `Show the completion record of each BOM. Without arguments, every BOM
with a record in the work directory is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, c.configPath)
			if err != nil {
				return err
			}
			workDir := cfg.Pipeline().WorkDir

			var boms []gav.Coordinate
			if len(args) == 0 {
				if boms, err = completedBOMs(workDir); err != nil {
					return err
				}
				if len(boms) == 0 {
					printInfo("No processed BOMs in %s", workDir)
					return nil
				}
			}
			for _, arg := range args {
				bom, err := parseBOM(arg, cfg.DefaultBOM)
				if err != nil {
					return err
				}
				boms = append(boms, bom)
			}

			for _, bom := range boms {
				m, err := pipeline.ReadMarker(workDir, bom)
				if errors.Is(err, fs.ErrNotExist) {
					printWarning("%s not processed", bom)
					continue
				}
				if err != nil {
					return err
				}
				printMarker(m)
			}
			return nil
		},
	}
}

// completedBOMs finds the completion markers under workDir, which are laid
// out as <groupId>/<artifactId>/<version>/complete.
func completedBOMs(workDir string) ([]gav.Coordinate, error) {
	var boms []gav.Coordinate
	err := filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == workDir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || d.Name() != pipeline.MarkerName {
			return nil
		}
		rel, err := filepath.Rel(workDir, filepath.Dir(path))
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) == 3 {
			boms = append(boms, gav.New(parts[0], parts[1], parts[2]))
		}
		return nil
	})
	return boms, err
}

func printMarker(m *pipeline.Marker) {
	printSuccess("%s", StyleValue.Render(m.BOM))
	if m.RunID == "" {
		printDetail("completed (no run record)")
		return
	}
	printDetail("completed %s, took %s", timeSince(m.CompletedAt), m.CompletedAt.Sub(m.StartedAt).Round(time.Second))
	printDetail("%d components: %d processed, %d without javadoc, %d invalid, %d failed",
		m.Components, m.Processed, m.Absent, m.Invalid, m.Failed)
	if len(m.Lines) > 0 {
		parts := make([]string, 0, len(m.Lines))
		for _, name := range sortedKeys(m.Lines) {
			parts = append(parts, fmt.Sprintf("%s %d", name, m.Lines[name]))
		}
		printDetail("%s", strings.Join(parts, ", "))
	}
	printDetail("run %s", m.RunID)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// timeSince formats the age of t for status output.
func timeSince(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return time.Since(t).Round(time.Second).String() + " ago"
}
