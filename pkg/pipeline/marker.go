package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	pkgio "github.com/scijava/javadoc-wrangler/pkg/io"
)

// MarkerName is the completion marker file in a BOM's work directory.
const MarkerName = "complete"

// Marker is the run record stored in the completion marker. Only the
// file's existence matters to the pipeline; an empty marker is valid.
type Marker struct {
	BOM         string         `toml:"bom"`
	RunID       string         `toml:"run_id"`
	StartedAt   time.Time      `toml:"started_at"`
	CompletedAt time.Time      `toml:"completed_at"`
	Components  int            `toml:"components"`
	Processed   int            `toml:"processed"`
	Absent      int            `toml:"absent"`
	Invalid     int            `toml:"invalid"`
	Failed      int            `toml:"failed"`
	Lines       map[string]int `toml:"lines,omitempty"`
}

// MarkerPath returns the completion marker path of bom under workDir.
func MarkerPath(workDir string, bom gav.Coordinate) string {
	return filepath.Join(workDir, filepath.FromSlash(bom.Path()), MarkerName)
}

// ReadMarker decodes the completion marker of bom. A missing marker yields
// an error satisfying errors.Is(err, fs.ErrNotExist).
func ReadMarker(workDir string, bom gav.Coordinate) (*Marker, error) {
	data, err := os.ReadFile(MarkerPath(workDir, bom))
	if err != nil {
		return nil, err
	}
	var m Marker
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("decode marker for %s: %w", bom, err)
	}
	if m.BOM == "" {
		m.BOM = bom.String()
	}
	return &m, nil
}

func newMarker(r *Result, started, completed time.Time) *Marker {
	return &Marker{
		BOM:         r.BOM.String(),
		RunID:       r.RunID,
		StartedAt:   started.UTC().Truncate(time.Second),
		CompletedAt: completed.UTC().Truncate(time.Second),
		Components:  r.Stats.Components,
		Processed:   r.Stats.Processed(),
		Absent:      r.Stats.Absent,
		Invalid:     r.Stats.Invalid,
		Failed:      r.Stats.Failed,
		Lines:       r.Lines,
	}
}

func writeMarker(path string, m *Marker) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return err
	}
	return pkgio.WriteFile(path, buf.Bytes(), 0o644)
}
