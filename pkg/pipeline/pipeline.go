// Package pipeline aggregates the javadoc of every component managed by a
// BOM into one site.
//
// # Architecture
//
// Each BOM moves through four states:
//
//  1. NotStarted: nothing done yet, or the previous run did not finish
//  2. DependenciesResolved: the BOM POM and its effective
//     dependencyManagement (components.xml) are cached in the work dir
//  3. ComponentsProcessed: every component has been fetched, unpacked,
//     rewritten and appended to the BOM accumulators
//  4. Finalized: accumulators squashed and the completion marker written
//
// Only Finalized suppresses later work for the same coordinate. Every
// earlier step is cached on disk, so an interrupted run resumes cheaply.
//
// # Usage
//
//	runner := pipeline.NewRunner(pipeline.DefaultConfig("target"), resolver, logger)
//	result, err := runner.ProcessBOM(ctx, gav.New("org.scijava", "pom-scijava", "37.0.0"))
//
// # Directory Layout
//
//	target/site/<g>/<a>/<v>/    unpacked javadoc, plus accumulators for BOMs
//	target/work/<g>/<a>/<v>/    BOM POM, components.xml, complete
//	target/jars/                javadoc archive cache
package pipeline

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/scijava/javadoc-wrangler/pkg/aggregate"
	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/javadoc"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultBaseDir holds the site, work and jar trees.
	DefaultBaseDir = "target"

	// DefaultWorkers processes one component at a time.
	DefaultWorkers = 1

	// ComponentsFile caches the effective dependencyManagement of a BOM.
	ComponentsFile = "components.xml"
)

// =============================================================================
// Config
// =============================================================================

// Config locates the on-disk trees and tunes processing.
type Config struct {
	SiteDir string
	WorkDir string
	JarDir  string

	// ToplevelDocs are page names without redirects; nil selects
	// aggregate.DefaultToplevelDocs.
	ToplevelDocs []string

	// LegacyHosts are rewritten javadoc hosts; nil selects
	// javadoc.DefaultLegacyHosts.
	LegacyHosts []string

	// Workers bounds how many components are processed concurrently.
	Workers int
}

// DefaultConfig lays the trees out under baseDir.
func DefaultConfig(baseDir string) Config {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return Config{
		SiteDir:      filepath.Join(baseDir, "site"),
		WorkDir:      filepath.Join(baseDir, "work"),
		JarDir:       filepath.Join(baseDir, "jars"),
		ToplevelDocs: aggregate.DefaultToplevelDocs,
		LegacyHosts:  javadoc.DefaultLegacyHosts,
		Workers:      DefaultWorkers,
	}
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	switch {
	case c.SiteDir == "":
		return fmt.Errorf("site directory is required")
	case c.WorkDir == "":
		return fmt.Errorf("work directory is required")
	case c.JarDir == "":
		return fmt.Errorf("jar directory is required")
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	return nil
}

// BOMWorkDir returns the work directory of bom.
func (c Config) BOMWorkDir(bom gav.Coordinate) string {
	return filepath.Join(c.WorkDir, filepath.FromSlash(bom.Path()))
}

// SitePath returns the site directory of a component or BOM.
func (c Config) SitePath(coord gav.Coordinate) string {
	return filepath.Join(c.SiteDir, filepath.FromSlash(coord.Path()))
}

// =============================================================================
// State
// =============================================================================

// State is the progress of one BOM.
type State int

const (
	StateNotStarted State = iota
	StateDependenciesResolved
	StateComponentsProcessed
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateDependenciesResolved:
		return "dependencies-resolved"
	case StateComponentsProcessed:
		return "components-processed"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// Result
// =============================================================================

// Result describes one ProcessBOM call.
type Result struct {
	BOM   gav.Coordinate
	State State

	// AlreadyComplete is set when the completion marker existed and
	// nothing was done.
	AlreadyComplete bool

	RunID string

	// Stats counts components by what happened to them.
	Stats Stats

	// Lines maps each squashed accumulator to its final line count.
	Lines map[string]int

	Duration time.Duration

	mu sync.Mutex
}

// Stats contains per-component counts.
type Stats struct {
	Components int // managed dependency entries
	Duplicates int // entries repeating an earlier coordinate
	Invalid    int
	Absent     int
	Failed     int
	Unpacked   int // newly unpacked, links rewritten
	Unlinked   int // newly unpacked, no valid parent
	Reused     int // already unpacked by an earlier run or BOM
}

// Processed returns the number of components aggregated into the BOM.
func (s Stats) Processed() int {
	return s.Unpacked + s.Unlinked + s.Reused
}

func (r *Result) count(f func(*Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(&r.Stats)
}
