// Package resolver copies Maven artifacts and computes effective POMs.
//
// Two implementations of [Resolver] are provided:
//
//   - [Maven] shells out to the mvn command line (dependency:copy and
//     help:effective-pom), delegating repository access and credentials
//     to the local Maven installation.
//   - [Repository] talks to a Maven repository over HTTP and interpolates
//     POMs natively. It needs no local tooling.
//
// Both render the effective POM as Maven does, so
// [ExtractDependencyManagement] works on either output.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
)

// ErrNoDependencyManagement is returned by [ExtractDependencyManagement]
// when the effective POM has no top-level dependencyManagement section.
var ErrNoDependencyManagement = errors.New("effective POM has no dependencyManagement section")

// Resolver is the boundary to the artifact repository.
type Resolver interface {
	// CopyArtifact places the artifact file into outputDir, named
	// a.FileName(). Any failure means the artifact is unavailable.
	CopyArtifact(ctx context.Context, a gav.Artifact, outputDir string) error

	// EffectivePOM interpolates the POM at pomFile and returns the effective
	// POM text as lines, line endings kept.
	EffectivePOM(ctx context.Context, pomFile string) ([]string, error)
}

const (
	dmStart = "  <dependencyManagement>"
	dmEnd   = "  </dependencyManagement>"
)

// ExtractDependencyManagement returns the lines from the project-level
// <dependencyManagement> start tag through its end tag, inclusive. The
// section is recognized by its two-space indentation, which keeps nested
// sections of plugins and profiles out.
func ExtractDependencyManagement(lines []string) ([]string, error) {
	start := -1
	for i, line := range lines {
		switch {
		case start < 0 && strings.HasPrefix(line, dmStart):
			start = i
		case start >= 0 && strings.HasPrefix(line, dmEnd):
			return lines[start : i+1], nil
		}
	}
	return nil, ErrNoDependencyManagement
}

// SplitLines splits s into lines, keeping each line's terminator.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
