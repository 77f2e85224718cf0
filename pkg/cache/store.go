// Package cache keeps downloaded javadoc archives on disk.
//
// A [Store] maps a component coordinate to its javadoc JAR in a flat
// directory. Archives the repository does not have are remembered with a
// ".missing" marker, so they are never requested again until the marker
// is forgotten:
//
//	jars/scijava-common-2.90.0-javadoc.jar
//	jars/legacy-thing-1.0-javadoc.missing
//
// Entries are created by rename, so an interrupted download never leaves a
// file that looks complete.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	pkgio "github.com/scijava/javadoc-wrangler/pkg/io"
	"github.com/scijava/javadoc-wrangler/pkg/observability"
)

// ErrAbsent is returned by [Store.Acquire] when the component publishes no
// javadoc archive.
var ErrAbsent = errors.New("no javadoc archive")

const (
	jarSuffix     = "-javadoc.jar"
	missingSuffix = "-javadoc.missing"
)

// Copier copies an artifact into a directory. [resolver.Resolver]
// satisfies it.
//
// [resolver.Resolver]: github.com/scijava/javadoc-wrangler/pkg/resolver.Resolver
type Copier interface {
	CopyArtifact(ctx context.Context, a gav.Artifact, outputDir string) error
}

// Store is the javadoc archive cache. It is safe for concurrent use;
// concurrent acquisitions of one coordinate share a single fetch.
type Store struct {
	dir    string
	copier Copier
	logger *log.Logger
	group  singleflight.Group
}

// NewStore returns a Store rooted at dir that fetches through copier.
func NewStore(dir string, copier Copier, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{dir: dir, copier: copier, logger: logger}
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// JarPath returns where the archive of c is cached.
func (s *Store) JarPath(c gav.Coordinate) string {
	return filepath.Join(s.dir, c.ArtifactID+"-"+c.Version+jarSuffix)
}

// MarkerPath returns the negative marker of c.
func (s *Store) MarkerPath(c gav.Coordinate) string {
	return filepath.Join(s.dir, c.ArtifactID+"-"+c.Version+missingSuffix)
}

// Acquire returns the path of the javadoc archive of c, fetching it if it
// is not cached yet.
//
// [ErrAbsent] is returned when the archive is known to be missing or the
// fetch fails; the failure is recorded so later calls answer without
// fetching. Other errors concern the cache directory itself, or
// cancellation.
func (s *Store) Acquire(ctx context.Context, c gav.Coordinate) (string, error) {
	v, err, _ := s.group.Do(c.String(), func() (any, error) {
		return s.acquire(ctx, c)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Store) acquire(ctx context.Context, c gav.Coordinate) (string, error) {
	jar := s.JarPath(c)
	if ok, err := pkgio.Exists(jar); err != nil {
		return "", err
	} else if ok {
		observability.Cache().OnCacheHit(ctx, observability.CacheJavadoc)
		return jar, nil
	}

	marker := s.MarkerPath(c)
	if ok, err := pkgio.Exists(marker); err != nil {
		return "", err
	} else if ok {
		observability.Cache().OnCacheNegativeHit(ctx, observability.CacheJavadoc)
		s.logger.Warn("No javadoc archive (cached)", "component", c)
		return "", ErrAbsent
	}

	observability.Cache().OnCacheMiss(ctx, observability.CacheJavadoc)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	staging, err := os.MkdirTemp(s.dir, ".fetch-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	s.logger.Info("Downloading javadoc archive", "file", filepath.Base(jar))
	a := gav.Javadoc(c)
	err = s.copier.CopyArtifact(ctx, a, staging)
	if err == nil {
		_, err = os.Stat(filepath.Join(staging, a.FileName()))
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.Warn("No javadoc archive", "component", c)
		s.logger.Debug("fetch failed", "component", c, "err", err)
		if werr := pkgio.Touch(marker); werr != nil {
			return "", fmt.Errorf("record missing archive: %w", werr)
		}
		return "", ErrAbsent
	}

	if err := os.Rename(filepath.Join(staging, a.FileName()), jar); err != nil {
		return "", err
	}
	return jar, nil
}

// Forget removes the negative marker of c so the next Acquire fetches
// again. It reports whether a marker existed.
func (s *Store) Forget(c gav.Coordinate) (bool, error) {
	err := os.Remove(s.MarkerPath(c))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// ForgetAll removes every negative marker and returns how many it removed.
func (s *Store) ForgetAll() (int, error) {
	return s.removeMatching(func(name string) bool {
		return strings.HasSuffix(name, missingSuffix)
	})
}

// Clear removes every entry, archives and markers alike.
func (s *Store) Clear() (int, error) {
	return s.removeMatching(func(name string) bool {
		return strings.HasSuffix(name, missingSuffix) || strings.HasSuffix(name, jarSuffix)
	})
}

// Stats counts cached archives and negative markers.
func (s *Store) Stats() (jars, missing int, err error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		switch name := e.Name(); {
		case strings.HasSuffix(name, jarSuffix):
			jars++
		case strings.HasSuffix(name, missingSuffix):
			missing++
		}
	}
	return jars, missing, nil
}

func (s *Store) removeMatching(match func(string) bool) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
