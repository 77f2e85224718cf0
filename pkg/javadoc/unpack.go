// Package javadoc unpacks javadoc archives into the site tree and points
// their legacy cross-reference links at the aggregated site.
//
// A component is unpacked into site/<g>/<a>/<v>. The directory is built
// under a hidden ".<v>.partial" sibling and renamed into place once the
// archive is extracted, the component POM is copied and links are
// rewritten, so an existing directory always holds a finished unpack.
package javadoc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/xmldoc"
)

// Outcome describes what [Unpacker.Unpack] did.
type Outcome int

const (
	// OutcomeSkipped means the target directory already existed.
	OutcomeSkipped Outcome = iota
	// OutcomeUnlinked means the archive was unpacked, but no valid parent
	// was found, so links were left alone.
	OutcomeUnlinked
	// OutcomeRewritten means the archive was unpacked and links rewritten.
	OutcomeRewritten
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnlinked:
		return "unlinked"
	case OutcomeRewritten:
		return "rewritten"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Copier copies an artifact into a directory.
type Copier interface {
	CopyArtifact(ctx context.Context, a gav.Artifact, outputDir string) error
}

// Unpacker extracts archives and rewrites their links.
type Unpacker struct {
	copier   Copier
	rewriter *Rewriter
	logger   *log.Logger
}

// NewUnpacker returns an Unpacker that fetches component POMs through
// copier.
func NewUnpacker(copier Copier, rewriter *Rewriter, logger *log.Logger) *Unpacker {
	if rewriter == nil {
		rewriter = NewRewriter(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Unpacker{copier: copier, rewriter: rewriter, logger: logger}
}

// Unpack extracts archive into targetDir unless targetDir exists.
//
// Errors wrapping [ErrBadArchive] concern only this component. Any other
// error, such as a failure to copy the component POM, leaves no trace in
// the site tree and should stop the run.
func (u *Unpacker) Unpack(ctx context.Context, c gav.Coordinate, archive, targetDir string) (Outcome, error) {
	if _, err := os.Stat(targetDir); err == nil {
		u.logger.Info("Skipping already unpacked", "component", c)
		return OutcomeSkipped, nil
	} else if !os.IsNotExist(err) {
		return 0, err
	}

	staging := filepath.Join(filepath.Dir(targetDir), "."+filepath.Base(targetDir)+".partial")
	if err := os.RemoveAll(staging); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return 0, err
	}
	outcome, err := u.build(ctx, c, archive, staging)
	if err != nil {
		os.RemoveAll(staging)
		return 0, err
	}
	if err := os.Rename(staging, targetDir); err != nil {
		os.RemoveAll(staging)
		return 0, err
	}
	return outcome, nil
}

func (u *Unpacker) build(ctx context.Context, c gav.Coordinate, archive, dir string) (Outcome, error) {
	u.logger.Info("Unpacking javadoc archive", "component", c)
	if err := Extract(archive, dir); err != nil {
		return 0, fmt.Errorf("%s: %w", c, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	u.logger.Info("Copying POM", "component", c)
	pom := gav.POM(c)
	if err := u.copier.CopyArtifact(ctx, pom, dir); err != nil {
		return 0, fmt.Errorf("copy POM for %s: %w", c, err)
	}

	parent, err := readParent(filepath.Join(dir, pom.FileName()))
	if err != nil {
		u.logger.Warn("Could not read POM; skipping link replacement", "component", c)
		u.logger.Debug("pom error", "component", c, "err", err)
		return OutcomeUnlinked, nil
	}
	if !parent.Valid() {
		u.logger.Warn("Could not glean parent POM; skipping link replacement", "component", c)
		return OutcomeUnlinked, nil
	}

	u.logger.Info("Replacing links", "component", c, "parent", parent)
	files, changed := u.rewriter.RewriteTree(dir, parent, u.logger)
	u.logger.Debug("links replaced", "component", c, "files", files, "changed", changed)
	return OutcomeRewritten, nil
}

// readParent returns the parent coordinate declared by the POM at path.
// A POM without a parent yields the zero Coordinate.
func readParent(path string) (gav.Coordinate, error) {
	doc, err := xmldoc.ParseFile(path)
	if err != nil {
		return gav.Coordinate{}, err
	}
	var fields [3]string
	for i, p := range []string{"parent/groupId", "parent/artifactId", "parent/version"} {
		v, _, err := doc.Value(p)
		if err != nil {
			return gav.Coordinate{}, err
		}
		fields[i] = v
	}
	return gav.New(fields[0], fields[1], fields[2]), nil
}
