package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scijava/javadoc-wrangler/pkg/aggregate"
	"github.com/scijava/javadoc-wrangler/pkg/cache"
	errs "github.com/scijava/javadoc-wrangler/pkg/errors"
	"github.com/scijava/javadoc-wrangler/pkg/gav"
	pkgio "github.com/scijava/javadoc-wrangler/pkg/io"
	"github.com/scijava/javadoc-wrangler/pkg/javadoc"
	"github.com/scijava/javadoc-wrangler/pkg/observability"
	"github.com/scijava/javadoc-wrangler/pkg/resolver"
	"github.com/scijava/javadoc-wrangler/pkg/xmldoc"
)

// Runner processes BOMs against one set of directories.
//
// A Runner holds no per-BOM state, so ProcessBOM may be called repeatedly;
// the jar cache and unpacked components are shared between calls. Calls
// for different BOMs may run concurrently, calls for the same BOM must not.
type Runner struct {
	Config   Config
	Resolver resolver.Resolver
	Store    *cache.Store
	Unpacker *javadoc.Unpacker
	Logger   *log.Logger

	toplevel aggregate.Toplevel
}

// NewRunner creates a runner. cfg is expected to be valid; see
// [Config.Validate]. If logger is nil, log.Default() is used.
func NewRunner(cfg Config, res resolver.Resolver, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	return &Runner{
		Config:   cfg,
		Resolver: res,
		Store:    cache.NewStore(cfg.JarDir, res, logger),
		Unpacker: javadoc.NewUnpacker(res, javadoc.NewRewriter(cfg.LegacyHosts), logger),
		Logger:   logger,
		toplevel: aggregate.NewToplevel(cfg.ToplevelDocs),
	}
}

// ProcessBOM aggregates the javadoc of every component managed by bom into
// the BOM's site directory.
//
// A BOM with a completion marker returns immediately. Component-level
// problems (invalid coordinates, missing or corrupt archives) are logged
// and counted in the result. Any returned error is fatal: the marker is not
// written and a later call resumes from the cached steps.
func (r *Runner) ProcessBOM(ctx context.Context, bom gav.Coordinate) (result *Result, err error) {
	if err := errs.ValidateCoordinate(bom); err != nil {
		return nil, err
	}

	start := time.Now()
	result = &Result{BOM: bom, State: StateNotStarted, RunID: uuid.NewString()}

	marker := MarkerPath(r.Config.WorkDir, bom)
	done, err := pkgio.Exists(marker)
	if err != nil {
		return nil, err
	}
	if done {
		r.Logger.Info("Skipping already processed BOM", "bom", bom)
		result.State = StateFinalized
		result.AlreadyComplete = true
		return result, nil
	}

	observability.Pipeline().OnBOMStart(ctx, bom.String())
	defer func() {
		result.Duration = time.Since(start)
		observability.Pipeline().OnBOMComplete(ctx, bom.String(), result.Duration, err)
	}()

	r.Logger.Info("Processing BOM", "bom", bom, "run", result.RunID)

	components, err := r.resolveComponents(ctx, bom)
	if err != nil {
		return result, err
	}
	result.State = StateDependenciesResolved

	if err := r.processComponents(ctx, bom, components, result); err != nil {
		return result, err
	}
	result.State = StateComponentsProcessed

	r.Logger.Info("Squashing accumulators", "bom", bom)
	result.Lines = aggregate.Finalize(r.Config.SitePath(bom), r.Logger)

	if err := writeMarker(marker, newMarker(result, start, time.Now())); err != nil {
		return result, fmt.Errorf("write completion marker for %s: %w", bom, err)
	}
	result.State = StateFinalized

	r.Logger.Info("Finished BOM", "bom", bom,
		"processed", result.Stats.Processed(),
		"absent", result.Stats.Absent,
		"invalid", result.Stats.Invalid,
		"failed", result.Stats.Failed,
		"duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// resolveComponents returns the coordinates listed in the BOM's effective
// dependencyManagement, in document order. The BOM POM and the extracted
// section are cached in the BOM's work directory.
func (r *Runner) resolveComponents(ctx context.Context, bom gav.Coordinate) ([]gav.Coordinate, error) {
	workDir := r.Config.BOMWorkDir(bom)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}

	pom := gav.POM(bom)
	pomPath := filepath.Join(workDir, pom.FileName())
	if err := r.copyBOMPOM(ctx, pom, pomPath); err != nil {
		return nil, errs.Wrap(errs.ErrCodeResolver, err, "cannot copy POM of %s", bom)
	}

	componentsPath := filepath.Join(workDir, ComponentsFile)
	ok, err := pkgio.Exists(componentsPath)
	if err != nil {
		return nil, err
	}
	if ok {
		r.Logger.Info("Using cached dependency management", "bom", bom)
	} else {
		r.Logger.Info("Interpolating BOM", "bom", bom)
		lines, err := r.Resolver.EffectivePOM(ctx, pomPath)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var cerr *resolver.CommandError
			if errors.As(err, &cerr) {
				r.Logger.Debug("mvn output", "bom", bom, "output", cerr.Output)
			}
			return nil, errs.Wrap(errs.ErrCodeInterpolation, err, "cannot interpolate %s", bom)
		}
		section, err := resolver.ExtractDependencyManagement(lines)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInterpolation, err, "cannot interpolate %s", bom)
		}
		if err := pkgio.WriteFile(componentsPath, []byte(strings.Join(section, "")), 0o644); err != nil {
			return nil, err
		}
	}

	doc, err := xmldoc.ParseFile(componentsPath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInterpolation, err, "cannot read dependency management of %s", bom)
	}
	deps := doc.Elements("dependencies/dependency")
	components := make([]gav.Coordinate, 0, len(deps))
	for _, dep := range deps {
		components = append(components, gav.New(
			dep.TextAt("groupId"),
			dep.TextAt("artifactId"),
			dep.TextAt("version"),
		))
	}
	return components, nil
}

// copyBOMPOM fetches the BOM POM to dest unless it is already there.
func (r *Runner) copyBOMPOM(ctx context.Context, pom gav.Artifact, dest string) error {
	if ok, err := pkgio.Exists(dest); err != nil || ok {
		return err
	}
	r.Logger.Info("Copying BOM POM", "bom", pom.Coordinate)
	staging, err := os.MkdirTemp(filepath.Dir(dest), ".pom-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)
	if err := r.Resolver.CopyArtifact(ctx, pom, staging); err != nil {
		return err
	}
	return os.Rename(filepath.Join(staging, pom.FileName()), dest)
}

func (r *Runner) processComponents(ctx context.Context, bom gav.Coordinate, components []gav.Coordinate, result *Result) error {
	bomDir := r.Config.SitePath(bom)
	if err := os.MkdirAll(bomDir, 0o755); err != nil {
		return err
	}

	writer := aggregate.NewWriter(bomDir, r.Logger)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Config.Workers)

	seen := make(map[gav.Coordinate]bool, len(components))
	for _, c := range components {
		result.count(func(s *Stats) { s.Components++ })
		if err := errs.ValidateCoordinate(c); err != nil {
			r.Logger.Warn("Skipping invalid component", "bom", bom, "component", c, "reason", errs.UserMessage(err))
			result.count(func(s *Stats) { s.Invalid++ })
			observability.Pipeline().OnComponentComplete(ctx, bom.String(), c.String(), observability.OutcomeInvalid, 0)
			continue
		}
		if seen[c] {
			r.Logger.Debug("duplicate component", "bom", bom, "component", c)
			result.count(func(s *Stats) { s.Duplicates++ })
			continue
		}
		seen[c] = true

		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return r.processComponent(gctx, bom, c, writer, result)
		})
	}

	err := g.Wait()
	writer.Close()
	if err == nil {
		err = ctx.Err()
	}
	return err
}

// processComponent fetches, unpacks and aggregates one component. A nil
// return covers the component-level skips; errors are fatal for the BOM.
func (r *Runner) processComponent(ctx context.Context, bom, c gav.Coordinate, writer *aggregate.Writer, result *Result) error {
	start := time.Now()
	complete := func(outcome string) {
		observability.Pipeline().OnComponentComplete(ctx, bom.String(), c.String(), outcome, time.Since(start))
	}

	archive, err := r.Store.Acquire(ctx, c)
	if errors.Is(err, cache.ErrAbsent) {
		result.count(func(s *Stats) { s.Absent++ })
		complete(observability.OutcomeAbsent)
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire javadoc of %s: %w", c, err)
	}

	target := r.Config.SitePath(c)
	outcome, err := r.Unpacker.Unpack(ctx, c, archive, target)
	if errors.Is(err, javadoc.ErrBadArchive) {
		r.Logger.Warn("Skipping component with corrupt javadoc archive", "component", c, "archive", archive)
		r.Logger.Debug("archive error", "component", c, "err", err)
		result.count(func(s *Stats) { s.Failed++ })
		complete(observability.OutcomeFailed)
		return nil
	}
	if err != nil {
		return err
	}

	contrib := aggregate.Collect(bom, c, target, r.toplevel, r.Logger)
	if err := writer.Submit(ctx, contrib); err != nil {
		return err
	}

	result.count(func(s *Stats) {
		switch outcome {
		case javadoc.OutcomeRewritten:
			s.Unpacked++
		case javadoc.OutcomeUnlinked:
			s.Unlinked++
		default:
			s.Reused++
		}
	})
	complete(observability.OutcomeProcessed)
	return nil
}
