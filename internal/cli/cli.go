// Package cli implements the wrangler command-line interface.
//
// # Commands
//
//   - wrangler [version | g:a:v ...]: aggregate the javadoc of each BOM
//   - status: show the completion records of BOMs
//   - audit: list links to legacy javadoc hosts left in the site
//   - cache: inspect and prune the javadoc archive cache
//
// # Configuration
//
// Settings are merged from defaults, wrangler.toml in the working directory
// (or --config), WRANGLER_* environment variables and flags, in increasing
// precedence. See [Config].
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes the output of failed Maven invocations.
package cli

import (
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/scijava/javadoc-wrangler/pkg/buildinfo"
	errs "github.com/scijava/javadoc-wrangler/pkg/errors"
	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/integrations"
	"github.com/scijava/javadoc-wrangler/pkg/integrations/maven"
	"github.com/scijava/javadoc-wrangler/pkg/observability"
	"github.com/scijava/javadoc-wrangler/pkg/pipeline"
	"github.com/scijava/javadoc-wrangler/pkg/resolver"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "wrangler"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string

	// resolverFor builds the resolver for a run; tests replace it.
	resolverFor func(*Config) (resolver.Resolver, error)
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}
	c.resolverFor = c.newResolver
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var refresh bool

	root := &cobra.Command{
		Use:   appName + " [version | groupId:artifactId:version ...]",
		Short: "Wrangler aggregates the javadoc of every component of a BOM",
		Long: `Wrangler fetches the javadoc archive of every component managed by a
Maven BOM, unpacks it, rewrites links to legacy javadoc hosts, and merges the
package lists and redirect rules into one site per BOM.

A bare version refers to the default BOM (org.scijava:pom-scijava). Without
arguments, the latest release of the default BOM is processed.`,
		Args:         cobra.ArbitraryArgs,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProcess(cmd, args, refresh)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ./wrangler.toml)")
	flags.String("base-dir", pipeline.DefaultBaseDir, "directory holding the site, work and jars trees")
	flags.IntP("jobs", "j", pipeline.DefaultWorkers, "components processed concurrently")
	flags.String("resolver", resolverMaven, "artifact resolver: mvn or repository")
	flags.String("mvn", resolver.DefaultMavenCommand, "Maven command used by the mvn resolver")
	flags.String("settings", "", "Maven settings.xml passed to mvn with -s")
	flags.String("repository", maven.CentralURL, "Maven repository URL")
	flags.Duration("metadata-ttl", defaultMetadataTTL, "how long repository metadata is cached")
	flags.StringSlice("legacy-host", nil, "legacy javadoc host whose links are rewritten (repeatable)")

	root.Flags().BoolVar(&refresh, "refresh", false, "bypass the metadata cache when looking up the latest release")

	root.AddCommand(c.statusCommand())
	root.AddCommand(c.auditCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Processing
// =============================================================================

func (c *CLI) runProcess(cmd *cobra.Command, args []string, refresh bool) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd, c.configPath)
	if err != nil {
		return err
	}
	c.Logger.Debug("configuration", "config", cfg)

	boms, err := c.resolveBOMs(ctx, cfg, args, refresh)
	if err != nil {
		return err
	}
	res, err := c.resolverFor(cfg)
	if err != nil {
		return err
	}

	counters := observability.NewCounters()
	observability.SetPipelineHooks(counters)
	observability.SetCacheHooks(counters)

	runner := pipeline.NewRunner(cfg.Pipeline(), res, c.Logger)
	for _, bom := range boms {
		prog := newProgress(c.Logger)
		result, err := runner.ProcessBOM(ctx, bom)
		if err != nil {
			return err
		}
		if !result.AlreadyComplete {
			prog.done("Processed " + bom.String())
		}
		printResult(result, cfg.Pipeline().SitePath(bom))
	}
	if len(boms) > 1 {
		printCounters(counters.Snapshot())
	}
	return nil
}

// resolveBOMs turns arguments into BOM coordinates. Without arguments the
// latest release of the default BOM is looked up.
func (c *CLI) resolveBOMs(ctx context.Context, cfg *Config, args []string, refresh bool) ([]gav.Coordinate, error) {
	if len(args) == 0 {
		version, err := c.latestRelease(ctx, cfg, refresh)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.Logger.Debug("latest release lookup failed", "err", err)
			return nil, errs.Wrap(errs.ErrCodeVersionUnknown, err,
				"cannot glean latest version of %s:%s", cfg.DefaultBOM.Group, cfg.DefaultBOM.Artifact)
		}
		c.Logger.Info("Using latest release", "version", version)
		args = []string{version}
	}

	boms := make([]gav.Coordinate, 0, len(args))
	for _, arg := range args {
		bom, err := parseBOM(arg, cfg.DefaultBOM)
		if err != nil {
			return nil, err
		}
		boms = append(boms, bom)
	}
	return boms, nil
}

// parseBOM parses a "g:a:v" argument, or a bare version of the default BOM.
func parseBOM(arg string, def BOMConfig) (gav.Coordinate, error) {
	bom := gav.New(def.Group, def.Artifact, arg)
	if strings.Contains(arg, ":") {
		var err error
		if bom, err = gav.Parse(arg); err != nil {
			return gav.Coordinate{}, errs.Wrap(errs.ErrCodeInvalidCoordinate, err, "invalid BOM %q", arg)
		}
	}
	if err := errs.ValidateCoordinate(bom); err != nil {
		return gav.Coordinate{}, errs.Wrap(errs.ErrCodeInvalidCoordinate, err, "invalid BOM %q", arg)
	}
	return bom, nil
}

func (c *CLI) latestRelease(ctx context.Context, cfg *Config, refresh bool) (string, error) {
	return c.mavenClient(cfg).LatestRelease(ctx, cfg.DefaultBOM.Group, cfg.DefaultBOM.Artifact, refresh)
}

// =============================================================================
// Resolver Factory
// =============================================================================

// mavenClient returns a repository client with the metadata cache, or an
// uncached one when the cache directory is unusable.
func (c *CLI) mavenClient(cfg *Config) *maven.Client {
	cache, err := integrations.NewCache(cfg.Metadata.TTL)
	if err != nil {
		c.Logger.Warn("Metadata cache unavailable", "err", err)
		cache = nil
	}
	return maven.NewClient(cfg.Repository.URL, cache)
}

func (c *CLI) newResolver(cfg *Config) (resolver.Resolver, error) {
	switch cfg.Resolver {
	case resolverRepository:
		return resolver.NewRepository(c.mavenClient(cfg), c.Logger), nil
	default:
		if _, err := exec.LookPath(cfg.Maven.Command); err != nil {
			return nil, errs.Wrap(errs.ErrCodeResolver, err,
				"%s not found; install Maven or use --resolver %s", cfg.Maven.Command, resolverRepository)
		}
		return resolver.NewMaven(cfg.Maven.Command, cfg.Maven.Settings, c.Logger), nil
	}
}
