package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scijava/javadoc-wrangler/pkg/cache"
	errs "github.com/scijava/javadoc-wrangler/pkg/errors"
	"github.com/scijava/javadoc-wrangler/pkg/gav"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the javadoc archive cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheForgetCommand())

	return cmd
}

// openStore opens the jar cache of the configured base directory. The store
// is only inspected or pruned, so it has no resolver.
func (c *CLI) openStore(cmd *cobra.Command) (*cache.Store, error) {
	cfg, err := loadConfig(cmd, c.configPath)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(cfg.Pipeline().JarDir, nil, c.Logger), nil
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			dir, err := filepath.Abs(store.Dir())
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached archives and known-missing archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			jars, missing, err := store.Stats()
			if err != nil {
				return err
			}
			printKeyValue("archives", fmt.Sprint(jars))
			printKeyValue("missing", fmt.Sprint(missing))
			printKeyValue("directory", store.Dir())
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached archives and missing markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			n, err := store.Clear()
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", store.Dir())
			return nil
		},
	}
}

func (c *CLI) cacheForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget [groupId:artifactId:version ...]",
		Short: "Forget that javadoc archives are missing so they are fetched again",
		Long: `Remove the markers recording that a component publishes no javadoc
archive. The next run asks the repository again. Without arguments, every
marker is removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				n, err := store.ForgetAll()
				if err != nil {
					return err
				}
				printSuccess("Forgot %d missing archives", n)
				return nil
			}

			for _, arg := range args {
				coord, err := gav.Parse(arg)
				if err != nil {
					return errs.Wrap(errs.ErrCodeInvalidCoordinate, err, "invalid component %q", arg)
				}
				if err := errs.ValidateCoordinate(coord); err != nil {
					return err
				}
				removed, err := store.Forget(coord)
				if err != nil {
					return err
				}
				if removed {
					printSuccess("Forgot %s", coord)
				} else {
					printInfo("%s was not marked missing", coord)
				}
			}
			return nil
		},
	}
}
