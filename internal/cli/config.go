package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scijava/javadoc-wrangler/pkg/aggregate"
	errs "github.com/scijava/javadoc-wrangler/pkg/errors"
	"github.com/scijava/javadoc-wrangler/pkg/integrations/maven"
	"github.com/scijava/javadoc-wrangler/pkg/javadoc"
	"github.com/scijava/javadoc-wrangler/pkg/pipeline"
	"github.com/scijava/javadoc-wrangler/pkg/resolver"
)

const (
	// configName is the config file looked up in the working directory.
	configName = "wrangler"

	// envPrefix prefixes environment overrides, e.g. WRANGLER_JOBS.
	envPrefix = "WRANGLER"

	resolverMaven      = "mvn"
	resolverRepository = "repository"

	defaultMetadataTTL = time.Hour
)

// Config is the merged configuration: defaults, then wrangler.toml, then
// WRANGLER_* environment variables, then flags.
type Config struct {
	BaseDir      string           `mapstructure:"base_dir"`
	Jobs         int              `mapstructure:"jobs"`
	Resolver     string           `mapstructure:"resolver"`
	Maven        MavenConfig      `mapstructure:"maven"`
	Repository   RepositoryConfig `mapstructure:"repository"`
	Metadata     MetadataConfig   `mapstructure:"metadata"`
	DefaultBOM   BOMConfig        `mapstructure:"default_bom"`
	LegacyHosts  []string         `mapstructure:"legacy_hosts"`
	ToplevelDocs []string         `mapstructure:"toplevel_docs"`
}

// MavenConfig configures the mvn resolver.
type MavenConfig struct {
	Command  string `mapstructure:"command"`
	Settings string `mapstructure:"settings"`
}

// RepositoryConfig locates the remote Maven repository.
type RepositoryConfig struct {
	URL string `mapstructure:"url"`
}

// MetadataConfig controls the repository metadata cache.
type MetadataConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// BOMConfig names the BOM whose versions bare arguments refer to.
type BOMConfig struct {
	Group    string `mapstructure:"group"`
	Artifact string `mapstructure:"artifact"`
}

// flagKeys binds config keys to the flags that override them.
var flagKeys = map[string]string{
	"base_dir":       "base-dir",
	"jobs":           "jobs",
	"resolver":       "resolver",
	"maven.command":  "mvn",
	"maven.settings": "settings",
	"repository.url": "repository",
	"metadata.ttl":   "metadata-ttl",
	"legacy_hosts":   "legacy-host",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", pipeline.DefaultBaseDir)
	v.SetDefault("jobs", pipeline.DefaultWorkers)
	v.SetDefault("resolver", resolverMaven)
	v.SetDefault("maven.command", resolver.DefaultMavenCommand)
	v.SetDefault("maven.settings", "")
	v.SetDefault("repository.url", maven.CentralURL)
	v.SetDefault("metadata.ttl", defaultMetadataTTL)
	v.SetDefault("default_bom.group", "org.scijava")
	v.SetDefault("default_bom.artifact", "pom-scijava")
	v.SetDefault("legacy_hosts", javadoc.DefaultLegacyHosts)
	v.SetDefault("toplevel_docs", aggregate.DefaultToplevelDocs)
}

// loadConfig merges the configuration layers for cmd. path names an
// explicit config file; when empty, wrangler.toml in the working directory
// is read if present. Other extensions viper supports are accepted too.
func loadConfig(cmd *cobra.Command, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "cannot read config file %s", path)
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "cannot read config file")
			}
		}
	}

	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "base_dir cannot be empty")
	}
	if c.Jobs < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "jobs must be at least 1, got %d", c.Jobs)
	}
	switch c.Resolver {
	case resolverMaven, resolverRepository:
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown resolver %q (want %s or %s)", c.Resolver, resolverMaven, resolverRepository)
	}
	if err := errs.ValidateURL(c.Repository.URL); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid repository URL")
	}
	if c.DefaultBOM.Group == "" || c.DefaultBOM.Artifact == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "default_bom needs a group and an artifact")
	}
	return nil
}

// Pipeline returns the pipeline configuration.
func (c *Config) Pipeline() pipeline.Config {
	pc := pipeline.DefaultConfig(c.BaseDir)
	pc.Workers = c.Jobs
	if len(c.LegacyHosts) > 0 {
		pc.LegacyHosts = c.LegacyHosts
	}
	if len(c.ToplevelDocs) > 0 {
		pc.ToplevelDocs = c.ToplevelDocs
	}
	return pc
}

func (c *Config) String() string {
	return fmt.Sprintf("base_dir=%s jobs=%d resolver=%s", c.BaseDir, c.Jobs, c.Resolver)
}
