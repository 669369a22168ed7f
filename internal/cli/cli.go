// Package cli implements the levelforge command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/levelforge/pkg/buildinfo"
	"github.com/matzehuels/levelforge/pkg/cache"
	"github.com/matzehuels/levelforge/pkg/config"
	"github.com/matzehuels/levelforge/pkg/pipeline"
	"github.com/matzehuels/levelforge/pkg/report"
)

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

	cfg config.Config

	// Persistent flag targets. The config they override is loaded in the
	// root command's PersistentPreRunE, before any subcommand runs.
	cfgPath    string
	levelsRoot string
	gameDir    string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "levelforge",
		Short:        "Levelforge maintains per-level asset graphs for moddable game levels",
		Long: `Levelforge scans game levels into asset graphs, reclaims disk space by
deleting unreferenced managed assets, and copies forest brushes with their
full requirement chains between levels.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			if c.levelsRoot != "" {
				cfg.LevelsRoot = c.levelsRoot
			}
			if c.gameDir != "" {
				cfg.GameDir = c.gameDir
			}
			c.cfg = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "config file (default ~/.config/levelforge/config.toml)")
	root.PersistentFlags().StringVar(&c.levelsRoot, "levels-root", "", "levels directory (overrides config)")
	root.PersistentFlags().StringVar(&c.gameDir, "game-dir", "", "game content directory (overrides config)")

	// Register all subcommands
	root.AddCommand(c.levelsCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.shrinkCommand())
	root.AddCommand(c.copyCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner wired to the configured cache and
// report store. Ambient infrastructure never blocks a command: a backend
// that cannot be reached is logged and replaced with a no-op.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	cch, err := c.newCache(ctx, noCache)
	if err != nil {
		c.Logger.Warn("summary cache disabled", "error", err)
		cch = cache.NewNullCache()
	}
	store, err := c.newReportStore(ctx)
	if err != nil {
		c.Logger.Warn("run reports disabled", "error", err)
		store = nil
	}
	return pipeline.NewRunner(cch, nil, store, c.Logger)
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, c.cfg.Cache.RedisAddr)
	default:
		dir, err := c.cacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	}
}

func (c *CLI) newReportStore(ctx context.Context) (report.Store, error) {
	switch c.cfg.Reports.Backend {
	case "mongo":
		return report.NewMongoStore(ctx, c.cfg.Reports.MongoURI, c.cfg.Reports.MongoDatabase)
	default:
		dir := c.cfg.Reports.Dir
		if dir == "" {
			d, err := config.DefaultReportsDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return report.NewFileStore(dir)
	}
}

// cacheDir resolves the file cache directory: the configured one, or the
// XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return config.DefaultCacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// scanOptions builds the pipeline options shared by every level command.
func (c *CLI) scanOptions(levelName string, refresh bool) pipeline.Options {
	return pipeline.Options{
		LevelsRoot: c.cfg.LevelsRoot,
		Level:      levelName,
		GameDir:    c.cfg.GameDir,
		ImageExts:  c.cfg.ImageExtensions,
		Refresh:    refresh,
		Logger:     c.Logger,
	}
}
