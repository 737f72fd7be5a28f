// Package cli implements the nbkernels command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nbkernels/nbkernels/pkg/buildinfo"
	"github.com/nbkernels/nbkernels/pkg/config"
	"github.com/nbkernels/nbkernels/pkg/manager"
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

	// ConfigPath overrides the default config file location (--config).
	ConfigPath string
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

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "nbkernels",
		Short:        "nbkernels tracks interpreter environments and synthesizes notebook kernels",
		Long:         `nbkernels discovers Python interpreter environments (uv, venv, conda) across a workspace, tracks them in durable registries, and synthesizes a unified catalog of notebook kernels pointing at each environment's own interpreter.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.config/nbkernels/config.toml)")

	// Register all subcommands
	root.AddCommand(c.registerCommand())
	root.AddCommand(c.unregisterCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.kernelsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// loadConfig reads the config file, falling back to the XDG default path.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// newEngine builds the engine for CLI use.
func (c *CLI) newEngine() (*manager.Engine, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return manager.New(cfg, c.Logger)
}
