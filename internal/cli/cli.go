// Package cli implements the stratgrid command-line interface.
//
// This package provides commands for building stratification grids from a
// bounding box, labeling custom stratifications, tagging vehicle mobility
// traces, previewing grids as SVG, and serving the grid builder over HTTP.
// The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - grid: Build a square grid over a bounding box and emit GeoJSON
//   - label: Assign stratum ids to a user-provided stratification
//   - tag: Tag a mobility trace CSV with stratum and temporal ids
//   - render: Draw a feature collection as an SVG preview
//   - explore: Interactively pick a cell size for a bounding box
//   - serve: Expose the grid builder over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "stratgrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string // explicit --config path, empty for the default
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stratgrid partitions geographic regions into stratification grids",
		Long:         `Stratgrid divides a rectangular geographic region into a grid of equal-sized square cells, each labeled with a sequential stratum id, for spatial stratification of vehicle sensing coverage.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+filepath.Join("~", ".config", appName, "config.toml")+")")

	// Register all subcommands
	root.AddCommand(c.gridCommand())
	root.AddCommand(c.labelCommand())
	root.AddCommand(c.tagCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// configDir returns the config directory using XDG standard
// (~/.config/stratgrid/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// openInput returns a ReadCloser for the given path, with "-" meaning stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
