package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/drivebylabs/stratgrid/pkg/grid"
)

// Config holds the settings read from the TOML config file. Flags override
// config values; config values override these defaults.
type Config struct {
	// Unit is the default cell-size unit for grid and tag commands.
	Unit string `toml:"unit"`
	// MaxCells caps rows*columns before a grid is materialized. <= 0 disables.
	MaxCells int `toml:"max_cells"`

	Serve ServeConfig `toml:"serve"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

func defaultConfig() *Config {
	return &Config{
		Unit:     "kilometers",
		MaxCells: grid.DefaultMaxCells,
		Serve:    ServeConfig{Addr: ":8080"},
	}
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing file at the default location is not an error; an
// explicitly named file must exist.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return toml.NewEncoder(os.Stdout).Encode(c.config)
		},
	}
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.configPath != "" {
				fmt.Println(c.configPath)
				return nil
			}
			dir, err := configDir()
			if err != nil {
				return fmt.Errorf("get config dir: %w", err)
			}
			fmt.Println(filepath.Join(dir, "config.toml"))
			return nil
		},
	}
}
