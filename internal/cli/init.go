package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/basket/internal/paths"
	"github.com/mesh-intelligence/basket/pkg/types"
)

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize basket storage",
		Long:  "Create the configuration directory and config.yaml, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return system("resolve config dir: %w", err)
			}
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return system("create config directory: %w", err)
			}
			if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), backend, a.flags.dataDir); err != nil {
				return system("write config: %w", err)
			}

			c, cfg, err := a.openCart(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Close(cmd.Context()); err != nil {
				return system("finalize storage: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Basket initialized successfully (%s backend)\n", cfg.Backend)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", defaultBackend, "backend written to a new config.yaml")
	return cmd
}

// writeConfigIfMissing creates config.yaml with the given backend and data
// directory if the file does not exist. An existing file is left untouched.
func writeConfigIfMissing(path, backend, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := configFile{Backend: backend, DataDir: dataDir}
	if cfg.Backend == "" {
		cfg.Backend = types.BackendSQLite
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
