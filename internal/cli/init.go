package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/curio/internal/paths"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend   string `yaml:"backend"`
	DataDir   string `yaml:"data_dir,omitempty"`
	ChunkSize int    `yaml:"chunk_size,omitempty"`
}

func newInitCmd() *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize curio configuration and data directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return fail(exitSysError, "resolve config dir: %v", err)
			}
			dataDir, err := paths.ResolveDataDir(flags.dataDir, "")
			if err != nil {
				return fail(exitSysError, "resolve data dir: %v", err)
			}

			if backend == "" {
				backend = defaultBackend
			}
			cfg := types.Config{Backend: backend, DataDir: dataDir}
			if err := cfg.Validate(); err != nil {
				return fail(exitUserError, "invalid backend %q: valid values are %s, %s",
					backend, types.BackendFile, types.BackendSQLite)
			}

			for _, dir := range []string{configDir, dataDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fail(exitSysError, "create %s: %v", dir, err)
				}
			}

			path := filepath.Join(configDir, "config.yaml")
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("config already exists at %s\n", path)
				return nil
			}
			data, err := yaml.Marshal(configFile{Backend: backend})
			if err != nil {
				return fail(exitSysError, "encode config: %v", err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fail(exitSysError, "write config: %v", err)
			}
			fmt.Printf("initialized curio: config at %s, data at %s\n", path, dataDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "init-backend", "", "backend to configure (file or sqlite)")
	return cmd
}
