package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/curio/internal/file"
	"github.com/mesh-intelligence/curio/internal/migrate"
	"github.com/mesh-intelligence/curio/internal/paths"
	"github.com/mesh-intelligence/curio/internal/sqlite"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// Config file constants.
const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeyChunkSize = "chunk_size"

	defaultBackend = types.BackendFile
)

// App holds the single adapter handle for one CLI invocation. It is
// constructed once at startup and passed by reference to command
// bodies, replacing any hidden global adapter state.
type App struct {
	Adapter types.Adapter
	Logger  *slog.Logger
}

// openApp resolves configuration, constructs the configured backend,
// runs legacy migration, and returns the ready App. The caller must
// defer app.Close().
func openApp() (*App, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	backend := flags.backend
	if backend == "" {
		backend = v.GetString(cfgKeyBackend)
	}
	cfg := types.Config{
		Backend:   backend,
		DataDir:   dataDir,
		ChunkSize: v.GetInt(cfgKeyChunkSize),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var adapter types.Adapter
	switch cfg.Backend {
	case types.BackendFile:
		adapter = file.New(cfg, file.WithLogger(logger))
	case types.BackendSQLite:
		adapter = sqlite.New(cfg, sqlite.WithLogger(logger))
	}
	if err := adapter.Init(); err != nil {
		return nil, fmt.Errorf("init %s backend: %w", cfg.Backend, err)
	}

	// The file backend splits its own legacy monolith during Init; the
	// indexed backend migrates it through the engine.
	if cfg.Backend == types.BackendSQLite {
		engine := migrate.New([]migrate.Source{
			&migrate.DocumentFile{Path: filepath.Join(dataDir, "catalog.json")},
		}, migrate.WithLogger(logger))
		if err := engine.Run(adapter); err != nil {
			adapter.Close()
			return nil, err
		}
	}

	return &App{Adapter: adapter, Logger: logger}, nil
}

// Close releases the adapter.
func (a *App) Close() error {
	if a.Adapter != nil {
		return a.Adapter.Close()
	}
	return nil
}

// loadConfig reads config.yaml from the config directory using Viper.
// A missing config file is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}
