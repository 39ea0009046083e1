// Package paths locates the curio configuration and data directories.
// Explicit flags beat config values, config values beat environment
// overrides, and the platform convention is the fallback.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the directory created next to the working
// directory when nothing else names a data location.
const DefaultDataDirName = ".curio-db"

// Directory override environment variables.
const (
	EnvConfigDir = "CURIO_CONFIG_DIR"
	EnvDataDir   = "CURIO_DATA_DIR"
)

// platformDir indirects the OS lookups so tests can substitute them.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns where configuration lives by platform
// convention: $XDG_CONFIG_HOME/curio (or ~/.config/curio) on Linux,
// ~/Library/Application Support/curio on macOS, %APPDATA%/curio on
// Windows.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "curio"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "curio"), nil
	default:
		// os.UserConfigDir covers the macOS and Windows conventions.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "curio"), nil
	}
}

// DefaultDataDir returns where catalog data lives by platform
// convention: $XDG_DATA_HOME/curio (or ~/.local/share/curio) on Linux;
// macOS and Windows share the config location.
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "curio"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "curio"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "curio"), nil
	}
}

// ResolveConfigDir picks the configuration directory: an explicit flag
// wins, then CURIO_CONFIG_DIR, then the platform default. Relative
// inputs come back absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory: an explicit flag wins, then
// the config file value, then CURIO_DATA_DIR, then .curio-db under the
// working directory. Relative inputs come back absolute.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
