// Package paths resolves where the CLI reads its configuration and where
// connection database files live.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigDirName is the project-local configuration directory,
// relative to the working directory.
const DefaultConfigDirName = ".wlsqlite"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "WLSQLITE_CONFIG_DIR"
	EnvDataDir   = "WLSQLITE_DATA_DIR"
)

// MemoryFilename is the SQLite name for a private in-memory database. It
// is never resolved against a directory.
const MemoryFilename = ":memory:"

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// UserConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/wlsqlite (fallback ~/.config/wlsqlite)
// macOS:   ~/Library/Application Support/wlsqlite
// Windows: %APPDATA%/wlsqlite
func UserConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "wlsqlite"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "wlsqlite"), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wlsqlite"), nil
}

// ResolveConfigDir returns the configuration directory: flag, then
// WLSQLITE_CONFIG_DIR, then ./.wlsqlite when it exists, then the per-user
// directory.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, DefaultConfigDirName)
	if fi, err := os.Stat(local); err == nil && fi.IsDir() {
		return local, nil
	}
	return UserConfigDir()
}

// ResolveDataDir returns the directory relative database filenames
// resolve against: flag, then the config file value, then
// WLSQLITE_DATA_DIR, then the working directory.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return platformDir.getwd()
}

// DatabaseFile places filename in dataDir. Absolute filenames, URIs and
// the in-memory name are returned unchanged.
func DatabaseFile(dataDir, filename string) string {
	switch {
	case filename == "", filename == MemoryFilename:
		return filename
	case filepath.IsAbs(filename):
		return filename
	case len(filename) > 5 && filename[:5] == "file:":
		return filename
	}
	return filepath.Join(dataDir, filename)
}
