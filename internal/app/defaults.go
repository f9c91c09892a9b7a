package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment overrides for the default locations.
const (
	EnvConfigPath = "PLAYMAP_CONFIG_PATH"
	EnvHome       = "PLAYMAP_HOME"
)

// GetDefaults resolves where playmap keeps its config file and data.
//
//	config_path  $PLAYMAP_CONFIG_PATH or ~/.config/playmap.toml
//	base_dir     $PLAYMAP_HOME or ~/.local/share/playmap
//	log_dir      <base_dir>/log
func GetDefaults() (map[string]string, error) {
	configPath, err := fromEnvOrHome(EnvConfigPath, ".config", "playmap.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := fromEnvOrHome(EnvHome, ".local", "share", "playmap")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns the value of env, or elem joined under the user's
// home directory when env is unset or empty.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for %s: %w", env, err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
