package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load returns defaults merged with the YAML file at path. An empty path
// searches the standard locations; a missing file there is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./uvmask.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "UVMaskMaker")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "UVMaskMaker")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "uv-mask-maker")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "uv-mask-maker")
	}
}

// DefaultPrefsPath is the preference database next to the config file.
func DefaultPrefsPath() string {
	return filepath.Join(ConfigDir(), "prefs.db")
}

// loadFromFile merges a YAML file over the existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveTo writes the config to path as YAML.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
