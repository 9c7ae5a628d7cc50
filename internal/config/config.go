// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Paths are resolved relative to
// the matchcurve home directory unless absolute.
type Config struct {
	DataDir      string `yaml:"data_dir"`
	DatabasePath string `yaml:"database_path"`
	TracksDir    string `yaml:"tracks_dir"`
	WatchTracks  bool   `yaml:"watch_tracks"`
	ListenAddr   string `yaml:"listen_addr"`
	LogLevel     string `yaml:"log_level"`
}

// Load reads ~/.matchcurve/config.yaml, writing defaults on first run,
// and ensures the directories it references exist.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(home, ".matchcurve"))
}

// LoadFrom loads the config rooted at the given directory.
func LoadFrom(dataDir string) (*Config, error) {
	cfg := defaults(dataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, "config.yaml")
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := cfg.write(path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.TracksDir, 0755); err != nil {
		return nil, fmt.Errorf("create tracks dir: %w", err)
	}
	return cfg, nil
}

func defaults(dataDir string) *Config {
	return &Config{
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "session.db"),
		TracksDir:    filepath.Join(dataDir, "tracks"),
		WatchTracks:  true,
		ListenAddr:   "127.0.0.1:0",
		LogLevel:     "info",
	}
}

func (c *Config) write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
