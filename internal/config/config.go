package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogFile      string `yaml:"log_file,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
	SeedFile     string `yaml:"seed_file,omitempty"`
	AttachDir    string `yaml:"attach_dir,omitempty"`
	PreviewWidth int    `yaml:"preview_width,omitempty"`
}

// Dir returns the application directory (~/.e63).
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".e63")
}

// DefaultPath returns the path of the config file (~/.e63/config.yml).
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yml")
}

func Default() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		LogLevel:     "info",
		AttachDir:    homeDir,
		PreviewWidth: 24,
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	cfg.LogFile = expandHome(cfg.LogFile)
	cfg.SeedFile = expandHome(cfg.SeedFile)
	cfg.AttachDir = expandHome(cfg.AttachDir)
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.PreviewWidth < 0 || c.PreviewWidth > 200 {
		return fmt.Errorf("preview_width must be between 0 and 200, got %d", c.PreviewWidth)
	}
	return nil
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
