package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration file, normally
// ~/.presensictl/config.yaml.
type Config struct {
	APIBaseURL string        `yaml:"api_base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	StateDir   string        `yaml:"state_dir"`
	CacheDir   string        `yaml:"cache_dir"`

	// MapAPIKey is passed through to map-rendering surfaces; the
	// session core never reads it.
	MapAPIKey string `yaml:"map_api_key"`
}

const defaultTimeout = 10 * time.Second

// ConfigPath resolves the config file location. An explicit path wins;
// otherwise ~/.presensictl/config.yaml.
func ConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".presensictl", "config.yaml")
}

// LoadConfig reads the config file, applying defaults. A missing file is
// fine; flags and environment can supply everything.
func LoadConfig(explicit string) (*Config, error) {
	cfg := &Config{Timeout: defaultTimeout}

	path := ConfigPath(explicit)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return cfg, nil
}
