package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses an organizer configuration from the given YAML file
// path, then applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault searches standard locations and loads the first config found.
// Search order: ./organizer.yaml, ~/.organizer/config.yaml
func LoadDefault() (*Config, error) {
	candidates := []string{"organizer.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".organizer", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no organizer config found (searched: %v)", candidates)
}

func applyDefaults(cfg *Config) {
	o := &cfg.Organizer
	if o.Bootstrap.MetadataSyncFreshFor == "" {
		o.Bootstrap.MetadataSyncFreshFor = "15m"
	}
	if o.ActionsDir == "" {
		o.ActionsDir = "scripts"
	}
}
