package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Health.ProbeInterval == 0 {
		cfg.Health.ProbeInterval = 15 * time.Second
	}
	if cfg.Health.ProbeTimeout == 0 {
		cfg.Health.ProbeTimeout = 5 * time.Second
	}
	if cfg.Health.FailureThreshold == 0 {
		cfg.Health.FailureThreshold = 5
	}
	if cfg.Health.Cooldown == 0 {
		cfg.Health.Cooldown = 30 * time.Second
	}
	if cfg.Health.LatencyWindow == 0 {
		cfg.Health.LatencyWindow = 100
	}
	if cfg.Emergency.MaxEntries == 0 {
		cfg.Emergency.MaxEntries = 1024
	}
	if cfg.Emergency.SweepInterval == 0 {
		cfg.Emergency.SweepInterval = time.Minute
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	ids := make(map[string]bool, len(cfg.Services))
	for _, sc := range cfg.Services {
		if sc.ID == "" {
			return fmt.Errorf("service entries need an id")
		}
		if ids[sc.ID] {
			return fmt.Errorf("duplicate service id %q", sc.ID)
		}
		ids[sc.ID] = true
	}

	for _, oc := range cfg.Operations {
		if oc.Category == "" {
			return fmt.Errorf("operation entries need a category")
		}
		for _, id := range append(append(append([]string{}, oc.Primary...), oc.Secondary...), oc.Tertiary...) {
			if !ids[id] {
				return fmt.Errorf("operation %s references unknown service %q", oc.Category, id)
			}
		}
	}
	return nil
}
