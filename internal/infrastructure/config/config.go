// Package config loads and saves the workspace configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configFile = "ai.yaml"

// Config stores provider defaults and pipeline tuning outside the
// domain layer. All fields are optional; flags and environment
// variables override them.
type Config struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// PlantUMLJar is the path to the PlantUML jar used for rendering.
	PlantUMLJar string `yaml:"plantuml_jar,omitempty"`

	MaxIterations int `yaml:"max_iterations,omitempty"`
	TargetErrors  int `yaml:"target_errors,omitempty"`
	TargetScore   int `yaml:"target_score,omitempty"`
}

func configPath(root string) (string, error) {
	path := filepath.Clean(filepath.Join(root, configFile))
	if !strings.HasPrefix(path, filepath.Clean(root)) {
		return "", fmt.Errorf("invalid config path: %s", path)
	}
	return path, nil
}

// Load reads the workspace config. A missing file is not an error; it
// returns (nil, nil) so callers fall back to defaults.
func Load(root string) (*Config, error) {
	path, err := configPath(root)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- path is anchored to the workspace root
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save writes the workspace config.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	path, err := configPath(root)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
