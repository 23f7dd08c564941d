package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadYAML overlays the keys present in the file onto c. Keys that are
// absent keep their current value. Durations are written as "10m", "24h".
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}
