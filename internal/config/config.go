// Package config holds probe timeout settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Timeouts bounds every network operation a check performs. Heavy covers
// object-storage and search calls, Cleanup the best-effort teardown of
// throwaway resources.
type Timeouts struct {
	TCP     Duration `yaml:"tcp"`
	Driver  Duration `yaml:"driver"`
	Heavy   Duration `yaml:"heavy"`
	Cleanup Duration `yaml:"cleanup"`
}

// Config is the root settings structure.
type Config struct {
	Timeouts Timeouts `yaml:"timeouts"`
}

// Default returns the built-in timeout settings.
func Default() *Config {
	return &Config{
		Timeouts: Timeouts{
			TCP:     Duration{5 * time.Second},
			Driver:  Duration{10 * time.Second},
			Heavy:   Duration{15 * time.Second},
			Cleanup: Duration{5 * time.Second},
		},
	}
}

// Load reads settings from path, filling unset fields with defaults. A
// missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	def := Default()
	if cfg.Timeouts.TCP.Duration <= 0 {
		cfg.Timeouts.TCP = def.Timeouts.TCP
	}
	if cfg.Timeouts.Driver.Duration <= 0 {
		cfg.Timeouts.Driver = def.Timeouts.Driver
	}
	if cfg.Timeouts.Heavy.Duration <= 0 {
		cfg.Timeouts.Heavy = def.Timeouts.Heavy
	}
	if cfg.Timeouts.Cleanup.Duration <= 0 {
		cfg.Timeouts.Cleanup = def.Timeouts.Cleanup
	}
	return cfg, nil
}

// Override replaces every timeout with d, used by the --timeout flag to set
// the per-probe budget uniformly.
func (c *Config) Override(d time.Duration) {
	if d <= 0 {
		return
	}
	c.Timeouts.TCP = Duration{d}
	c.Timeouts.Driver = Duration{d}
	c.Timeouts.Heavy = Duration{d}
	c.Timeouts.Cleanup = Duration{d}
}
