// Package config holds the validated run configuration for ttydump: which
// device to read, how fast, where to copy raw bytes and how to render them.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	serial "github.com/luhtfiimanal/go-linux-ttydump"
	"github.com/luhtfiimanal/go-linux-ttydump/format"
)

// Config is built once before the device is opened and never changes after
// validation.
type Config struct {
	Device   string         `yaml:"device"`
	BaudRate int            `yaml:"baud"`
	Output   string         `yaml:"output"`
	Format   format.Options `yaml:"format"`
}

// Defaults returns a Config with the default baud rate and column width in
// Raw mode. Device is left empty.
func Defaults() *Config {
	return &Config{
		BaudRate: serial.DefaultBaudRate,
		Format: format.Options{
			Mode:  format.Raw,
			Width: format.DefaultWidth,
		},
	}
}

// Load reads a YAML config file over Defaults. The result is not validated:
// command-line flags are expected to be applied on top first.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills in defaults that depend on other fields. When no display
// option at all is selected, colour output is switched on. Normalize is
// idempotent.
func Normalize(cfg *Config) {
	o := cfg.Format
	if o.Mode == format.Raw && !o.SingleLine && !o.Color && !o.Decimal && !o.ZeroPad && !o.Stamped() {
		cfg.Format.Color = true
	}
}

// Warnings lists option combinations that are accepted but have no effect.
// Call it before Normalize, which may switch colour on by itself.
func Warnings(cfg *Config) []string {
	var warnings []string
	if cfg.Format.Color && cfg.Format.Mode == format.Raw {
		warnings = append(warnings, "color output requires MIDI or ASCII mode")
	}
	if cfg.Format.ZeroPad && cfg.Format.Mode == format.ASCII {
		warnings = append(warnings, "zero-prefix does not apply to ASCII mode")
	}
	return warnings
}
