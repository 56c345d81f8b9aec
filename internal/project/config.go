// Package project loads pass configuration from crest.toml.
package project

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// ResolveConfig tunes wrapper synthesis.
type ResolveConfig struct {
	// FastFollowerChecks synthesizes the static/dynamic fast-follower check
	// functions next to every promotion wrapper.
	FastFollowerChecks bool `toml:"fast_follower_checks"`
	// ReportPromotion notes every call site that promotes.
	ReportPromotion bool `toml:"report_promotion"`
	// CoercionLimit caps conversion steps per actual.
	CoercionLimit int `toml:"coercion_limit"`
}

// DriverConfig tunes the module driver.
type DriverConfig struct {
	// Jobs bounds the parallel call-site scan; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
	// MaxDiagnostics caps the diagnostic bag.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Config is the full crest.toml surface this tool reads.
type Config struct {
	Resolve ResolveConfig `toml:"resolve"`
	Driver  DriverConfig  `toml:"driver"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		Resolve: ResolveConfig{
			FastFollowerChecks: true,
			ReportPromotion:    false,
			CoercionLimit:      6,
		},
		Driver: DriverConfig{
			Jobs:           0,
			MaxDiagnostics: 100,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults; a
// malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Resolve.CoercionLimit <= 0 {
		return errors.New("resolve.coercion_limit must be positive")
	}
	if c.Driver.Jobs < 0 {
		return errors.New("driver.jobs must not be negative")
	}
	if c.Driver.MaxDiagnostics <= 0 {
		return errors.New("driver.max_diagnostics must be positive")
	}
	return nil
}
