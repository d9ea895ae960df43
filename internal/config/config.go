// Package config loads the tuning file for the detector, the cache tiers and
// the background jobs.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/serroba/likes-go/internal/cache"
	"github.com/serroba/likes-go/internal/hotkey"
	"github.com/serroba/likes-go/internal/writebehind"
	"gopkg.in/yaml.v3"
)

// Fading controls how often the detector's counters are halved.
type Fading struct {
	Interval time.Duration `yaml:"interval"`
}

// Tuning is the full set of tunable parameters.
type Tuning struct {
	HotKey       hotkey.Config                  `yaml:"hotkey"`
	Cache        cache.Config                   `yaml:"cache"`
	Sync         writebehind.Config             `yaml:"sync"`
	Compensation writebehind.CompensationConfig `yaml:"compensation"`
	Fading       Fading                         `yaml:"fading"`
}

// Defaults returns the production tuning.
func Defaults() Tuning {
	return Tuning{
		HotKey:       hotkey.DefaultConfig(),
		Cache:        cache.DefaultConfig(),
		Sync:         writebehind.DefaultConfig(),
		Compensation: writebehind.DefaultCompensationConfig(),
		Fading:       Fading{Interval: 20 * time.Minute},
	}
}

// Load reads a tuning file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Tuning, error) {
	tuning := Defaults()

	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tuning, fmt.Errorf("read tuning file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Tuning, error) {
	tuning := Defaults()

	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return tuning, fmt.Errorf("parse tuning: %w", err)
	}

	return tuning, tuning.Validate()
}

// Validate checks the cross-field constraints the components rely on.
func (t Tuning) Validate() error {
	var errs []error

	if t.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache.size must be positive"))
	}

	if t.Sync.Granularity <= 0 || t.Sync.Interval <= 0 {
		errs = append(errs, errors.New("sync.granularity and sync.interval must be positive"))
	}

	if t.Sync.Lag < t.Sync.MinLag() {
		errs = append(errs, errors.New("sync.lag must be at least twice sync.granularity"))
	}

	if t.Compensation.Interval <= 0 || t.Fading.Interval <= 0 {
		errs = append(errs, errors.New("compensation.interval and fading.interval must be positive"))
	}

	return errors.Join(errs...)
}
