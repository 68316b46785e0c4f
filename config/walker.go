// Package config holds initialization parameters for path walkers.
//
// Configuration follows the Default/Merge pattern: start from
// DefaultWalkerConfig, merge a loaded or hand-built config over it, then
// Validate. Load reads JSON or YAML files and performs all three steps.
//
// Example YAML:
//
//	name: order-tracker
//	observer: slog
//	max_pending_changes: 256
//	max_path_length: 16
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxPendingChanges = 1024
	defaultMaxPathLength     = 32
)

var validate = validator.New()

// WalkerConfig defines configuration for a path walker.
type WalkerConfig struct {
	// Name identifies the walker in observability events.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Observer names a registered observer ("noop", "slog", ...).
	Observer string `json:"observer" yaml:"observer" validate:"required"`

	// MaxPendingChanges bounds the queue of changes raised while a cascade
	// is being applied. Changes beyond the bound are dropped.
	MaxPendingChanges int `json:"max_pending_changes" yaml:"max_pending_changes" validate:"gte=1"`

	// MaxPathLength rejects paths with more segments than this.
	MaxPathLength int `json:"max_path_length" yaml:"max_path_length" validate:"gte=1"`
}

// DefaultWalkerConfig returns sensible defaults.
//
// Default values:
//   - Name: "walker"
//   - Observer: "slog"
//   - MaxPendingChanges: 1024
//   - MaxPathLength: 32
func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		Name:              "walker",
		Observer:          "slog",
		MaxPendingChanges: defaultMaxPendingChanges,
		MaxPathLength:     defaultMaxPathLength,
	}
}

// Merge applies non-zero values from source into c.
func (c *WalkerConfig) Merge(source *WalkerConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.MaxPendingChanges > 0 {
		c.MaxPendingChanges = source.MaxPendingChanges
	}

	if source.MaxPathLength > 0 {
		c.MaxPathLength = source.MaxPathLength
	}
}

// Validate checks field constraints.
func (c *WalkerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid walker config: %w", err)
	}
	return nil
}

// Load reads a JSON or YAML config file (chosen by extension), merges it
// with defaults and validates the result.
func Load(filename string) (*WalkerConfig, error) {
	cfg := DefaultWalkerConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded WalkerConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
