// Package config loads the reconciliation policy file: normalization
// aliases, known spelling-variant pairs, the source trust order, the
// classifier thresholds, and the matcher window. Everything the core treats
// as caller-supplied configuration lives here so operators can tune policy
// without a rebuild.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/moviegraph/reconcile/pkg/classify"
	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/match"
)

// Config is the full reconciliation policy.
type Config struct {
	// Aliases maps known alternate titles to their canonical form. Keys
	// and values are normalized on load; chains resolve to their terminal
	// value.
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Variants lists title pairs known to be alternate spellings of the
	// same entity.
	Variants []match.VariantPair `json:"variants,omitempty" yaml:"variants,omitempty"`

	// Trust orders sources from most to least trusted. Empty means the
	// built-in default.
	Trust []entity.Source `json:"trust,omitempty" yaml:"trust,omitempty"`

	// Thresholds overrides the classifier cutoffs. A zero value means the
	// built-in defaults.
	Thresholds classify.Thresholds `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	// Window is the temporal pre-filter width, clamped by the matcher.
	Window int `json:"window,omitempty" yaml:"window,omitempty"`
}

// Default returns the policy used when no config file is given.
func Default() *Config {
	return &Config{
		Thresholds: classify.DefaultThresholds(),
		Window:     match.DefaultWindow,
	}
}

// Load reads and validates a policy file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates policy YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapParse("yaml", "config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the policy for values the core would silently misuse.
func (c *Config) Validate() error {
	if c.Window < 0 {
		return errors.NewValidationError("window", c.Window, "window must not be negative")
	}
	for _, p := range c.Variants {
		if p.A == "" || p.B == "" {
			return errors.NewValidationError("variants", p, "variant pairs need both titles")
		}
	}
	seen := make(map[entity.Source]struct{}, len(c.Trust))
	for _, s := range c.Trust {
		if s == "" {
			return errors.NewValidationError("trust", s, "trust entries must not be empty")
		}
		if _, dup := seen[s]; dup {
			return errors.NewValidationError("trust", s, "trust entries must be unique")
		}
		seen[s] = struct{}{}
	}
	return checkThresholds(c.Thresholds)
}

func checkThresholds(t classify.Thresholds) error {
	for name, v := range map[string]int{
		"identical":       t.Identical,
		"same_entity":     t.SameEntity,
		"shared_id_floor": t.SharedIDFloor,
		"variant":         t.Variant,
		"distinct":        t.Distinct,
		"auto_apply":      t.AutoApply,
	} {
		if v < 0 || v > 100 {
			return errors.NewValidationError("thresholds."+name, v, "threshold must be in [0,100]")
		}
	}
	if t.TemporalGap < 0 {
		return errors.NewValidationError("thresholds.temporal_gap", t.TemporalGap, "gap must not be negative")
	}
	return nil
}
