package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Harshitk-cp/factstore/internal/service"
	"gopkg.in/yaml.v3"
)

// Policy configures the background maintenance workers.
type Policy struct {
	Consolidation ConsolidationPolicy `yaml:"consolidation"`
	Forgetting    ForgettingPolicy    `yaml:"forgetting"`
}

type ConsolidationPolicy struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`

	service.ConsolidationOptions `yaml:",inline"`
}

type ForgettingPolicy struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`

	service.ForgettingOptions `yaml:",inline"`
}

func DefaultPolicy() Policy {
	return Policy{
		Consolidation: ConsolidationPolicy{
			Enabled:              true,
			Interval:             6 * time.Hour,
			ConsolidationOptions: service.DefaultConsolidationOptions(),
		},
		Forgetting: ForgettingPolicy{
			Enabled:           true,
			Interval:          24 * time.Hour,
			ForgettingOptions: service.DefaultForgettingOptions(),
		},
	}
}

// LoadPolicy reads the policy at path over the defaults. An empty path
// returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if p.Consolidation.DryRun || p.Forgetting.DryRun {
		return p, fmt.Errorf("parse policy %s: dry_run is not allowed for background workers", path)
	}
	return p, nil
}
