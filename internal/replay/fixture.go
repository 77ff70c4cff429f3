package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AdaWorldAPI/ladybug-learning/internal/gate"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a gate replay fixture.
type Fixture struct {
	Description string             `json:"description"`
	GateConfig  *FixtureGateConfig `json:"gate_config,omitempty"`
	Cases       []FixtureCase      `json:"cases"`
}

// FixtureGateConfig mirrors gate.GateConfig with JSON tags. Omitted fields
// keep their defaults.
type FixtureGateConfig struct {
	MaxDispersion *float64 `json:"max_dispersion,omitempty"`
	FlowFraction  *float64 `json:"flow_fraction,omitempty"`
	BlockFraction *float64 `json:"block_fraction,omitempty"`
	ClarifyPrompt *string  `json:"clarify_prompt,omitempty"`
}

// FixtureCase is one recorded gate input and its expected outcome.
type FixtureCase struct {
	Name           string    `json:"name"`
	Scores         []float64 `json:"scores"`
	Clarification  bool      `json:"clarification"`
	ExpectedState  string    `json:"expected_state"`
	ExpectedAction string    `json:"expected_action"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("fixture %s has no cases", path)
	}
	return &f, nil
}

// ToGateConfig overlays the fixture's thresholds on the defaults.
func (fc *FixtureGateConfig) ToGateConfig() gate.GateConfig {
	cfg := gate.DefaultGateConfig()
	if fc == nil {
		return cfg
	}
	if fc.MaxDispersion != nil {
		cfg.MaxDispersion = *fc.MaxDispersion
	}
	if fc.FlowFraction != nil {
		cfg.FlowFraction = *fc.FlowFraction
	}
	if fc.BlockFraction != nil {
		cfg.BlockFraction = *fc.BlockFraction
	}
	if fc.ClarifyPrompt != nil {
		cfg.ClarifyPrompt = *fc.ClarifyPrompt
	}
	return cfg
}

// #endregion fixture-loader
