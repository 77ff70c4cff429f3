package gate

import (
	"fmt"
	"math"
	"strings"
)

// #region state
// State is the gate outcome derived from score dispersion.
type State string

const (
	Flow  State = "flow"
	Hold  State = "hold"
	Block State = "block"
)

// String renders the state in upper case, as shown in session output.
func (s State) String() string {
	return strings.ToUpper(string(s))
}

// #endregion state

// #region action
// ActionKind enumerates what the caller should do next.
type ActionKind string

const (
	ActionCollapse ActionKind = "collapse" // commit to WinnerIndex
	ActionHold     ActionKind = "hold"     // defer; re-evaluate later under HoldKey
	ActionClarify  ActionKind = "clarify"  // ask Question before deciding
	ActionBlock    ActionKind = "block"    // nothing to decide between
)

// Action is the chosen next step. Only the field matching Kind is set.
type Action struct {
	Kind        ActionKind
	WinnerIndex int
	HoldKey     string
	Question    string
	Reason      string
}

// #endregion action

// #region winner
// Winner identifies the best-scoring candidate.
type Winner struct {
	Index int
	Score float64
}

// #endregion winner

// #region gate-config
// GateConfig holds the dispersion thresholds, expressed as fractions of
// MaxDispersion.
type GateConfig struct {
	MaxDispersion float64 `koanf:"max_dispersion"` // reference spread for the fractions below
	FlowFraction  float64 `koanf:"flow_fraction"`  // dispersion below this fraction flows
	BlockFraction float64 `koanf:"block_fraction"` // dispersion above this fraction blocks
	ClarifyPrompt string  `koanf:"clarify_prompt"` // question issued when blocking with clarification
}

// DefaultGateConfig returns flow below 30% and block above 70% of a 0.5 maximum.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxDispersion: 0.5,
		FlowFraction:  0.30,
		BlockFraction: 0.70,
		ClarifyPrompt: "Multiple interpretations possible",
	}
}

// FlowThreshold is the absolute dispersion below which the gate flows.
func (c GateConfig) FlowThreshold() float64 {
	return c.FlowFraction * c.MaxDispersion
}

// BlockThreshold is the absolute dispersion above which the gate blocks.
func (c GateConfig) BlockThreshold() float64 {
	return c.BlockFraction * c.MaxDispersion
}

// Validate checks that thresholds are finite and ordered.
func (c GateConfig) Validate() error {
	if !(c.MaxDispersion > 0) || math.IsInf(c.MaxDispersion, 0) {
		return fmt.Errorf("max dispersion must be positive and finite, got %v", c.MaxDispersion)
	}
	if c.FlowFraction < 0 || c.BlockFraction < c.FlowFraction {
		return fmt.Errorf("fractions must satisfy 0 <= flow (%.3f) <= block (%.3f)", c.FlowFraction, c.BlockFraction)
	}
	return nil
}

// #endregion gate-config

// #region decision
// Decision is the per-call result of Evaluate. Winner is nil when no
// candidate could be identified.
type Decision struct {
	State       State
	Dispersion  float64 // population standard deviation; +Inf for no candidates
	CanCollapse bool
	Action      Action
	Reason      string
	Winner      *Winner
}

// #endregion decision
