package replay

import (
	"fmt"

	"github.com/AdaWorldAPI/ladybug-learning/internal/gate"
)

// #region types

// CaseResult captures the outcome of replaying one fixture case.
type CaseResult struct {
	Name       string
	Decision   gate.Decision
	State      string
	Action     string
	Passed     bool
	Mismatches []string
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalCases int
	Passed     int
	Failed     int
	ByState    map[string]int
}

// #endregion types

// #region replay

// Replay evaluates every case against a fresh gate built from the fixture's
// config and compares the outcome with the expectation. Operates entirely
// in-memory. An empty expectation field is not checked.
func Replay(f *Fixture) ([]CaseResult, error) {
	cfg := f.GateConfig.ToGateConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fixture gate config: %w", err)
	}
	g := gate.NewGate(cfg, gate.NewCounterKeys("replay"))

	results := make([]CaseResult, 0, len(f.Cases))
	for i, c := range f.Cases {
		d := g.Evaluate(c.Scores, c.Clarification)
		r := CaseResult{
			Name:     c.Name,
			Decision: d,
			State:    string(d.State),
			Action:   string(d.Action.Kind),
		}
		if r.Name == "" {
			r.Name = fmt.Sprintf("case-%d", i)
		}

		if c.ExpectedState != "" && c.ExpectedState != r.State {
			r.Mismatches = append(r.Mismatches,
				fmt.Sprintf("state: expected %s, got %s", c.ExpectedState, r.State))
		}
		if c.ExpectedAction != "" && c.ExpectedAction != r.Action {
			r.Mismatches = append(r.Mismatches,
				fmt.Sprintf("action: expected %s, got %s", c.ExpectedAction, r.Action))
		}
		r.Passed = len(r.Mismatches) == 0
		results = append(results, r)
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []CaseResult) Summary {
	s := Summary{
		TotalCases: len(results),
		ByState:    make(map[string]int),
	}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
		s.ByState[r.State]++
	}
	return s
}

// #endregion replay
