// Package gate implements the collapse gate: a stateless decision over
// competing candidate scores based on their dispersion.
package gate

import (
	"fmt"
	"math"
)

// #region gate
// Gate decides whether competing candidates are clear enough to commit to.
// It holds no per-decision state; only the key source advances.
type Gate struct {
	config GateConfig
	keys   KeySource
}

// NewGate creates a gate. A nil key source defaults to NewCounterKeys("hold").
func NewGate(config GateConfig, keys KeySource) *Gate {
	if keys == nil {
		keys = NewCounterKeys("hold")
	}
	return &Gate{config: config, keys: keys}
}

// Config returns the gate thresholds.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Evaluate classifies the spread of scores:
//  1. No candidates: block.
//  2. One candidate: flow and collapse onto it.
//  3. Otherwise: population SD below the flow threshold flows, above the block
//     threshold blocks, anything between holds.
//
// A blocked decision asks for clarification when available and otherwise holds,
// so the caller always has a next step.
func (g *Gate) Evaluate(scores []float64, clarificationAvailable bool) Decision {
	switch len(scores) {
	case 0:
		return Decision{
			State:       Block,
			Dispersion:  math.Inf(1),
			CanCollapse: false,
			Action:      Action{Kind: ActionBlock, Reason: "no candidates"},
			Reason:      "empty candidate set",
		}
	case 1:
		return Decision{
			State:       Flow,
			Dispersion:  0,
			CanCollapse: true,
			Action:      Action{Kind: ActionCollapse, WinnerIndex: 0},
			Reason:      "single candidate",
			Winner:      &Winner{Index: 0, Score: scores[0]},
		}
	}

	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return Decision{
				State:       Block,
				Dispersion:  math.NaN(),
				CanCollapse: false,
				Action:      Action{Kind: ActionBlock, Reason: "non-finite candidate score"},
				Reason:      fmt.Sprintf("candidate %d has non-finite score %v", i, s),
			}
		}
	}

	sd := Dispersion(scores)
	state := g.stateFor(sd)
	winner := argmax(scores)

	d := Decision{
		State:      state,
		Dispersion: sd,
		Winner:     &winner,
	}

	switch state {
	case Flow:
		d.CanCollapse = true
		d.Action = Action{Kind: ActionCollapse, WinnerIndex: winner.Index}
		d.Reason = fmt.Sprintf("low dispersion (sd=%.3f)", sd)
	case Hold:
		d.Action = Action{Kind: ActionHold, HoldKey: g.keys.NextKey()}
		d.Reason = fmt.Sprintf("medium dispersion (sd=%.3f)", sd)
	default:
		if clarificationAvailable {
			d.Action = Action{Kind: ActionClarify, Question: g.config.ClarifyPrompt}
			d.Reason = fmt.Sprintf("high dispersion (sd=%.3f)", sd)
		} else {
			d.Action = Action{Kind: ActionHold, HoldKey: g.keys.NextKey()}
			d.Reason = fmt.Sprintf("high dispersion, holding (sd=%.3f)", sd)
		}
	}
	return d
}

// #endregion gate

// #region helpers
// Dispersion returns the population standard deviation of scores, or 0 for
// fewer than two values.
func Dispersion(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	n := float64(len(scores))
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / n
	var variance float64
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	return math.Sqrt(variance / n)
}

func (g *Gate) stateFor(sd float64) State {
	switch {
	case sd < g.config.FlowThreshold():
		return Flow
	case sd > g.config.BlockThreshold():
		return Block
	default:
		return Hold
	}
}

// argmax returns the first index holding the maximum score.
func argmax(scores []float64) Winner {
	best := Winner{Index: 0, Score: scores[0]}
	for i, s := range scores[1:] {
		if s > best.Score {
			best = Winner{Index: i + 1, Score: s}
		}
	}
	return best
}

// #endregion helpers
