package orchestrator

import (
	"github.com/AdaWorldAPI/ladybug-learning/internal/moment"
	"github.com/AdaWorldAPI/ladybug-learning/internal/resonance"
	"github.com/AdaWorldAPI/ladybug-learning/internal/truth"
)

// Belief summarizes recalled experience as a truth value. Breakthroughs and
// encounters count as positive evidence, failures and struggles as negative,
// each weighted by resonance. Every ice-caked moment among the results then
// revises the estimate with CertainTrue.
func (e *Engine) Belief(results []resonance.Result) truth.Value {
	var positive, negative float64
	var iced int
	for _, r := range results {
		mo := r.Entry.Moment
		switch mo.Kind {
		case moment.Breakthrough, moment.Encounter:
			positive += r.Resonance
		case moment.Failure, moment.Struggle:
			negative += r.Resonance
		}
		if mo.IceCaked || e.IsIceCaked(mo.ID) {
			iced++
		}
	}

	v := truth.FromEvidence(positive, negative)
	for i := 0; i < iced; i++ {
		v = truth.Revision(v, truth.CertainTrue())
	}
	return v
}
