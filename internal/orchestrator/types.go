package orchestrator

// #region imports
import (
	"errors"

	"github.com/AdaWorldAPI/ladybug-learning/internal/gate"
	"github.com/AdaWorldAPI/ladybug-learning/internal/resonance"
	"github.com/AdaWorldAPI/ladybug-learning/internal/truth"
)

// #endregion

// #region errors

var (
	// ErrNoJournal is returned by operations that need persistence when the
	// engine was built without a journal.
	ErrNoJournal = errors.New("engine has no journal")
	// ErrUnknownMoment is returned when a moment ID is not held in memory.
	ErrUnknownMoment = errors.New("unknown moment")
	// ErrNotEmpty is returned by Restore when memory already holds entries.
	ErrNotEmpty = errors.New("memory is not empty")
)

// #endregion

// #region deliberation

// Deliberation is the outcome of recalling experience for a query and gating
// on how strongly the recalled moments resonate.
type Deliberation struct {
	Query    string
	Results  []resonance.Result
	Decision gate.Decision
	Belief   truth.Value
}

// Chosen returns the result the gate collapsed onto, if any.
func (d Deliberation) Chosen() (resonance.Result, bool) {
	if d.Decision.Action.Kind != gate.ActionCollapse || len(d.Results) == 0 {
		return resonance.Result{}, false
	}
	return d.Results[d.Decision.Action.WinnerIndex], true
}

// #endregion

// #region stats

// Stats summarizes engine activity.
type Stats struct {
	Cycle       uint64
	Entries     int
	IceCaked    int
	Memory      resonance.Stats
	CacheHits   int64
	CacheMisses int64
}

// #endregion
