// Package orchestrator wires encoding, resonance memory, the collapse gate and
// persistence into a single engine driven by an explicit cycle counter.
package orchestrator

// #region imports
import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/AdaWorldAPI/ladybug-learning/internal/fingerprint"
	"github.com/AdaWorldAPI/ladybug-learning/internal/gate"
	"github.com/AdaWorldAPI/ladybug-learning/internal/journal"
	"github.com/AdaWorldAPI/ladybug-learning/internal/logging"
	"github.com/AdaWorldAPI/ladybug-learning/internal/metrics"
	"github.com/AdaWorldAPI/ladybug-learning/internal/moment"
	"github.com/AdaWorldAPI/ladybug-learning/internal/resonance"
)

// #endregion

// #region engine-struct

// Engine is the top-level coordinator. Record calls are serialized so cycle
// numbers, memory order and journal order agree; queries run concurrently.
type Engine struct {
	recordMu sync.Mutex
	cycle    atomic.Uint64

	encoder *fingerprint.CachedEncoder
	memory  *resonance.Memory
	gate    *gate.Gate
	journal *journal.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	keys    gate.KeySource

	icedMu sync.RWMutex
	iced   map[string]string // moment ID -> note
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal persists moments and decisions to store.
func WithJournal(store *journal.Store) Option {
	return func(e *Engine) { e.journal = store }
}

// WithMetrics exports activity through m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEncoder shares a cached encoder.
func WithEncoder(enc *fingerprint.CachedEncoder) Option {
	return func(e *Engine) { e.encoder = enc }
}

// WithKeySource overrides the gate's hold key source.
func WithKeySource(keys gate.KeySource) Option {
	return func(e *Engine) { e.keys = keys }
}

// #endregion

// #region constructor

// NewEngine validates both configs and builds a fully wired engine.
func NewEngine(gateCfg gate.GateConfig, resCfg resonance.Config, opts ...Option) (*Engine, error) {
	if err := gateCfg.Validate(); err != nil {
		return nil, fmt.Errorf("gate config: %w", err)
	}

	e := &Engine{
		logger: zap.NewNop(),
		iced:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.encoder == nil {
		e.encoder = fingerprint.NewCachedEncoder(fingerprint.DefaultCacheSize)
	}

	memOpts := []resonance.Option{resonance.WithLogger(e.logger)}
	if e.metrics != nil {
		memOpts = append(memOpts, resonance.WithRecorder(e.metrics))
	}
	mem, err := resonance.NewMemory(resCfg, memOpts...)
	if err != nil {
		return nil, err
	}
	e.memory = mem
	e.gate = gate.NewGate(gateCfg, e.keys)
	return e, nil
}

// #endregion

// #region record

// Record advances the cycle by one, encodes content and captures the moment.
// When a journal is attached the moment is persisted first; a failed write
// leaves the cycle and memory untouched.
func (e *Engine) Record(kind moment.Kind, content string, q *moment.Qualia) (moment.Moment, error) {
	e.recordMu.Lock()
	defer e.recordMu.Unlock()

	cycle := e.cycle.Load() + 1
	opts := []moment.Option{
		moment.WithFingerprint(e.encoder.Encode(content)),
		moment.WithCycle(cycle),
	}
	if q != nil {
		opts = append(opts, moment.WithQualia(*q))
	}
	mo, err := moment.New(kind, content, opts...)
	if err != nil {
		return moment.Moment{}, fmt.Errorf("record: %w", err)
	}

	if e.journal != nil {
		if err := e.journal.Append(mo); err != nil {
			return moment.Moment{}, fmt.Errorf("record: %w", err)
		}
	}

	e.cycle.Store(cycle)
	e.memory.Capture(mo, cycle)

	e.logger.Debug("moment recorded",
		zap.String("id", mo.ID),
		zap.String("kind", string(mo.Kind)),
		zap.Uint64("cycle", cycle),
	)
	return mo, nil
}

// #endregion

// #region recall

// Recall returns moments resonating with query at or above threshold.
func (e *Engine) Recall(query string, threshold float64, limit int) []resonance.Result {
	return e.memory.FindResonant(e.encoder.Encode(query), threshold, limit, e.Cycle())
}

// SweetSpot returns the best analogy for query, if one lies in the sweet-spot band.
func (e *Engine) SweetSpot(query string) (resonance.Result, bool) {
	return e.memory.FindSweetSpot(e.encoder.Encode(query), e.Cycle())
}

// #endregion

// #region decide

// Decide runs the collapse gate over scores and records the decision. The
// decision is returned even when persisting it fails.
func (e *Engine) Decide(scores []float64, clarify bool) (gate.Decision, error) {
	d := e.gate.Evaluate(scores, clarify)
	entry := logging.FromDecision(e.Cycle(), scores, d)

	if e.metrics != nil {
		e.metrics.RecordDecision(entry.State)
	}
	e.logger.Info("gate decision", logging.DecisionFields(entry)...)

	if e.journal != nil {
		if err := logging.LogDecision(e.journal.DB(), entry); err != nil {
			return d, fmt.Errorf("decide: %w", err)
		}
	}
	return d, nil
}

// Deliberate recalls experience for query and gates on the resonance of the
// recalled moments. An empty recall blocks.
func (e *Engine) Deliberate(query string, threshold float64, limit int, clarify bool) (Deliberation, error) {
	results := e.Recall(query, threshold, limit)
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Resonance
	}

	d, err := e.Decide(scores, clarify)
	return Deliberation{
		Query:    query,
		Results:  results,
		Decision: d,
		Belief:   e.Belief(results),
	}, err
}

// #endregion

// #region ice-cake

// IceCake freezes a captured moment as canonical. The note is journaled when
// a journal is attached.
func (e *Engine) IceCake(id, note string) error {
	if !e.holds(id) {
		return fmt.Errorf("ice-cake %s: %w", id, ErrUnknownMoment)
	}
	if e.journal != nil {
		if err := e.journal.IceCake(id, note); err != nil {
			return fmt.Errorf("ice-cake %s: %w", id, err)
		}
	}

	e.icedMu.Lock()
	e.iced[id] = note
	e.icedMu.Unlock()

	e.logger.Info("moment ice-caked", zap.String("id", id))
	return nil
}

// IsIceCaked reports whether the moment was frozen, in this process or a
// restored one.
func (e *Engine) IsIceCaked(id string) bool {
	e.icedMu.RLock()
	defer e.icedMu.RUnlock()
	_, ok := e.iced[id]
	return ok
}

func (e *Engine) holds(id string) bool {
	if e.IsIceCaked(id) {
		return true
	}
	for _, entry := range e.memory.Snapshot() {
		if entry.Moment.ID == id {
			return true
		}
	}
	return false
}

// #endregion

// #region restore

// Restore replays the journal into an empty memory in capture order and
// resumes the cycle counter from the highest journaled cycle.
func (e *Engine) Restore() (int, error) {
	if e.journal == nil {
		return 0, ErrNoJournal
	}

	e.recordMu.Lock()
	defer e.recordMu.Unlock()

	if e.memory.Len() > 0 {
		return 0, fmt.Errorf("restore: %w", ErrNotEmpty)
	}

	records, err := e.journal.All()
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}

	var maxCycle uint64
	e.icedMu.Lock()
	for _, rec := range records {
		mo := rec.Moment
		e.memory.Capture(mo, mo.Cycle)
		if mo.IceCaked {
			e.iced[mo.ID] = mo.IceNote
		}
		if mo.Cycle > maxCycle {
			maxCycle = mo.Cycle
		}
	}
	e.icedMu.Unlock()

	e.cycle.Store(maxCycle)
	if e.metrics != nil {
		e.metrics.SetMemoryEntries(e.memory.Len())
	}

	e.logger.Info("memory restored",
		zap.Int("moments", len(records)),
		zap.Uint64("cycle", maxCycle),
	)
	return len(records), nil
}

// #endregion

// #region accessors

// Cycle returns the current cycle: the number of the most recent Record.
func (e *Engine) Cycle() uint64 {
	return e.cycle.Load()
}

// Stats returns a point-in-time summary.
func (e *Engine) Stats() Stats {
	hits, misses := e.encoder.Stats()
	e.icedMu.RLock()
	iced := len(e.iced)
	e.icedMu.RUnlock()
	return Stats{
		Cycle:       e.Cycle(),
		Entries:     e.memory.Len(),
		IceCaked:    iced,
		Memory:      e.memory.Stats(),
		CacheHits:   hits,
		CacheMisses: misses,
	}
}

// Memory exposes the underlying resonance memory for read-only inspection.
func (e *Engine) Memory() *resonance.Memory {
	return e.memory
}

// IsNotFound reports whether err means a moment could not be located.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownMoment) || errors.Is(err, journal.ErrNotFound)
}

// #endregion
