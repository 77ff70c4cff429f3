// Package resonance provides the append-only experience memory and its
// similarity-plus-recency retrieval.
package resonance

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/AdaWorldAPI/ladybug-learning/internal/fingerprint"
	"github.com/AdaWorldAPI/ladybug-learning/internal/moment"
)

// #region memory
// Memory is an append-only store of captured moments. Capture is serialized by
// a write lock; queries scan a snapshot taken under a read lock, so a
// concurrent capture is observed entirely or not at all.
type Memory struct {
	config   Config
	logger   *zap.Logger
	recorder Recorder

	mu      sync.RWMutex
	entries []Entry

	captures atomic.Uint64
	queries  atomic.Uint64
}

// Option configures a Memory.
type Option func(*Memory)

// WithLogger sets the logger used for debug tracing of captures and queries.
func WithLogger(l *zap.Logger) Option {
	return func(m *Memory) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Memory) {
		if r != nil {
			m.recorder = r
		}
	}
}

// NewMemory validates config and creates an empty memory.
func NewMemory(config Config, opts ...Option) (*Memory, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("resonance config: %w", err)
	}
	m := &Memory{
		config:   config,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the active configuration.
func (m *Memory) Config() Config {
	return m.config
}

// #endregion memory

// #region capture
// Capture appends a moment stamped with the caller's cycle and returns the
// stored entry. Cycle monotonicity is the caller's responsibility.
func (m *Memory) Capture(mo moment.Moment, cycle uint64) Entry {
	mo.Cycle = cycle

	m.mu.Lock()
	e := Entry{Seq: uint64(len(m.entries)), Moment: mo, Cycle: cycle}
	m.entries = append(m.entries, e)
	n := len(m.entries)
	// Counted under the lock so Stats and the recorder see sizes in capture order.
	m.captures.Add(1)
	m.recorder.RecordCapture(n)
	m.mu.Unlock()

	m.logger.Debug("moment captured",
		zap.String("moment_id", mo.ID),
		zap.String("kind", string(mo.Kind)),
		zap.Uint64("cycle", cycle),
		zap.Int("entries", n),
	)
	return e
}

// Len returns the number of captured entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Snapshot returns the entries captured so far in capture order.
func (m *Memory) Snapshot() []Entry {
	return slices.Clone(m.snapshot())
}

// snapshot returns a read-only view. Entries below the captured length are
// never written again, so the view stays consistent after the lock is released.
func (m *Memory) snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[:len(m.entries):len(m.entries)]
}

// #endregion capture

// #region find-resonant
// FindResonant scores every entry against query and returns those whose
// resonance is at least threshold, highest first, at most limit of them.
// Equal resonance keeps capture order.
func (m *Memory) FindResonant(query fingerprint.Fingerprint, threshold float64, limit int, currentCycle uint64) []Result {
	start := time.Now()
	m.queries.Add(1)

	var results []Result
	if limit > 0 {
		for _, e := range m.snapshot() {
			r := m.score(query, e, currentCycle)
			if r.Resonance >= threshold {
				results = append(results, r)
			}
		}
		slices.SortStableFunc(results, func(a, b Result) int {
			return cmp.Compare(b.Resonance, a.Resonance)
		})
		if len(results) > limit {
			results = results[:limit]
		}
	}

	m.recorder.RecordQuery(len(results), time.Since(start))
	m.logger.Debug("resonance query",
		zap.Float64("threshold", threshold),
		zap.Int("limit", limit),
		zap.Uint64("cycle", currentCycle),
		zap.Int("results", len(results)),
	)
	return results
}

// #endregion find-resonant

// #region find-sweet-spot
// FindSweetSpot returns the highest-resonance entry whose similarity lies
// strictly inside the configured band, skipping near-duplicates and noise.
// It counts as one query.
func (m *Memory) FindSweetSpot(query fingerprint.Fingerprint, currentCycle uint64) (Result, bool) {
	start := time.Now()
	m.queries.Add(1)

	var best Result
	found := false
	for _, e := range m.snapshot() {
		r := m.score(query, e, currentCycle)
		if r.Similarity <= m.config.SweetSpotLow || r.Similarity >= m.config.SweetSpotHigh {
			continue
		}
		if !found || r.Resonance > best.Resonance {
			best = r
			found = true
		}
	}

	n := 0
	if found {
		n = 1
	}
	m.recorder.RecordQuery(n, time.Since(start))
	m.logger.Debug("sweet spot query",
		zap.Uint64("cycle", currentCycle),
		zap.Bool("found", found),
	)
	return best, found
}

// #endregion find-sweet-spot

// #region stats
// Stats returns the running capture and query counts.
func (m *Memory) Stats() Stats {
	return Stats{
		TotalCaptures: m.captures.Load(),
		TotalQueries:  m.queries.Load(),
	}
}

// #endregion stats

// #region helpers
func (m *Memory) score(query fingerprint.Fingerprint, e Entry, currentCycle uint64) Result {
	sim := fingerprint.Similarity(query, e.Moment.Fingerprint)
	var age uint64
	if currentCycle > e.Cycle {
		age = currentCycle - e.Cycle
	}
	recency := 1 / (1 + float64(age))
	return Result{
		Entry:      e,
		Similarity: sim,
		Resonance:  m.config.ContentWeight*sim + m.config.RecencyWeight*recency,
	}
}

// #endregion helpers
