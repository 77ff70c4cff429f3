package resonance

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/AdaWorldAPI/ladybug-learning/internal/fingerprint"
	"github.com/AdaWorldAPI/ladybug-learning/internal/moment"
)

// #region helpers
// flipFirst returns base with its first k bits inverted, so that
// Similarity(base, result) == 1 - k/Bits exactly.
func flipFirst(base fingerprint.Fingerprint, k int) fingerprint.Fingerprint {
	var mask [fingerprint.Words]uint64
	for i := 0; i < k; i++ {
		mask[i/64] |= 1 << (i % 64)
	}
	return fingerprint.Bind(base, fingerprint.FromWords(mask))
}

func mkMoment(t *testing.T, id string, fp fingerprint.Fingerprint) moment.Moment {
	t.Helper()
	m, err := moment.New(moment.Encounter, id, moment.WithID(id), moment.WithFingerprint(fp))
	if err != nil {
		t.Fatalf("moment.New: %v", err)
	}
	return m
}

func newTestMemory(t *testing.T, cfg Config, opts ...Option) *Memory {
	t.Helper()
	mem, err := NewMemory(cfg, opts...)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return mem
}

type countingRecorder struct {
	mu       sync.Mutex
	captures int
	queries  int
	results  int
}

func (r *countingRecorder) RecordCapture(int) {
	r.mu.Lock()
	r.captures++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordQuery(results int, _ time.Duration) {
	r.mu.Lock()
	r.queries++
	r.results += results
	r.mu.Unlock()
}

// #endregion helpers

// #region capture-tests
func TestCaptureThenQueryCounts(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	for i := 0; i < 5; i++ {
		mem.Capture(mkMoment(t, fmt.Sprintf("m%d", i), fingerprint.Encode(fmt.Sprint(i))), uint64(i+1))
	}
	before := mem.Stats()
	mem.FindResonant(fingerprint.Encode("q"), 0, 10, 5)
	after := mem.Stats()

	if after.TotalCaptures != 5 {
		t.Fatalf("expected 5 captures, got %d", after.TotalCaptures)
	}
	if after.TotalQueries-before.TotalQueries != 1 {
		t.Fatalf("expected exactly one query, got %d", after.TotalQueries-before.TotalQueries)
	}
	if mem.Len() != 5 {
		t.Fatalf("expected 5 entries, got %d", mem.Len())
	}
}

func TestCaptureStampsCycleAndSeq(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	e0 := mem.Capture(mkMoment(t, "a", fingerprint.Encode("a")), 3)
	e1 := mem.Capture(mkMoment(t, "b", fingerprint.Encode("b")), 4)
	if e0.Seq != 0 || e1.Seq != 1 {
		t.Fatalf("unexpected seqs %d, %d", e0.Seq, e1.Seq)
	}
	if e1.Cycle != 4 || e1.Moment.Cycle != 4 {
		t.Fatalf("cycle not stamped: %+v", e1)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	mem.Capture(mkMoment(t, "a", fingerprint.Encode("a")), 1)
	snap := mem.Snapshot()
	snap[0].Moment.Content = "mutated"
	if mem.Snapshot()[0].Moment.Content == "mutated" {
		t.Fatal("snapshot aliases memory")
	}
}

// #endregion capture-tests

// #region find-resonant-tests
func TestFindResonantOrderingAndTies(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	base := fingerprint.Encode("base")

	mem.Capture(mkMoment(t, "far", flipFirst(base, 4000)), 10)
	mem.Capture(mkMoment(t, "tie-first", flipFirst(base, 1000)), 10)
	mem.Capture(mkMoment(t, "exact", base), 10)
	mem.Capture(mkMoment(t, "tie-second", flipFirst(base, 1000)), 10)

	results := mem.FindResonant(base, 0, 10, 10)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	want := []string{"exact", "tie-first", "tie-second", "far"}
	for i, r := range results {
		if r.Entry.Moment.ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, r.Entry.Moment.ID, want[i])
		}
		if i > 0 && r.Resonance > results[i-1].Resonance {
			t.Fatalf("results not sorted at %d", i)
		}
	}
	if results[0].Similarity != 1.0 || results[0].Resonance != 1.0 {
		t.Fatalf("exact match should score 1.0, got sim=%f res=%f", results[0].Similarity, results[0].Resonance)
	}
	if results[1].Similarity != 0.9 {
		t.Fatalf("expected similarity 0.9, got %f", results[1].Similarity)
	}
}

func TestFindResonantThresholdAndLimit(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	base := fingerprint.Encode("base")
	for i := 0; i < 6; i++ {
		mem.Capture(mkMoment(t, fmt.Sprintf("m%d", i), flipFirst(base, i*1000)), 1)
	}

	// resonance = 0.5*(1 - i/10) + 0.5
	results := mem.FindResonant(base, 0.78, 10, 1)
	if len(results) != 5 {
		t.Fatalf("expected 5 results at threshold 0.78, got %d", len(results))
	}
	for _, r := range results {
		if r.Resonance < 0.78 {
			t.Fatalf("result below threshold: %f", r.Resonance)
		}
	}

	limited := mem.FindResonant(base, 0, 2, 1)
	if len(limited) != 2 {
		t.Fatalf("expected limit 2, got %d", len(limited))
	}
	if limited[0].Entry.Moment.ID != "m0" || limited[1].Entry.Moment.ID != "m1" {
		t.Fatalf("unexpected top-2: %s, %s", limited[0].Entry.Moment.ID, limited[1].Entry.Moment.ID)
	}
}

func TestFindResonantRecency(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	fp := fingerprint.Encode("same")
	mem.Capture(mkMoment(t, "old", fp), 1)
	mem.Capture(mkMoment(t, "new", fp), 5)

	results := mem.FindResonant(fp, 0, 10, 5)
	if results[0].Entry.Moment.ID != "new" {
		t.Fatalf("expected recent entry first, got %s", results[0].Entry.Moment.ID)
	}
	if results[1].Resonance != 0.5+0.5*(1.0/5.0) {
		t.Fatalf("unexpected resonance for old entry: %f", results[1].Resonance)
	}
}

func TestFindResonantFutureCycleHasZeroAge(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	fp := fingerprint.Encode("future")
	mem.Capture(mkMoment(t, "f", fp), 10)
	results := mem.FindResonant(fp, 0, 1, 3)
	if len(results) != 1 || results[0].Resonance != 1.0 {
		t.Fatalf("expected resonance 1.0 when current cycle precedes capture, got %+v", results)
	}
}

func TestFindResonantZeroLimit(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	mem.Capture(mkMoment(t, "a", fingerprint.Encode("a")), 1)
	if got := mem.FindResonant(fingerprint.Encode("a"), 0, 0, 1); len(got) != 0 {
		t.Fatalf("expected no results with limit 0, got %d", len(got))
	}
	if mem.Stats().TotalQueries != 1 {
		t.Fatal("zero-limit query should still be counted")
	}
}

func TestFindResonantEmptyMemory(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	if got := mem.FindResonant(fingerprint.Encode("q"), 0, 5, 0); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

// #endregion find-resonant-tests

// #region sweet-spot-tests
func TestFindSweetSpot(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	base := fingerprint.Encode("query")

	mem.Capture(mkMoment(t, "duplicate", base), 1)
	mem.Capture(mkMoment(t, "noise", flipFirst(base, 5000)), 1)
	mem.Capture(mkMoment(t, "analogy-weak", flipFirst(base, 3000)), 1)
	mem.Capture(mkMoment(t, "analogy-strong", flipFirst(base, 2000)), 1)

	r, ok := mem.FindSweetSpot(base, 1)
	if !ok {
		t.Fatal("expected a sweet spot")
	}
	if r.Entry.Moment.ID != "analogy-strong" {
		t.Fatalf("expected analogy-strong, got %s", r.Entry.Moment.ID)
	}
	if mem.Stats().TotalQueries != 1 {
		t.Fatalf("expected sweet spot to count one query, got %d", mem.Stats().TotalQueries)
	}
}

func TestFindSweetSpotBoundsAreExclusive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SweetSpotLow = 0.7
	cfg.SweetSpotHigh = 0.9
	mem := newTestMemory(t, cfg)
	base := fingerprint.Encode("edge")

	mem.Capture(mkMoment(t, "at-high", flipFirst(base, 1000)), 1)
	mem.Capture(mkMoment(t, "at-low", flipFirst(base, 3000)), 1)

	if r, ok := mem.FindSweetSpot(base, 1); ok {
		t.Fatalf("band edges should be excluded, got %s (sim=%f)", r.Entry.Moment.ID, r.Similarity)
	}
}

func TestFindSweetSpotPrefersRecentOnSimilarityTie(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	base := fingerprint.Encode("recent")
	mem.Capture(mkMoment(t, "old", flipFirst(base, 2000)), 1)
	mem.Capture(mkMoment(t, "new", flipFirst(base, 2000)), 9)

	r, ok := mem.FindSweetSpot(base, 9)
	if !ok || r.Entry.Moment.ID != "new" {
		t.Fatalf("expected new, got %+v (ok=%v)", r.Entry.Moment.ID, ok)
	}
}

// #endregion sweet-spot-tests

// #region concurrency-tests
func TestConcurrentCaptureAndQuery(t *testing.T) {
	mem := newTestMemory(t, DefaultConfig())
	const writers, perWriter, readers = 4, 50, 4

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				m, err := moment.New(moment.Encounter, id, moment.WithID(id))
				if err != nil {
					t.Error(err)
					return
				}
				mem.Capture(m, uint64(i))
			}
		}(w)
	}
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				for _, res := range mem.FindResonant(fingerprint.Encode("probe"), 0, 1000, 100) {
					if res.Entry.Moment.ID == "" {
						t.Error("observed partially written entry")
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if mem.Len() != writers*perWriter {
		t.Fatalf("expected %d entries, got %d", writers*perWriter, mem.Len())
	}
	stats := mem.Stats()
	if stats.TotalCaptures != writers*perWriter || stats.TotalQueries != readers*20 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	seen := make(map[uint64]bool)
	for _, e := range mem.Snapshot() {
		if seen[e.Seq] {
			t.Fatalf("duplicate seq %d", e.Seq)
		}
		seen[e.Seq] = true
	}
}

// #endregion concurrency-tests

// #region option-tests
func TestRecorderObservesActivity(t *testing.T) {
	rec := &countingRecorder{}
	mem := newTestMemory(t, DefaultConfig(), WithRecorder(rec))
	fp := fingerprint.Encode("x")
	mem.Capture(mkMoment(t, "x", fp), 1)
	mem.FindResonant(fp, 0, 5, 1)
	mem.FindSweetSpot(fp, 1)

	if rec.captures != 1 || rec.queries != 2 || rec.results != 1 {
		t.Fatalf("unexpected recorder state %+v", rec)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.RecencyWeight = -1
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
	bad = DefaultConfig()
	bad.SweetSpotLow = 0.9
	bad.SweetSpotHigh = 0.8
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for inverted band")
	}
	bad = DefaultConfig()
	bad.ContentWeight = math.NaN()
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for NaN weight")
	}
	bad = DefaultConfig()
	bad.SweetSpotHigh = math.NaN()
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for NaN band edge")
	}
}

func TestNewMemoryRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SweetSpotLow = 0.95
	cfg.SweetSpotHigh = 0.6
	if mem, err := NewMemory(cfg); err == nil || mem != nil {
		t.Fatalf("expected error for inverted band, got mem=%v err=%v", mem, err)
	}

	cfg = DefaultConfig()
	cfg.RecencyWeight = math.NaN()
	if _, err := NewMemory(cfg); err == nil {
		t.Fatal("expected error for NaN weight")
	}
}

// sizeRecorder keeps every entry count reported by RecordCapture.
type sizeRecorder struct {
	mu    sync.Mutex
	sizes []int
}

func (r *sizeRecorder) RecordCapture(entries int) {
	r.mu.Lock()
	r.sizes = append(r.sizes, entries)
	r.mu.Unlock()
}

func (r *sizeRecorder) RecordQuery(int, time.Duration) {}

func TestConcurrentCaptureReportsSizesInOrder(t *testing.T) {
	rec := &sizeRecorder{}
	mem := newTestMemory(t, DefaultConfig(), WithRecorder(rec))
	const workers, perWorker = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				mo, err := moment.New(moment.Encounter, id, moment.WithID(id))
				if err != nil {
					t.Error(err)
					return
				}
				mem.Capture(mo, 1)
				n := mem.Len()
				if c := mem.Stats().TotalCaptures; c < uint64(n) {
					t.Errorf("captures %d behind len %d", c, n)
				}
			}
		}(w)
	}
	wg.Wait()

	total := workers * perWorker
	if len(rec.sizes) != total {
		t.Fatalf("expected %d reports, got %d", total, len(rec.sizes))
	}
	for i, n := range rec.sizes {
		if n != i+1 {
			t.Fatalf("report %d carried size %d, want %d", i, n, i+1)
		}
	}
}

// #endregion option-tests
