package resonance

import (
	"fmt"
	"math"
	"time"

	"github.com/AdaWorldAPI/ladybug-learning/internal/moment"
)

// #region config
// Config holds the resonance weighting and the sweet-spot similarity band.
type Config struct {
	ContentWeight float64 `koanf:"content_weight"`  // weight of content similarity
	RecencyWeight float64 `koanf:"recency_weight"`  // weight of 1/(1+age)
	SweetSpotLow  float64 `koanf:"sweet_spot_low"`  // exclusive lower similarity bound
	SweetSpotHigh float64 `koanf:"sweet_spot_high"` // exclusive upper similarity bound
}

// DefaultConfig weighs similarity and recency equally and treats matches in
// (0.6, 0.95) as transferable analogies.
func DefaultConfig() Config {
	return Config{
		ContentWeight: 0.5,
		RecencyWeight: 0.5,
		SweetSpotLow:  0.6,
		SweetSpotHigh: 0.95,
	}
}

// Validate checks that weights are finite and non-negative and the band is
// well formed.
func (c Config) Validate() error {
	if !finiteNonNegative(c.ContentWeight) || !finiteNonNegative(c.RecencyWeight) {
		return fmt.Errorf("resonance weights must be finite and non-negative (content=%.3f recency=%.3f)",
			c.ContentWeight, c.RecencyWeight)
	}
	if !(c.SweetSpotLow >= 0 && c.SweetSpotLow < c.SweetSpotHigh && c.SweetSpotHigh <= 1) {
		return fmt.Errorf("sweet spot band (%.3f, %.3f) must satisfy 0 <= low < high <= 1",
			c.SweetSpotLow, c.SweetSpotHigh)
	}
	return nil
}

func finiteNonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}

// #endregion config

// #region entry
// Entry is a captured moment paired with its capture cycle. Seq is the
// zero-based capture order and breaks ranking ties.
type Entry struct {
	Seq    uint64
	Moment moment.Moment
	Cycle  uint64
}

// #endregion entry

// #region result
// Result is one retrieval hit. Similarity is raw content similarity;
// Resonance blends it with recency.
type Result struct {
	Entry      Entry
	Similarity float64
	Resonance  float64
}

// #endregion result

// #region stats
// Stats are exact running counts since the memory was created.
type Stats struct {
	TotalCaptures uint64
	TotalQueries  uint64
}

// #endregion stats

// #region recorder
// Recorder observes memory activity, typically for metrics export.
type Recorder interface {
	RecordCapture(entries int)
	RecordQuery(results int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordCapture(int)              {}
func (nopRecorder) RecordQuery(int, time.Duration) {}

// #endregion recorder
