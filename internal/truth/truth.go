// Package truth implements the frequency/confidence algebra used to combine
// and relate degrees of belief. Every operation is pure and clamps its inputs
// and outputs into [0, 1].
package truth

import (
	"fmt"
	"math"
)

// #region constants
const (
	// Epsilon keeps Revision finite as confidence approaches 1.
	Epsilon = 1e-7
	// Horizon is the evidential horizon k used by FromEvidence.
	Horizon = 1.0
)

// #endregion constants

// #region value
// Value is a (frequency, confidence) pair. Construct with New so that both
// components are clamped.
type Value struct {
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// New returns a Value with both components clamped to [0, 1].
func New(frequency, confidence float64) Value {
	return Value{Frequency: clamp(frequency), Confidence: clamp(confidence)}
}

// Unknown is the canonical no-evidence value (0.5, 0).
func Unknown() Value { return Value{Frequency: 0.5, Confidence: 0} }

// CertainTrue is (1, 0.9).
func CertainTrue() Value { return Value{Frequency: 1, Confidence: 0.9} }

// CertainFalse is (0, 0.9).
func CertainFalse() Value { return Value{Frequency: 0, Confidence: 0.9} }

// FromEvidence derives a value from positive and negative evidence counts.
// Negative counts are treated as zero; no evidence yields Unknown.
func FromEvidence(positive, negative float64) Value {
	positive = math.Max(positive, 0)
	negative = math.Max(negative, 0)
	total := positive + negative
	if total == 0 {
		return Unknown()
	}
	return New(positive/total, total/(total+Horizon))
}

// String renders the value as percentages, e.g. ⟨90%, 91%⟩.
func (v Value) String() string {
	return fmt.Sprintf("⟨%.0f%%, %.0f%%⟩", v.Frequency*100, v.Confidence*100)
}

// #endregion value

// #region inference
// Expectation is c·(f − 0.5) + 0.5.
func (v Value) Expectation() float64 {
	v = v.normalized()
	return clamp(v.Confidence*(v.Frequency-0.5) + 0.5)
}

// Deduction chains A→B with B→C. Confidence is discounted by both frequencies.
func Deduction(a, b Value) Value {
	a, b = a.normalized(), b.normalized()
	f := a.Frequency * b.Frequency
	c := a.Confidence * b.Confidence * a.Frequency * b.Frequency
	return New(f, c)
}

// Induction generalizes from A→B and A→C to B→C.
func Induction(a, b Value) Value {
	a, b = a.normalized(), b.normalized()
	c := a.Frequency * a.Confidence * b.Confidence / (a.Frequency + 1)
	return New(b.Frequency, c)
}

// Abduction infers A→C from A→B and C→B.
func Abduction(a, b Value) Value {
	a, b = a.normalized(), b.normalized()
	c := b.Frequency * a.Confidence * b.Confidence / (b.Frequency + 1)
	return New(a.Frequency, c)
}

// Revision merges two independent bodies of evidence about the same statement.
// The result's confidence exceeds both inputs unless either is zero.
func Revision(a, b Value) Value {
	a, b = a.normalized(), b.normalized()
	w1 := a.Confidence / (1 - a.Confidence + Epsilon)
	w2 := b.Confidence / (1 - b.Confidence + Epsilon)
	w := w1 + w2
	f := (w1*a.Frequency + w2*b.Frequency) / (w + Epsilon)
	c := w / (w + 1)
	return New(f, c)
}

// Negation flips frequency and keeps confidence.
func Negation(a Value) Value {
	a = a.normalized()
	return New(1-a.Frequency, a.Confidence)
}

// #endregion inference

// #region helpers
// normalized guards against values built by struct literal rather than New.
func (v Value) normalized() Value {
	return Value{Frequency: clamp(v.Frequency), Confidence: clamp(v.Confidence)}
}

func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

// #endregion helpers
