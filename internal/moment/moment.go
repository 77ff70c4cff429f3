// Package moment defines the recorded unit of experience captured into
// resonance memory.
package moment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AdaWorldAPI/ladybug-learning/internal/fingerprint"
)

// #region kind
// Kind enumerates the closed set of experience kinds.
type Kind string

const (
	Encounter    Kind = "encounter"
	Struggle     Kind = "struggle"
	Breakthrough Kind = "breakthrough"
	Failure      Kind = "failure"
	IceCaked     Kind = "ice_caked"
	MetaReflect  Kind = "meta_reflect"
)

// Kinds lists every valid Kind in declaration order.
var Kinds = []Kind{Encounter, Struggle, Breakthrough, Failure, IceCaked, MetaReflect}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// ParseKind converts a stored string back to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown moment kind %q", s)
	}
	return k, nil
}

// #endregion kind

// #region qualia
// Qualia holds optional felt-sense scores, each in [0, 1].
type Qualia struct {
	Novelty      float64 `json:"novelty"`
	Effort       float64 `json:"effort"`
	Satisfaction float64 `json:"satisfaction"`
}

// NewQualia returns Qualia with every score clamped to [0, 1].
func NewQualia(novelty, effort, satisfaction float64) Qualia {
	return Qualia{
		Novelty:      unit(novelty),
		Effort:       unit(effort),
		Satisfaction: unit(satisfaction),
	}
}

func unit(x float64) float64 {
	if x != x || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion qualia

// #region moment
// Moment is one recorded experience. It is immutable once created; IceCake
// returns an annotated copy that keeps the same ID and fingerprint.
type Moment struct {
	ID          string
	Kind        Kind
	Content     string
	Fingerprint fingerprint.Fingerprint
	Qualia      *Qualia
	Cycle       uint64
	IceCaked    bool
	IceNote     string
}

// Option customizes a Moment at construction.
type Option func(*builder)

type builder struct {
	m     Moment
	fpSet bool
}

// WithQualia attaches clamped qualia scores.
func WithQualia(q Qualia) Option {
	return func(b *builder) {
		q = NewQualia(q.Novelty, q.Effort, q.Satisfaction)
		b.m.Qualia = &q
	}
}

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(b *builder) { b.m.ID = id }
}

// WithFingerprint overrides Encode(content), e.g. with a cached encoding.
func WithFingerprint(fp fingerprint.Fingerprint) Option {
	return func(b *builder) {
		b.m.Fingerprint = fp
		b.fpSet = true
	}
}

// WithCycle stamps the capture cycle.
func WithCycle(cycle uint64) Option {
	return func(b *builder) { b.m.Cycle = cycle }
}

// New creates a moment of the given kind. The fingerprint defaults to
// fingerprint.Encode(content) and the ID to a random UUID.
func New(kind Kind, content string, opts ...Option) (Moment, error) {
	if !kind.Valid() {
		return Moment{}, fmt.Errorf("unknown moment kind %q", kind)
	}
	b := builder{m: Moment{Kind: kind, Content: content}}
	for _, opt := range opts {
		opt(&b)
	}
	if !b.fpSet {
		b.m.Fingerprint = fingerprint.Encode(content)
	}
	if b.m.ID == "" {
		b.m.ID = uuid.New().String()
	}
	return b.m, nil
}

// IceCake returns a copy frozen as canonical with the given note.
func (m Moment) IceCake(note string) Moment {
	m.IceCaked = true
	m.IceNote = note
	return m
}

// IsBreakthrough reports whether the moment records a breakthrough.
func (m Moment) IsBreakthrough() bool {
	return m.Kind == Breakthrough
}

// #endregion moment
