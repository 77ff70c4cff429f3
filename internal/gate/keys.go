package gate

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// #region key-source
// KeySource issues identifiers for deferred (Hold) decisions. Implementations
// must never return the same key twice within a process and must be safe for
// concurrent use.
type KeySource interface {
	NextKey() string
}

// CounterKeys issues deterministic keys "<prefix>_<n>" from an atomic counter.
type CounterKeys struct {
	prefix string
	n      atomic.Uint64
}

// NewCounterKeys creates a counter-backed source starting at 1.
func NewCounterKeys(prefix string) *CounterKeys {
	return &CounterKeys{prefix: prefix}
}

// NextKey returns the next key.
func (c *CounterKeys) NextKey() string {
	return fmt.Sprintf("%s_%x", c.prefix, c.n.Add(1))
}

// UUIDKeys issues random "<prefix>_<uuid>" keys, unique across processes.
type UUIDKeys struct {
	Prefix string
}

// NextKey returns a fresh UUID-based key.
func (u UUIDKeys) NextKey() string {
	return u.Prefix + "_" + uuid.NewString()
}

// #endregion key-source
