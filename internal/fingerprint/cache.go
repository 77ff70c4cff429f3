package fingerprint

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of cached encodings.
const DefaultCacheSize = 1024

// CachedEncoder memoizes Encode for recently seen content. Safe for concurrent use.
type CachedEncoder struct {
	cache  *lru.Cache[string, Fingerprint]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEncoder creates an encoder holding up to size fingerprints.
// Non-positive sizes fall back to DefaultCacheSize.
func NewCachedEncoder(size int) *CachedEncoder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[string, Fingerprint](size)
	return &CachedEncoder{cache: cache}
}

// Encode returns Encode(content), consulting the cache first.
func (e *CachedEncoder) Encode(content string) Fingerprint {
	if fp, ok := e.cache.Get(content); ok {
		e.hits.Add(1)
		return fp
	}
	e.misses.Add(1)
	fp := Encode(content)
	e.cache.Add(content, fp)
	return fp
}

// Stats returns cache hit and miss counts.
func (e *CachedEncoder) Stats() (hits, misses int64) {
	return e.hits.Load(), e.misses.Load()
}

// Len returns the number of cached encodings.
func (e *CachedEncoder) Len() int {
	return e.cache.Len()
}
