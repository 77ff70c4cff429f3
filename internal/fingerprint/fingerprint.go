// Package fingerprint implements the fixed-width binary vector algebra used to
// represent content for approximate similarity comparison.
package fingerprint

import (
	"fmt"
	"math/bits"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// #region constants
const (
	// Bits is the fixed width of every fingerprint.
	Bits = 10_000
	// Words is the number of 64-bit words needed to hold Bits.
	Words = (Bits + 63) / 64

	// tailBits is the number of valid bits in the last word.
	tailBits = Bits - (Words-1)*64

	// zeroSeed replaces a zero hash, which would lock the LFSR at zero.
	zeroSeed uint64 = 0x9E3779B97F4A7C15

	// lfsrTaps is the Galois feedback mask for x^64 + x^63 + x^61 + x^60 + 1,
	// a maximal-length polynomial.
	lfsrTaps uint64 = 0xD800000000000000
)

// tailMask clears the bits of the last word that lie beyond Bits.
const tailMask uint64 = (1 << tailBits) - 1

// #endregion constants

// #region fingerprint
// Fingerprint is an immutable 10,000-bit vector stored as packed words.
// Bits above position Bits-1 are always zero, so == is exact bit equality.
type Fingerprint struct {
	data [Words]uint64
}

// Zero returns the all-zero fingerprint.
func Zero() Fingerprint {
	return Fingerprint{}
}

// FromWords builds a fingerprint from raw words. Bits beyond Bits are cleared.
func FromWords(words [Words]uint64) Fingerprint {
	words[Words-1] &= tailMask
	return Fingerprint{data: words}
}

// Words returns a copy of the packed representation.
func (f Fingerprint) Words() [Words]uint64 {
	return f.data
}

// Random draws a fingerprint with independent uniform bits from r.
func Random(r *rand.Rand) Fingerprint {
	var fp Fingerprint
	for i := range fp.data {
		fp.data[i] = r.Uint64()
	}
	fp.data[Words-1] &= tailMask
	return fp
}

// #endregion fingerprint

// #region encode
// Encode maps content to a fingerprint deterministically. A 64-bit structural
// hash seeds a maximal-length Galois LFSR which is stepped once per output bit,
// so identical content yields identical bits on every platform.
func Encode(content string) Fingerprint {
	state := xxhash.Sum64String(content)
	if state == 0 {
		state = zeroSeed
	}

	var fp Fingerprint
	for w := range fp.data {
		var word uint64
		for b := 0; b < 64; b++ {
			out := state & 1
			state >>= 1
			if out == 1 {
				state ^= lfsrTaps
			}
			word |= out << b
		}
		fp.data[w] = word
	}
	fp.data[Words-1] &= tailMask
	return fp
}

// #endregion encode

// #region bit-access
// Bit reports whether bit i is set. Positions wrap modulo Bits.
func (f Fingerprint) Bit(i int) bool {
	pos := wrap(i)
	return f.data[pos/64]>>(pos%64)&1 == 1
}

// Popcount returns the number of set bits.
func (f Fingerprint) Popcount() int {
	n := 0
	for _, w := range f.data {
		n += bits.OnesCount64(w)
	}
	return n
}

// String summarizes the fingerprint without dumping 10,000 bits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("Fingerprint(%d bits set)", f.Popcount())
}

func wrap(i int) int {
	i %= Bits
	if i < 0 {
		i += Bits
	}
	return i
}

// #endregion bit-access

// #region compare
// Hamming returns the number of differing bit positions. Symmetric, and zero
// only when a == b.
func Hamming(a, b Fingerprint) int {
	n := 0
	for i := range a.data {
		n += bits.OnesCount64(a.data[i] ^ b.data[i])
	}
	return n
}

// Similarity returns 1 - Hamming(a, b)/Bits, always within [0, 1].
func Similarity(a, b Fingerprint) float64 {
	return 1 - float64(Hamming(a, b))/Bits
}

// #endregion compare

// #region combine
// Bind combines two fingerprints with XOR. It is commutative, associative and
// self-inverse: Bind(Bind(a, b), a) == b.
func Bind(a, b Fingerprint) Fingerprint {
	var out Fingerprint
	for i := range out.data {
		out.data[i] = a.data[i] ^ b.data[i]
	}
	return out
}

// Unbind recovers b from Bind(a, b) given a.
func Unbind(bound, key Fingerprint) Fingerprint {
	return Bind(bound, key)
}

// Permute rotates every bit position by k modulo Bits. Negative k rotates the
// other way. Used to mark the structural role of a value before binding.
func Permute(f Fingerprint, k int) Fingerprint {
	shift := wrap(k)
	if shift == 0 {
		return f
	}
	var out Fingerprint
	for w, word := range f.data {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			word &= word - 1
			pos := (w*64 + b + shift) % Bits
			out.data[pos/64] |= 1 << (pos % 64)
		}
	}
	return out
}

// Bundle superposes fingerprints by per-bit majority vote. Ties resolve to 0.
// An empty input yields Zero.
func Bundle(fps ...Fingerprint) Fingerprint {
	if len(fps) == 0 {
		return Zero()
	}
	if len(fps) == 1 {
		return fps[0]
	}
	var counts [Bits]uint32
	for _, fp := range fps {
		for w, word := range fp.data {
			for word != 0 {
				b := bits.TrailingZeros64(word)
				word &= word - 1
				counts[w*64+b]++
			}
		}
	}
	var out Fingerprint
	n := uint32(len(fps))
	for pos, c := range counts {
		if 2*c > n {
			out.data[pos/64] |= 1 << (pos % 64)
		}
	}
	return out
}

// #endregion combine
