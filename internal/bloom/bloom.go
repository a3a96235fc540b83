// Package bloom implements the feed-forward Bloom pair described by the
// indexing engine: a primary filter answering probabilistic membership
// with no false negatives, and a secondary filter that records which
// items have ever drawn a positive primary lookup, for later candidate
// warming.
package bloom

import (
	"encoding/binary"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// secondarySeedOffset separates the secondary filter's hash family from
// the primary's, per the specification's "seeded with the function index
// for P and with index + 0xA5A5A5A5 for S".
const secondarySeedOffset = 0xA5A5A5A5

// Pair holds the primary (P) and secondary (S) bit arrays and the shared
// probe count k.
type Pair struct {
	p []byte
	s []byte
	k int
}

// New constructs a Pair with primary/secondary sizes given in bits and k
// seeded hash probes per item.
func New(primaryBits, secondaryBits uint64, k int) *Pair {
	return &Pair{
		p: make([]byte, (primaryBits+7)/8),
		s: make([]byte, (secondaryBits+7)/8),
		k: k,
	}
}

func bitLen(bitmap []byte) uint64 { return uint64(len(bitmap)) * 8 }

func setBit(bitmap []byte, idx uint64) {
	bitmap[idx/8] |= 1 << (idx % 8)
}

func getBit(bitmap []byte, idx uint64) bool {
	return bitmap[idx/8]&(1<<(idx%8)) != 0
}

// probe returns the bit index for the seed-th hash of item within a
// bitmap of the given bit length.
func probe(seed uint64, item uint32, nbits uint64) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)
	binary.LittleEndian.PutUint32(buf[8:12], item)
	h := xxhash.Sum64(buf[:])
	// A power-of-two size (as the defaults are) reduces with a mask,
	// which gives the same result as h % nbits; any other size falls back
	// to a plain modulo.
	if bits.OnesCount64(nbits) == 1 {
		return h & (nbits - 1)
	}
	return h % nbits
}

// Add sets item's k bits in the primary filter.
func (b *Pair) Add(item uint32) {
	nbits := bitLen(b.p)
	for i := 0; i < b.k; i++ {
		setBit(b.p, probe(uint64(i), item, nbits))
	}
}

// Check reports whether all of item's k bits are set in the primary
// filter. A false return is definitive: item's trigrams were never
// added. A true return may be a false positive, which the posting-list
// intersection stage resolves. On a true return, Check also sets item's
// k bits in the secondary filter, recording that item was asked about.
func (b *Pair) Check(item uint32) bool {
	pbits := bitLen(b.p)
	for i := 0; i < b.k; i++ {
		if !getBit(b.p, probe(uint64(i), item, pbits)) {
			return false
		}
	}
	sbits := bitLen(b.s)
	for i := 0; i < b.k; i++ {
		setBit(b.s, probe(uint64(i)+secondarySeedOffset, item, sbits))
	}
	return true
}

// Candidates returns the subset of patterns previously recorded as a
// positive primary lookup, i.e. whose k secondary bits are all set. It
// is analytics only: the engine's query path does not call it, and it
// never gates a query's results.
func (b *Pair) Candidates(patterns []uint32) []uint32 {
	sbits := bitLen(b.s)
	var out []uint32
	for _, item := range patterns {
		hit := true
		for i := 0; i < b.k; i++ {
			if !getBit(b.s, probe(uint64(i)+secondarySeedOffset, item, sbits)) {
				hit = false
				break
			}
		}
		if hit {
			out = append(out, item)
		}
	}
	return out
}
