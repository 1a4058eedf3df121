package common

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/google/uuid"
)

// IDGenerator returns a fresh opaque identifier on each call.
type IDGenerator func() string

// NewRand returns a seeded generator. Every random draw in a run goes
// through one of these so that a seed reproduces the whole run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}

// UniformInt draws uniformly from the closed interval [lo, hi].
func UniformInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}

// Shuffled returns a permutation of 0..n-1 drawn from rng.
func Shuffled(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx
}

// randReader adapts a *rand.Rand to io.Reader for uuid.NewRandomFromReader.
type randReader struct {
	rng *rand.Rand
}

func (r randReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], r.rng.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

// NewUUIDGenerator returns version 4 UUIDs drawn from rng, so seeded runs
// produce identical ids. A nil rng falls back to crypto-random UUIDs.
func NewUUIDGenerator(rng *rand.Rand) IDGenerator {
	if rng == nil {
		return func() string { return uuid.New().String() }
	}
	reader := randReader{rng: rng}
	return func() string {
		id, err := uuid.NewRandomFromReader(reader)
		if err != nil {
			// randReader never fails
			return uuid.New().String()
		}
		return id.String()
	}
}
