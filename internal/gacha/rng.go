package gacha

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource abstracts the uniform source used by pool sampling.
type RandomSource interface {
	Float64() float64 // [0, 1)
}

// crypto random : default generation method, safe for concurrent use
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	// Read 53bit random => [0, 1)
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Float64()
	}

	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func DefaultRNG() RandomSource { return cryptoRNG{} }

// Replicable RNG (e.g. Monte Carlo, tests). The PCG state is guarded so one
// seeded source can back a pool shared between goroutines.
type seededRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// fixedRNG always returns the same value; useful for pinning a sample.
type fixedRNG float64

// NewFixedRNG returns a source that always yields v (clamped into [0, 1)).
func NewFixedRNG(v float64) RandomSource {
	if v < 0 {
		v = 0
	}
	if v >= 1 {
		v = 1 - 1e-12
	}
	return fixedRNG(v)
}

func (f fixedRNG) Float64() float64 { return float64(f) }
