package portfolio

import (
	"math/rand"
	"time"
)

// RandomSource yields uniform values in [0, 1).
// *rand.Rand satisfies it; one source is shared by every randomized step.
type RandomSource interface {
	Float64() float64
}

// NewRand creates a seeded generator (seed 0 = time based)
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Intn draws a uniform integer in [0, n) from src
func Intn(src RandomSource, n int) int {
	i := int(src.Float64() * float64(n))
	if i >= n {
		// Float64 rounding guard
		i = n - 1
	}
	return i
}
