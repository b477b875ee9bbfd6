package utils

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"sync"
	"time"
)

// Random provides a deterministic pseudo-random number generator with
// convenient methods for common generation tasks. It's designed to be
// reproducible given the same seed.
type Random struct {
	rng  *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRandom creates a new Random instance with the given seed.
// If seed is 0, a cryptographically random seed is generated.
func NewRandom(seed int64) *Random {
	var actualSeed uint64
	if seed == 0 {
		actualSeed = generateRandomSeed()
	} else {
		actualSeed = uint64(seed)
	}

	return &Random{
		rng:  rand.New(rand.NewPCG(actualSeed, actualSeed^0xDEADBEEF)),
		seed: actualSeed,
	}
}

// generateRandomSeed creates a cryptographically random seed
func generateRandomSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// Fallback to time-based seed if crypto/rand fails
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:]) >> 1
}

// Seed returns the seed used to initialize this RNG
func (r *Random) Seed() uint64 {
	return r.seed
}

// Derive returns an independent child stream keyed by tag.
// The child depends only on this instance's seed and the tag, never on how many
// values have already been drawn, so siblings can be derived in any order
// (or concurrently) and still produce the same sequences.
func (r *Random) Derive(tag string) *Random {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], r.seed)

	h := sha256.New()
	h.Write(b[:])
	h.Write([]byte(tag))
	sum := h.Sum(nil)

	s1 := binary.LittleEndian.Uint64(sum[0:8])
	s2 := binary.LittleEndian.Uint64(sum[8:16])
	return &Random{
		rng:  rand.New(rand.NewPCG(s1, s2)),
		seed: s1,
	}
}

// IntN returns a pseudo-random int in [0, n)
func (r *Random) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// IntRange returns a pseudo-random int in [min, max]
func (r *Random) IntRange(min, max int) int {
	if min >= max {
		return min
	}
	return min + r.IntN(max-min+1)
}

// Int64N returns a pseudo-random int64 in [0, n)
func (r *Random) Int64N(n int64) int64 {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Int64N(n)
}

// Int64Range returns a pseudo-random int64 in [min, max]
func (r *Random) Int64Range(min, max int64) int64 {
	if min >= max {
		return min
	}
	return min + r.Int64N(max-min+1)
}

// Float64 returns a pseudo-random float64 in [0.0, 1.0)
func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Float64Range returns a pseudo-random float64 in [min, max)
func (r *Random) Float64Range(min, max float64) float64 {
	if min >= max {
		return min
	}
	return min + r.Float64()*(max-min)
}

// Bool returns a pseudo-random boolean
func (r *Random) Bool() bool {
	return r.IntN(2) == 1
}

// Probability returns true with the given probability (0.0 to 1.0)
func (r *Random) Probability(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}

// PickString returns a random string from the slice
func (r *Random) PickString(slice []string) string {
	if len(slice) == 0 {
		return ""
	}
	return slice[r.IntN(len(slice))]
}

// WeightedPick selects an index based on weights
// weights[i] is the relative weight for index i
func (r *Random) WeightedPick(weights []int) int {
	if len(weights) == 0 {
		return -1
	}

	total := 0
	for _, w := range weights {
		total += w
	}

	if total <= 0 {
		return r.IntN(len(weights))
	}

	target := r.IntN(total) + 1
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if target <= cumulative {
			return i
		}
	}

	return len(weights) - 1
}

// NormalFloat64 returns a normally distributed float64 with mean 0 and stddev 1
func (r *Random) NormalFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.NormFloat64()
}

// NormalFloat64Range returns a normally distributed float64 with given mean and stddev
func (r *Random) NormalFloat64Range(mean, stddev float64) float64 {
	return mean + r.NormalFloat64()*stddev
}

// Duration returns a random duration in [min, max]
func (r *Random) Duration(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + time.Duration(r.Int64N(int64(max-min+1)))
}

// DaysBetween returns a random calendar day in [start, end], truncated to midnight UTC.
func (r *Random) DaysBetween(start, end time.Time) time.Time {
	start = TruncateDay(start)
	end = TruncateDay(end)
	if !start.Before(end) {
		return start
	}
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, r.IntRange(0, days))
}

// NumericString generates a random numeric string of the given length
func (r *Random) NumericString(length int) string {
	const charset = "0123456789"
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[r.IntN(len(charset))]
	}
	return string(result)
}

// TruncateDay drops the clock part of t and normalizes it to UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
