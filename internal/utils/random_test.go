package utils

import (
	"testing"
	"time"
)

func TestRandomReproducibility(t *testing.T) {
	seed := int64(42)

	rng1 := NewRandom(seed)
	rng2 := NewRandom(seed)

	t.Run("IntN", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v1 := rng1.IntN(1000)
			v2 := rng2.IntN(1000)
			if v1 != v2 {
				t.Errorf("Mismatch at iteration %d: %d != %d", i, v1, v2)
				return
			}
		}
	})

	rng1 = NewRandom(seed)
	rng2 = NewRandom(seed)

	t.Run("Mixed operations", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			if rng1.IntN(100) != rng2.IntN(100) {
				t.Error("IntN mismatch")
				return
			}
			if rng1.Float64() != rng2.Float64() {
				t.Error("Float64 mismatch")
				return
			}
			if rng1.NormalFloat64() != rng2.NormalFloat64() {
				t.Error("NormalFloat64 mismatch")
				return
			}
		}
	})
}

func TestRandomSeedStorage(t *testing.T) {
	rng := NewRandom(12345)
	if rng.Seed() != 12345 {
		t.Errorf("Expected seed 12345, got %d", rng.Seed())
	}

	rng = NewRandom(0)
	if rng.Seed() == 0 {
		t.Error("Expected non-zero auto-generated seed")
	}
}

func TestRandomDerive(t *testing.T) {
	t.Run("same tag same stream", func(t *testing.T) {
		a := NewRandom(42).Derive("loan")
		b := NewRandom(42).Derive("loan")
		for i := 0; i < 100; i++ {
			if a.IntN(1000) != b.IntN(1000) {
				t.Errorf("Derived streams diverged at iteration %d", i)
				return
			}
		}
	})

	t.Run("independent of parent draws", func(t *testing.T) {
		parent1 := NewRandom(42)
		parent2 := NewRandom(42)
		for i := 0; i < 50; i++ {
			parent2.IntN(10)
		}
		a := parent1.Derive("account")
		b := parent2.Derive("account")
		for i := 0; i < 100; i++ {
			if a.Float64() != b.Float64() {
				t.Errorf("Derive depended on parent state at iteration %d", i)
				return
			}
		}
	})

	t.Run("different tags differ", func(t *testing.T) {
		root := NewRandom(42)
		a := root.Derive("customer")
		b := root.Derive("account")
		same := 0
		for i := 0; i < 100; i++ {
			if a.IntN(1_000_000) == b.IntN(1_000_000) {
				same++
			}
		}
		if same > 5 {
			t.Errorf("Expected distinct streams, %d of 100 draws matched", same)
		}
	})

	t.Run("nested derivation is stable", func(t *testing.T) {
		a := NewRandom(7).Derive("transaction").Derive("chunk/3")
		b := NewRandom(7).Derive("transaction").Derive("chunk/3")
		if a.Seed() != b.Seed() {
			t.Errorf("Nested seeds differ: %d != %d", a.Seed(), b.Seed())
		}
	})
}

func TestRandomRanges(t *testing.T) {
	rng := NewRandom(42)

	t.Run("IntRange", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v := rng.IntRange(10, 20)
			if v < 10 || v > 20 {
				t.Errorf("IntRange(10, 20) returned %d", v)
			}
		}
	})

	t.Run("Int64Range", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v := rng.Int64Range(100, 200)
			if v < 100 || v > 200 {
				t.Errorf("Int64Range(100, 200) returned %d", v)
			}
		}
	})

	t.Run("Float64Range", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			v := rng.Float64Range(1.0, 2.0)
			if v < 1.0 || v >= 2.0 {
				t.Errorf("Float64Range(1.0, 2.0) returned %f", v)
			}
		}
	})

	t.Run("Duration", func(t *testing.T) {
		min := 100 * time.Millisecond
		max := 500 * time.Millisecond
		for i := 0; i < 1000; i++ {
			v := rng.Duration(min, max)
			if v < min || v > max {
				t.Errorf("Duration(%v, %v) returned %v", min, max, v)
			}
		}
	})

	t.Run("DaysBetween", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)
		end := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		for i := 0; i < 1000; i++ {
			v := rng.DaysBetween(start, end)
			if v.Before(TruncateDay(start)) || v.After(TruncateDay(end)) {
				t.Errorf("DaysBetween returned %v", v)
			}
			if v.Hour() != 0 || v.Minute() != 0 {
				t.Errorf("DaysBetween returned non-midnight %v", v)
			}
		}
	})
}

func TestRandomProbability(t *testing.T) {
	rng := NewRandom(42)

	for i := 0; i < 100; i++ {
		if rng.Probability(0) {
			t.Error("Probability(0) returned true")
		}
		if !rng.Probability(1) {
			t.Error("Probability(1) returned false")
		}
	}

	trueCount := 0
	iterations := 10000
	for i := 0; i < iterations; i++ {
		if rng.Probability(0.5) {
			trueCount++
		}
	}
	ratio := float64(trueCount) / float64(iterations)
	if ratio < 0.45 || ratio > 0.55 {
		t.Errorf("Probability(0.5) returned %.2f%% true, expected ~50%%", ratio*100)
	}
}

func TestRandomWeightedPick(t *testing.T) {
	rng := NewRandom(42)

	weights := []int{1, 1, 1, 1000}
	counts := make([]int, len(weights))

	iterations := 10000
	for i := 0; i < iterations; i++ {
		idx := rng.WeightedPick(weights)
		counts[idx]++
	}

	if counts[3] < 9000 {
		t.Errorf("Weighted pick: expected index 3 to be picked >9000 times, got %d", counts[3])
	}

	if idx := rng.WeightedPick(nil); idx != -1 {
		t.Errorf("WeightedPick(nil) returned %d, expected -1", idx)
	}
}

func TestRandomNumericString(t *testing.T) {
	rng := NewRandom(42)

	str := rng.NumericString(10)
	if len(str) != 10 {
		t.Errorf("NumericString(10) returned length %d", len(str))
	}

	for _, c := range str {
		if c < '0' || c > '9' {
			t.Errorf("NumericString contained non-digit: %c", c)
		}
	}
}
