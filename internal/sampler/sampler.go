// Package sampler provides the statistical primitives the factories draw from.
// Every function takes the caller's *utils.Random; nothing here holds state.
package sampler

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Choice is one weighted option for Weighted.
type Choice[T any] struct {
	Value  T
	Weight int
}

// Weighted picks one value with probability proportional to its weight.
func Weighted[T any](rng *utils.Random, choices []Choice[T]) T {
	var zero T
	if len(choices) == 0 {
		return zero
	}
	weights := make([]int, len(choices))
	for i, c := range choices {
		weights[i] = c.Weight
	}
	return choices[rng.WeightedPick(weights)].Value
}

// Pick returns a uniformly chosen element, or the zero value for an empty slice.
func Pick[T any](rng *utils.Random, values []T) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	return values[rng.IntN(len(values))]
}

// UniformDecimal returns a value in [min, max) rounded to places.
func UniformDecimal(rng *utils.Random, min, max float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(rng.Float64Range(min, max)).Round(places)
}

// UniformMoney returns an amount in [min, max] major units, at cent resolution.
func UniformMoney(rng *utils.Random, min, max float64) utils.Money {
	return utils.RandomAmount(rng, utils.FromFloat(min), utils.FromFloat(max))
}

// BoundedNormal draws from N(mean, stddev) and clamps the result to [min, max].
func BoundedNormal(rng *utils.Random, mean, stddev, min, max float64) float64 {
	v := rng.NormalFloat64Range(mean, stddev)
	return math.Max(min, math.Min(max, v))
}

// BoundedNormalInt truncates a bounded normal draw to an int.
func BoundedNormalInt(rng *utils.Random, mean, stddev float64, min, max int) int {
	v := int(rng.NormalFloat64Range(mean, stddev))
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Gamma draws from Gamma(shape, 1) using Marsaglia and Tsang's method.
func Gamma(rng *utils.Random, shape float64) float64 {
	if shape <= 0 {
		return 0
	}
	if shape < 1 {
		// Boost to shape+1 and scale back with U^(1/shape).
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return Gamma(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := rng.NormalFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// Beta draws from Beta(alpha, beta) on [0, 1].
func Beta(rng *utils.Random, alpha, beta float64) float64 {
	x := Gamma(rng, alpha)
	y := Gamma(rng, beta)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

// ScaledBetaInt maps a Beta(alpha, beta) draw onto the integer range [min, max].
func ScaledBetaInt(rng *utils.Random, alpha, beta float64, min, max int) int {
	v := min + int(Beta(rng, alpha, beta)*float64(max-min))
	if v > max {
		return max
	}
	return v
}

// DateBetween returns a calendar day in [start, end].
func DateBetween(rng *utils.Random, start, end time.Time) time.Time {
	return rng.DaysBetween(start, end)
}

// DateWithinDays returns a calendar day in the last days days up to and including now.
func DateWithinDays(rng *utils.Random, now time.Time, days int) time.Time {
	return rng.DaysBetween(now.AddDate(0, 0, -days), now)
}

// DateWithinYears returns a calendar day between maxYears and minYears before now.
func DateWithinYears(rng *utils.Random, now time.Time, minYears, maxYears int) time.Time {
	return rng.DaysBetween(now.AddDate(-maxYears, 0, 0), now.AddDate(-minYears, 0, 0))
}

// TimeOfDay places day at a random whole hour in [fromHour, toHour].
func TimeOfDay(rng *utils.Random, day time.Time, fromHour, toHour int) time.Time {
	return utils.TruncateDay(day).Add(time.Duration(rng.IntRange(fromHour, toHour)) * time.Hour)
}
