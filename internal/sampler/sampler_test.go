package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/utils"
)

func TestBetaStaysInUnitInterval(t *testing.T) {
	rng := utils.NewRandom(42)
	sum := 0.0
	const n = 20000
	for i := 0; i < n; i++ {
		v := Beta(rng, 5, 3)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
		sum += v
	}
	// Mean of Beta(5,3) is 0.625.
	assert.InDelta(t, 0.625, sum/n, 0.01)
}

func TestGammaSmallShape(t *testing.T) {
	rng := utils.NewRandom(7)
	sum := 0.0
	const n = 20000
	for i := 0; i < n; i++ {
		v := Gamma(rng, 0.5)
		require.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 0.5, sum/n, 0.03)
	assert.Zero(t, Gamma(rng, 0))
}

func TestScaledBetaIntMean(t *testing.T) {
	rng := utils.NewRandom(42)
	sum := 0
	const n = 20000
	for i := 0; i < n; i++ {
		v := ScaledBetaInt(rng, 6.9, 3.1, 300, 850)
		require.GreaterOrEqual(t, v, 300)
		require.LessOrEqual(t, v, 850)
		sum += v
	}
	assert.InDelta(t, 680, float64(sum)/n, 5)
}

func TestBoundedNormal(t *testing.T) {
	rng := utils.NewRandom(42)
	for i := 0; i < 5000; i++ {
		v := BoundedNormal(rng, 40, 15, 18, 80)
		assert.GreaterOrEqual(t, v, 18.0)
		assert.LessOrEqual(t, v, 80.0)

		n := BoundedNormalInt(rng, 600, 40, 300, 850)
		assert.GreaterOrEqual(t, n, 300)
		assert.LessOrEqual(t, n, 850)
	}
}

func TestWeighted(t *testing.T) {
	rng := utils.NewRandom(42)
	choices := []Choice[string]{
		{Value: "never", Weight: 0},
		{Value: "mostly", Weight: 90},
		{Value: "rarely", Weight: 10},
	}
	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		counts[Weighted(rng, choices)]++
	}
	assert.Zero(t, counts["never"])
	assert.InDelta(t, 9000, counts["mostly"], 300)

	assert.Equal(t, "", Weighted[string](rng, nil))
}

func TestPick(t *testing.T) {
	rng := utils.NewRandom(1)
	values := []int{12, 24, 36}
	for i := 0; i < 100; i++ {
		assert.Contains(t, values, Pick(rng, values))
	}
	assert.Zero(t, Pick[int](rng, nil))
}

func TestUniformDecimalPlaces(t *testing.T) {
	rng := utils.NewRandom(3)
	for i := 0; i < 1000; i++ {
		d := UniformDecimal(rng, 2.5, 4.5, 4)
		assert.LessOrEqual(t, -d.Exponent(), int32(4))
		f := d.InexactFloat64()
		assert.GreaterOrEqual(t, f, 2.5)
		assert.LessOrEqual(t, f, 4.5)
	}
}

func TestDateHelpers(t *testing.T) {
	rng := utils.NewRandom(9)
	now := time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)

	for i := 0; i < 1000; i++ {
		d := DateWithinYears(rng, now, 1, 20)
		assert.False(t, d.After(now.AddDate(-1, 0, 0)))
		assert.False(t, d.Before(utils.TruncateDay(now.AddDate(-20, 0, 0))))

		w := DateWithinDays(rng, now, 365)
		assert.False(t, w.After(now))

		ts := TimeOfDay(rng, w, 9, 17)
		assert.GreaterOrEqual(t, ts.Hour(), 9)
		assert.LessOrEqual(t, ts.Hour(), 17)
	}
}
