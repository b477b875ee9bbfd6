package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHourInStaysInWindow(t *testing.T) {
	dp := NewATMDailyPattern()
	for i := range 1000 {
		u := float64(i) / 1000
		h := dp.HourIn(9, 17, u)
		assert.True(t, h >= 9 && h <= 17, "u=%v gave hour %d", u, h)
	}
	assert.Equal(t, 9, dp.HourIn(9, 17, 0))
	assert.Equal(t, 17, dp.HourIn(9, 17, 0.999999))
	assert.Equal(t, 5, dp.HourIn(5, 5, 0.5))
}

func TestHourInFollowsMultipliers(t *testing.T) {
	dp := NewATMDailyPattern()
	counts := make(map[int]int)
	for i := range 10000 {
		counts[dp.HourIn(9, 17, float64(i)/10000)]++
	}
	// Lunch is the ATM peak
	assert.Greater(t, counts[12], counts[9])
	assert.Greater(t, counts[12], counts[15])
}

func TestWeeklyAccept(t *testing.T) {
	wp := NewWeeklyPattern()
	friday := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC)

	// The busiest day is always kept
	assert.True(t, wp.Accept(friday, 0.99))
	assert.True(t, wp.Accept(sunday, 0.1))
	assert.False(t, wp.Accept(sunday, 0.5))
}

func TestActivityScoreIsSkewed(t *testing.T) {
	ad := NewParetoDistribution(0.2)
	assert.Equal(t, 0.2, ad.Ratio())

	low := ad.ActivityScore(0.5)
	high := ad.ActivityScore(0.99)
	assert.Greater(t, high, low)
	assert.GreaterOrEqual(t, ad.ActivityScore(0), 0.01)
	assert.LessOrEqual(t, ad.ActivityScore(1), 1.0)

	// Out-of-range ratios fall back to 0.2
	assert.Equal(t, 0.2, NewParetoDistribution(1.5).Ratio())
}

func TestAmountsStayInBounds(t *testing.T) {
	amounts := NewPostingAmounts()
	for _, d := range []*AmountDistribution{amounts.Deposit, amounts.Withdrawal, amounts.Transfer, amounts.Payment, amounts.Fee} {
		lo, hi := d.Bounds()
		for i := range 200 {
			u := float64(i) / 200
			n := (u - 0.5) * 8
			a := d.GenerateAmount(u, n)
			assert.GreaterOrEqual(t, a, lo)
			assert.LessOrEqual(t, a, hi)
			assert.GreaterOrEqual(t, a, int64(1000))
			assert.LessOrEqual(t, a, int64(500000))
		}
	}
}

func TestRoundToNiceAmount(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{999, 995},
		{1234, 1225},
		{12345, 12300},
		{123456, 123000},
		{123999, 123500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundToNiceAmount(tt.in), "in=%d", tt.in)
	}
}
