package patterns

import (
	"time"
)

// WeeklyPattern provides activity multipliers based on day of week.
type WeeklyPattern struct {
	// Daily multipliers indexed by time.Weekday (0=Sunday, 6=Saturday)
	dailyMultipliers [7]float64
	peak             float64
}

func newWeeklyPattern(m [7]float64) *WeeklyPattern {
	wp := &WeeklyPattern{dailyMultipliers: m}
	for _, v := range m {
		wp.peak = max(wp.peak, v)
	}
	return wp
}

// NewWeeklyPattern is the retail week: quiet Sundays, busy Mondays and Fridays.
func NewWeeklyPattern() *WeeklyPattern {
	return newWeeklyPattern([7]float64{0.40, 1.20, 1.00, 1.00, 1.00, 1.30, 0.60})
}

// NewATMWeeklyPattern is flatter, with weekend cash needs.
func NewATMWeeklyPattern() *WeeklyPattern {
	return newWeeklyPattern([7]float64{0.70, 0.90, 1.00, 1.10, 1.10, 1.30, 0.90})
}

// GetMultiplier returns the multiplier for a weekday
func (wp *WeeklyPattern) GetMultiplier(day time.Weekday) float64 {
	return wp.dailyMultipliers[day]
}

// Accept thins a uniformly drawn day down to the weekly shape: keep the day
// when u falls under its multiplier relative to the busiest day.
func (wp *WeeklyPattern) Accept(day time.Time, u float64) bool {
	return u*wp.peak < wp.dailyMultipliers[day.Weekday()]
}
