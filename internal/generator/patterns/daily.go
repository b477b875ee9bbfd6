package patterns

// DailyPattern weights the hours of a day by how busy that channel usually is.
type DailyPattern struct {
	// Hourly multipliers (0-23 hours); 1.0 = average activity
	hourlyMultipliers [24]float64
}

// NewDailyPattern returns the retail branch curve: morning peak, lunch peak,
// pre-cutoff rush, quiet nights.
func NewDailyPattern() *DailyPattern {
	return &DailyPattern{hourlyMultipliers: [24]float64{
		0.05, 0.03, 0.02, 0.02, 0.03, 0.08, // 00-05
		0.20, 0.50, 1.40, 1.60, 1.20, 1.00, // 06-11
		1.50, 1.30, 1.10, 1.00, 1.30, 1.20, // 12-17
		0.80, 0.50, 0.30, 0.20, 0.10, 0.05, // 18-23
	}}
}

// NewATMDailyPattern has the strongest lunch peak and an after-work bump.
func NewATMDailyPattern() *DailyPattern {
	return &DailyPattern{hourlyMultipliers: [24]float64{
		0.08, 0.05, 0.03, 0.02, 0.03, 0.05,
		0.15, 0.40, 0.80, 1.00, 0.90, 1.10,
		1.80, 1.50, 1.00, 0.90, 1.00, 1.40,
		1.30, 1.00, 0.60, 0.40, 0.25, 0.15,
	}}
}

// NewOnlineBankingPattern is bimodal: a morning check and evening account management.
func NewOnlineBankingPattern() *DailyPattern {
	return &DailyPattern{hourlyMultipliers: [24]float64{
		0.10, 0.05, 0.03, 0.02, 0.03, 0.10,
		0.30, 0.80, 1.20, 1.40, 1.00, 0.80,
		0.90, 0.80, 0.90, 1.00, 1.20, 1.00,
		1.10, 1.30, 1.40, 1.10, 0.60, 0.25,
	}}
}

// GetMultiplier returns the activity multiplier for an hour (0-23)
func (dp *DailyPattern) GetMultiplier(hour int) float64 {
	if hour < 0 || hour > 23 {
		return 0
	}
	return dp.hourlyMultipliers[hour]
}

// HourIn picks an hour in [from, to] with probability proportional to its
// multiplier. u must be uniform in [0, 1).
func (dp *DailyPattern) HourIn(from, to int, u float64) int {
	from, to = max(from, 0), min(to, 23)
	if from >= to {
		return from
	}
	var total float64
	for h := from; h <= to; h++ {
		total += dp.hourlyMultipliers[h]
	}
	target := u * total
	for h := from; h <= to; h++ {
		target -= dp.hourlyMultipliers[h]
		if target < 0 {
			return h
		}
	}
	return to
}
