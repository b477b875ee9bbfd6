// Package patterns shapes when postings happen, how large they are and which
// accounts carry most of the activity.
package patterns

import (
	"math"
)

// ActivityDistribution spreads activity across accounts following the
// Pareto principle: a small share of accounts carries most of the volume.
type ActivityDistribution struct {
	// paretoRatio is the fraction of accounts that generate most activity
	paretoRatio float64

	// paretoIntensity controls how steep the distribution is
	paretoIntensity float64
}

// NewParetoDistribution creates a Pareto-based activity distribution.
// With ratio=0.2, approximately 20% of accounts generate 80% of activity.
func NewParetoDistribution(ratio float64) *ActivityDistribution {
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.2
	}
	return &ActivityDistribution{
		paretoRatio:     ratio,
		paretoIntensity: math.Log(0.8) / math.Log(ratio),
	}
}

// Ratio returns the configured Pareto ratio
func (ad *ActivityDistribution) Ratio() float64 {
	return ad.paretoRatio
}

// ActivityScore maps a uniform percentile to an activity score in (0, 1].
// Higher percentiles give disproportionately higher scores.
func (ad *ActivityDistribution) ActivityScore(percentile float64) float64 {
	percentile = math.Max(0, math.Min(1, percentile))
	// Floor keeps every account reachable
	return math.Max(0.01, math.Pow(percentile, 1.0/ad.paretoIntensity))
}

// Shape names an amount distribution
type Shape int

const (
	ShapeUniform Shape = iota
	ShapeNormal
	ShapeExponential
)

// AmountDistribution draws amounts in cents from a bounded range.
type AmountDistribution struct {
	minAmount int64
	maxAmount int64
	shape     Shape

	// For ShapeNormal: mean and standard deviation as fractions of the range
	normalMean   float64
	normalStdDev float64
}

// NewAmountRange creates a uniform amount distribution.
func NewAmountRange(minCents, maxCents int64) *AmountDistribution {
	return &AmountDistribution{minAmount: minCents, maxAmount: maxCents, shape: ShapeUniform}
}

// NewNormalAmountRange creates a normal distribution of amounts.
// meanFraction is where the mean falls in the range (0.3 = toward low end).
func NewNormalAmountRange(minCents, maxCents int64, meanFraction, stdDevFraction float64) *AmountDistribution {
	return &AmountDistribution{
		minAmount:    minCents,
		maxAmount:    maxCents,
		shape:        ShapeNormal,
		normalMean:   meanFraction,
		normalStdDev: stdDevFraction,
	}
}

// NewExponentialAmountRange creates an exponential distribution (many small, few large).
func NewExponentialAmountRange(minCents, maxCents int64) *AmountDistribution {
	return &AmountDistribution{minAmount: minCents, maxAmount: maxCents, shape: ShapeExponential}
}

// Bounds returns the range in cents
func (ad *AmountDistribution) Bounds() (minCents, maxCents int64) {
	return ad.minAmount, ad.maxAmount
}

// GenerateAmount returns an amount in cents within the range.
// u must be uniform in [0, 1) and n standard normal.
func (ad *AmountDistribution) GenerateAmount(u, n float64) int64 {
	var fraction float64
	switch ad.shape {
	case ShapeNormal:
		fraction = math.Max(0, math.Min(1, ad.normalMean+n*ad.normalStdDev))
	case ShapeExponential:
		u = math.Min(u, 0.9999)
		fraction = math.Min(1, -math.Log(1-u)/5.0)
	default:
		fraction = u
	}

	amount := roundToNiceAmount(ad.minAmount + int64(float64(ad.maxAmount-ad.minAmount)*fraction))
	return max(ad.minAmount, min(ad.maxAmount, amount))
}

// roundToNiceAmount rounds to common monetary amounts.
// Small amounts round to cents, larger amounts to dollars or fives.
func roundToNiceAmount(cents int64) int64 {
	switch {
	case cents < 1000: // Under 10: round to 5 cents
		return (cents / 5) * 5
	case cents < 10000: // 10-100: round to 25 cents
		return (cents / 25) * 25
	case cents < 100000: // 100-1000: round to 1
		return (cents / 100) * 100
	default: // 1000+: round to 5
		return (cents / 500) * 500
	}
}

// PostingAmounts holds one distribution per posting type, all within 10..5000.
type PostingAmounts struct {
	Deposit    *AmountDistribution
	Withdrawal *AmountDistribution
	Transfer   *AmountDistribution
	Payment    *AmountDistribution
	Fee        *AmountDistribution
}

// NewPostingAmounts creates the standard per-type distributions.
func NewPostingAmounts() *PostingAmounts {
	return &PostingAmounts{
		Deposit:    NewNormalAmountRange(1000, 500000, 0.35, 0.3), // mean ~1750
		Withdrawal: NewNormalAmountRange(2000, 100000, 0.2, 0.25), // ATM-like, mean ~200
		Transfer:   NewExponentialAmountRange(1000, 500000),
		Payment:    NewExponentialAmountRange(1000, 150000),
		Fee:        NewAmountRange(1000, 5000),
	}
}
