// Package risk holds the credit-risk rules shared by the customer and loan
// factories: score thresholds, rate premiums, delinquency sampling and the
// derived loan status.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/sampler"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Category is a coarse credit-risk class.
type Category string

const (
	CategoryLow    Category = "LOW"
	CategoryMedium Category = "MEDIUM"
	CategoryHigh   Category = "HIGH"
)

// Categories lists every category, best first.
var Categories = []Category{CategoryLow, CategoryMedium, CategoryHigh}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryLow || c == CategoryMedium || c == CategoryHigh
}

// LoanStatus is the delinquency-derived state of a loan.
type LoanStatus string

const (
	StatusCurrent    LoanStatus = "CURRENT"
	StatusDelinquent LoanStatus = "DELINQUENT"
	StatusDefault    LoanStatus = "DEFAULT"
	StatusClosed     LoanStatus = "CLOSED"
)

// Valid reports whether s is a known loan status.
func (s LoanStatus) Valid() bool {
	switch s {
	case StatusCurrent, StatusDelinquent, StatusDefault, StatusClosed:
		return true
	}
	return false
}

// Credit score bounds.
const (
	MinScore = 300
	MaxScore = 850
)

// Default score thresholds for LOW and MEDIUM.
const (
	DefaultLowThreshold    = 720
	DefaultMediumThreshold = 650
)

// DefaultThreshold is the dpd at which a delinquent loan becomes DEFAULT.
const DefaultThreshold = 90

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid risk policy")

// Policy is a read-only lookup of the risk rules. Build one per run and share it.
type Policy struct {
	// LowThreshold is the minimum score for LOW, MediumThreshold for MEDIUM.
	LowThreshold    int
	MediumThreshold int

	RatePremium            map[Category]decimal.Decimal
	DelinquencyProbability map[Category]float64
	DaysPastDueBuckets     []sampler.Choice[int]
}

// DefaultPolicy returns the standard thresholds (720/650), premiums (0/1/2),
// delinquency probabilities (2/5/12 %) and dpd buckets.
func DefaultPolicy() *Policy {
	return &Policy{
		LowThreshold:    DefaultLowThreshold,
		MediumThreshold: DefaultMediumThreshold,
		RatePremium: map[Category]decimal.Decimal{
			CategoryLow:    decimal.Zero,
			CategoryMedium: decimal.NewFromInt(1),
			CategoryHigh:   decimal.NewFromInt(2),
		},
		DelinquencyProbability: map[Category]float64{
			CategoryLow:    0.02,
			CategoryMedium: 0.05,
			CategoryHigh:   0.12,
		},
		DaysPastDueBuckets: []sampler.Choice[int]{
			{Value: 0, Weight: 50},
			{Value: 15, Weight: 25},
			{Value: 45, Weight: 15},
			{Value: 75, Weight: 7},
			{Value: 120, Weight: 3},
		},
	}
}

// NewPolicy returns DefaultPolicy with the given thresholds, validated.
func NewPolicy(lowThreshold, mediumThreshold int) (*Policy, error) {
	p := DefaultPolicy()
	p.LowThreshold = lowThreshold
	p.MediumThreshold = mediumThreshold
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks thresholds, probabilities and buckets.
func (p *Policy) Validate() error {
	if p.MediumThreshold < MinScore || p.LowThreshold > MaxScore {
		return fmt.Errorf("%w: thresholds must lie within %d..%d", ErrInvalidPolicy, MinScore, MaxScore)
	}
	if p.MediumThreshold >= p.LowThreshold {
		return fmt.Errorf("%w: medium threshold %d must be below low threshold %d",
			ErrInvalidPolicy, p.MediumThreshold, p.LowThreshold)
	}
	for _, c := range Categories {
		prob, ok := p.DelinquencyProbability[c]
		if !ok || prob < 0 || prob > 1 {
			return fmt.Errorf("%w: delinquency probability for %s", ErrInvalidPolicy, c)
		}
		if prem, ok := p.RatePremium[c]; !ok || prem.IsNegative() {
			return fmt.Errorf("%w: rate premium for %s", ErrInvalidPolicy, c)
		}
	}
	if len(p.DaysPastDueBuckets) == 0 {
		return fmt.Errorf("%w: no days-past-due buckets", ErrInvalidPolicy)
	}
	return nil
}

// Categorize maps a credit score to its category.
func (p *Policy) Categorize(score int) Category {
	switch {
	case score >= p.LowThreshold:
		return CategoryLow
	case score >= p.MediumThreshold:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// Premium returns the annual rate add-on, in percentage points, for c.
func (p *Policy) Premium(c Category) decimal.Decimal {
	return p.RatePremium[c]
}

// SampleDaysPastDue draws a Bernoulli trial against the category's delinquency
// probability and, on success, a dpd from the weighted buckets. A zero bucket
// inside the delinquent branch is still zero.
func (p *Policy) SampleDaysPastDue(rng *utils.Random, c Category) int {
	if !rng.Probability(p.DelinquencyProbability[c]) {
		return 0
	}
	return sampler.Weighted(rng, p.DaysPastDueBuckets)
}

// Status derives the loan status from the outstanding balance and dpd.
func Status(outstanding utils.Money, dpd int) LoanStatus {
	switch {
	case outstanding.IsZero():
		return StatusClosed
	case dpd >= DefaultThreshold:
		return StatusDefault
	case dpd > 0:
		return StatusDelinquent
	default:
		return StatusCurrent
	}
}

// Arrears is emi * floor(dpd/30), or zero when dpd is zero.
func Arrears(emi utils.Money, dpd int) utils.Money {
	if dpd <= 0 {
		return 0
	}
	return emi.Mul(int64(dpd / 30))
}

// OverdueInstallments is the number of most recent installments left unpaid
// for a given dpd: ceil(dpd/30).
func OverdueInstallments(dpd int) int {
	if dpd <= 0 {
		return 0
	}
	return (dpd + 29) / 30
}
