// Package amortization computes equated monthly installments and outstanding
// principal for fixed-rate loans.
//
// All arithmetic is decimal. Money results are rounded half away from zero
// to cents, and the per-installment split is derived from the same rounded
// balances so that principal paid always reconciles with the outstanding
// balance to the cent.
package amortization

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// DaysPerMonth is the fixed month length used for elapsed-term and due-date math.
const DaysPerMonth = 30

// factorPlaces bounds the precision of intermediate compound factors.
const factorPlaces = 24

// ErrInvalidTerms is returned for a non-positive term, negative principal or negative rate.
var ErrInvalidTerms = errors.New("invalid loan terms")

// MaxPrincipal bounds principals read from user input. Money holds int64
// cents, so much larger values would wrap.
var MaxPrincipal = decimal.NewFromInt(1_000_000_000_000)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Terms describes a loan for amortization.
type Terms struct {
	Principal         utils.Money
	AnnualRatePercent decimal.Decimal
	TermMonths        int
	StartDate         time.Time
}

// Result is the state of a loan at a point in time.
type Result struct {
	EMI           utils.Money
	MonthsElapsed int
	PaymentsMade  int
	Outstanding   utils.Money
}

// Installment is one row of the repayment plan.
type Installment struct {
	Number    int
	DueDate   time.Time
	Principal utils.Money
	Interest  utils.Money
	Total     utils.Money
	// Balance is the outstanding principal after this installment.
	Balance utils.Money
}

// Plan holds the precomputed compound factors for one set of terms.
// A Plan is immutable and safe for concurrent use.
type Plan struct {
	terms       Terms
	monthlyRate decimal.Decimal
	// growth[k] = (1+r)^k for k in 0..n
	growth []decimal.Decimal
	emi    utils.Money
}

// Validate checks the terms without computing anything.
func (t Terms) Validate() error {
	switch {
	case t.TermMonths <= 0:
		return fmt.Errorf("%w: term %d months", ErrInvalidTerms, t.TermMonths)
	case t.Principal.IsNegative():
		return fmt.Errorf("%w: principal %s", ErrInvalidTerms, t.Principal)
	case t.AnnualRatePercent.IsNegative():
		return fmt.Errorf("%w: rate %s%%", ErrInvalidTerms, t.AnnualRatePercent)
	}
	return nil
}

// PrincipalFromDecimal converts a user-supplied principal to Money,
// rejecting negative values and values above MaxPrincipal.
func PrincipalFromDecimal(d decimal.Decimal) (utils.Money, error) {
	if d.IsNegative() || d.GreaterThan(MaxPrincipal) {
		return 0, fmt.Errorf("%w: principal %s is outside 0..%s", ErrInvalidTerms, d, MaxPrincipal)
	}
	return utils.FromDecimal(d), nil
}

// MonthlyRate returns annualRatePercent / 12 / 100.
func (t Terms) MonthlyRate() decimal.Decimal {
	return t.AnnualRatePercent.Div(twelve).Div(hundred)
}

// NewPlan validates terms and precomputes the EMI.
func NewPlan(terms Terms) (*Plan, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	p := &Plan{
		terms:       terms,
		monthlyRate: terms.MonthlyRate(),
	}

	n := terms.TermMonths
	principal := terms.Principal.Decimal()

	if p.monthlyRate.IsZero() {
		p.emi = utils.FromDecimal(principal.Div(decimal.NewFromInt(int64(n))))
		return p, nil
	}

	onePlusR := decimal.NewFromInt(1).Add(p.monthlyRate)
	p.growth = make([]decimal.Decimal, n+1)
	p.growth[0] = decimal.NewFromInt(1)
	for k := 1; k <= n; k++ {
		p.growth[k] = p.growth[k-1].Mul(onePlusR).Round(factorPlaces)
	}

	gn := p.growth[n]
	p.emi = utils.FromDecimal(principal.Mul(p.monthlyRate).Mul(gn).Div(gn.Sub(decimal.NewFromInt(1))))
	return p, nil
}

// Terms returns the terms the plan was built from.
func (p *Plan) Terms() Terms {
	return p.terms
}

// EMI returns the rounded equated monthly installment.
func (p *Plan) EMI() utils.Money {
	return p.emi
}

// OutstandingAfter returns the principal still owed after k installments.
// k is clamped to [0, term].
func (p *Plan) OutstandingAfter(k int) utils.Money {
	n := p.terms.TermMonths
	if k <= 0 {
		return p.terms.Principal
	}
	if k >= n {
		return 0
	}

	principal := p.terms.Principal.Decimal()
	var out decimal.Decimal
	if p.monthlyRate.IsZero() {
		out = principal.Mul(decimal.NewFromInt(int64(n - k))).Div(decimal.NewFromInt(int64(n)))
	} else {
		gn := p.growth[n]
		out = principal.Mul(gn.Sub(p.growth[k])).Div(gn.Sub(decimal.NewFromInt(1)))
	}

	m := utils.FromDecimal(out)
	if m.IsNegative() {
		return 0
	}
	return m
}

// At evaluates the plan as of now.
func (p *Plan) At(now time.Time) Result {
	elapsed := MonthsElapsed(p.terms.StartDate, now)
	paid := min(elapsed, p.terms.TermMonths)
	return Result{
		EMI:           p.emi,
		MonthsElapsed: elapsed,
		PaymentsMade:  paid,
		Outstanding:   p.OutstandingAfter(paid),
	}
}

// DueDate returns the due date of installment k (1-based).
func (p *Plan) DueDate(k int) time.Time {
	return utils.TruncateDay(p.terms.StartDate).AddDate(0, 0, DaysPerMonth*k)
}

// Installments returns the full repayment plan.
// Principal due for installment k is OutstandingAfter(k-1) - OutstandingAfter(k),
// so the principal column always telescopes to the opening balance.
func (p *Plan) Installments() []Installment {
	n := p.terms.TermMonths
	rows := make([]Installment, 0, n)
	prev := p.terms.Principal
	for k := 1; k <= n; k++ {
		bal := p.OutstandingAfter(k)
		principal := prev.Sub(bal)
		interest := p.emi.Sub(principal)
		if interest.IsNegative() {
			interest = 0
		}
		rows = append(rows, Installment{
			Number:    k,
			DueDate:   p.DueDate(k),
			Principal: principal,
			Interest:  interest,
			Total:     principal.Add(interest),
			Balance:   bal,
		})
		prev = bal
	}
	return rows
}

// Amortize computes EMI, elapsed months, payments made and outstanding
// principal for terms as of now.
func Amortize(terms Terms, now time.Time) (Result, error) {
	p, err := NewPlan(terms)
	if err != nil {
		return Result{}, err
	}
	return p.At(now), nil
}

// MonthsElapsed returns floor(days between start and now / 30), never negative.
func MonthsElapsed(start, now time.Time) int {
	days := int(utils.TruncateDay(now).Sub(utils.TruncateDay(start)).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return days / DaysPerMonth
}
