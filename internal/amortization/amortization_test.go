package amortization

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/utils"
)

var now = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func standardTerms() Terms {
	return Terms{
		Principal:         utils.Dollars(100000),
		AnnualRatePercent: decimal.NewFromInt(6),
		TermMonths:        60,
		StartDate:         now.AddDate(0, 0, -24*DaysPerMonth),
	}
}

func TestAmortizeStandardLoan(t *testing.T) {
	// GIVEN 100,000 at 6% over 60 months, started 24 months ago
	terms := standardTerms()

	// WHEN
	res, err := Amortize(terms, now)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, utils.NewMoney(1933, 28), res.EMI)
	assert.Equal(t, 24, res.MonthsElapsed)
	assert.Equal(t, 24, res.PaymentsMade)
	assert.Equal(t, utils.NewMoney(63548, 88), res.Outstanding)
	assert.True(t, decimal.RequireFromString("0.005").Equal(terms.MonthlyRate()))
}

func TestAmortizeZeroRate(t *testing.T) {
	terms := Terms{
		Principal:         utils.Dollars(12000),
		AnnualRatePercent: decimal.Zero,
		TermMonths:        12,
		StartDate:         now.AddDate(0, 0, -3*DaysPerMonth),
	}

	res, err := Amortize(terms, now)
	require.NoError(t, err)
	assert.Equal(t, utils.Dollars(1000), res.EMI)
	assert.Equal(t, 3, res.PaymentsMade)
	assert.Equal(t, utils.Dollars(9000), res.Outstanding)
}

func TestAmortizeRejectsInvalidTerms(t *testing.T) {
	cases := map[string]Terms{
		"zero term":          {Principal: utils.Dollars(1000), AnnualRatePercent: decimal.NewFromInt(5), TermMonths: 0},
		"negative term":      {Principal: utils.Dollars(1000), AnnualRatePercent: decimal.NewFromInt(5), TermMonths: -12},
		"negative principal": {Principal: utils.Dollars(-1), AnnualRatePercent: decimal.NewFromInt(5), TermMonths: 12},
		"negative rate":      {Principal: utils.Dollars(1000), AnnualRatePercent: decimal.NewFromInt(-1), TermMonths: 12},
	}
	for name, terms := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Amortize(terms, now)
			assert.True(t, errors.Is(err, ErrInvalidTerms))
		})
	}
}

func TestPrincipalFromDecimal(t *testing.T) {
	m, err := PrincipalFromDecimal(decimal.RequireFromString("100000.005"))
	require.NoError(t, err)
	assert.Equal(t, utils.NewMoney(100000, 1), m)

	m, err = PrincipalFromDecimal(MaxPrincipal)
	require.NoError(t, err)
	assert.Equal(t, MaxPrincipal.StringFixed(2), m.String())

	for _, v := range []string{"-0.01", "1000000000000.01", "1e30"} {
		_, err := PrincipalFromDecimal(decimal.RequireFromString(v))
		assert.ErrorIs(t, err, ErrInvalidTerms, v)
	}
}

func TestPaymentsMadeCappedAtTerm(t *testing.T) {
	terms := Terms{
		Principal:         utils.Dollars(20000),
		AnnualRatePercent: decimal.NewFromInt(8),
		TermMonths:        12,
		StartDate:         now.AddDate(-5, 0, 0),
	}

	res, err := Amortize(terms, now)
	require.NoError(t, err)
	assert.Greater(t, res.MonthsElapsed, 12)
	assert.Equal(t, 12, res.PaymentsMade)
	assert.Zero(t, res.Outstanding)
}

func TestFutureStartHasNoPayments(t *testing.T) {
	terms := standardTerms()
	terms.StartDate = now.AddDate(0, 0, 10)

	res, err := Amortize(terms, now)
	require.NoError(t, err)
	assert.Zero(t, res.MonthsElapsed)
	assert.Zero(t, res.PaymentsMade)
	assert.Equal(t, terms.Principal, res.Outstanding)
}

func TestOutstandingIsNonIncreasing(t *testing.T) {
	for _, rate := range []string{"0", "2.5", "6", "14"} {
		t.Run(rate, func(t *testing.T) {
			terms := standardTerms()
			terms.AnnualRatePercent = decimal.RequireFromString(rate)
			terms.TermMonths = 240

			p, err := NewPlan(terms)
			require.NoError(t, err)

			prev := p.OutstandingAfter(0)
			assert.Equal(t, terms.Principal, prev)
			for k := 1; k <= terms.TermMonths; k++ {
				cur := p.OutstandingAfter(k)
				require.LessOrEqual(t, cur, prev, "installment %d", k)
				prev = cur
			}
			assert.Zero(t, prev)
			assert.Zero(t, p.OutstandingAfter(terms.TermMonths+5))
		})
	}
}

func TestInstallmentsReconcile(t *testing.T) {
	p, err := NewPlan(standardTerms())
	require.NoError(t, err)

	rows := p.Installments()
	require.Len(t, rows, 60)

	first := rows[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, utils.Dollars(500), first.Interest)
	assert.Equal(t, utils.NewMoney(1433, 28), first.Principal)
	assert.Equal(t, utils.NewMoney(98566, 72), first.Balance)

	var principal, interest utils.Money
	for i, row := range rows {
		principal = principal.Add(row.Principal)
		interest = interest.Add(row.Interest)
		assert.Equal(t, p.OutstandingAfter(i+1), row.Balance)
		assert.False(t, row.Interest.IsNegative())
	}

	assert.Equal(t, utils.Dollars(100000), principal)
	assert.Zero(t, rows[59].Balance)

	// EMI x term stays within a cent per installment of principal + interest.
	diff := p.EMI().Mul(60).Sub(principal.Add(interest)).Abs()
	assert.LessOrEqual(t, diff, utils.Cents(60))

	// Principal repaid through installment 24 equals the drop in balance.
	var repaid utils.Money
	for _, row := range rows[:24] {
		repaid = repaid.Add(row.Principal)
	}
	assert.Equal(t, utils.Dollars(100000).Sub(p.OutstandingAfter(24)), repaid)
}

func TestDueDates(t *testing.T) {
	terms := standardTerms()
	p, err := NewPlan(terms)
	require.NoError(t, err)

	rows := p.Installments()
	assert.Equal(t, utils.TruncateDay(terms.StartDate).AddDate(0, 0, 30), rows[0].DueDate)
	assert.Equal(t, utils.TruncateDay(terms.StartDate).AddDate(0, 0, 30*60), rows[59].DueDate)

	res := p.At(now)
	assert.False(t, rows[res.PaymentsMade-1].DueDate.After(now))
	assert.True(t, rows[res.PaymentsMade].DueDate.After(now))
}

func TestMonthsElapsed(t *testing.T) {
	start := time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, MonthsElapsed(start, start.AddDate(0, 0, 29)))
	assert.Equal(t, 1, MonthsElapsed(start, start.AddDate(0, 0, 30)))
	assert.Equal(t, 12, MonthsElapsed(start, start.AddDate(0, 0, 365)))
	assert.Equal(t, 0, MonthsElapsed(start, start.AddDate(0, 0, -45)))
}
