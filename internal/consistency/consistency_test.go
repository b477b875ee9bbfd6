package consistency_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/consistency"
	"github.com/willfong/portfolio-generator/internal/generator"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

func portfolio(t *testing.T) *models.Portfolio {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Generate.Seed = 99
	cfg.Generate.Now = "2025-06-30"
	cfg.Generate.NumCustomers = 60
	cfg.Generate.NumAccounts = 90
	cfg.Generate.NumLoans = 70
	cfg.Generate.NumTransactions = 400
	cfg.Generate.NumInquiries = 30
	cfg.Generate.NumTradelines = 30
	p, err := generator.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	return p
}

// violations runs the checker and returns the reported rules
func violations(t *testing.T, p *models.Portfolio) (*consistency.Error, []string) {
	t.Helper()
	err := consistency.Check(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, consistency.ErrConsistencyViolation))

	var cerr *consistency.Error
	require.ErrorAs(t, err, &cerr)
	rules := make([]string, len(cerr.Violations))
	for i, v := range cerr.Violations {
		rules[i] = v.Rule
	}
	return cerr, rules
}

func TestGeneratedPortfolioPasses(t *testing.T) {
	assert.NoError(t, consistency.Check(portfolio(t)))
}

func TestEmptyPortfolioPasses(t *testing.T) {
	assert.NoError(t, consistency.Check(&models.Portfolio{}))
}

func TestDanglingAccountCustomer(t *testing.T) {
	p := portfolio(t)
	p.Accounts[0].CustomerID = "CUS-999999"

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleForeignKey)
}

func TestDuplicateKey(t *testing.T) {
	p := portfolio(t)
	p.Inquiries = append(p.Inquiries, p.Inquiries[0])

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleDuplicateKey)
}

func TestTamperedOutstanding(t *testing.T) {
	p := portfolio(t)
	var i int
	for i = range p.Loans {
		if p.Loans[i].Outstanding > 0 {
			break
		}
	}
	p.Loans[i].Outstanding = p.Loans[i].Outstanding.Sub(utils.Cents(1))

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleAmortization)
}

func TestOutstandingAbovePrincipal(t *testing.T) {
	p := portfolio(t)
	p.Loans[0].Outstanding = p.Loans[0].Principal.Add(utils.Dollars(1))

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleAmortization)
}

func TestWrongRiskCategory(t *testing.T) {
	p := portfolio(t)
	c := &p.Customers[0]
	if c.RiskCategory == risk.CategoryLow {
		c.RiskCategory = risk.CategoryHigh
	} else {
		c.RiskCategory = risk.CategoryLow
	}

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleRiskCategory)
}

func TestScheduleInstallmentRepeats(t *testing.T) {
	p := portfolio(t)
	require.GreaterOrEqual(t, len(p.Schedules), 2)
	dup := p.Schedules[1]
	dup.ID = "SCH-9999999999"
	p.Schedules = append(p.Schedules, dup)

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleSchedule)
}

func TestTransactionCustomerMismatch(t *testing.T) {
	p := portfolio(t)
	for _, c := range p.Customers {
		if c.ID != p.Transactions[0].CustomerID {
			p.Transactions[0].CustomerID = c.ID
			break
		}
	}

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleCustomerMatch)
}

func TestMissingCollateral(t *testing.T) {
	p := portfolio(t)
	require.NotEmpty(t, p.Collateral)
	p.Collateral = p.Collateral[1:]

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleCollateral)
}

func TestCollateralStatusMirrorsLoan(t *testing.T) {
	p := portfolio(t)
	require.NotEmpty(t, p.Collateral)
	if p.Collateral[0].Status == risk.StatusDefault {
		p.Collateral[0].Status = risk.StatusCurrent
	} else {
		p.Collateral[0].Status = risk.StatusDefault
	}

	_, rules := violations(t, p)
	assert.Contains(t, rules, consistency.RuleCollateral)
}

func TestReportIsCapped(t *testing.T) {
	p := portfolio(t)
	for i := range p.Accounts {
		p.Accounts[i].CustomerID = "CUS-000000"
	}

	cerr, _ := violations(t, p)
	assert.Greater(t, cerr.Count, consistency.MaxReported)
	assert.Len(t, cerr.Violations, consistency.MaxReported)
	assert.Contains(t, cerr.Error(), "more")
}
