package generator

import (
	"fmt"
	"iter"

	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sampler"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// loanProduct holds the sampling ranges of one loan type
type loanProduct struct {
	minPrincipal, maxPrincipal float64
	terms                      []int
	minRate, maxRate           float64 // annual percent, before the risk premium
}

var loanProducts = map[models.LoanType]loanProduct{
	models.LoanTypeMortgage: {200_000, 1_000_000, []int{120, 180, 240, 300}, 2.5, 4.5},
	models.LoanTypeAuto:     {30_000, 150_000, []int{36, 48, 60, 72}, 3.5, 6.5},
	models.LoanTypeBusiness: {50_000, 500_000, []int{36, 48, 60, 84}, 5.0, 9.0},
	models.LoanTypePersonal: {5_000, 50_000, []int{12, 24, 36, 48, 60}, 6.0, 12.0},
}

var (
	loanTypeWeights = []sampler.Choice[models.LoanType]{
		{Value: models.LoanTypePersonal, Weight: 40},
		{Value: models.LoanTypeMortgage, Weight: 30},
		{Value: models.LoanTypeAuto, Weight: 20},
		{Value: models.LoanTypeBusiness, Weight: 10},
	}
	interestTypes   = []models.InterestType{models.InterestFixed, models.InterestFloating}
	collateralTypes = []models.CollateralType{
		models.CollateralProperty,
		models.CollateralVehicle,
		models.CollateralDeposits,
		models.CollateralUnsecured,
	}
)

// LoanFactory creates loans for existing customers, each tied to one of their
// accounts, with every derived field computed by the amortization engine.
type LoanFactory struct {
	rng       *utils.Random
	env       Env
	customers *CustomerIndex
	accounts  *AccountIndex
	config    LoanFactoryConfig
}

// LoanFactoryConfig holds settings for loan generation
type LoanFactoryConfig struct {
	NumLoans int
	// Loans start within this many years before now
	HistoryYears int
}

// NewLoanFactory creates a new loan factory
func NewLoanFactory(rng *utils.Random, env Env, customers *CustomerIndex, accounts *AccountIndex, config LoanFactoryConfig) *LoanFactory {
	if config.HistoryYears <= 0 {
		config.HistoryYears = 5
	}
	return &LoanFactory{
		rng:       rng.Derive("loan"),
		env:       env,
		customers: customers,
		accounts:  accounts,
		config:    config,
	}
}

// Generate yields every loan in id order
func (f *LoanFactory) Generate() iter.Seq2[models.Loan, error] {
	n := f.config.NumLoans
	if f.customers.Len() == 0 || f.accounts.Len() == 0 {
		n = 0
	}
	return generateN(n, f.generateLoan)
}

// Application samples the inputs of the i-th loan without deriving anything.
func (f *LoanFactory) Application(i int) models.LoanApplication {
	id := loanID(i)
	rng := f.rng.Derive(id)
	today := f.env.today()

	borrower := f.customers.Sample(rng)
	category := borrower.RiskCategory
	loanType := sampler.Weighted(rng, loanTypeWeights)
	product := loanProducts[loanType]

	principal := sampler.UniformMoney(rng, product.minPrincipal, product.maxPrincipal)
	term := sampler.Pick(rng, product.terms)
	rate := sampler.UniformDecimal(rng, product.minRate, product.maxRate, models.RatePlaces).
		Add(f.env.Policy.Premium(category))
	start := sampler.DateWithinYears(rng, today, 0, f.config.HistoryYears)

	// A repaid loan keeps its sampled dpd; the status rule makes it CLOSED
	dpd := f.env.Policy.SampleDaysPastDue(rng, category)

	collateral := sampler.Pick(rng, collateralTypes)
	var collateralValue utils.Money
	if collateral != models.CollateralUnsecured {
		collateralValue = principal.MulDecimal(sampler.UniformDecimal(rng, 1.2, 1.8, models.RatePlaces))
	}

	return models.LoanApplication{
		ID:              id,
		CustomerID:      borrower.ID,
		AccountID:       f.accounts.SampleFor(rng, borrower.ID).ID,
		Type:            loanType,
		ProductCode:     fmt.Sprintf("LN%03d", rng.IntRange(100, 999)),
		Currency:        f.env.Currency,
		Principal:       principal,
		InterestRate:    rate,
		InterestType:    sampler.Pick(rng, interestTypes),
		TermMonths:      term,
		StartDate:       start,
		DaysPastDue:     dpd,
		CollateralType:  collateral,
		CollateralValue: collateralValue,
		ApprovalDate:    start.AddDate(0, 0, -rng.IntRange(7, 30)),
		ApprovedBy:      fmt.Sprintf("OFFICER%03d", rng.IntRange(1, 100)),
	}
}

// generateLoan creates a single loan
func (f *LoanFactory) generateLoan(i int) (models.Loan, error) {
	return models.NewLoan(f.Application(i), f.env.Now)
}
