package generator

import (
	"fmt"
	"iter"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sampler"
	"github.com/willfong/portfolio-generator/internal/utils"
)

var (
	accountTypeWeights = []sampler.Choice[models.AccountType]{
		{Value: models.AccountTypeSavings, Weight: 40},
		{Value: models.AccountTypeCurrent, Weight: 30},
		{Value: models.AccountTypeFixedDeposit, Weight: 20},
		{Value: models.AccountTypeCreditCard, Weight: 10},
	}
	accountStatusWeights = []sampler.Choice[models.AccountStatus]{
		{Value: models.AccountStatusActive, Weight: 85},
		{Value: models.AccountStatusDormant, Weight: 10},
		{Value: models.AccountStatusClosed, Weight: 5},
	}

	// creditLimitRatio sets a card's available limit from its balance
	creditLimitRatio = decimal.RequireFromString("0.9")
)

// balanceRange returns the opening balance bounds for a segment
func balanceRange(segment models.CustomerSegment) (lo, hi float64) {
	switch segment {
	case models.SegmentWealth:
		return 50_000, 500_000
	case models.SegmentRetail:
		return 1_000, 50_000
	default:
		return 10_000, 200_000
	}
}

// AccountFactory creates deposit and card accounts for existing customers.
type AccountFactory struct {
	rng       *utils.Random
	env       Env
	customers *CustomerIndex
	config    AccountFactoryConfig
}

// AccountFactoryConfig holds settings for account generation
type AccountFactoryConfig struct {
	NumAccounts int
	// Accounts open within this many years before now
	HistoryYears int
}

// NewAccountFactory creates a new account factory
func NewAccountFactory(rng *utils.Random, env Env, customers *CustomerIndex, config AccountFactoryConfig) *AccountFactory {
	if config.HistoryYears <= 0 {
		config.HistoryYears = 10
	}
	return &AccountFactory{
		rng:       rng.Derive("account"),
		env:       env,
		customers: customers,
		config:    config,
	}
}

// Generate yields every account in id order
func (f *AccountFactory) Generate() iter.Seq2[models.Account, error] {
	n := f.config.NumAccounts
	if f.customers.Len() == 0 {
		n = 0
	}
	return generateN(n, f.generateAccount)
}

// generateAccount creates a single account
func (f *AccountFactory) generateAccount(i int) (models.Account, error) {
	id := accountID(i)
	rng := f.rng.Derive(id)
	today := f.env.today()

	owner := f.customers.Sample(rng)
	accType := sampler.Weighted(rng, accountTypeWeights)

	lo, hi := balanceRange(owner.Segment)
	balance := sampler.UniformMoney(rng, lo, hi)

	var limit utils.Money
	if accType == models.AccountTypeCreditCard {
		limit = balance.MulDecimal(creditLimitRatio)
	}

	opened := sampler.DateWithinYears(rng, today, 0, f.config.HistoryYears)
	typeName := string(accType)

	return models.NewAccount(models.Account{
		ID:                  id,
		CustomerID:          owner.ID,
		Type:                accType,
		Title:               typeName + " Account",
		Category:            typeName[:4],
		ProductCode:         fmt.Sprintf("PRD%03d", rng.IntRange(100, 999)),
		ProductName:         typeName + " Product",
		Currency:            f.env.Currency,
		WorkingBalance:      balance,
		OnlineActualBalance: balance,
		AvailableLimit:      limit,
		Status:              sampler.Weighted(rng, accountStatusWeights),
		OpeningDate:         opened,
		LastActivityDate:    sampler.DateBetween(rng, opened, today),
		InterestRate:        sampler.UniformDecimal(rng, 0.5, 3.5, models.RatePlaces),
		BranchCode:          branchCode(rng),
		CreatedAt:           opened,
		UpdatedAt:           f.env.Now,
	})
}
