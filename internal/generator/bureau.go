package generator

import (
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/sampler"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// bureauScore is the score shape per risk category
var bureauScore = map[risk.Category]struct{ mean, stddev float64 }{
	risk.CategoryLow:    {750, 30},
	risk.CategoryMedium: {680, 25},
	risk.CategoryHigh:   {600, 40},
}

var (
	inquiryProducts  = []string{"CREDIT_CARD", "PERSONAL_LOAN", "AUTO_LOAN", "MORTGAGE"}
	inquiryReasons   = []string{"NEW_CREDIT", "ACCOUNT_REVIEW", "CREDIT_INCREASE"}
	inquiryTypes     = []models.InquiryType{models.InquiryHard, models.InquirySoft}
	tradelineTypes   = []string{"CREDIT_CARD", "INSTALLMENT_LOAN", "LINE_OF_CREDIT", "MORTGAGE"}
	tradelineStatusW = []sampler.Choice[models.TradelineStatus]{
		{Value: models.TradelineOpen, Weight: 85},
		{Value: models.TradelineClosed, Weight: 10},
		{Value: models.TradelineChargedOff, Weight: 5},
	}
	tradelinePaymentW = []sampler.Choice[string]{
		{Value: models.TradelineCurrent, Weight: 90},
		{Value: models.TradelineLate30, Weight: 6},
		{Value: models.TradelineLate60, Weight: 3},
		{Value: models.TradelineLate90, Weight: 1},
	}

	// A tradeline balance never exceeds this share of its limit
	maxTradelineUtilization = decimal.RequireFromString("0.8")
)

// BureauFactory creates the credit bureau view of existing customers: one
// score pull each, plus inquiries and external tradelines spread across them.
type BureauFactory struct {
	rng       *utils.Random
	env       Env
	customers *CustomerIndex
	config    BureauFactoryConfig
}

// BureauFactoryConfig holds settings for bureau generation
type BureauFactoryConfig struct {
	NumInquiries  int
	NumTradelines int
}

// NewBureauFactory creates a new bureau factory
func NewBureauFactory(rng *utils.Random, env Env, customers *CustomerIndex, config BureauFactoryConfig) *BureauFactory {
	return &BureauFactory{
		rng:       rng.Derive("bureau"),
		env:       env,
		customers: customers,
		config:    config,
	}
}

// CreditScores yields one score per customer, in customer order
func (f *BureauFactory) CreditScores() iter.Seq2[models.CreditScore, error] {
	return generateN(f.customers.Len(), f.generateCreditScore)
}

// Inquiries yields every credit inquiry in id order
func (f *BureauFactory) Inquiries() iter.Seq2[models.CreditInquiry, error] {
	n := f.config.NumInquiries
	if f.customers.Len() == 0 {
		n = 0
	}
	return generateN(n, f.generateInquiry)
}

// Tradelines yields every tradeline in id order
func (f *BureauFactory) Tradelines() iter.Seq2[models.Tradeline, error] {
	n := f.config.NumTradelines
	if f.customers.Len() == 0 {
		n = 0
	}
	return generateN(n, f.generateTradeline)
}

func (f *BureauFactory) generateCreditScore(i int) (models.CreditScore, error) {
	id := creditScoreID(i)
	rng := f.rng.Derive(id)
	customer := f.customers.At(i)

	shape := bureauScore[customer.RiskCategory]
	score := sampler.BoundedNormalInt(rng, shape.mean, shape.stddev, risk.MinScore, risk.MaxScore)

	total := rng.IntRange(3, 15)
	return models.NewCreditScore(models.CreditScore{
		ID:                  id,
		CustomerID:          customer.ID,
		Bureau:              f.pickBureau(rng),
		Score:               score,
		ScoreDate:           sampler.DateWithinDays(rng, f.env.today(), 30),
		ScoreVersion:        "3.0",
		DelinquencyScore:    rng.IntRange(1, 100),
		BankruptcyFlag:      rng.IntN(4) == 0,
		TotalAccounts:       total,
		OpenAccounts:        rng.IntRange(min(2, total), min(10, total)),
		TotalBalance:        sampler.UniformMoney(rng, 10_000, 200_000),
		AvailableCredit:     sampler.UniformMoney(rng, 5_000, 100_000),
		CreditUtilization:   sampler.UniformDecimal(rng, 10, 80, 2),
		OldestAccountMonths: rng.IntRange(24, 240),
		RecentInquiries:     rng.IntRange(0, 5),
		DerogatoryMarks:     rng.IntRange(0, 3),
		CreatedAt:           f.env.Now,
		UpdatedAt:           f.env.Now,
	})
}

func (f *BureauFactory) generateInquiry(i int) (models.CreditInquiry, error) {
	id := inquiryID(i)
	rng := f.rng.Derive(id)
	customer := f.customers.Sample(rng)

	// 30% of inquiries carry no amount
	var amount *utils.Money
	if rng.Probability(0.7) {
		a := sampler.UniformMoney(rng, 5_000, 500_000)
		amount = &a
	}

	return models.NewCreditInquiry(models.CreditInquiry{
		ID:          id,
		CustomerID:  customer.ID,
		InquiryDate: sampler.DateWithinYears(rng, f.env.today(), 0, 2),
		Type:        sampler.Pick(rng, inquiryTypes),
		Creditor:    f.pick(rng, f.env.RefData.Institutions.InquiryCreditors, "Citibank"),
		ProductType: sampler.Pick(rng, inquiryProducts),
		Amount:      amount,
		Reason:      sampler.Pick(rng, inquiryReasons),
		CreatedAt:   f.env.Now,
	})
}

func (f *BureauFactory) generateTradeline(i int) (models.Tradeline, error) {
	id := tradelineID(i)
	rng := f.rng.Derive(id)
	today := f.env.today()
	customer := f.customers.Sample(rng)

	opened := sampler.DateWithinYears(rng, today, 1, 15)
	status := sampler.Weighted(rng, tradelineStatusW)

	// Only a line that is no longer open has a close date
	var closed *time.Time
	if status != models.TradelineOpen {
		d := sampler.DateBetween(rng, opened, today)
		closed = &d
	}

	limit := sampler.UniformMoney(rng, 5_000, 50_000)
	balance := utils.RandomAmount(rng, 0, limit.MulDecimal(maxTradelineUtilization))

	return models.NewTradeline(models.Tradeline{
		ID:                id,
		CustomerID:        customer.ID,
		Creditor:          f.pick(rng, f.env.RefData.Institutions.TradelineCreditors, "HSBC"),
		AccountType:       sampler.Pick(rng, tradelineTypes),
		AccountNumber:     fmt.Sprintf("****%04d", rng.IntRange(1000, 9999)),
		Status:            status,
		OpenDate:          opened,
		CloseDate:         closed,
		CreditLimit:       limit,
		CurrentBalance:    balance,
		HighestBalance:    limit.MulDecimal(sampler.UniformDecimal(rng, 0.3, 0.95, 4)),
		PaymentStatus:     sampler.Weighted(rng, tradelinePaymentW),
		MonthlyPayment:    sampler.UniformMoney(rng, 100, 2_000),
		LastPaymentDate:   sampler.DateWithinDays(rng, today, 60),
		LastPaymentAmount: sampler.UniformMoney(rng, 100, 2_000),
		CreatedAt:         opened,
		UpdatedAt:         f.env.Now,
	})
}

func (f *BureauFactory) pickBureau(rng *utils.Random) string {
	return f.pick(rng, f.env.RefData.Institutions.Bureaus, "EXPERIAN")
}

// pick draws from a reference list, falling back when it is empty
func (f *BureauFactory) pick(rng *utils.Random, values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return rng.PickString(values)
}
