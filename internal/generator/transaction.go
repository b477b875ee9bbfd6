package generator

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/generator/patterns"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sampler"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Postings are booked during branch hours
const (
	postingFromHour = 9
	postingToHour   = 17

	// postingHistoryDays bounds value dates to the last year
	postingHistoryDays = 365

	// maxDayRedraws bounds the weekday thinning loop
	maxDayRedraws = 8

	reversalRate = 0.005
)

// TransactionFactory creates postings on existing accounts.
//
// Postings are built in fixed-size chunks. Every chunk owns a contiguous id
// range and a random stream derived from its index, so chunks can be built on
// any number of workers and still come out identical.
type TransactionFactory struct {
	rng       *utils.Random
	env       Env
	customers *CustomerIndex
	accounts  *AccountIndex
	config    TransactionFactoryConfig

	// Patterns for realistic distribution
	retailDaily   *patterns.DailyPattern
	atmDaily      *patterns.DailyPattern
	onlineDaily   *patterns.DailyPattern
	retailWeekly  *patterns.WeeklyPattern
	atmWeekly     *patterns.WeeklyPattern
	amounts       *patterns.PostingAmounts
	activityTotal float64
	// cumulative activity weights, one per account in index order
	activityCDF []float64
}

// TransactionFactoryConfig holds settings for transaction generation
type TransactionFactoryConfig struct {
	NumTransactions int
	ChunkSize       int
	NumWorkers      int

	// Pareto ratio (e.g., 0.2 = 20% accounts generate 80% volume)
	ParetoRatio float64
}

// NewTransactionFactory creates a new transaction factory
func NewTransactionFactory(rng *utils.Random, env Env, customers *CustomerIndex, accounts *AccountIndex, config TransactionFactoryConfig) *TransactionFactory {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 5000
	}
	if config.ParetoRatio <= 0 {
		config.ParetoRatio = 0.2
	}
	config.NumWorkers = GetWorkerCount(config.NumWorkers)

	f := &TransactionFactory{
		rng:          rng.Derive("transaction"),
		env:          env,
		customers:    customers,
		accounts:     accounts,
		config:       config,
		retailDaily:  patterns.NewDailyPattern(),
		atmDaily:     patterns.NewATMDailyPattern(),
		onlineDaily:  patterns.NewOnlineBankingPattern(),
		retailWeekly: patterns.NewWeeklyPattern(),
		atmWeekly:    patterns.NewATMWeeklyPattern(),
		amounts:      patterns.NewPostingAmounts(),
	}
	f.buildActivity(patterns.NewParetoDistribution(config.ParetoRatio))
	return f
}

// buildActivity gives every account a fixed share of the posting volume.
// The share comes from the account's own stream, so it does not move when
// other accounts are added.
func (f *TransactionFactory) buildActivity(dist *patterns.ActivityDistribution) {
	activity := f.rng.Derive("activity")
	f.activityCDF = make([]float64, f.accounts.Len())
	var total float64
	for i := range f.accounts.Len() {
		acc := f.accounts.At(i)
		total += dist.ActivityScore(activity.Derive(acc.ID).Float64())
		f.activityCDF[i] = total
	}
	f.activityTotal = total
}

// pickAccount draws an account weighted by activity
func (f *TransactionFactory) pickAccount(rng *utils.Random) *models.Account {
	target := rng.Float64() * f.activityTotal
	i := sort.SearchFloat64s(f.activityCDF, target)
	return f.accounts.At(min(i, f.accounts.Len()-1))
}

// Chunks returns the id ranges the factory will fill
func (f *TransactionFactory) Chunks() []IDRange {
	if f.accounts.Len() == 0 {
		return nil
	}
	return ChunkRanges(int64(f.config.NumTransactions), f.config.ChunkSize)
}

// Generate yields every posting in id order. Up to NumWorkers chunks are
// built at a time; each batch is yielded before the next one starts.
func (f *TransactionFactory) Generate() iter.Seq2[models.Transaction, error] {
	return func(yield func(models.Transaction, error) bool) {
		chunks := f.Chunks()
		for from := 0; from < len(chunks); from += f.config.NumWorkers {
			to := min(from+f.config.NumWorkers, len(chunks))
			batch, err := runChunks(from, to, f.config.NumWorkers, func(c int) ([]models.Transaction, error) {
				return f.Chunk(c, chunks[c])
			})
			if err != nil {
				yield(models.Transaction{}, err)
				return
			}
			for _, txns := range batch {
				for _, txn := range txns {
					if !yield(txn, nil) {
						return
					}
				}
			}
		}
	}
}

// Chunk builds the postings of chunk c, which owns the ids in r.
func (f *TransactionFactory) Chunk(c int, r IDRange) ([]models.Transaction, error) {
	rng := f.rng.Derive(fmt.Sprintf("chunk/%d", c))
	txns := make([]models.Transaction, 0, r.Len())
	for id := r.Start; id < r.End; id++ {
		txn, err := f.generateTransaction(rng, id)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// generateTransaction creates a single posting
func (f *TransactionFactory) generateTransaction(rng *utils.Random, id int64) (models.Transaction, error) {
	account := f.pickAccount(rng)
	txnType := sampler.Pick(rng, models.TransactionTypes)
	channel := sampler.Pick(rng, models.Channels)

	// A transfer needs a second account; a single-account portfolio gets a deposit
	var counterparty *models.Account
	if txnType == models.TxTypeTransfer {
		if counterparty = f.accounts.SampleOther(rng, account.ID); counterparty == nil {
			txnType = models.TxTypeDeposit
		}
	}

	amount := utils.Cents(f.amountDistribution(txnType).GenerateAmount(rng.Float64(), rng.NormalFloat64()))
	if !txnType.IsCredit() {
		amount = amount.Neg()
	}

	valueDate := f.valueDate(rng, channel)
	bookingDate := valueDate
	if rng.Probability(0.1) && valueDate.Before(f.env.today()) {
		bookingDate = valueDate.AddDate(0, 0, 1)
	}
	hour := f.dailyPattern(channel).HourIn(postingFromHour, postingToHour, rng.Float64())
	processed := valueDate.Add(time.Duration(hour)*time.Hour +
		time.Duration(rng.IntN(60))*time.Minute +
		time.Duration(rng.IntN(60))*time.Second)

	balanceAfter := max(0, account.WorkingBalance.Add(amount))
	rate := decimal.NewFromInt(1)

	txn := models.Transaction{
		ID:           transactionID(id),
		AccountID:    account.ID,
		CustomerID:   account.CustomerID,
		Type:         txnType,
		Code:         fmt.Sprintf("TC%03d", rng.IntRange(100, 999)),
		Amount:       amount,
		Currency:     account.Currency,
		AmountLCY:    amount.MulDecimal(rate),
		ExchangeRate: rate,
		ValueDate:    valueDate,
		BookingDate:  bookingDate,
		// Processing happens on the value date
		ProcessingTime: processed,
		BalanceAfter:   balanceAfter,
		Channel:        channel,
		Reference:      fmt.Sprintf("REF%06d", rng.IntRange(100000, 999999)),
		ReversalFlag:   rng.Probability(reversalRate),
		CreatedAt:      processed,
	}

	switch txnType {
	case models.TxTypePayment:
		txn.MerchantName, txn.MerchantCategory = f.pickMerchant(rng)
		txn.Description = "Payment - " + txn.MerchantName
	case models.TxTypeTransfer:
		txn.CounterpartyAccount = counterparty.ID
		txn.CounterpartyName = f.ownerName(counterparty)
		txn.CounterpartyBank = f.pickBank(rng)
		txn.Description = "Transfer from " + txn.CounterpartyName
	default:
		txn.Description = describe(txnType, channel)
	}
	txn.Description = truncate(txn.Description, 100)

	return models.NewTransaction(txn)
}

// valueDate draws a day within the last year, thinned to the weekly shape
func (f *TransactionFactory) valueDate(rng *utils.Random, channel models.Channel) time.Time {
	weekly := f.retailWeekly
	if channel == models.ChannelATM {
		weekly = f.atmWeekly
	}
	today := f.env.today()
	day := sampler.DateWithinDays(rng, today, postingHistoryDays)
	for range maxDayRedraws {
		if weekly.Accept(day, rng.Float64()) {
			break
		}
		day = sampler.DateWithinDays(rng, today, postingHistoryDays)
	}
	return day
}

// dailyPattern chooses the hour curve for a channel
func (f *TransactionFactory) dailyPattern(channel models.Channel) *patterns.DailyPattern {
	switch channel {
	case models.ChannelATM:
		return f.atmDaily
	case models.ChannelMobile, models.ChannelInternet:
		return f.onlineDaily
	default:
		return f.retailDaily
	}
}

func (f *TransactionFactory) amountDistribution(t models.TransactionType) *patterns.AmountDistribution {
	switch t {
	case models.TxTypeDeposit:
		return f.amounts.Deposit
	case models.TxTypeWithdrawal:
		return f.amounts.Withdrawal
	case models.TxTypeTransfer:
		return f.amounts.Transfer
	case models.TxTypePayment:
		return f.amounts.Payment
	default:
		return f.amounts.Fee
	}
}

// pickMerchant returns a merchant name and its category
func (f *TransactionFactory) pickMerchant(rng *utils.Random) (string, string) {
	merchants := f.env.RefData.Merchants.Merchants
	if len(merchants) == 0 {
		return "GENERAL MERCHANT", "RETAIL"
	}
	m := sampler.Pick(rng, merchants)
	return m.Name, m.Category
}

func (f *TransactionFactory) pickBank(rng *utils.Random) string {
	banks := f.env.RefData.Institutions.CounterpartyBanks
	if len(banks) == 0 {
		return "LOCAL BANK"
	}
	return rng.PickString(banks)
}

// ownerName returns the short name of the account's owner
func (f *TransactionFactory) ownerName(acc *models.Account) string {
	if owner, ok := f.customers.Get(acc.CustomerID); ok {
		return owner.ShortName
	}
	return acc.Title
}

// describe creates a posting description
func describe(t models.TransactionType, channel models.Channel) string {
	switch t {
	case models.TxTypeDeposit:
		if channel == models.ChannelBranch {
			return "Branch Deposit"
		}
		return "Deposit via " + string(channel)
	case models.TxTypeWithdrawal:
		if channel == models.ChannelATM {
			return "ATM Withdrawal"
		}
		return "Cash Withdrawal"
	case models.TxTypeFee:
		return "Service Fee"
	default:
		return string(t)
	}
}
