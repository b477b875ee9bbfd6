package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// TransactionType represents the type of financial transaction
type TransactionType string

const (
	TxTypeDeposit    TransactionType = "DEPOSIT"
	TxTypeWithdrawal TransactionType = "WITHDRAWAL"
	TxTypeTransfer   TransactionType = "TRANSFER"
	TxTypePayment    TransactionType = "PAYMENT"
	TxTypeFee        TransactionType = "FEE"
)

// TransactionTypes lists every type in a stable order.
var TransactionTypes = []TransactionType{TxTypeDeposit, TxTypeWithdrawal, TxTypeTransfer, TxTypePayment, TxTypeFee}

// IsCredit returns true when the type adds money to the account.
// Credits are stored as positive amounts, debits as negative.
func (t TransactionType) IsCredit() bool {
	return t == TxTypeDeposit || t == TxTypeTransfer
}

// Channel represents where the transaction originated
type Channel string

const (
	ChannelMobile   Channel = "MOBILE"
	ChannelATM      Channel = "ATM"
	ChannelBranch   Channel = "BRANCH"
	ChannelInternet Channel = "INTERNET"
	ChannelPOS      Channel = "POS"
)

// Channels lists every channel in a stable order.
var Channels = []Channel{ChannelMobile, ChannelATM, ChannelBranch, ChannelInternet, ChannelPOS}

// Transaction represents one posting on an account (T24 STMT.ENTRY record)
type Transaction struct {
	ID         string `db:"transaction_id" json:"transaction_id"`
	AccountID  string `db:"account_id" json:"account_id"`
	CustomerID string `db:"customer_id" json:"customer_id"`

	Type        TransactionType `db:"transaction_type" json:"transaction_type"`
	Code        string          `db:"transaction_code" json:"transaction_code"`
	Description string          `db:"description" json:"description"`

	// Amount is signed: positive for credits, negative for debits
	Amount       utils.Money     `db:"amount" json:"amount"`
	Currency     string          `db:"currency" json:"currency"`
	AmountLCY    utils.Money     `db:"amount_lcy" json:"amount_lcy"`
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`

	ValueDate      time.Time   `db:"value_date" json:"value_date"`
	BookingDate    time.Time   `db:"booking_date" json:"booking_date"`
	ProcessingTime time.Time   `db:"processing_time" json:"processing_time"`
	BalanceAfter   utils.Money `db:"balance_after" json:"balance_after"`
	Channel        Channel     `db:"channel" json:"channel"`

	// Set for PAYMENT only
	MerchantName     string `db:"merchant_name" json:"merchant_name,omitempty"`
	MerchantCategory string `db:"merchant_category" json:"merchant_category,omitempty"`

	// Set for TRANSFER only
	CounterpartyAccount string `db:"counterparty_account" json:"counterparty_account,omitempty"`
	CounterpartyName    string `db:"counterparty_name" json:"counterparty_name,omitempty"`
	CounterpartyBank    string `db:"counterparty_bank" json:"counterparty_bank,omitempty"`

	Reference    string    `db:"reference" json:"reference"`
	ReversalFlag bool      `db:"reversal_flag" json:"reversal_flag"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewTransaction validates t and returns it.
func NewTransaction(t Transaction) (Transaction, error) {
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Validate checks every field domain of t.
func (t Transaction) Validate() error {
	v := newChecker("transaction", t.ID)
	v.check(t.ID != "", "transaction_id", t.ID, "is empty")
	v.check(t.AccountID != "", "account_id", t.AccountID, "is empty")
	v.check(oneOf(t.Type, TransactionTypes...), "transaction_type", t.Type, "unknown")
	v.check(oneOf(t.Channel, Channels...), "channel", t.Channel, "unknown")
	v.check(utils.IsKnownCurrency(t.Currency), "currency", t.Currency, "unknown")
	v.check(!t.Amount.IsZero(), "amount", t.Amount, "is zero")
	v.check(t.Type.IsCredit() == (t.Amount > 0), "amount", t.Amount, "has the wrong sign for "+string(t.Type))
	v.check(t.ExchangeRate.IsPositive(), "exchange_rate", t.ExchangeRate, "must be positive")
	v.check(t.AmountLCY == t.Amount.MulDecimal(t.ExchangeRate), "amount_lcy", t.AmountLCY, "must equal amount * exchange_rate")
	v.check(!t.BalanceAfter.IsNegative(), "balance_after", t.BalanceAfter, "is negative")
	v.check(!t.BookingDate.Before(t.ValueDate), "booking_date", FormatDate(t.BookingDate), "precedes value_date")

	isPayment := t.Type == TxTypePayment
	v.check(isPayment == (t.MerchantName != ""), "merchant_name", t.MerchantName, "is set only for PAYMENT")
	v.check(isPayment == (t.MerchantCategory != ""), "merchant_category", t.MerchantCategory, "is set only for PAYMENT")

	isTransfer := t.Type == TxTypeTransfer
	v.check(isTransfer == (t.CounterpartyAccount != ""), "counterparty_account", t.CounterpartyAccount,
		"is set only for TRANSFER")
	v.check(t.CounterpartyAccount != t.AccountID, "counterparty_account", t.CounterpartyAccount,
		"must differ from account_id")
	return v.result()
}

var transactionColumns = []Column{
	pk("transaction_id", 16),
	fk("account_id", 12, TableAccounts),
	fk("customer_id", 12, TableCustomers),
	text("transaction_type", 10),
	text("transaction_code", 10),
	text("description", 100),
	money("amount"),
	text("currency", 3),
	money("amount_lcy"),
	rate("exchange_rate"),
	date("value_date"),
	date("booking_date"),
	timestamp("processing_time"),
	money("balance_after"),
	text("channel", 10),
	nullText("merchant_name", 100),
	nullText("merchant_category", 20),
	{Name: "counterparty_account", Kind: KindText, Size: 12, Nullable: true, Ref: TableAccounts},
	nullText("counterparty_name", 100),
	nullText("counterparty_bank", 50),
	text("reference", 20),
	boolean("reversal_flag"),
	timestamp("created_at"),
}

func (t Transaction) Columns() []Column { return transactionColumns }

func (t Transaction) Key() string { return t.ID }

func (t Transaction) Values() []string {
	return []string{
		t.ID,
		t.AccountID,
		t.CustomerID,
		string(t.Type),
		t.Code,
		t.Description,
		FormatMoney(t.Amount),
		t.Currency,
		FormatMoney(t.AmountLCY),
		FormatRate(t.ExchangeRate),
		FormatDate(t.ValueDate),
		FormatDate(t.BookingDate),
		FormatTime(t.ProcessingTime),
		FormatMoney(t.BalanceAfter),
		string(t.Channel),
		t.MerchantName,
		t.MerchantCategory,
		t.CounterpartyAccount,
		t.CounterpartyName,
		t.CounterpartyBank,
		t.Reference,
		FormatBool(t.ReversalFlag),
		FormatTime(t.CreatedAt),
	}
}
