package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// AccountType represents the type of bank account
type AccountType string

const (
	AccountTypeSavings      AccountType = "SAVINGS"
	AccountTypeCurrent      AccountType = "CURRENT"
	AccountTypeFixedDeposit AccountType = "FIXED_DEPOSIT"
	AccountTypeCreditCard   AccountType = "CREDIT_CARD"
)

// AccountStatus represents the current status of an account
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "ACTIVE"
	AccountStatusDormant AccountStatus = "DORMANT"
	AccountStatusClosed  AccountStatus = "CLOSED"
)

// Account represents a deposit or card account (T24 ACCOUNT record)
type Account struct {
	ID         string `db:"account_id" json:"account_id"`
	CustomerID string `db:"customer_id" json:"customer_id"`

	Type        AccountType `db:"account_type" json:"account_type"`
	Title       string      `db:"account_title" json:"account_title"`
	Category    string      `db:"category" json:"category"`
	ProductCode string      `db:"product_code" json:"product_code"`
	ProductName string      `db:"product_name" json:"product_name"`
	Currency    string      `db:"currency" json:"currency"`

	// Balances are never negative. AvailableLimit is only set on credit cards.
	WorkingBalance      utils.Money `db:"working_balance" json:"working_balance"`
	OnlineActualBalance utils.Money `db:"online_actual_balance" json:"online_actual_balance"`
	LockedAmount        utils.Money `db:"locked_amount" json:"locked_amount"`
	AvailableLimit      utils.Money `db:"available_limit" json:"available_limit"`

	Status           AccountStatus   `db:"status" json:"status"`
	OpeningDate      time.Time       `db:"opening_date" json:"opening_date"`
	LastActivityDate time.Time       `db:"last_activity_date" json:"last_activity_date"`
	InterestRate     decimal.Decimal `db:"interest_rate" json:"interest_rate"`
	BranchCode       string          `db:"branch_code" json:"branch_code"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewAccount validates a and returns it.
func NewAccount(a Account) (Account, error) {
	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Validate checks every field domain of a.
func (a Account) Validate() error {
	v := newChecker("account", a.ID)
	v.check(a.ID != "", "account_id", a.ID, "is empty")
	v.check(a.CustomerID != "", "customer_id", a.CustomerID, "is empty")
	v.check(oneOf(a.Type, AccountTypeSavings, AccountTypeCurrent, AccountTypeFixedDeposit, AccountTypeCreditCard),
		"account_type", a.Type, "unknown")
	v.check(oneOf(a.Status, AccountStatusActive, AccountStatusDormant, AccountStatusClosed), "status", a.Status, "unknown")
	v.check(utils.IsKnownCurrency(a.Currency), "currency", a.Currency, "unknown")
	v.check(!a.WorkingBalance.IsNegative(), "working_balance", a.WorkingBalance, "is negative")
	v.check(!a.OnlineActualBalance.IsNegative(), "online_actual_balance", a.OnlineActualBalance, "is negative")
	v.check(!a.LockedAmount.IsNegative(), "locked_amount", a.LockedAmount, "is negative")
	v.check(!a.AvailableLimit.IsNegative(), "available_limit", a.AvailableLimit, "is negative")
	v.check(a.Type == AccountTypeCreditCard || a.AvailableLimit.IsZero(),
		"available_limit", a.AvailableLimit, "must be zero for non credit card accounts")
	v.check(!a.LastActivityDate.Before(a.OpeningDate), "last_activity_date", FormatDate(a.LastActivityDate),
		"precedes opening_date")
	v.check(!a.InterestRate.IsNegative() && a.InterestRate.LessThan(decimal.NewFromInt(100)),
		"interest_rate", a.InterestRate, "must be within 0..100")
	return v.result()
}

var accountColumns = []Column{
	pk("account_id", 12),
	fk("customer_id", 12, TableCustomers),
	text("account_type", 15),
	text("account_title", 50),
	text("category", 4),
	text("product_code", 10),
	text("product_name", 50),
	text("currency", 3),
	money("working_balance"),
	money("online_actual_balance"),
	money("locked_amount"),
	money("available_limit"),
	text("status", 10),
	date("opening_date"),
	date("last_activity_date"),
	rate("interest_rate"),
	text("branch_code", 10),
	timestamp("created_at"),
	timestamp("updated_at"),
}

func (a Account) Columns() []Column { return accountColumns }

func (a Account) Key() string { return a.ID }

func (a Account) Values() []string {
	return []string{
		a.ID,
		a.CustomerID,
		string(a.Type),
		a.Title,
		a.Category,
		a.ProductCode,
		a.ProductName,
		a.Currency,
		FormatMoney(a.WorkingBalance),
		FormatMoney(a.OnlineActualBalance),
		FormatMoney(a.LockedAmount),
		FormatMoney(a.AvailableLimit),
		string(a.Status),
		FormatDate(a.OpeningDate),
		FormatDate(a.LastActivityDate),
		FormatRate(a.InterestRate),
		a.BranchCode,
		FormatTime(a.CreatedAt),
		FormatTime(a.UpdatedAt),
	}
}
