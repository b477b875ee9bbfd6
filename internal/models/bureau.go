package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Credit bureau records sourced alongside the core banking extract.

// InquiryType is HARD or SOFT
type InquiryType string

const (
	InquiryHard InquiryType = "HARD"
	InquirySoft InquiryType = "SOFT"
)

// TradelineStatus is the reported state of an external credit line
type TradelineStatus string

const (
	TradelineOpen       TradelineStatus = "OPEN"
	TradelineClosed     TradelineStatus = "CLOSED"
	TradelineChargedOff TradelineStatus = "CHARGED_OFF"
)

// TradelinePaymentStatus values
const (
	TradelineCurrent = "CURRENT"
	TradelineLate30  = "LATE_30"
	TradelineLate60  = "LATE_60"
	TradelineLate90  = "LATE_90"
)

// CreditScore is one bureau score pull per customer
type CreditScore struct {
	ID           string    `db:"credit_score_id" json:"credit_score_id"`
	CustomerID   string    `db:"customer_id" json:"customer_id"`
	Bureau       string    `db:"bureau_name" json:"bureau_name"`
	Score        int       `db:"score" json:"score"`
	ScoreDate    time.Time `db:"score_date" json:"score_date"`
	ScoreVersion string    `db:"score_version" json:"score_version"`

	DelinquencyScore int  `db:"delinquency_score" json:"delinquency_score"`
	BankruptcyFlag   bool `db:"bankruptcy_flag" json:"bankruptcy_flag"`
	ForeclosureFlag  bool `db:"foreclosure_flag" json:"foreclosure_flag"`

	TotalAccounts       int             `db:"total_accounts" json:"total_accounts"`
	OpenAccounts        int             `db:"open_accounts" json:"open_accounts"`
	TotalBalance        utils.Money     `db:"total_balance" json:"total_balance"`
	AvailableCredit     utils.Money     `db:"available_credit" json:"available_credit"`
	CreditUtilization   decimal.Decimal `db:"credit_utilization" json:"credit_utilization"`
	OldestAccountMonths int             `db:"oldest_account_months" json:"oldest_account_months"`
	RecentInquiries     int             `db:"recent_inquiries" json:"recent_inquiries"`
	DerogatoryMarks     int             `db:"derogatory_marks" json:"derogatory_marks"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewCreditScore validates s and returns it.
func NewCreditScore(s CreditScore) (CreditScore, error) {
	if err := s.Validate(); err != nil {
		return CreditScore{}, err
	}
	return s, nil
}

// Validate checks every field domain of s.
func (s CreditScore) Validate() error {
	v := newChecker("credit_score", s.ID)
	v.check(s.ID != "", "credit_score_id", s.ID, "is empty")
	v.check(s.CustomerID != "", "customer_id", s.CustomerID, "is empty")
	v.check(s.Score >= risk.MinScore && s.Score <= risk.MaxScore, "score", s.Score, "must be within 300..850")
	v.check(s.DelinquencyScore >= 1 && s.DelinquencyScore <= 100, "delinquency_score", s.DelinquencyScore,
		"must be within 1..100")
	v.check(s.OpenAccounts >= 0 && s.OpenAccounts <= s.TotalAccounts, "open_accounts", s.OpenAccounts,
		"must be within 0..total_accounts")
	v.check(!s.TotalBalance.IsNegative(), "total_balance", s.TotalBalance, "is negative")
	v.check(!s.AvailableCredit.IsNegative(), "available_credit", s.AvailableCredit, "is negative")
	v.check(!s.CreditUtilization.IsNegative() && s.CreditUtilization.LessThanOrEqual(decimal.NewFromInt(100)),
		"credit_utilization", s.CreditUtilization, "must be within 0..100")
	v.check(s.RecentInquiries >= 0 && s.DerogatoryMarks >= 0, "recent_inquiries", s.RecentInquiries, "is negative")
	return v.result()
}

var creditScoreColumns = []Column{
	pk("credit_score_id", 12),
	fk("customer_id", 12, TableCustomers),
	text("bureau_name", 20),
	integer("score"),
	date("score_date"),
	text("score_version", 5),
	integer("delinquency_score"),
	boolean("bankruptcy_flag"),
	boolean("foreclosure_flag"),
	integer("total_accounts"),
	integer("open_accounts"),
	money("total_balance"),
	money("available_credit"),
	rate("credit_utilization"),
	integer("oldest_account_months"),
	integer("recent_inquiries"),
	integer("derogatory_marks"),
	timestamp("created_at"),
	timestamp("updated_at"),
}

func (s CreditScore) Columns() []Column { return creditScoreColumns }

func (s CreditScore) Key() string { return s.ID }

func (s CreditScore) Values() []string {
	return []string{
		s.ID,
		s.CustomerID,
		s.Bureau,
		FormatInt(s.Score),
		FormatDate(s.ScoreDate),
		s.ScoreVersion,
		FormatInt(s.DelinquencyScore),
		FormatBool(s.BankruptcyFlag),
		FormatBool(s.ForeclosureFlag),
		FormatInt(s.TotalAccounts),
		FormatInt(s.OpenAccounts),
		FormatMoney(s.TotalBalance),
		FormatMoney(s.AvailableCredit),
		FormatRate(s.CreditUtilization),
		FormatInt(s.OldestAccountMonths),
		FormatInt(s.RecentInquiries),
		FormatInt(s.DerogatoryMarks),
		FormatTime(s.CreatedAt),
		FormatTime(s.UpdatedAt),
	}
}

// CreditInquiry is a lender's request for a customer's bureau file
type CreditInquiry struct {
	ID          string       `db:"inquiry_id" json:"inquiry_id"`
	CustomerID  string       `db:"customer_id" json:"customer_id"`
	InquiryDate time.Time    `db:"inquiry_date" json:"inquiry_date"`
	Type        InquiryType  `db:"inquiry_type" json:"inquiry_type"`
	Creditor    string       `db:"creditor_name" json:"creditor_name"`
	ProductType string       `db:"product_type" json:"product_type"`
	Amount      *utils.Money `db:"inquiry_amount" json:"inquiry_amount,omitempty"`
	Reason      string       `db:"inquiry_reason" json:"inquiry_reason"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// NewCreditInquiry validates q and returns it.
func NewCreditInquiry(q CreditInquiry) (CreditInquiry, error) {
	if err := q.Validate(); err != nil {
		return CreditInquiry{}, err
	}
	return q, nil
}

// Validate checks every field domain of q.
func (q CreditInquiry) Validate() error {
	v := newChecker("credit_inquiry", q.ID)
	v.check(q.ID != "", "inquiry_id", q.ID, "is empty")
	v.check(q.CustomerID != "", "customer_id", q.CustomerID, "is empty")
	v.check(oneOf(q.Type, InquiryHard, InquirySoft), "inquiry_type", q.Type, "unknown")
	v.check(q.Amount == nil || *q.Amount > 0, "inquiry_amount", FormatMoneyPtr(q.Amount), "must be positive")
	return v.result()
}

var inquiryColumns = []Column{
	pk("inquiry_id", 16),
	fk("customer_id", 12, TableCustomers),
	date("inquiry_date"),
	text("inquiry_type", 4),
	text("creditor_name", 50),
	text("product_type", 20),
	nullMoney("inquiry_amount"),
	text("inquiry_reason", 20),
	timestamp("created_at"),
}

func (q CreditInquiry) Columns() []Column { return inquiryColumns }

func (q CreditInquiry) Key() string { return q.ID }

func (q CreditInquiry) Values() []string {
	return []string{
		q.ID,
		q.CustomerID,
		FormatDate(q.InquiryDate),
		string(q.Type),
		q.Creditor,
		q.ProductType,
		FormatMoneyPtr(q.Amount),
		q.Reason,
		FormatTime(q.CreatedAt),
	}
}

// Tradeline is a credit line the customer holds at another institution
type Tradeline struct {
	ID            string          `db:"tradeline_id" json:"tradeline_id"`
	CustomerID    string          `db:"customer_id" json:"customer_id"`
	Creditor      string          `db:"creditor_name" json:"creditor_name"`
	AccountType   string          `db:"account_type" json:"account_type"`
	AccountNumber string          `db:"account_number" json:"account_number"`
	Status        TradelineStatus `db:"account_status" json:"account_status"`
	OpenDate      time.Time       `db:"open_date" json:"open_date"`
	CloseDate     *time.Time      `db:"close_date" json:"close_date,omitempty"`

	CreditLimit    utils.Money `db:"credit_limit" json:"credit_limit"`
	CurrentBalance utils.Money `db:"current_balance" json:"current_balance"`
	HighestBalance utils.Money `db:"highest_balance" json:"highest_balance"`
	PaymentStatus  string      `db:"payment_status" json:"payment_status"`

	MonthlyPayment    utils.Money `db:"monthly_payment" json:"monthly_payment"`
	LastPaymentDate   time.Time   `db:"last_payment_date" json:"last_payment_date"`
	LastPaymentAmount utils.Money `db:"last_payment_amount" json:"last_payment_amount"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewTradeline validates t and returns it.
func NewTradeline(t Tradeline) (Tradeline, error) {
	if err := t.Validate(); err != nil {
		return Tradeline{}, err
	}
	return t, nil
}

// Validate checks every field domain of t.
func (t Tradeline) Validate() error {
	v := newChecker("tradeline", t.ID)
	v.check(t.ID != "", "tradeline_id", t.ID, "is empty")
	v.check(t.CustomerID != "", "customer_id", t.CustomerID, "is empty")
	v.check(oneOf(t.Status, TradelineOpen, TradelineClosed, TradelineChargedOff), "account_status", t.Status, "unknown")
	v.check(oneOf(t.PaymentStatus, TradelineCurrent, TradelineLate30, TradelineLate60, TradelineLate90),
		"payment_status", t.PaymentStatus, "unknown")
	v.check(t.CreditLimit > 0, "credit_limit", t.CreditLimit, "must be positive")
	v.check(!t.CurrentBalance.IsNegative() && t.CurrentBalance <= t.CreditLimit, "current_balance", t.CurrentBalance,
		"must be within 0..credit_limit")
	v.check(!t.HighestBalance.IsNegative() && t.HighestBalance <= t.CreditLimit, "highest_balance", t.HighestBalance,
		"must be within 0..credit_limit")
	v.check((t.Status == TradelineOpen) == (t.CloseDate == nil), "close_date", FormatDatePtr(t.CloseDate),
		"is set only for closed tradelines")
	v.check(t.CloseDate == nil || !t.CloseDate.Before(t.OpenDate), "close_date", FormatDatePtr(t.CloseDate),
		"precedes open_date")
	return v.result()
}

var tradelineColumns = []Column{
	pk("tradeline_id", 16),
	fk("customer_id", 12, TableCustomers),
	text("creditor_name", 50),
	text("account_type", 20),
	text("account_number", 10),
	text("account_status", 12),
	date("open_date"),
	nullDate("close_date"),
	money("credit_limit"),
	money("current_balance"),
	money("highest_balance"),
	text("payment_status", 10),
	money("monthly_payment"),
	date("last_payment_date"),
	money("last_payment_amount"),
	timestamp("created_at"),
	timestamp("updated_at"),
}

func (t Tradeline) Columns() []Column { return tradelineColumns }

func (t Tradeline) Key() string { return t.ID }

func (t Tradeline) Values() []string {
	return []string{
		t.ID,
		t.CustomerID,
		t.Creditor,
		t.AccountType,
		t.AccountNumber,
		string(t.Status),
		FormatDate(t.OpenDate),
		FormatDatePtr(t.CloseDate),
		FormatMoney(t.CreditLimit),
		FormatMoney(t.CurrentBalance),
		FormatMoney(t.HighestBalance),
		t.PaymentStatus,
		FormatMoney(t.MonthlyPayment),
		FormatDate(t.LastPaymentDate),
		FormatMoney(t.LastPaymentAmount),
		FormatTime(t.CreatedAt),
		FormatTime(t.UpdatedAt),
	}
}
