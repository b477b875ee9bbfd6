package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/amortization"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// LoanType is the lending product family
type LoanType string

const (
	LoanTypePersonal LoanType = "PERSONAL"
	LoanTypeMortgage LoanType = "MORTGAGE"
	LoanTypeAuto     LoanType = "AUTO"
	LoanTypeBusiness LoanType = "BUSINESS"
)

// InterestType is FIXED or FLOATING
type InterestType string

const (
	InterestFixed    InterestType = "FIXED"
	InterestFloating InterestType = "FLOATING"
)

// CollateralType secures a loan; UNSECURED loans carry no collateral row
type CollateralType string

const (
	CollateralProperty  CollateralType = "PROPERTY"
	CollateralVehicle   CollateralType = "VEHICLE"
	CollateralDeposits  CollateralType = "DEPOSITS"
	CollateralUnsecured CollateralType = "UNSECURED"
)

// LoanApplication holds the sampled inputs of a loan. Everything else on a
// Loan is derived from it by NewLoan.
type LoanApplication struct {
	ID         string
	CustomerID string
	AccountID  string

	Type         LoanType
	ProductCode  string
	Currency     string
	Principal    utils.Money
	InterestRate decimal.Decimal // annual percent, risk premium included
	InterestType InterestType
	TermMonths   int
	StartDate    time.Time
	DaysPastDue  int

	CollateralType  CollateralType
	CollateralValue utils.Money
	ApprovalDate    time.Time
	ApprovedBy      string
}

// Loan represents a lending contract (T24 LOAN record)
type Loan struct {
	ID         string `db:"loan_id" json:"loan_id"`
	CustomerID string `db:"customer_id" json:"customer_id"`
	AccountID  string `db:"account_id" json:"account_id"`

	Type        LoanType `db:"loan_type" json:"loan_type"`
	ProductCode string   `db:"product_code" json:"product_code"`
	ProductName string   `db:"product_name" json:"product_name"`
	Currency    string   `db:"currency" json:"currency"`

	Principal    utils.Money     `db:"principal_amount" json:"principal_amount"`
	Outstanding  utils.Money     `db:"outstanding_principal" json:"outstanding_principal"`
	InterestRate decimal.Decimal `db:"interest_rate" json:"interest_rate"`
	InterestType InterestType    `db:"interest_type" json:"interest_type"`
	TermMonths   int             `db:"term_months" json:"term_months"`
	MonthlyEMI   utils.Money     `db:"monthly_payment" json:"monthly_payment"`

	StartDate       time.Time `db:"start_date" json:"start_date"`
	MaturityDate    time.Time `db:"maturity_date" json:"maturity_date"`
	NextPaymentDate time.Time `db:"next_payment_date" json:"next_payment_date"`

	PaymentsMade      int             `db:"payments_made" json:"payments_made"`
	PaymentsRemaining int             `db:"payments_remaining" json:"payments_remaining"`
	DaysPastDue       int             `db:"days_past_due" json:"days_past_due"`
	Arrears           utils.Money     `db:"arrears_amount" json:"arrears_amount"`
	Status            risk.LoanStatus `db:"loan_status" json:"loan_status"`

	CollateralType  CollateralType  `db:"collateral_type" json:"collateral_type"`
	CollateralValue utils.Money     `db:"collateral_value" json:"collateral_value"`
	LTVRatio        decimal.Decimal `db:"ltv_ratio" json:"ltv_ratio"`

	ApprovalDate time.Time `db:"approval_date" json:"approval_date"`
	ApprovedBy   string    `db:"approved_by" json:"approved_by"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewLoan runs the amortization engine and the risk rules over app as of now
// and returns the validated loan.
func NewLoan(app LoanApplication, now time.Time) (Loan, error) {
	start := utils.TruncateDay(app.StartDate)
	rate := app.InterestRate.Round(RatePlaces)
	plan, err := amortization.NewPlan(amortization.Terms{
		Principal:         app.Principal,
		AnnualRatePercent: rate,
		TermMonths:        app.TermMonths,
		StartDate:         start,
	})
	if err != nil {
		return Loan{}, fmt.Errorf("loan %s: %w", app.ID, err)
	}
	res := plan.At(now)

	ltv := decimal.Zero
	if app.CollateralValue > 0 {
		ltv = app.Principal.Decimal().Div(app.CollateralValue.Decimal()).Round(RatePlaces)
	}

	l := Loan{
		ID:                app.ID,
		CustomerID:        app.CustomerID,
		AccountID:         app.AccountID,
		Type:              app.Type,
		ProductCode:       app.ProductCode,
		ProductName:       string(app.Type) + " Loan",
		Currency:          app.Currency,
		Principal:         app.Principal,
		Outstanding:       res.Outstanding,
		InterestRate:      rate,
		InterestType:      app.InterestType,
		TermMonths:        app.TermMonths,
		MonthlyEMI:        res.EMI,
		StartDate:         start,
		MaturityDate:      plan.DueDate(app.TermMonths),
		NextPaymentDate:   plan.DueDate(res.PaymentsMade + 1),
		PaymentsMade:      res.PaymentsMade,
		PaymentsRemaining: app.TermMonths - res.PaymentsMade,
		DaysPastDue:       app.DaysPastDue,
		Arrears:           risk.Arrears(res.EMI, app.DaysPastDue),
		Status:            risk.Status(res.Outstanding, app.DaysPastDue),
		CollateralType:    app.CollateralType,
		CollateralValue:   app.CollateralValue,
		LTVRatio:          ltv,
		ApprovalDate:      utils.TruncateDay(app.ApprovalDate),
		ApprovedBy:        app.ApprovedBy,
		CreatedAt:         start,
		UpdatedAt:         now,
	}
	if err := l.Validate(); err != nil {
		return Loan{}, err
	}
	return l, nil
}

// Terms returns the amortization inputs of l.
func (l Loan) Terms() amortization.Terms {
	return amortization.Terms{
		Principal:         l.Principal,
		AnnualRatePercent: l.InterestRate,
		TermMonths:        l.TermMonths,
		StartDate:         l.StartDate,
	}
}

// IsSecured reports whether the loan has a collateral row.
func (l Loan) IsSecured() bool {
	return l.CollateralType != CollateralUnsecured
}

// Validate checks every field domain of l, including the derived-field rules
// that do not need the current time.
func (l Loan) Validate() error {
	v := newChecker("loan", l.ID)
	v.check(l.ID != "", "loan_id", l.ID, "is empty")
	v.check(l.CustomerID != "", "customer_id", l.CustomerID, "is empty")
	v.check(l.AccountID != "", "account_id", l.AccountID, "is empty")
	v.check(oneOf(l.Type, LoanTypePersonal, LoanTypeMortgage, LoanTypeAuto, LoanTypeBusiness), "loan_type", l.Type, "unknown")
	v.check(oneOf(l.InterestType, InterestFixed, InterestFloating), "interest_type", l.InterestType, "unknown")
	v.check(oneOf(l.CollateralType, CollateralProperty, CollateralVehicle, CollateralDeposits, CollateralUnsecured),
		"collateral_type", l.CollateralType, "unknown")
	v.check(utils.IsKnownCurrency(l.Currency), "currency", l.Currency, "unknown")
	v.check(l.Principal > 0, "principal_amount", l.Principal, "must be positive")
	v.check(!l.Outstanding.IsNegative(), "outstanding_principal", l.Outstanding, "is negative")
	v.check(l.Outstanding <= l.Principal, "outstanding_principal", l.Outstanding, "exceeds principal_amount")
	v.check(!l.InterestRate.IsNegative(), "interest_rate", l.InterestRate, "is negative")
	v.check(l.TermMonths > 0, "term_months", l.TermMonths, "must be positive")
	v.check(l.PaymentsMade >= 0 && l.PaymentsMade <= l.TermMonths, "payments_made", l.PaymentsMade, "must be within 0..term")
	v.check(l.PaymentsRemaining == l.TermMonths-l.PaymentsMade, "payments_remaining", l.PaymentsRemaining,
		"must equal term - payments_made")
	v.check(l.PaymentsMade < l.TermMonths || l.Outstanding.IsZero(), "outstanding_principal", l.Outstanding,
		"must be zero once every payment is made")
	v.check(l.MonthlyEMI > 0, "monthly_payment", l.MonthlyEMI, "must be positive")
	v.check(l.DaysPastDue >= 0, "days_past_due", l.DaysPastDue, "is negative")
	v.check(l.Arrears == risk.Arrears(l.MonthlyEMI, l.DaysPastDue), "arrears_amount", l.Arrears,
		"must equal emi * floor(dpd/30)")
	v.check(l.Status == risk.Status(l.Outstanding, l.DaysPastDue), "loan_status", l.Status,
		"does not match outstanding and dpd")
	v.check(l.MaturityDate.Equal(l.StartDate.AddDate(0, 0, amortization.DaysPerMonth*l.TermMonths)),
		"maturity_date", FormatDate(l.MaturityDate), "must be start + 30*term days")
	v.check(l.ApprovalDate.Before(l.StartDate), "approval_date", FormatDate(l.ApprovalDate), "must precede start_date")
	v.check(!l.CollateralValue.IsNegative(), "collateral_value", l.CollateralValue, "is negative")
	v.check(l.IsSecured() || l.CollateralValue.IsZero(), "collateral_value", l.CollateralValue,
		"must be zero for unsecured loans")
	v.check(!l.LTVRatio.IsNegative() && l.LTVRatio.LessThanOrEqual(decimal.NewFromInt(1)),
		"ltv_ratio", l.LTVRatio, "must be within 0..1")
	return v.result()
}

var loanColumns = []Column{
	pk("loan_id", 12),
	fk("customer_id", 12, TableCustomers),
	fk("account_id", 12, TableAccounts),
	text("loan_type", 10),
	text("product_code", 10),
	text("product_name", 50),
	text("currency", 3),
	money("principal_amount"),
	money("outstanding_principal"),
	rate("interest_rate"),
	text("interest_type", 10),
	integer("term_months"),
	money("monthly_payment"),
	date("start_date"),
	date("maturity_date"),
	date("next_payment_date"),
	integer("payments_made"),
	integer("payments_remaining"),
	integer("days_past_due"),
	money("arrears_amount"),
	text("loan_status", 10),
	text("collateral_type", 10),
	money("collateral_value"),
	rate("ltv_ratio"),
	date("approval_date"),
	text("approved_by", 12),
	timestamp("created_at"),
	timestamp("updated_at"),
}

func (l Loan) Columns() []Column { return loanColumns }

func (l Loan) Key() string { return l.ID }

func (l Loan) Values() []string {
	return []string{
		l.ID,
		l.CustomerID,
		l.AccountID,
		string(l.Type),
		l.ProductCode,
		l.ProductName,
		l.Currency,
		FormatMoney(l.Principal),
		FormatMoney(l.Outstanding),
		FormatRate(l.InterestRate),
		string(l.InterestType),
		FormatInt(l.TermMonths),
		FormatMoney(l.MonthlyEMI),
		FormatDate(l.StartDate),
		FormatDate(l.MaturityDate),
		FormatDate(l.NextPaymentDate),
		FormatInt(l.PaymentsMade),
		FormatInt(l.PaymentsRemaining),
		FormatInt(l.DaysPastDue),
		FormatMoney(l.Arrears),
		string(l.Status),
		string(l.CollateralType),
		FormatMoney(l.CollateralValue),
		FormatRate(l.LTVRatio),
		FormatDate(l.ApprovalDate),
		l.ApprovedBy,
		FormatTime(l.CreatedAt),
		FormatTime(l.UpdatedAt),
	}
}
