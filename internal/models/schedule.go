package models

import (
	"time"

	"github.com/willfong/portfolio-generator/internal/utils"
)

// PaymentStatus is the state of one installment
type PaymentStatus string

const (
	PaymentPaid      PaymentStatus = "PAID"
	PaymentOverdue   PaymentStatus = "OVERDUE"
	PaymentScheduled PaymentStatus = "SCHEDULED"
)

// Penalty bounds for overdue installments.
var (
	MinPenalty = utils.Dollars(10)
	MaxPenalty = utils.Dollars(100)
)

// PaymentSchedule is one installment row of a loan's repayment plan
type PaymentSchedule struct {
	ID                string `db:"schedule_id" json:"schedule_id"`
	LoanID            string `db:"loan_id" json:"loan_id"`
	CustomerID        string `db:"customer_id" json:"customer_id"`
	InstallmentNumber int    `db:"installment_number" json:"installment_number"`

	DueDate      time.Time   `db:"due_date" json:"due_date"`
	PrincipalDue utils.Money `db:"principal_due" json:"principal_due"`
	InterestDue  utils.Money `db:"interest_due" json:"interest_due"`
	TotalDue     utils.Money `db:"total_due" json:"total_due"`

	PrincipalPaid utils.Money `db:"principal_paid" json:"principal_paid"`
	InterestPaid  utils.Money `db:"interest_paid" json:"interest_paid"`
	TotalPaid     utils.Money `db:"total_paid" json:"total_paid"`
	PaymentDate   *time.Time  `db:"payment_date" json:"payment_date,omitempty"`

	Status        PaymentStatus `db:"payment_status" json:"payment_status"`
	DaysLate      int           `db:"days_late" json:"days_late"`
	PenaltyAmount utils.Money   `db:"penalty_amount" json:"penalty_amount"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewPaymentSchedule validates s and returns it.
func NewPaymentSchedule(s PaymentSchedule) (PaymentSchedule, error) {
	if err := s.Validate(); err != nil {
		return PaymentSchedule{}, err
	}
	return s, nil
}

// Validate checks every field domain of s and that the paid columns agree
// with the payment status.
func (s PaymentSchedule) Validate() error {
	v := newChecker("payment_schedule", s.ID)
	v.check(s.ID != "", "schedule_id", s.ID, "is empty")
	v.check(s.LoanID != "", "loan_id", s.LoanID, "is empty")
	v.check(s.InstallmentNumber >= 1, "installment_number", s.InstallmentNumber, "must be at least 1")
	v.check(!s.PrincipalDue.IsNegative(), "principal_due", s.PrincipalDue, "is negative")
	v.check(!s.InterestDue.IsNegative(), "interest_due", s.InterestDue, "is negative")
	v.check(s.TotalDue == s.PrincipalDue.Add(s.InterestDue), "total_due", s.TotalDue, "must equal principal + interest")
	v.check(s.TotalPaid == s.PrincipalPaid.Add(s.InterestPaid), "total_paid", s.TotalPaid, "must equal principal + interest paid")
	v.check(s.DaysLate >= 0, "days_late", s.DaysLate, "is negative")

	switch s.Status {
	case PaymentPaid:
		v.check(s.PrincipalPaid == s.PrincipalDue && s.InterestPaid == s.InterestDue,
			"total_paid", s.TotalPaid, "must equal total_due when PAID")
		v.check(s.PaymentDate != nil, "payment_date", nil, "is required when PAID")
		v.check(s.PenaltyAmount.IsZero(), "penalty_amount", s.PenaltyAmount, "must be zero when PAID")
	case PaymentOverdue:
		v.check(s.TotalPaid.IsZero(), "total_paid", s.TotalPaid, "must be zero when OVERDUE")
		v.check(s.PaymentDate == nil, "payment_date", FormatDatePtr(s.PaymentDate), "must be empty when OVERDUE")
		v.check(s.PenaltyAmount >= MinPenalty && s.PenaltyAmount <= MaxPenalty,
			"penalty_amount", s.PenaltyAmount, "must be within 10..100 when OVERDUE")
	case PaymentScheduled:
		v.check(s.TotalPaid.IsZero(), "total_paid", s.TotalPaid, "must be zero when SCHEDULED")
		v.check(s.PaymentDate == nil, "payment_date", FormatDatePtr(s.PaymentDate), "must be empty when SCHEDULED")
		v.check(s.DaysLate == 0 && s.PenaltyAmount.IsZero(), "penalty_amount", s.PenaltyAmount,
			"must be zero when SCHEDULED")
	default:
		v.check(false, "payment_status", s.Status, "unknown")
	}
	return v.result()
}

var scheduleColumns = []Column{
	pk("schedule_id", 16),
	fk("loan_id", 12, TableLoans),
	fk("customer_id", 12, TableCustomers),
	integer("installment_number"),
	date("due_date"),
	money("principal_due"),
	money("interest_due"),
	money("total_due"),
	money("principal_paid"),
	money("interest_paid"),
	money("total_paid"),
	nullDate("payment_date"),
	text("payment_status", 10),
	integer("days_late"),
	money("penalty_amount"),
	timestamp("created_at"),
	timestamp("updated_at"),
}

func (s PaymentSchedule) Columns() []Column { return scheduleColumns }

func (s PaymentSchedule) Key() string { return s.ID }

func (s PaymentSchedule) Values() []string {
	return []string{
		s.ID,
		s.LoanID,
		s.CustomerID,
		FormatInt(s.InstallmentNumber),
		FormatDate(s.DueDate),
		FormatMoney(s.PrincipalDue),
		FormatMoney(s.InterestDue),
		FormatMoney(s.TotalDue),
		FormatMoney(s.PrincipalPaid),
		FormatMoney(s.InterestPaid),
		FormatMoney(s.TotalPaid),
		FormatDatePtr(s.PaymentDate),
		string(s.Status),
		FormatInt(s.DaysLate),
		FormatMoney(s.PenaltyAmount),
		FormatTime(s.CreatedAt),
		FormatTime(s.UpdatedAt),
	}
}
