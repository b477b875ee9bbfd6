package models

import (
	"time"
)

// Table names, in dependency order.
const (
	TableCustomers        = "customers"
	TableAccounts         = "accounts"
	TableLoans            = "loans"
	TablePaymentSchedules = "payment_schedules"
	TableTransactions     = "transactions"
	TableCreditScores     = "credit_scores"
	TableCreditInquiries  = "credit_inquiries"
	TableTradelines       = "tradelines"
	TableCollateral       = "collateral"
)

// TableNames lists every table; parents always come before children.
var TableNames = []string{
	TableCustomers,
	TableAccounts,
	TableLoans,
	TablePaymentSchedules,
	TableTransactions,
	TableCreditScores,
	TableCreditInquiries,
	TableTradelines,
	TableCollateral,
}

// Portfolio is the complete output of one generation run.
// It is built once and never mutated afterwards.
type Portfolio struct {
	Seed     uint64
	Now      time.Time
	Currency string

	Customers    []Customer
	Accounts     []Account
	Loans        []Loan
	Schedules    []PaymentSchedule
	Transactions []Transaction
	CreditScores []CreditScore
	Inquiries    []CreditInquiry
	Tradelines   []Tradeline
	Collateral   []Collateral
}

// Tables returns every entity table in TableNames order.
func (p *Portfolio) Tables() []Table {
	return []Table{
		newTable(TableCustomers, customerColumns, p.Customers),
		newTable(TableAccounts, accountColumns, p.Accounts),
		newTable(TableLoans, loanColumns, p.Loans),
		newTable(TablePaymentSchedules, scheduleColumns, p.Schedules),
		newTable(TableTransactions, transactionColumns, p.Transactions),
		newTable(TableCreditScores, creditScoreColumns, p.CreditScores),
		newTable(TableCreditInquiries, inquiryColumns, p.Inquiries),
		newTable(TableTradelines, tradelineColumns, p.Tradelines),
		newTable(TableCollateral, collateralColumns, p.Collateral),
	}
}

// Table returns the named table.
func (p *Portfolio) Table(name string) (Table, bool) {
	for _, t := range p.Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Counts returns the row count per table.
func (p *Portfolio) Counts() map[string]int {
	counts := make(map[string]int, len(TableNames))
	for _, t := range p.Tables() {
		counts[t.Name] = t.Len
	}
	return counts
}

// TotalRecords returns the number of rows across all tables.
func (p *Portfolio) TotalRecords() int {
	total := 0
	for _, t := range p.Tables() {
		total += t.Len
	}
	return total
}

// Schema returns the column list of every table without needing any rows.
func Schema() []Table {
	var empty Portfolio
	return empty.Tables()
}
