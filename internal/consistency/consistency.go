// Package consistency audits a finished portfolio before anything is written:
// keys and references, field domains, and every derived loan field re-computed
// from scratch.
package consistency

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/willfong/portfolio-generator/internal/amortization"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// ErrConsistencyViolation is wrapped by every error Check returns.
var ErrConsistencyViolation = errors.New("consistency violation")

// MaxReported caps the violations kept on an Error.
const MaxReported = 20

// Rule names
const (
	RuleDuplicateKey  = "duplicate_key"
	RuleForeignKey    = "foreign_key"
	RuleCustomerMatch = "customer_match"
	RuleFieldDomain   = "field_domain"
	RuleAmortization  = "amortization"
	RuleLoanStatus    = "loan_status"
	RuleRiskCategory  = "risk_category"
	RuleSchedule      = "schedule"
	RuleCollateral    = "collateral"
)

// Violation is one broken rule on one record
type Violation struct {
	Table  string
	Key    string
	Rule   string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s [%s] %s", v.Table, v.Key, v.Rule, v.Detail)
}

// Error aggregates the violations of one Check run.
type Error struct {
	Count      int
	Violations []Violation // first MaxReported only
}

func (e *Error) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	msg := fmt.Sprintf("%s: %d found\n  - %s", ErrConsistencyViolation, e.Count, strings.Join(lines, "\n  - "))
	if e.Count > len(e.Violations) {
		msg += fmt.Sprintf("\n  ... and %d more", e.Count-len(e.Violations))
	}
	return msg
}

func (e *Error) Unwrap() error {
	return ErrConsistencyViolation
}

// Check audits p with the default risk policy.
func Check(p *models.Portfolio) error {
	return NewChecker(risk.DefaultPolicy()).Check(p)
}

// Checker audits portfolios against one risk policy.
type Checker struct {
	policy *risk.Policy
}

// NewChecker creates a checker for policy
func NewChecker(policy *risk.Policy) *Checker {
	return &Checker{policy: policy}
}

// Check audits p and returns an *Error when any rule is broken.
func (c *Checker) Check(p *models.Portfolio) error {
	r := &report{}
	c.checkKeys(r, p)
	c.checkDomains(r, p)

	customers := index(p.Customers, func(x models.Customer) string { return x.ID })
	accounts := index(p.Accounts, func(x models.Account) string { return x.ID })
	loans := index(p.Loans, func(x models.Loan) string { return x.ID })

	c.checkCustomers(r, p.Customers)
	for _, a := range p.Accounts {
		r.ref(models.TableAccounts, a.ID, models.TableCustomers, a.CustomerID, customers)
	}
	for _, l := range p.Loans {
		r.ref(models.TableLoans, l.ID, models.TableCustomers, l.CustomerID, customers)
		r.ref(models.TableLoans, l.ID, models.TableAccounts, l.AccountID, accounts)
		c.checkLoan(r, l, p.Now)
	}
	c.checkSchedules(r, p.Schedules, p.Loans, loans)
	c.checkTransactions(r, p.Transactions, p.Accounts, accounts)
	for _, s := range p.CreditScores {
		r.ref(models.TableCreditScores, s.ID, models.TableCustomers, s.CustomerID, customers)
	}
	for _, q := range p.Inquiries {
		r.ref(models.TableCreditInquiries, q.ID, models.TableCustomers, q.CustomerID, customers)
	}
	for _, t := range p.Tradelines {
		r.ref(models.TableTradelines, t.ID, models.TableCustomers, t.CustomerID, customers)
	}
	c.checkCollateral(r, p.Collateral, p.Loans, loans)

	return r.err()
}

// checkKeys flags repeated primary keys in every table
func (c *Checker) checkKeys(r *report, p *models.Portfolio) {
	for _, t := range p.Tables() {
		seen := make(map[string]struct{}, t.Len)
		for rec := range t.Rows {
			key := rec.Key()
			if _, dup := seen[key]; dup {
				r.add(t.Name, key, RuleDuplicateKey, "primary key repeats")
			}
			seen[key] = struct{}{}
		}
	}
}

type validator interface {
	Validate() error
}

// checkDomains re-runs every record's own field validation
func (c *Checker) checkDomains(r *report, p *models.Portfolio) {
	for _, t := range p.Tables() {
		for rec := range t.Rows {
			v, ok := rec.(validator)
			if !ok {
				continue
			}
			if err := v.Validate(); err != nil {
				r.add(t.Name, rec.Key(), RuleFieldDomain, err.Error())
			}
		}
	}
}

func (c *Checker) checkCustomers(r *report, customers []models.Customer) {
	for _, cu := range customers {
		if want := c.policy.Categorize(cu.CreditScore); cu.RiskCategory != want {
			r.add(models.TableCustomers, cu.ID, RuleRiskCategory,
				fmt.Sprintf("score %d is %s, stored %s", cu.CreditScore, want, cu.RiskCategory))
		}
	}
}

// checkLoan re-derives the amortization and status fields of l as of now
func (c *Checker) checkLoan(r *report, l models.Loan, now time.Time) {
	if l.Outstanding > l.Principal {
		r.add(models.TableLoans, l.ID, RuleAmortization, "outstanding exceeds principal")
	}
	res, err := amortization.Amortize(l.Terms(), now)
	if err != nil {
		r.add(models.TableLoans, l.ID, RuleAmortization, err.Error())
		return
	}
	if res.EMI != l.MonthlyEMI {
		r.add(models.TableLoans, l.ID, RuleAmortization, fmt.Sprintf("emi %s, expected %s", l.MonthlyEMI, res.EMI))
	}
	if res.PaymentsMade != l.PaymentsMade {
		r.add(models.TableLoans, l.ID, RuleAmortization,
			fmt.Sprintf("payments_made %d, expected %d", l.PaymentsMade, res.PaymentsMade))
	}
	if res.Outstanding != l.Outstanding {
		r.add(models.TableLoans, l.ID, RuleAmortization,
			fmt.Sprintf("outstanding %s, expected %s", l.Outstanding, res.Outstanding))
	}
	if want := risk.Status(l.Outstanding, l.DaysPastDue); l.Status != want {
		r.add(models.TableLoans, l.ID, RuleLoanStatus, fmt.Sprintf("status %s, expected %s", l.Status, want))
	}
	if want := risk.Arrears(l.MonthlyEMI, l.DaysPastDue); l.Arrears != want {
		r.add(models.TableLoans, l.ID, RuleLoanStatus, fmt.Sprintf("arrears %s, expected %s", l.Arrears, want))
	}
}

// checkSchedules verifies every loan's rows against the loan itself
func (c *Checker) checkSchedules(r *report, rows []models.PaymentSchedule, loans []models.Loan, byID map[string]int) {
	perLoan := make(map[string][]models.PaymentSchedule)
	for _, s := range rows {
		i, ok := byID[s.LoanID]
		if !ok {
			r.add(models.TablePaymentSchedules, s.ID, RuleForeignKey, "loan_id "+s.LoanID+" not found")
			continue
		}
		if loans[i].CustomerID != s.CustomerID {
			r.add(models.TablePaymentSchedules, s.ID, RuleCustomerMatch, "customer_id differs from the loan's")
		}
		perLoan[s.LoanID] = append(perLoan[s.LoanID], s)
	}

	for _, l := range loans {
		rows := perLoan[l.ID]
		if len(rows) > l.TermMonths {
			r.add(models.TableLoans, l.ID, RuleSchedule, fmt.Sprintf("%d rows for a %d month term", len(rows), l.TermMonths))
		}

		seen := make(map[int]bool, len(rows))
		var paidPrincipal utils.Money
		for _, s := range rows {
			n := s.InstallmentNumber
			if n < 1 || n > l.TermMonths {
				r.add(models.TablePaymentSchedules, s.ID, RuleSchedule, fmt.Sprintf("installment %d outside 1..%d", n, l.TermMonths))
			}
			if seen[n] {
				r.add(models.TablePaymentSchedules, s.ID, RuleSchedule, fmt.Sprintf("installment %d repeats", n))
			}
			seen[n] = true

			due := n <= l.PaymentsMade
			if due == (s.Status == models.PaymentScheduled) {
				r.add(models.TablePaymentSchedules, s.ID, RuleSchedule,
					fmt.Sprintf("installment %d is %s with %d payments made", n, s.Status, l.PaymentsMade))
			}
			if due {
				paidPrincipal = paidPrincipal.Add(s.PrincipalDue)
			}
		}

		// Principal of the due installments telescopes to principal - outstanding
		if len(rows) >= l.PaymentsMade && len(rows) > 0 {
			if want := l.Principal.Sub(l.Outstanding); paidPrincipal != want {
				r.add(models.TableLoans, l.ID, RuleSchedule,
					fmt.Sprintf("due principal sums to %s, expected %s", paidPrincipal, want))
			}
		}
	}
}

func (c *Checker) checkTransactions(r *report, txns []models.Transaction, accounts []models.Account, byID map[string]int) {
	for _, t := range txns {
		i, ok := byID[t.AccountID]
		if !ok {
			r.add(models.TableTransactions, t.ID, RuleForeignKey, "account_id "+t.AccountID+" not found")
			continue
		}
		if accounts[i].CustomerID != t.CustomerID {
			r.add(models.TableTransactions, t.ID, RuleCustomerMatch, "customer_id differs from the account owner")
		}
		if t.CounterpartyAccount != "" {
			if _, ok := byID[t.CounterpartyAccount]; !ok {
				r.add(models.TableTransactions, t.ID, RuleForeignKey,
					"counterparty_account "+t.CounterpartyAccount+" not found")
			}
		}
	}
}

func (c *Checker) checkCollateral(r *report, rows []models.Collateral, loans []models.Loan, byID map[string]int) {
	secured := 0
	for _, l := range loans {
		if l.IsSecured() {
			secured++
		}
	}
	if secured != len(rows) {
		r.add(models.TableCollateral, "*", RuleCollateral,
			fmt.Sprintf("%d collateral rows for %d secured loans", len(rows), secured))
	}

	for _, col := range rows {
		i, ok := byID[col.LoanID]
		if !ok {
			r.add(models.TableCollateral, col.ID, RuleForeignKey, "loan_id "+col.LoanID+" not found")
			continue
		}
		l := loans[i]
		if l.CustomerID != col.CustomerID {
			r.add(models.TableCollateral, col.ID, RuleCustomerMatch, "customer_id differs from the loan's")
		}
		if l.CollateralType != col.Type || l.CollateralValue != col.OriginalValue {
			r.add(models.TableCollateral, col.ID, RuleCollateral, "type or original value differs from the loan")
		}
		if l.Status != col.Status {
			r.add(models.TableCollateral, col.ID, RuleCollateral, "status does not mirror the loan")
		}
	}
}

// report collects violations, keeping only the first MaxReported
type report struct {
	count int
	kept  []Violation
}

func (r *report) add(table, key, rule, detail string) {
	r.count++
	if len(r.kept) < MaxReported {
		r.kept = append(r.kept, Violation{Table: table, Key: key, Rule: rule, Detail: detail})
	}
}

// ref flags a reference from table/key to a missing parent id
func (r *report) ref(table, key, parent, id string, parents map[string]int) {
	if _, ok := parents[id]; !ok {
		r.add(table, key, RuleForeignKey, fmt.Sprintf("%s %s not found", parent, id))
	}
}

func (r *report) err() error {
	if r.count == 0 {
		return nil
	}
	return &Error{Count: r.count, Violations: r.kept}
}

// index maps each record's key to its position
func index[T any](rows []T, key func(T) string) map[string]int {
	m := make(map[string]int, len(rows))
	for i, row := range rows {
		m[key(row)] = i
	}
	return m
}
