package generator

import (
	"iter"

	"github.com/willfong/portfolio-generator/internal/amortization"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// ScheduleFactory expands every loan into its installment rows.
// Principal and interest come from the loan's amortization plan; payment
// state follows the loan's status and days past due.
type ScheduleFactory struct {
	rng    *utils.Random
	env    Env
	loans  *LoanIndex
	config ScheduleFactoryConfig
}

// ScheduleFactoryConfig holds settings for schedule generation
type ScheduleFactoryConfig struct {
	// Lookahead caps rows at payments_made + Lookahead; 0 emits the full term
	Lookahead int
}

// NewScheduleFactory creates a new schedule factory
func NewScheduleFactory(rng *utils.Random, env Env, loans *LoanIndex, config ScheduleFactoryConfig) *ScheduleFactory {
	return &ScheduleFactory{
		rng:    rng.Derive("schedule"),
		env:    env,
		loans:  loans,
		config: config,
	}
}

// RowCount returns how many schedule rows loan l produces
func (f *ScheduleFactory) RowCount(l *models.Loan) int {
	if f.config.Lookahead > 0 {
		return min(l.TermMonths, l.PaymentsMade+f.config.Lookahead)
	}
	return l.TermMonths
}

// Generate yields every installment row, loan by loan
func (f *ScheduleFactory) Generate() iter.Seq2[models.PaymentSchedule, error] {
	return func(yield func(models.PaymentSchedule, error) bool) {
		var next int64 = 1
		for i := range f.loans.Len() {
			loan := f.loans.At(i)
			rows, err := f.ForLoan(loan, next)
			if err != nil {
				yield(models.PaymentSchedule{}, err)
				return
			}
			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
			next += int64(len(rows))
		}
	}
}

// ForLoan builds the rows of one loan, numbering ids from firstID.
func (f *ScheduleFactory) ForLoan(loan *models.Loan, firstID int64) ([]models.PaymentSchedule, error) {
	plan, err := amortization.NewPlan(loan.Terms())
	if err != nil {
		return nil, err
	}
	rng := f.rng.Derive(loan.ID)
	today := f.env.today()

	// The most recent due installments are the unpaid ones
	overdue := 0
	if loan.Status == risk.StatusDelinquent || loan.Status == risk.StatusDefault {
		overdue = min(risk.OverdueInstallments(loan.DaysPastDue), loan.PaymentsMade)
	}
	lastPaid := loan.PaymentsMade - overdue

	installments := plan.Installments()[:f.RowCount(loan)]
	rows := make([]models.PaymentSchedule, 0, len(installments))
	for j, inst := range installments {
		row := models.PaymentSchedule{
			ID:                scheduleID(firstID + int64(j)),
			LoanID:            loan.ID,
			CustomerID:        loan.CustomerID,
			InstallmentNumber: inst.Number,
			DueDate:           inst.DueDate,
			PrincipalDue:      inst.Principal,
			InterestDue:       inst.Interest,
			TotalDue:          inst.Total,
			Status:            models.PaymentScheduled,
			CreatedAt:         loan.StartDate,
			UpdatedAt:         f.env.Now,
		}

		switch {
		case inst.Number <= lastPaid:
			// Paid on the due date or up to three days early
			paidOn := inst.DueDate.AddDate(0, 0, -rng.IntN(4))
			row.Status = models.PaymentPaid
			row.PrincipalPaid = inst.Principal
			row.InterestPaid = inst.Interest
			row.TotalPaid = inst.Total
			row.PaymentDate = &paidOn
		case inst.Number <= loan.PaymentsMade:
			row.Status = models.PaymentOverdue
			row.DaysLate = int(today.Sub(inst.DueDate).Hours() / 24)
			row.PenaltyAmount = utils.RandomAmount(rng, models.MinPenalty, models.MaxPenalty)
		}

		valid, err := models.NewPaymentSchedule(row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, valid)
	}
	return rows, nil
}
