package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/willfong/portfolio-generator/internal/amortization"
	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/ui"
)

var (
	amortPrincipal string
	amortRate      string
	amortTerm      int
	amortStart     string
	amortNow       string
	amortCurrency  string
	amortSchedule  bool
)

// amortizeCmd represents the amortize command
var amortizeCmd = &cobra.Command{
	Use:   "amortize",
	Short: "Compute the installment and outstanding balance of one loan",
	Long: `Compute the equated monthly installment of a fixed-rate loan and its state
as of a reference date, using the same arithmetic the generator uses.

A month is 30 days: installment k falls due 30*k days after the start date.

Example:
  portgen amortize --principal 100000 --rate 6 --term 60 --start 2020-01-01 --now 2025-06-30
  portgen amortize --principal 12000 --rate 0 --term 12 --start 2025-01-01 --schedule`,
	Args: cobra.NoArgs,
	Run:  runAmortize,
}

func init() {
	rootCmd.AddCommand(amortizeCmd)

	f := amortizeCmd.Flags()
	f.StringVar(&amortPrincipal, "principal", "", "amount borrowed (required)")
	f.StringVar(&amortRate, "rate", "", "annual interest rate in percent (required)")
	f.IntVar(&amortTerm, "term", 0, "term in months (required)")
	f.StringVar(&amortStart, "start", "", "disbursement date, YYYY-MM-DD (required)")
	f.StringVar(&amortNow, "now", "", "reference date, YYYY-MM-DD or RFC 3339 (default: today)")
	f.StringVar(&amortCurrency, "currency", config.DefaultCurrency, "currency used to format amounts")
	f.BoolVar(&amortSchedule, "schedule", false, "print every installment")

	for _, name := range []string{"principal", "rate", "term", "start"} {
		amortizeCmd.MarkFlagRequired(name)
	}
}

func runAmortize(cmd *cobra.Command, args []string) {
	u := newUI()

	plan, now, err := parseAmortizeFlags()
	if err != nil {
		fail(u, err)
	}
	res := plan.At(now)
	terms := plan.Terms()

	items := []ui.KV{
		{Key: "Principal", Value: terms.Principal.Format(amortCurrency)},
		{Key: "Annual rate", Value: terms.AnnualRatePercent.String() + "%"},
		{Key: "Term", Value: fmt.Sprintf("%d months", terms.TermMonths)},
		{Key: "Start", Value: models.FormatDate(terms.StartDate)},
		{Key: "As of", Value: models.FormatDate(now)},
		{Key: "Installment", Value: res.EMI.Format(amortCurrency)},
		{Key: "Months elapsed", Value: fmt.Sprintf("%d", res.MonthsElapsed)},
		{Key: "Payments made", Value: fmt.Sprintf("%d of %d", res.PaymentsMade, terms.TermMonths)},
		{Key: "Outstanding", Value: res.Outstanding.Format(amortCurrency)},
		{Key: "Loan status", Value: string(risk.Status(res.Outstanding, 0))},
	}
	u.Println(u.SummaryBox("Amortization", items))

	if amortSchedule {
		u.Println("")
		u.Println(scheduleTable(u, plan, res.PaymentsMade))
	}
}

func parseAmortizeFlags() (*amortization.Plan, time.Time, error) {
	amount, err := decimal.NewFromString(amortPrincipal)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("--principal %q is not a number", amortPrincipal)
	}
	principal, err := amortization.PrincipalFromDecimal(amount)
	if err != nil {
		return nil, time.Time{}, err
	}
	rate, err := decimal.NewFromString(amortRate)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("--rate %q is not a number", amortRate)
	}
	start, err := models.ParseDate(amortStart)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("--start: %w", err)
	}
	now, err := config.GenerateConfig{Now: amortNow}.ReferenceTime()
	if err != nil {
		return nil, time.Time{}, err
	}

	plan, err := amortization.NewPlan(amortization.Terms{
		Principal:         principal,
		AnnualRatePercent: rate,
		TermMonths:        amortTerm,
		StartDate:         start,
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return plan, now, nil
}

// scheduleTable renders the repayment plan; installments already paid are muted.
func scheduleTable(u *ui.UI, plan *amortization.Plan, paid int) string {
	installments := plan.Installments()
	rows := make([][]string, len(installments))
	for i, in := range installments {
		rows[i] = []string{
			fmt.Sprintf("%d", in.Number),
			models.FormatDate(in.DueDate),
			in.Principal.String(),
			in.Interest.String(),
			in.Total.String(),
			in.Balance.String(),
		}
	}
	return u.Table([]string{"#", "Due", "Principal", "Interest", "Total", "Balance"}, rows, 2, paid)
}
