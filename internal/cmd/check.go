package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/willfong/portfolio-generator/internal/consistency"
	"github.com/willfong/portfolio-generator/internal/generator"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/ui"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Generate a portfolio in memory and report consistency",
	Long: `Run a full generation without writing anything and report the row count
of every table and any consistency violation found.

Exits with status 1 when a violation is found, so it can gate CI runs of new
generator settings.

Example:
  portgen check --customers 2000 --seed 7 --now 2025-06-30`,
	Run: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Same population flags as generate, without the sink settings
	f := checkCmd.Flags()
	for _, name := range []string{"customers", "accounts", "loans", "transactions", "inquiries", "tradelines", "seed", "now", "currency", "workers"} {
		f.AddFlag(generateCmd.Flags().Lookup(name))
	}
}

func runCheck(cmd *cobra.Command, args []string) {
	u := newUI()

	cfg, err := loadConfig(cmd, generateFlags)
	if err != nil {
		fail(u, err)
	}
	logger := newLogger(cfg)

	orchestrator, err := generator.NewOrchestrator(cfg, generator.OrchestratorOptions{Logger: logger})
	if err != nil {
		fail(u, err)
	}

	spin := u.NewSpinner(fmt.Sprintf("Generating portfolio (seed %d)", orchestrator.Seed()))
	spin.Start()
	result, err := orchestrator.Run(cmd.Context())

	var verr *consistency.Error
	switch {
	case errors.As(err, &verr):
		spin.Error(fmt.Sprintf("%d violations", verr.Count))
	case err != nil:
		spin.Error(err.Error())
		os.Exit(1)
	default:
		spin.Success("generated in " + ui.FormatDuration(result.Duration))
	}

	u.Section("Row counts")
	u.PrintCounts(models.TableNames, result.Counts)

	if result.Portfolio != nil {
		u.Section("Loan book")
		u.PrintLoanBook(loanBook(result.Portfolio.Loans, cfg.Generate.Currency))
	}

	if verr != nil {
		u.Section("Violations")
		for _, v := range verr.Violations {
			u.Println(u.TableRow(v.Table, fmt.Sprintf("%s [%s] %s", v.Key, v.Rule, v.Detail), ui.StatusError))
		}
		if more := verr.Count - len(verr.Violations); more > 0 {
			u.Println(u.Muted(fmt.Sprintf("  ... and %d more", more)))
		}
		os.Exit(1)
	}

	u.Println("")
	u.Println(u.Success("No consistency violations"))
}

// loanBook groups loans by status, in risk order.
func loanBook(loans []models.Loan, currency string) []ui.LoanBookRow {
	count := make(map[risk.LoanStatus]int)
	outstanding := make(map[risk.LoanStatus]utils.Money)
	for _, l := range loans {
		count[l.Status]++
		outstanding[l.Status] = outstanding[l.Status].Add(l.Outstanding)
	}
	statuses := []risk.LoanStatus{risk.StatusCurrent, risk.StatusDelinquent, risk.StatusDefault, risk.StatusClosed}
	rows := make([]ui.LoanBookRow, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, ui.LoanBookRow{
			Status:      string(s),
			Loans:       count[s],
			Outstanding: outstanding[s].Format(currency),
		})
	}
	return rows
}
