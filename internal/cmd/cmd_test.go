package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/schema"
	"github.com/willfong/portfolio-generator/internal/utils"
)

func TestParseSchemaArgs(t *testing.T) {
	tests := []struct {
		args    []string
		dialect schema.Dialect
		part    schema.Part
	}{
		{nil, schema.MySQL, schema.PartFull},
		{[]string{"tables"}, schema.MySQL, schema.PartTables},
		{[]string{"sqlite"}, schema.SQLite, schema.PartFull},
		{[]string{"sqlite", "indexes"}, schema.SQLite, schema.PartIndexes},
		{[]string{"indexes", "mariadb"}, schema.MySQL, schema.PartIndexes},
	}
	for _, tt := range tests {
		d, p, err := parseSchemaArgs(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.dialect, d, tt.args)
		assert.Equal(t, tt.part, p, tt.args)
	}

	for _, bad := range [][]string{{"postgres"}, {"full", "tables"}} {
		_, _, err := parseSchemaArgs(bad)
		assert.Error(t, err, bad)
	}
}

func TestFlagBindingsNameRealFlags(t *testing.T) {
	for cmd, bindings := range map[*cobra.Command]map[string]string{
		generateCmd: generateFlags,
		importCmd:   importFlags,
		serveCmd:    serveFlags,
	} {
		for name := range bindings {
			assert.NotNil(t, cmd.Flags().Lookup(name), "%s --%s", cmd.Name(), name)
		}
	}
	for _, name := range []string{"customers", "seed", "now"} {
		assert.NotNil(t, checkCmd.Flags().Lookup(name), "check --%s", name)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generate:\n  num_loans: 40\n  num_accounts: 60\n"), 0o644))
	t.Setenv("PORTGEN_GENERATE_NUM_CUSTOMERS", "99")
	t.Setenv("PORTGEN_GENERATE_NUM_ACCOUNTS", "70")

	prev := configFile
	configFile = path
	t.Cleanup(func() { configFile = prev })

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int("customers", 0, "")
	cmd.Flags().Int("loans", 0, "")
	cmd.Flags().StringSlice("sink", nil, "")
	require.NoError(t, cmd.Flags().Set("customers", "7"))
	require.NoError(t, cmd.Flags().Set("sink", "csv,sqlite"))

	cfg, err := loadConfig(cmd, map[string]string{
		"customers": "generate.num_customers",
		"loans":     "generate.num_loans",
		"sink":      "output.sinks",
	})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Generate.NumCustomers, "flag beats environment")
	assert.Equal(t, 70, cfg.Generate.NumAccounts, "environment beats file")
	assert.Equal(t, 40, cfg.Generate.NumLoans, "unset flag leaves the file value")
	assert.Equal(t, []string{"csv", "sqlite"}, cfg.Output.Sinks)
	assert.Equal(t, config.DefaultTransactions, cfg.Generate.NumTransactions)
}

func TestLoanBookGroupsByStatus(t *testing.T) {
	loans := []models.Loan{
		{Status: risk.StatusCurrent, Outstanding: utils.NewMoney(100, 0)},
		{Status: risk.StatusDefault, Outstanding: utils.NewMoney(40, 50)},
		{Status: risk.StatusCurrent, Outstanding: utils.NewMoney(25, 25)},
	}

	rows := loanBook(loans, "USD")

	require.Len(t, rows, 4)
	assert.Equal(t, "CURRENT", rows[0].Status)
	assert.Equal(t, 2, rows[0].Loans)
	assert.Equal(t, utils.NewMoney(125, 25).Format("USD"), rows[0].Outstanding)
	assert.Equal(t, 0, rows[1].Loans, "no delinquent loans")
	assert.Equal(t, "DEFAULT", rows[2].Status)
	assert.Equal(t, 1, rows[2].Loans)
	assert.Equal(t, "CLOSED", rows[3].Status)
}
