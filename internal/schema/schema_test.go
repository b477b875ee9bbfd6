package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/models"
)

func table(t *testing.T, name string) models.Table {
	t.Helper()
	for _, tbl := range models.Schema() {
		if tbl.Name == name {
			return tbl
		}
	}
	t.Fatalf("no table %s", name)
	return models.Table{}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("MariaDB")
	require.NoError(t, err)
	assert.Equal(t, MySQL, d)

	d, err = ParseDialect("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = ParseDialect("postgres")
	assert.Error(t, err)
}

func TestColumnTypes(t *testing.T) {
	tests := []struct {
		col    models.Column
		mysql  string
		sqlite string
	}{
		{models.Column{Name: "a", Kind: models.KindText, Size: 12}, "VARCHAR(12)", "TEXT"},
		{models.Column{Name: "b", Kind: models.KindMoney}, "DECIMAL(18,2)", "TEXT"},
		{models.Column{Name: "c", Kind: models.KindRate}, "DECIMAL(12,4)", "TEXT"},
		{models.Column{Name: "d", Kind: models.KindInt}, "INT", "INTEGER"},
		{models.Column{Name: "e", Kind: models.KindDate}, "DATE", "TEXT"},
		{models.Column{Name: "f", Kind: models.KindTimestamp}, "DATETIME", "TEXT"},
		{models.Column{Name: "g", Kind: models.KindBool}, "TINYINT(1)", "INTEGER"},
	}
	for _, tt := range tests {
		t.Run(tt.col.Name, func(t *testing.T) {
			assert.Equal(t, tt.mysql, ColumnType(MySQL, tt.col))
			assert.Equal(t, tt.sqlite, ColumnType(SQLite, tt.col))
		})
	}
}

func TestCreateTableMySQL(t *testing.T) {
	loans := table(t, models.TableLoans)
	stmt := CreateTable(MySQL, loans, Options{IfNotExists: true})

	assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS loans ("))
	assert.Contains(t, stmt, "loan_id VARCHAR(12) NOT NULL")
	assert.Contains(t, stmt, "PRIMARY KEY (loan_id)")
	assert.Contains(t, stmt, "ENGINE=InnoDB")
	// Constraints are added after loading
	assert.NotContains(t, stmt, "FOREIGN KEY")
}

func TestCreateTableSQLiteInlinesReferences(t *testing.T) {
	txns := table(t, models.TableTransactions)
	stmt := CreateTable(SQLite, txns, Options{})

	assert.Contains(t, stmt, "FOREIGN KEY (account_id) REFERENCES accounts (account_id)")
	assert.Contains(t, stmt, "FOREIGN KEY (counterparty_account) REFERENCES accounts (account_id)")
	assert.NotContains(t, stmt, "counterparty_account TEXT NOT NULL")
	assert.NotContains(t, stmt, "ENGINE")
}

func TestIndexesCoverEveryReference(t *testing.T) {
	var refs int
	for _, tbl := range models.Schema() {
		for _, c := range tbl.Columns {
			if c.Ref != "" {
				refs++
			}
		}
	}
	require.Positive(t, refs)

	assert.Len(t, Indexes(SQLite), refs)
	// MySQL adds one constraint per reference on top of the index
	assert.Len(t, Indexes(MySQL), 2*refs)
	assert.Contains(t, strings.Join(Indexes(MySQL), "\n"), "ADD CONSTRAINT fk_loans_account_id")
}

func TestScriptParts(t *testing.T) {
	tables := Script(MySQL, PartTables)
	assert.Equal(t, len(models.TableNames), strings.Count(tables, "CREATE TABLE"))
	assert.NotContains(t, tables, "CREATE INDEX")

	indexes := Script(MySQL, PartIndexes)
	assert.NotContains(t, indexes, "CREATE TABLE")
	assert.Contains(t, indexes, "CREATE INDEX idx_accounts_customer_id ON accounts (customer_id);")

	full := Script(SQLite, PartFull)
	assert.Contains(t, full, "CREATE TABLE IF NOT EXISTS customers")
	assert.Contains(t, full, "CREATE INDEX IF NOT EXISTS")

	// Parents come before children
	assert.Less(t, strings.Index(full, "TABLE IF NOT EXISTS customers"), strings.Index(full, "TABLE IF NOT EXISTS loans"))
}
