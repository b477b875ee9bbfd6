package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sink"
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

func TestPrepareDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"u:p@tcp(db:3306)/bank", "u:p@tcp(db:3306)/bank?parseTime=true"},
		{"u:p@tcp(db:3306)/bank?tls=true", "u:p@tcp(db:3306)/bank?tls=true&parseTime=true"},
		{"u:p@tcp(db:3306)/bank?parseTime=false", "u:p@tcp(db:3306)/bank?parseTime=false"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PrepareDSN(tt.in))
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:***@tcp(localhost:3306)/bank", MaskDSN("root:secret@tcp(localhost:3306)/bank"))
	assert.Equal(t, "/bank", MaskDSN("/bank"))
}

func TestLoadDataSQL(t *testing.T) {
	txns := table(t, models.TableTransactions)
	stmt := LoadDataSQL(txns, "/tmp/transactions_001.csv")

	assert.True(t, strings.HasPrefix(stmt, "LOAD DATA LOCAL INFILE '/tmp/transactions_001.csv'\nINTO TABLE transactions\n"))
	assert.Contains(t, stmt, "IGNORE 1 LINES")
	assert.Contains(t, stmt, "ESCAPED BY ''")
	// Nullable columns are read through a variable
	assert.Contains(t, stmt, "@counterparty_account")
	assert.Contains(t, stmt, "counterparty_account = NULLIF(@counterparty_account, '')")
	assert.NotContains(t, stmt, "@transaction_id")

	// Every column appears exactly once in the column list
	list := stmt[strings.Index(stmt, "(")+1 : strings.Index(stmt, ")")]
	assert.Len(t, strings.Split(list, ", "), len(txns.Columns))
}

func TestLoadDataSQLWithoutNullables(t *testing.T) {
	tbl := models.Table{Name: "t", Columns: []models.Column{{Name: "a", PrimaryKey: true}, {Name: "b"}}}
	stmt := LoadDataSQL(tbl, "/x.csv")
	assert.True(t, strings.HasSuffix(stmt, "(a, b)"))
	assert.NotContains(t, stmt, "SET")
}

func TestQuotePath(t *testing.T) {
	assert.Equal(t, `/tmp/o\'brien/a.csv`, quotePath("/tmp/o'brien/a.csv"))
	assert.Equal(t, `C:\\out\\a.csv`, quotePath(`C:\out\a.csv`))
}

func TestAlreadyExists(t *testing.T) {
	assert.True(t, alreadyExists(&mysql.MySQLError{Number: errDupKeyName}))
	assert.True(t, alreadyExists(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: errDupConstraint})))
	assert.False(t, alreadyExists(&mysql.MySQLError{Number: 1146}))
	assert.False(t, alreadyExists(errors.New("Duplicate key name")))
}

func TestManualLoadCommand(t *testing.T) {
	loans := table(t, models.TableLoans)

	cmd := ManualLoadCommand("admin:pw@tcp(db.internal:3307)/bank", loans, "/data/loans.csv")
	assert.Contains(t, cmd, "mariadb -uadmin -p*** -h db.internal -P 3307 --local-infile=1 bank <<'EOF'")
	assert.NotContains(t, cmd, "pw")
	assert.Contains(t, cmd, "INTO TABLE loans")

	cmd = ManualLoadCommand("admin:pw@tcp(db.internal:3307)/bank", loans, "/data/loans.csv.xz")
	assert.True(t, strings.HasPrefix(cmd, "xz -d -c /data/loans.csv.xz | mariadb"))
	assert.Contains(t, cmd, "LOCAL INFILE '/dev/stdin'")
}

func TestNewPoolRequiresDSN(t *testing.T) {
	_, err := NewPool(config.DatabaseConfig{})
	assert.ErrorIs(t, err, ErrMissingDSN)
}

func testPool(t *testing.T) *Pool {
	t.Helper()
	// sql.Open does not connect, so no server is needed here
	pool, err := NewPool(config.DatabaseConfig{DSN: "u:p@tcp(127.0.0.1:1)/bank", MaxOpenConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestNewImporterValidatesInput(t *testing.T) {
	pool := testPool(t)

	_, err := NewImporter(pool, filepath.Join(t.TempDir(), "missing"), ImporterOptions{})
	assert.ErrorContains(t, err, "does not exist")

	// Every table needs a file
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "customers.csv"), []byte("customer_id\n"), 0o644))
	_, err = NewImporter(pool, dir, ImporterOptions{})
	assert.ErrorIs(t, err, sink.ErrNoTableFile)
}

func TestNewImporterReadsManifest(t *testing.T) {
	p := &models.Portfolio{Currency: "SGD"}
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, (&sink.CSVSink{Dir: dir}).Write(context.Background(), p))

	im, err := NewImporter(testPool(t), dir, ImporterOptions{})
	require.NoError(t, err)
	require.NotNil(t, im.Manifest())
	assert.Equal(t, 0, im.Manifest().Rows(models.TableLoans))
	assert.Equal(t, -1, im.Manifest().Rows("branches"))
}

func TestPoolStatsStartEmpty(t *testing.T) {
	stats := testPool(t).Stats()
	assert.Zero(t, stats.TotalQueries)
	assert.Zero(t, stats.AvgLatency)
}
