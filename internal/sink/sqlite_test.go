package sink_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sink"
)

func TestSQLiteSinkRoundTripsCounts(t *testing.T) {
	p := portfolio(t)
	path := filepath.Join(t.TempDir(), "db", "portfolio.db")

	s := &sink.SQLiteSink{Path: path, BatchSize: 300}
	require.NoError(t, s.Write(context.Background(), p))
	assert.NoFileExists(t, path+".tmp")

	db, err := sink.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	for _, tbl := range p.Tables() {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+tbl.Name).Scan(&n))
		assert.Equal(t, tbl.Len, n, tbl.Name)
	}

	rows, err := db.Query("PRAGMA foreign_key_check")
	require.NoError(t, err)
	assert.False(t, rows.Next(), "dangling reference")
	require.NoError(t, rows.Close())

	// Money keeps its exact text form
	loan := p.Loans[0]
	var outstanding string
	require.NoError(t, db.QueryRow("SELECT outstanding_principal FROM loans WHERE loan_id = ?", loan.ID).Scan(&outstanding))
	assert.Equal(t, loan.Outstanding.String(), outstanding)
}

func TestSQLiteSinkStoresNulls(t *testing.T) {
	p := portfolio(t)
	path := filepath.Join(t.TempDir(), "portfolio.db")
	require.NoError(t, (&sink.SQLiteSink{Path: path}).Write(context.Background(), p))

	db, err := sink.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	var withCounterparty int
	for _, tx := range p.Transactions {
		if tx.CounterpartyAccount != "" {
			withCounterparty++
		}
	}
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM transactions WHERE counterparty_account IS NOT NULL").Scan(&n))
	assert.Equal(t, withCounterparty, n)
}

func TestSQLiteSinkReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	p := portfolio(t)
	require.NoError(t, (&sink.SQLiteSink{Path: path}).Write(context.Background(), p))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&n))
	assert.Equal(t, len(p.Customers), n)
}

func TestArgsMapsEmptyNullableToNull(t *testing.T) {
	cols := []models.Column{
		{Name: "a", Kind: models.KindText},
		{Name: "b", Kind: models.KindText, Nullable: true},
		{Name: "c", Kind: models.KindText, Nullable: true},
	}
	args := sink.Args(cols, []string{"", "", "x"})
	assert.Equal(t, []any{"", nil, "x"}, args)
}

func TestInsertSQL(t *testing.T) {
	tbl := models.Table{Name: "t", Columns: []models.Column{{Name: "a"}, {Name: "b"}}}
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (?, ?)", sink.InsertSQL(tbl))
}
