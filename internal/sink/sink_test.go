package sink_test

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/generator"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sink"
)

func portfolio(t *testing.T) *models.Portfolio {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Generate.Seed = 7
	cfg.Generate.Now = "2025-06-30"
	cfg.Generate.NumCustomers = 40
	cfg.Generate.NumAccounts = 60
	cfg.Generate.NumLoans = 45
	cfg.Generate.NumTransactions = 2500
	cfg.Generate.NumInquiries = 20
	cfg.Generate.NumTradelines = 25
	p, err := generator.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	return p
}

// readCSV returns the header and data rows of one plain or xz file
func readCSV(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	var r io.ReadCloser
	var err error
	if filepath.Ext(path) == ".xz" {
		r, err = sink.OpenXZ(context.Background(), path)
	} else {
		r, err = os.Open(path)
	}
	require.NoError(t, err)
	rows, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NotEmpty(t, rows)
	return rows[0], rows[1:]
}

func countRows(t *testing.T, dir, table string) int {
	t.Helper()
	files, _, err := sink.TableFiles(dir, table)
	require.NoError(t, err)
	n := 0
	for _, f := range files {
		_, rows := readCSV(t, f)
		n += len(rows)
	}
	return n
}

func TestCSVSinkRoundTripsCounts(t *testing.T) {
	p := portfolio(t)
	dir := filepath.Join(t.TempDir(), "out")

	var mu sync.Mutex
	last := make(map[string]int)
	s := &sink.CSVSink{Dir: dir, Progress: func(table string, written, total int) {
		mu.Lock()
		defer mu.Unlock()
		last[table] = written
	}}
	require.NoError(t, s.Write(context.Background(), p))

	m, err := sink.ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, p.Seed, m.Seed)
	assert.False(t, m.Compressed)

	for _, tbl := range p.Tables() {
		assert.Equal(t, tbl.Len, countRows(t, dir, tbl.Name), tbl.Name)
		assert.Equal(t, tbl.Len, m.Rows(tbl.Name), tbl.Name)
		assert.Equal(t, tbl.Len, last[tbl.Name], tbl.Name)
	}

	header, rows := readCSV(t, filepath.Join(dir, models.TableCustomers+".csv"))
	customers, _ := p.Table(models.TableCustomers)
	assert.Equal(t, customers.Headers(), header)
	assert.Equal(t, p.Customers[0].Values(), rows[0])
}

func TestCSVSinkShardsLargeTables(t *testing.T) {
	p := portfolio(t)
	dir := filepath.Join(t.TempDir(), "out")

	s := &sink.CSVSink{Dir: dir, ShardRows: 1000}
	require.NoError(t, s.Write(context.Background(), p))

	files, compressed, err := sink.TableFiles(dir, models.TableTransactions)
	require.NoError(t, err)
	assert.False(t, compressed)
	require.Len(t, files, 3)
	assert.Equal(t, "transactions_001.csv", filepath.Base(files[0]))
	assert.Equal(t, "transactions_003.csv", filepath.Base(files[2]))
	assert.Equal(t, len(p.Transactions), countRows(t, dir, models.TableTransactions))

	// Small tables stay in one file
	files, _, err = sink.TableFiles(dir, models.TableCustomers)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "customers.csv")}, files)
}

func TestCSVSinkCompressed(t *testing.T) {
	if err := sink.CheckXZAvailable(); err != nil {
		t.Skip("xz not installed")
	}
	p := portfolio(t)
	dir := filepath.Join(t.TempDir(), "out")

	s := &sink.CSVSink{Dir: dir, Compress: true, ShardRows: 2000}
	require.NoError(t, s.Write(context.Background(), p))

	files, compressed, err := sink.TableFiles(dir, models.TableTransactions)
	require.NoError(t, err)
	assert.True(t, compressed)
	assert.Len(t, files, 2)
	assert.Equal(t, len(p.Transactions), countRows(t, dir, models.TableTransactions))
}

func TestCSVSinkReplacesPreviousRun(t *testing.T) {
	p := portfolio(t)
	dir := filepath.Join(t.TempDir(), "out")
	s := &sink.CSVSink{Dir: dir, ShardRows: 1000}
	require.NoError(t, s.Write(context.Background(), p))

	// A second run without sharding leaves no stale shards behind
	s.ShardRows = 0
	require.NoError(t, s.Write(context.Background(), p))
	files, _, err := sink.TableFiles(dir, models.TableTransactions)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "transactions.csv")}, files)
}

func TestCSVSinkRefusesForeignDirectory(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("mine"), 0o644))

	err := (&sink.CSVSink{Dir: dir}).Write(context.Background(), portfolio(t))
	assert.ErrorIs(t, err, sink.ErrOutputNotEmpty)
	assert.FileExists(t, keep)
}

func TestCSVSinkCancelledKeepsPreviousOutput(t *testing.T) {
	p := portfolio(t)
	parent := t.TempDir()
	dir := filepath.Join(parent, "out")
	s := &sink.CSVSink{Dir: dir}
	require.NoError(t, s.Write(context.Background(), p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Write(ctx, p), context.Canceled)

	_, err := sink.ReadManifest(dir)
	assert.NoError(t, err)
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging directory left behind")
}

func TestTableFilesIgnoresLongerNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"credit_scores.csv", "credit_001.csv", "credit_002.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, _, err := sink.TableFiles(dir, "credit")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, _, err = sink.TableFiles(dir, "loans")
	assert.ErrorIs(t, err, sink.ErrNoTableFile)
}

func TestShardNaming(t *testing.T) {
	assert.Equal(t, "transactions_001", sink.ShardFilename("transactions", 1, 8))
	assert.Equal(t, "transactions_0012", sink.ShardFilename("transactions", 12, 1500))

	assert.Equal(t, 1, sink.ShardCount(500, 0))
	assert.Equal(t, 1, sink.ShardCount(500, 500))
	assert.Equal(t, 2, sink.ShardCount(501, 500))
}

type failingSink struct{ calls *int }

func (f failingSink) Name() string { return "broken" }

func (f failingSink) Write(context.Context, *models.Portfolio) error {
	*f.calls++
	return errors.New("disk full")
}

func TestWriteAllStopsAtFirstFailure(t *testing.T) {
	calls := 0
	p := &models.Portfolio{}
	results, err := sink.WriteAll(context.Background(), p, nil, failingSink{&calls}, failingSink{&calls})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken sink: disk full")
	assert.Empty(t, results)
	assert.Equal(t, 1, calls)
}
