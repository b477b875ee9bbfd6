package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/schema"
)

// DefaultSQLiteBatch is the number of rows per committed transaction
const DefaultSQLiteBatch = 1000

// SQLiteSink writes the portfolio into a single SQLite database file.
type SQLiteSink struct {
	Path      string
	BatchSize int
	Logger    *slog.Logger
	Progress  ProgressFunc
}

// Name implements Sink
func (s *SQLiteSink) Name() string { return "sqlite" }

// OpenSQLite opens a database file with foreign keys enforced.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=MEMORY&_synchronous=OFF")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection; one connection keeps them consistent
	db.SetMaxOpenConns(1)
	return db, nil
}

// Write builds the database next to Path and renames it into place.
func (s *SQLiteSink) Write(ctx context.Context, p *models.Portfolio) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	staging := s.Path + ".tmp"
	if err := os.Remove(staging); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear %s: %w", staging, err)
	}

	db, err := OpenSQLite(staging)
	if err != nil {
		return err
	}
	err = s.populate(ctx, db, p, logger)
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(staging)
		return err
	}

	if err := os.Rename(staging, s.Path); err != nil {
		return fmt.Errorf("failed to move database into %s: %w", s.Path, err)
	}
	return nil
}

func (s *SQLiteSink) populate(ctx context.Context, db *sql.DB, p *models.Portfolio, logger *slog.Logger) error {
	for _, stmt := range schema.Tables(schema.SQLite, schema.Options{}) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Parents are loaded before children, so references always resolve
	for _, t := range p.Tables() {
		if err := s.insertTable(ctx, db, t); err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		logger.Debug("table written", slog.String("table", t.Name), slog.Int("rows", t.Len))
	}

	for _, stmt := range schema.Indexes(schema.SQLite) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// insertTable loads one table in transactions of BatchSize rows
func (s *SQLiteSink) insertTable(ctx context.Context, db *sql.DB, t models.Table) error {
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultSQLiteBatch
	}

	query := InsertSQL(t)
	var (
		tx      *sql.Tx
		stmt    *sql.Stmt
		written int
	)
	begin := func() error {
		var err error
		if tx, err = db.BeginTx(ctx, nil); err != nil {
			return err
		}
		if stmt, err = tx.PrepareContext(ctx, query); err != nil {
			tx.Rollback()
			return err
		}
		return nil
	}
	commit := func() error {
		stmt.Close()
		return tx.Commit()
	}

	if err := begin(); err != nil {
		return err
	}
	for rec := range t.Rows {
		if _, err := stmt.ExecContext(ctx, Args(t.Columns, rec.Values())...); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", rec.Key(), err)
		}
		written++
		report(s.Progress, t.Name, written, t.Len)
		if written%batch == 0 {
			if err := commit(); err != nil {
				return err
			}
			if err := begin(); err != nil {
				return err
			}
		}
	}
	if t.Len == 0 {
		report(s.Progress, t.Name, 0, 0)
	}
	return commit()
}

// InsertSQL renders the parameterised INSERT for a table
func InsertSQL(t models.Table) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(t.Headers(), ", "), marks)
}

// Args converts formatted values to statement arguments; an empty nullable
// value becomes NULL.
func Args(columns []models.Column, values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		if v == "" && columns[i].Nullable {
			args[i] = nil
			continue
		}
		args[i] = v
	}
	return args
}
