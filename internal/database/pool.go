// Package database bulk-loads CSV output into MySQL or MariaDB.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/willfong/portfolio-generator/internal/config"
)

// ErrMissingDSN is returned by NewPool without a connection string
var ErrMissingDSN = errors.New("database DSN is required")

// withParam appends key=value to the DSN query string unless key is already present.
func withParam(dsn, key, value string) string {
	if strings.Contains(strings.ToLower(dsn), strings.ToLower(key)+"=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + key + "=" + value
	}
	return dsn + "?" + key + "=" + value
}

// PrepareDSN enables DATE/DATETIME scanning. LOAD DATA LOCAL INFILE works
// through mysql.RegisterLocalFile, so allowAllFiles stays off.
func PrepareDSN(dsn string) string {
	return withParam(dsn, "parseTime", "true")
}

// MaskDSN hides the password between : and @ for display
func MaskDSN(dsn string) string {
	if colonIdx := strings.Index(dsn, ":"); colonIdx > 0 {
		rest := dsn[colonIdx:]
		if atIdx := strings.Index(rest, "@"); atIdx > 0 {
			return dsn[:colonIdx+1] + "***" + rest[atIdx:]
		}
	}
	return dsn
}

// Pool wraps a sql.DB with statement counters
type Pool struct {
	db     *sql.DB
	config config.DatabaseConfig

	totalQueries   atomic.Int64
	failedQueries  atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewPool creates a new database connection pool with the given configuration
func NewPool(cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	driver := cfg.Driver
	if driver == "" {
		driver = "mysql"
	}

	db, err := sql.Open(driver, PrepareDSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return &Pool{db: db, config: cfg}, nil
}

// Connect verifies the database connection is working
func (p *Pool) Connect(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close gracefully shuts down the connection pool
func (p *Pool) Close() error {
	return p.db.Close()
}

// DB returns the underlying sql.DB for direct access when needed
func (p *Pool) DB() *sql.DB {
	return p.db
}

// ExecContext executes a statement that doesn't return rows
func (p *Pool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := p.db.ExecContext(ctx, query, args...)
	p.recordQuery(time.Since(start), err)
	return result, err
}

// Conn reserves one connection, for session settings that must apply to
// the statements that follow.
func (p *Pool) Conn(ctx context.Context) (*sql.Conn, error) {
	return p.db.Conn(ctx)
}

func (p *Pool) recordQuery(duration time.Duration, err error) {
	p.totalQueries.Add(1)
	p.totalLatencyNs.Add(duration.Nanoseconds())
	if err != nil {
		p.failedQueries.Add(1)
	}
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	dbStats := p.db.Stats()
	total := p.totalQueries.Load()
	var avg time.Duration
	if total > 0 {
		avg = time.Duration(p.totalLatencyNs.Load() / total)
	}
	return PoolStats{
		OpenConnections: dbStats.OpenConnections,
		InUse:           dbStats.InUse,
		Idle:            dbStats.Idle,
		WaitCount:       dbStats.WaitCount,
		WaitDuration:    dbStats.WaitDuration,
		TotalQueries:    total,
		FailedQueries:   p.failedQueries.Load(),
		AvgLatency:      avg,
	}
}

// PoolStats contains connection pool and statement statistics
type PoolStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
	WaitDuration    time.Duration

	TotalQueries  int64
	FailedQueries int64
	AvgLatency    time.Duration
}
