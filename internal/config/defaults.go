// Package config loads and validates portgen configuration.
// Compile-time defaults live in this file, grouped by concern.
package config

import "time"

// =============================================================================
// GENERATION DEFAULTS
// =============================================================================

// Population sizes
const (
	DefaultCustomers    = 1000
	DefaultAccounts     = 1500
	DefaultLoans        = 800
	DefaultTransactions = 20000
	DefaultInquiries    = 1200
	DefaultTradelines   = 2000
)

// Locale
const (
	// DefaultCurrency is the ISO 4217 code every amount is issued in
	DefaultCurrency = "SGD"

	// DefaultNationality is the country customers are generated for
	DefaultNationality = "SGP"
)

// Credit score shape: Beta(6.9, 3.1) over 300..850 centres near 680
const (
	CreditScoreAlpha = 6.9
	CreditScoreBeta  = 3.1
)

// Parallelism
const (
	// TransactionChunkSize is the number of transactions per worker chunk
	TransactionChunkSize = 5000
)

// =============================================================================
// OUTPUT DEFAULTS
// =============================================================================

const (
	// DefaultOutputDir is where the csv sink writes
	DefaultOutputDir = "./output"

	// DefaultSQLitePath is the database file of the sqlite sink. It must stay
	// outside DefaultOutputDir, which the csv sink replaces as a whole.
	DefaultSQLitePath = "./portfolio.db"

	// DefaultShardRows is the row count above which a table is split
	DefaultShardRows = 1_000_000
)

// =============================================================================
// DATABASE DEFAULTS
// =============================================================================

const (
	// DBDriver is the database driver to use
	DBDriver = "mysql"

	// DBMaxOpenConns is maximum open connections in the pool
	DBMaxOpenConns = 100

	// DBMaxIdleConns is maximum idle connections in the pool
	DBMaxIdleConns = 10

	// DBConnMaxLifetime is how long a connection can be reused
	DBConnMaxLifetime = 5 * time.Minute

	// DBConnMaxIdleTime is how long an idle connection is kept
	DBConnMaxIdleTime = 1 * time.Minute
)

// =============================================================================
// GRAPH DEFAULTS
// =============================================================================

const (
	GraphURI       = "neo4j://localhost:7687"
	GraphUsername  = "neo4j"
	GraphBatchSize = 500
)

// =============================================================================
// SERVER AND LOGGING
// =============================================================================

const (
	ServerAddr         = ":8080"
	ServerMaxCustomers = 5000
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second

	// GracefulShutdownTimeout is max wait time for graceful shutdown
	GracefulShutdownTimeout = 10 * time.Second

	LogLevel  = "info"
	LogFormat = "text"
)
