package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid configuration")

// Sink names accepted in output.sinks
const (
	SinkCSV    = "csv"
	SinkSQLite = "sqlite"
	SinkNeo4j  = "neo4j"
)

// Config holds all configuration for the portfolio generator
type Config struct {
	// Data generation configuration
	Generate GenerateConfig `mapstructure:"generate"`

	// Risk banding
	Risk RiskConfig `mapstructure:"risk"`

	// Where generated portfolios are written
	Output OutputConfig `mapstructure:"output"`

	// Database configuration (import command)
	Database DatabaseConfig `mapstructure:"database"`

	// Graph database configuration (neo4j sink)
	Graph GraphConfig `mapstructure:"graph"`

	// Preview API
	Server ServerConfig `mapstructure:"server"`

	// Structured logging
	Logging LoggingConfig `mapstructure:"logging"`

	// Verbose forces debug logging
	Verbose bool `mapstructure:"verbose"`
}

// GenerateConfig holds data generation settings
type GenerateConfig struct {
	// Random seed for reproducibility (0 = random, reported after the run)
	Seed int64 `mapstructure:"seed"`

	// Now pins the reference date (YYYY-MM-DD or RFC 3339). Empty = wall clock.
	Now string `mapstructure:"now"`

	// Volume settings
	NumCustomers    int `mapstructure:"num_customers"`
	NumAccounts     int `mapstructure:"num_accounts"`
	NumLoans        int `mapstructure:"num_loans"`
	NumTransactions int `mapstructure:"num_transactions"`
	NumInquiries    int `mapstructure:"num_inquiries"`
	NumTradelines   int `mapstructure:"num_tradelines"`

	// Locale
	Currency    string `mapstructure:"currency"`
	Nationality string `mapstructure:"nationality"` // ISO 3166-1 alpha-3

	// ScheduleLookahead limits future installments per loan (0 = full term)
	ScheduleLookahead int `mapstructure:"schedule_lookahead"`

	// Credit score distribution: Beta(alpha, beta) scaled to 300..850
	CreditScoreAlpha float64 `mapstructure:"credit_score_alpha"`
	CreditScoreBeta  float64 `mapstructure:"credit_score_beta"`

	// Parallelism for generation (0 = one per CPU)
	NumWorkers int `mapstructure:"num_workers"`
	ChunkSize  int `mapstructure:"chunk_size"`
}

// RiskConfig holds the credit score band thresholds
type RiskConfig struct {
	LowThreshold    int `mapstructure:"low_threshold"`
	MediumThreshold int `mapstructure:"medium_threshold"`
}

// OutputConfig selects and tunes the sinks
type OutputConfig struct {
	Sinks      []string `mapstructure:"sinks"`
	Dir        string   `mapstructure:"dir"`
	Compress   bool     `mapstructure:"compress"`
	SQLitePath string   `mapstructure:"sqlite_path"`
	// ShardRows splits larger CSV tables into numbered files (0 = never)
	ShardRows int `mapstructure:"shard_rows"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	// Connection string (DSN)
	// Format: user:password@tcp(host:port)/database
	DSN string `mapstructure:"dsn"`

	// Driver (mysql)
	Driver string `mapstructure:"driver"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// GraphConfig describes connectivity to Neo4j
type GraphConfig struct {
	URI       string `mapstructure:"uri"`
	Database  string `mapstructure:"database"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	BatchSize int    `mapstructure:"batch_size"`
}

// ServerConfig governs the preview HTTP API
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxCustomers    int           `mapstructure:"max_customers"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig controls structured logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text|json
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Generate: GenerateConfig{
			NumCustomers:     DefaultCustomers,
			NumAccounts:      DefaultAccounts,
			NumLoans:         DefaultLoans,
			NumTransactions:  DefaultTransactions,
			NumInquiries:     DefaultInquiries,
			NumTradelines:    DefaultTradelines,
			Currency:         DefaultCurrency,
			Nationality:      DefaultNationality,
			CreditScoreAlpha: CreditScoreAlpha,
			CreditScoreBeta:  CreditScoreBeta,
			ChunkSize:        TransactionChunkSize,
		},
		Risk: RiskConfig{
			LowThreshold:    risk.DefaultLowThreshold,
			MediumThreshold: risk.DefaultMediumThreshold,
		},
		Output: OutputConfig{
			Sinks:      []string{SinkCSV},
			Dir:        DefaultOutputDir,
			SQLitePath: DefaultSQLitePath,
			ShardRows:  DefaultShardRows,
		},
		Database: DatabaseConfig{
			Driver:          DBDriver,
			MaxOpenConns:    DBMaxOpenConns,
			MaxIdleConns:    DBMaxIdleConns,
			ConnMaxLifetime: DBConnMaxLifetime,
			ConnMaxIdleTime: DBConnMaxIdleTime,
		},
		Graph: GraphConfig{
			URI:       GraphURI,
			Username:  GraphUsername,
			BatchSize: GraphBatchSize,
		},
		Server: ServerConfig{
			Addr:            ServerAddr,
			MaxCustomers:    ServerMaxCustomers,
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     ServerReadTimeout,
			WriteTimeout:    ServerWriteTimeout,
			ShutdownTimeout: GracefulShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  LogLevel,
			Format: LogFormat,
		},
	}
}

// EnvPrefix is prepended to every environment variable, so generate.seed
// is read from PORTGEN_GENERATE_SEED.
const EnvPrefix = "PORTGEN"

// NewViper returns a viper instance that reads PORTGEN_* environment
// variables and, when path is not empty, a yaml, toml or json config file.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeFor[Config](), "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// bindEnvs registers every mapstructure key so Unmarshal sees environment
// variables for keys that have no flag or file value.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := range t.NumField() {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeFor[time.Time]() {
			bindEnvs(v, f.Type, key)
			continue
		}
		v.BindEnv(key)
	}
}

// Load reads configuration from viper into a Config struct
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v on top of the defaults
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// ReferenceTime resolves generate.now; an empty value means the wall clock.
func (g GenerateConfig) ReferenceTime() (time.Time, error) {
	if g.Now == "" {
		return time.Now().UTC().Truncate(time.Second), nil
	}
	if t, err := time.Parse(time.RFC3339, g.Now); err == nil {
		return t.UTC(), nil
	}
	t, err := models.ParseDate(g.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("generate.now %q: want YYYY-MM-DD or RFC 3339", g.Now)
	}
	return t, nil
}

// Policy builds the risk policy for the configured thresholds
func (r RiskConfig) Policy() (*risk.Policy, error) {
	return risk.NewPolicy(r.LowThreshold, r.MediumThreshold)
}

// HasSink reports whether name is among the selected sinks
func (o OutputConfig) HasSink(name string) bool {
	return slices.Contains(o.Sinks, name)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []string

	// Validate generation config
	g := c.Generate
	populations := []struct {
		key  string
		size int
	}{
		{"num_customers", g.NumCustomers},
		{"num_accounts", g.NumAccounts},
		{"num_loans", g.NumLoans},
		{"num_transactions", g.NumTransactions},
		{"num_inquiries", g.NumInquiries},
		{"num_tradelines", g.NumTradelines},
	}
	for _, p := range populations {
		if p.size <= 0 {
			errs = append(errs, fmt.Sprintf("generate.%s must be positive", p.key))
		}
	}
	if !utils.IsKnownCurrency(g.Currency) {
		errs = append(errs, fmt.Sprintf("generate.currency %q is not supported", g.Currency))
	}
	if len(g.Nationality) != 3 {
		errs = append(errs, "generate.nationality must be an ISO 3166-1 alpha-3 code")
	}
	if g.ScheduleLookahead < 0 {
		errs = append(errs, "generate.schedule_lookahead must be non-negative")
	}
	if g.CreditScoreAlpha <= 0 || g.CreditScoreBeta <= 0 {
		errs = append(errs, "generate.credit_score_alpha and credit_score_beta must be positive")
	}
	if g.NumWorkers < 0 {
		errs = append(errs, "generate.num_workers must be non-negative")
	}
	if g.ChunkSize <= 0 {
		errs = append(errs, "generate.chunk_size must be positive")
	}
	if _, err := g.ReferenceTime(); err != nil {
		errs = append(errs, err.Error())
	}

	// Validate risk bands
	if _, err := c.Risk.Policy(); err != nil {
		errs = append(errs, err.Error())
	}

	// Validate sinks
	for _, s := range c.Output.Sinks {
		switch s {
		case SinkCSV, SinkSQLite, SinkNeo4j:
		default:
			errs = append(errs, fmt.Sprintf("output.sinks: unknown sink %q (want csv, sqlite or neo4j)", s))
		}
	}
	if c.Output.HasSink(SinkCSV) && c.Output.Dir == "" {
		errs = append(errs, "output.dir is required for the csv sink")
	}
	if c.Output.ShardRows < 0 {
		errs = append(errs, "output.shard_rows must be non-negative")
	}
	if c.Output.HasSink(SinkSQLite) && c.Output.SQLitePath == "" {
		errs = append(errs, "output.sqlite_path is required for the sqlite sink")
	}
	if c.Output.HasSink(SinkNeo4j) {
		if c.Graph.URI == "" {
			errs = append(errs, "graph.uri is required for the neo4j sink")
		}
		if c.Graph.BatchSize <= 0 {
			errs = append(errs, "graph.batch_size must be positive")
		}
	}

	// Validate database pool settings
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, "database.max_open_conns must be >= 1")
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, "database.max_idle_conns must be >= 0")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "database.max_idle_conns should not exceed max_open_conns")
	}

	if c.Server.MaxCustomers <= 0 {
		errs = append(errs, "server.max_customers must be positive")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be text or json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, joinErrors(errs))
	}

	return nil
}

// joinErrors joins error messages with newline and bullet points
func joinErrors(errs []string) string {
	return strings.Join(errs, "\n  - ")
}
