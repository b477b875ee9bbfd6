package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{SinkCSV}, cfg.Output.Sinks)
	assert.Equal(t, "SGD", cfg.Generate.Currency)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generate.NumCustomers = 0
	cfg.Generate.Currency = "XXX"
	cfg.Risk.LowThreshold = 600 // below medium
	cfg.Output.Sinks = []string{"parquet"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	for _, want := range []string{"num_customers", "currency", "medium threshold", "parquet"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateRejectsEmptyPopulations(t *testing.T) {
	tests := []struct {
		key string
		set func(*GenerateConfig, int)
	}{
		{"num_customers", func(g *GenerateConfig, n int) { g.NumCustomers = n }},
		{"num_accounts", func(g *GenerateConfig, n int) { g.NumAccounts = n }},
		{"num_loans", func(g *GenerateConfig, n int) { g.NumLoans = n }},
		{"num_transactions", func(g *GenerateConfig, n int) { g.NumTransactions = n }},
		{"num_inquiries", func(g *GenerateConfig, n int) { g.NumInquiries = n }},
		{"num_tradelines", func(g *GenerateConfig, n int) { g.NumTradelines = n }},
	}
	for _, tt := range tests {
		for _, n := range []int{0, -1} {
			t.Run(fmt.Sprintf("%s=%d", tt.key, n), func(t *testing.T) {
				cfg := DefaultConfig()
				tt.set(&cfg.Generate, n)
				err := cfg.Validate()
				require.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), "generate."+tt.key+" must be positive")
			})
		}
	}
}

func TestValidateNeo4jSinkNeedsURI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Sinks = []string{SinkCSV, SinkNeo4j}
	cfg.Graph.URI = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph.uri")
}

func TestReferenceTime(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want time.Time
		err  bool
	}{
		{"date", "2025-06-15", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", "2025-06-15T10:30:00+08:00", time.Date(2025, 6, 15, 2, 30, 0, 0, time.UTC), false},
		{"garbage", "yesterday", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateConfig{Now: tt.now}.ReferenceTime()
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	got, err := GenerateConfig{}.ReferenceTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got, time.Minute)
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	v := viper.New()
	v.Set("generate.num_customers", 42)
	v.Set("generate.seed", 7)
	v.Set("risk.low_threshold", 750)
	v.Set("output.sinks", []string{"csv", "sqlite"})

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Generate.NumCustomers)
	assert.Equal(t, int64(7), cfg.Generate.Seed)
	assert.Equal(t, 750, cfg.Risk.LowThreshold)
	assert.Equal(t, DefaultAccounts, cfg.Generate.NumAccounts)
	assert.True(t, cfg.Output.HasSink(SinkSQLite))
	assert.False(t, cfg.Output.HasSink(SinkNeo4j))

	policy, err := cfg.Risk.Policy()
	require.NoError(t, err)
	assert.Equal(t, 750, policy.LowThreshold)
}

func TestNewViperReadsEnvironment(t *testing.T) {
	t.Setenv("PORTGEN_GENERATE_NUM_CUSTOMERS", "12")
	t.Setenv("PORTGEN_OUTPUT_SINKS", "csv,neo4j")
	t.Setenv("PORTGEN_SERVER_READ_TIMEOUT", "3s")

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Generate.NumCustomers)
	assert.Equal(t, []string{"csv", "neo4j"}, cfg.Output.Sinks)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	// Unset keys keep their defaults
	assert.Equal(t, DefaultLoans, cfg.Generate.NumLoans)
	assert.Equal(t, GraphBatchSize, cfg.Graph.BatchSize)
}

func TestNewViperReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generate:
  seed: 99
  now: "2025-01-31"
output:
  dir: ./data
  shard_rows: 5000
logging:
  format: json
`), 0o644))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, int64(99), cfg.Generate.Seed)
	assert.Equal(t, "2025-01-31", cfg.Generate.Now)
	assert.Equal(t, "./data", cfg.Output.Dir)
	assert.Equal(t, 5000, cfg.Output.ShardRows)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())

	_, err = NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
