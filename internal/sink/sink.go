// Package sink writes a checked portfolio to its destinations.
//
// Every sink consumes the record contract (models.Portfolio.Tables) and
// never sees a portfolio that failed consistency checks. The CSV and
// SQLite sinks stage their output and move it into place only when every
// table has been written, so a failed run leaves the previous output intact.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/willfong/portfolio-generator/internal/models"
)

// Sink is a destination for a generated portfolio.
type Sink interface {
	Name() string
	Write(ctx context.Context, p *models.Portfolio) error
}

// ProgressFunc receives per-table write progress. It may be called from
// several goroutines at once.
type ProgressFunc func(table string, written, total int)

// progressEvery is the row interval between progress callbacks
const progressEvery = 1000

// Result describes one completed sink write
type Result struct {
	Sink     string
	Records  int
	Duration time.Duration
}

// WriteAll runs each sink in turn and stops at the first failure.
func WriteAll(ctx context.Context, p *models.Portfolio, logger *slog.Logger, sinks ...Sink) ([]Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]Result, 0, len(sinks))
	for _, s := range sinks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := time.Now()
		logger.Debug("sink started", slog.String("sink", s.Name()))
		if err := s.Write(ctx, p); err != nil {
			logger.Error("sink failed", slog.String("sink", s.Name()), slog.Any("error", err))
			return results, fmt.Errorf("%s sink: %w", s.Name(), err)
		}
		r := Result{Sink: s.Name(), Records: p.TotalRecords(), Duration: time.Since(start)}
		logger.Info("sink complete",
			slog.String("sink", r.Sink),
			slog.Int("records", r.Records),
			slog.Duration("duration", r.Duration))
		results = append(results, r)
	}
	return results, nil
}

// report calls fn when set, throttled to progressEvery rows
func report(fn ProgressFunc, table string, written, total int) {
	if fn == nil {
		return
	}
	if written == total || written%progressEvery == 0 {
		fn(table, written, total)
	}
}
