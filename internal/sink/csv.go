package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// ErrOutputNotEmpty protects directories that were not written by a previous run
var ErrOutputNotEmpty = errors.New("output directory is not empty and has no manifest")

// CSVSink writes one CSV file per table, or several shards for large tables.
type CSVSink struct {
	// Dir receives the files. It is replaced as a whole on success.
	Dir string
	// Compress writes .csv.xz through the external xz binary
	Compress bool
	XZPreset int
	// ShardRows splits tables larger than this into numbered shards (0 = never)
	ShardRows  int
	BufferSize int
	Logger     *slog.Logger
	Progress   ProgressFunc
}

// Name implements Sink
func (s *CSVSink) Name() string { return "csv" }

// Write stages every table in a sibling temp directory, then swaps it in.
func (s *CSVSink) Write(ctx context.Context, p *models.Portfolio) error {
	if s.Compress {
		if err := CheckXZAvailable(); err != nil {
			return err
		}
	}
	if err := checkReplaceable(s.Dir); err != nil {
		return err
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dir := filepath.Clean(s.Dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	// No-op once the staging directory has been renamed
	defer os.RemoveAll(staging)

	manifest := &Manifest{
		Seed:       p.Seed,
		Now:        p.Now,
		Currency:   p.Currency,
		Compressed: s.Compress,
	}
	tables := p.Tables()
	manifest.Tables = make([]ManifestTable, len(tables))

	var mu sync.Mutex
	tasks := make([]utils.ParallelTask, len(tables))
	for i, t := range tables {
		tasks[i] = utils.ParallelTask{Name: t.Name, Fn: func(ctx context.Context) error {
			files, err := s.writeTable(ctx, staging, t)
			if err != nil {
				return err
			}
			mu.Lock()
			manifest.Tables[i] = ManifestTable{Name: t.Name, Rows: t.Len, Files: files}
			mu.Unlock()
			logger.Debug("table written", slog.String("table", t.Name), slog.Int("rows", t.Len), slog.Int("files", len(files)))
			return nil
		}}
	}
	if err := utils.RunParallel(ctx, tasks...); err != nil {
		return err
	}
	if err := writeManifest(staging, manifest); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dir, err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("failed to move output into %s: %w", dir, err)
	}
	return nil
}

// writeTable streams one table, switching shard files every ShardRows rows.
// It returns the written file names relative to the output directory.
func (s *CSVSink) writeTable(ctx context.Context, dir string, t models.Table) ([]string, error) {
	shards := ShardCount(t.Len, s.ShardRows)
	headers := t.Headers()

	open := func(shard int) (*CSVWriter, error) {
		name := t.Name
		if shards > 1 {
			name = ShardFilename(t.Name, shard, shards)
		}
		return NewCSVWriter(CSVWriterConfig{
			Dir:        dir,
			Filename:   name,
			Headers:    headers,
			BufferSize: s.BufferSize,
			Compress:   s.Compress,
			XZPreset:   s.XZPreset,
		})
	}

	w, err := open(1)
	if err != nil {
		return nil, err
	}
	files := []string{filepath.Base(w.Path())}
	shard, written := 1, 0

	for rec := range t.Rows {
		if shards > 1 && written > 0 && written%s.ShardRows == 0 {
			if err := w.Close(); err != nil {
				return nil, err
			}
			shard++
			if w, err = open(shard); err != nil {
				return nil, err
			}
			files = append(files, filepath.Base(w.Path()))
		}
		if err := w.WriteRow(rec.Values()); err != nil {
			w.Close()
			return nil, err
		}
		written++
		if written%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				w.Close()
				return nil, err
			}
		}
		report(s.Progress, t.Name, written, t.Len)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if t.Len == 0 {
		report(s.Progress, t.Name, 0, 0)
	}
	return files, nil
}

// checkReplaceable refuses to replace a non-empty directory that holds no
// manifest, so pointing --output at an unrelated folder cannot wipe it.
func checkReplaceable(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access output directory: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrOutputNotEmpty, dir)
	}
	return nil
}
