package sink

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CSVWriter streams rows of one table file, optionally through xz.
// A CSVWriter is used by a single goroutine.
type CSVWriter struct {
	file     *os.File  // uncompressed output
	xz       *XZWriter // compressed output
	buffer   *bufio.Writer
	writer   *csv.Writer
	path     string
	rowCount int
	closed   bool
}

// CSVWriterConfig holds configuration for creating a CSV writer
type CSVWriterConfig struct {
	// Directory where the file will be created
	Dir string
	// Filename without extension, e.g. "customers" or "transactions_002"
	Filename string
	Headers  []string
	// Buffer size in bytes (default: 64KB)
	BufferSize int
	// Compress pipes output through xz, producing .csv.xz
	Compress bool
	XZPreset int
}

// NewCSVWriter creates the file and writes the header row.
func NewCSVWriter(cfg CSVWriterConfig) (*CSVWriter, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}

	w := &CSVWriter{path: filepath.Join(cfg.Dir, cfg.Filename+extension(cfg.Compress))}

	var underlying io.Writer
	if cfg.Compress {
		xz, err := NewXZWriter(w.path, cfg.XZPreset)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		w.xz = xz
		underlying = xz
	} else {
		file, err := os.Create(w.path)
		if err != nil {
			return nil, fmt.Errorf("failed to create file %s: %w", w.path, err)
		}
		w.file = file
		underlying = file
	}

	w.buffer = bufio.NewWriterSize(underlying, bufSize)
	w.writer = csv.NewWriter(w.buffer)

	if len(cfg.Headers) > 0 {
		if err := w.writer.Write(cfg.Headers); err != nil {
			w.closeUnderlying()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return w, nil
}

// WriteRow writes a single data row.
func (w *CSVWriter) WriteRow(row []string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.rowCount++
	return nil
}

// Close flushes remaining data and closes the file.
func (w *CSVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.closeUnderlying()
		return fmt.Errorf("csv flush error: %w", err)
	}
	if err := w.buffer.Flush(); err != nil {
		w.closeUnderlying()
		return fmt.Errorf("buffer flush error: %w", err)
	}
	return w.closeUnderlying()
}

func (w *CSVWriter) closeUnderlying() error {
	if w.xz != nil {
		return w.xz.Close()
	}
	return w.file.Close()
}

// RowCount returns the number of data rows written (excludes header).
func (w *CSVWriter) RowCount() int {
	return w.rowCount
}

// Path returns the full path to the output file (.csv or .csv.xz)
func (w *CSVWriter) Path() string {
	return w.path
}

func extension(compress bool) string {
	if compress {
		return ".csv.xz"
	}
	return ".csv"
}
