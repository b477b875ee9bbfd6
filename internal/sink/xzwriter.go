package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// ErrXZUnavailable is returned when compression is requested but no xz binary is installed
var ErrXZUnavailable = errors.New("xz not found")

// XZWriter streams data through the xz compressor to produce .xz files.
// It spawns an external xz process and pipes data through stdin.
type XZWriter struct {
	file    *os.File       // Output .xz file
	cmd     *exec.Cmd      // xz subprocess
	stdin   io.WriteCloser // Pipe to xz stdin
	path    string
	mu      sync.Mutex
	closed  bool
	waitErr error
	waitCh  chan struct{}
}

// NewXZWriter starts xz at the given preset (0-9, default 6) writing to path.
func NewXZWriter(path string, preset int) (*XZWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if preset < 0 || preset > 9 {
		preset = 6
	}

	// -c = write to stdout, -<N> = compression level
	cmd := exec.Command("xz", "-c", fmt.Sprintf("-%d", preset))
	cmd.Stdout = file
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to start xz: %w", err)
	}

	w := &XZWriter{
		file:   file,
		cmd:    cmd,
		stdin:  stdin,
		path:   path,
		waitCh: make(chan struct{}),
	}

	go func() {
		w.waitErr = cmd.Wait()
		close(w.waitCh)
	}()

	return w, nil
}

// Write implements io.Writer, streaming data to the xz compressor
func (w *XZWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, fmt.Errorf("writer is closed")
	}

	return w.stdin.Write(p)
}

// Close signals EOF to xz, waits for it to exit and closes the output file.
func (w *XZWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.stdin.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to close xz stdin: %w", err)
	}

	<-w.waitCh

	fileErr := w.file.Close()

	// xz error takes precedence
	if w.waitErr != nil {
		return fmt.Errorf("xz process failed: %w", w.waitErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close output file: %w", fileErr)
	}

	return nil
}

// Path returns the full path to the .xz file
func (w *XZWriter) Path() string {
	return w.path
}

// xzReader is the read side: xz -d streaming to a pipe
type xzReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (r *xzReader) Close() error {
	closeErr := r.ReadCloser.Close()
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("xz -d failed: %w", err)
	}
	return closeErr
}

// OpenXZ returns a reader over the decompressed contents of path.
// The returned reader must be read to EOF and closed.
func OpenXZ(ctx context.Context, path string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, "xz", "-d", "-c", path)
	cmd.Stderr = os.Stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start xz: %w", err)
	}
	return &xzReader{ReadCloser: out, cmd: cmd}, nil
}

// CheckXZAvailable verifies that xz is installed and accessible.
func CheckXZAvailable() error {
	if _, err := exec.LookPath("xz"); err != nil {
		return fmt.Errorf("%w: install with apt install xz-utils (Linux) or brew install xz (macOS)", ErrXZUnavailable)
	}
	return nil
}
