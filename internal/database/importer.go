package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/schema"
	"github.com/willfong/portfolio-generator/internal/sink"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// ErrRowCountMismatch is returned when a table loads a different number of
// rows than the manifest of the run recorded.
var ErrRowCountMismatch = errors.New("row count mismatch")

// MySQL error numbers that mean an index or constraint already exists
const (
	errDupKeyName    = 1061
	errDupKey        = 1022
	errDupConstraint = 1826
)

// TableResult holds the result of loading one table
type TableResult struct {
	Table    string
	Rows     int64
	Files    int
	Duration time.Duration
	Err      error
}

// ImporterOptions holds optional settings for the importer
type ImporterOptions struct {
	Logger *slog.Logger
	// OnTable is called as each table finishes, possibly concurrently
	OnTable func(TableResult)
}

// Importer loads a CSV output directory with LOAD DATA LOCAL INFILE.
type Importer struct {
	pool     *Pool
	dir      string
	manifest *sink.Manifest
	logger   *slog.Logger
	onTable  func(TableResult)
}

// NewImporter checks that dir holds output for every table and that xz is
// available when any of it is compressed.
func NewImporter(pool *Pool, dir string, opts ImporterOptions) (*Importer, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("input directory does not exist: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	for _, name := range models.TableNames {
		_, compressed, err := sink.TableFiles(dir, name)
		if err != nil {
			return nil, err
		}
		if compressed {
			if err := sink.CheckXZAvailable(); err != nil {
				return nil, err
			}
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	im := &Importer{pool: pool, dir: dir, logger: logger, onTable: opts.OnTable}
	if m, err := sink.ReadManifest(dir); err == nil {
		im.manifest = m
	} else {
		logger.Warn("no manifest, row counts will not be verified", slog.String("dir", dir), slog.Any("error", err))
	}
	return im, nil
}

// Manifest returns the manifest found in the input directory, if any
func (im *Importer) Manifest() *sink.Manifest {
	return im.manifest
}

// CreateTables creates every table that does not exist yet, without
// indexes or constraints.
func (im *Importer) CreateTables(ctx context.Context) error {
	for _, stmt := range schema.Tables(schema.MySQL, schema.Options{IfNotExists: true}) {
		if _, err := im.pool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Load loads all tables concurrently; the first failure cancels the rest.
func (im *Importer) Load(ctx context.Context) ([]TableResult, error) {
	tables := models.Schema()
	results := make([]TableResult, len(tables))

	tasks := make([]utils.ParallelTask, len(tables))
	for i, t := range tables {
		tasks[i] = utils.ParallelTask{Name: t.Name, Fn: func(ctx context.Context) error {
			res := im.loadTable(ctx, t)
			results[i] = res
			if im.onTable != nil {
				im.onTable(res)
			}
			return res.Err
		}}
	}
	err := utils.RunParallel(ctx, tasks...)
	return results, err
}

// CreateIndexes adds indexes and foreign keys once the data is in.
// Indexes left over from an earlier import are skipped.
func (im *Importer) CreateIndexes(ctx context.Context, progress func(done, total int)) error {
	stmts := schema.Indexes(schema.MySQL)
	for i, stmt := range stmts {
		if _, err := im.pool.ExecContext(ctx, stmt); err != nil && !alreadyExists(err) {
			return fmt.Errorf("failed to create index: %w", err)
		}
		if progress != nil {
			progress(i+1, len(stmts))
		}
	}
	return nil
}

// Import runs CreateTables, Load and CreateIndexes.
func (im *Importer) Import(ctx context.Context) ([]TableResult, error) {
	if err := im.CreateTables(ctx); err != nil {
		return nil, err
	}
	results, err := im.Load(ctx)
	if err != nil {
		return results, err
	}
	if err := im.CreateIndexes(ctx, nil); err != nil {
		return results, err
	}
	return results, nil
}

func (im *Importer) loadTable(ctx context.Context, t models.Table) (res TableResult) {
	start := time.Now()
	res.Table = t.Name
	defer func() {
		res.Duration = time.Since(start)
	}()

	files, _, err := sink.TableFiles(im.dir, t.Name)
	if err != nil {
		res.Err = err
		return res
	}
	res.Files = len(files)

	// Session settings only apply to the connection they were set on
	conn, err := im.pool.Conn(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	defer conn.Close()
	for _, q := range []string{"SET FOREIGN_KEY_CHECKS = 0", "SET UNIQUE_CHECKS = 0"} {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			res.Err = err
			return res
		}
	}
	defer func() {
		// Reset before the connection goes back to the pool
		conn.ExecContext(context.WithoutCancel(ctx), "SET UNIQUE_CHECKS = 1")
		conn.ExecContext(context.WithoutCancel(ctx), "SET FOREIGN_KEY_CHECKS = 1")
	}()

	for i, file := range files {
		rows, err := im.loadFile(ctx, conn, t, file)
		if err != nil {
			if len(files) > 1 {
				err = fmt.Errorf("shard %d (%s): %w", i+1, filepath.Base(file), err)
			}
			res.Err = err
			return res
		}
		res.Rows += rows
	}

	if im.manifest != nil {
		if want := im.manifest.Rows(t.Name); want >= 0 && int64(want) != res.Rows {
			res.Err = fmt.Errorf("%w: loaded %d rows, manifest has %d", ErrRowCountMismatch, res.Rows, want)
			return res
		}
	}
	im.logger.Debug("table loaded", slog.String("table", t.Name), slog.Int64("rows", res.Rows), slog.Int("files", res.Files))
	return res
}

// loadFile loads one plain file, or decompresses an xz file to a temp file first
func (im *Importer) loadFile(ctx context.Context, conn *sql.Conn, t models.Table, path string) (int64, error) {
	if strings.HasSuffix(path, ".xz") {
		tmp, err := decompressToTemp(ctx, path, t.Name)
		if err != nil {
			return 0, err
		}
		defer os.Remove(tmp)
		path = tmp
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get absolute path: %w", err)
	}
	mysql.RegisterLocalFile(abs)
	defer mysql.DeregisterLocalFile(abs)

	res, err := conn.ExecContext(ctx, LoadDataSQL(t, abs))
	if err != nil {
		return 0, fmt.Errorf("LOAD DATA failed: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// decompressToTemp writes the contents of an xz file to a temp file and returns its path
func decompressToTemp(ctx context.Context, xzPath, table string) (string, error) {
	tmp, err := os.CreateTemp("", fmt.Sprintf("portgen_%s_*.csv", table))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	r, err := sink.OpenXZ(ctx, xzPath)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	_, copyErr := io.Copy(tmp, r)
	closeErr := r.Close()
	fileErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr, fileErr); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("xz decompression failed: %w", err)
	}
	return tmp.Name(), nil
}

// LoadDataSQL renders the LOAD DATA statement for one file of t. Nullable
// columns go through a user variable so an empty field loads as NULL.
func LoadDataSQL(t models.Table, path string) string {
	cols := make([]string, len(t.Columns))
	var sets []string
	for i, c := range t.Columns {
		if c.Nullable {
			cols[i] = "@" + c.Name
			sets = append(sets, fmt.Sprintf("    %s = NULLIF(@%s, '')", c.Name, c.Name))
			continue
		}
		cols[i] = c.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "LOAD DATA LOCAL INFILE '%s'\n", quotePath(path))
	fmt.Fprintf(&sb, "INTO TABLE %s\n", t.Name)
	sb.WriteString("CHARACTER SET utf8mb4\n")
	sb.WriteString("FIELDS TERMINATED BY ',' OPTIONALLY ENCLOSED BY '\"' ESCAPED BY ''\n")
	sb.WriteString("LINES TERMINATED BY '\\n'\n")
	sb.WriteString("IGNORE 1 LINES\n")
	fmt.Fprintf(&sb, "(%s)", strings.Join(cols, ", "))
	if len(sets) > 0 {
		sb.WriteString("\nSET\n")
		sb.WriteString(strings.Join(sets, ",\n"))
	}
	return sb.String()
}

func quotePath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\`)
	return strings.ReplaceAll(path, "'", `\'`)
}

// alreadyExists reports whether err is MySQL refusing a duplicate index or constraint
func alreadyExists(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	switch me.Number {
	case errDupKeyName, errDupKey, errDupConstraint:
		return true
	}
	return false
}

// ManualLoadCommand renders a shell command that repeats one load by hand,
// for debugging a failed import.
func ManualLoadCommand(dsn string, t models.Table, path string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		cfg = mysql.NewConfig()
	}
	host, port := cfg.Addr, "3306"
	if h, p, ok := strings.Cut(cfg.Addr, ":"); ok {
		host, port = h, p
	}
	client := fmt.Sprintf("mariadb -u%s -p*** -h %s -P %s --local-infile=1 %s", cfg.User, host, port, cfg.DBName)

	abs, _ := filepath.Abs(path)
	if strings.HasSuffix(path, ".xz") {
		return fmt.Sprintf("xz -d -c %s | %s -e \"\nSET FOREIGN_KEY_CHECKS = 0;\n%s;\n\"", abs, client, LoadDataSQL(t, "/dev/stdin"))
	}
	return fmt.Sprintf("%s <<'EOF'\nSET FOREIGN_KEY_CHECKS = 0;\n%s;\nEOF", client, LoadDataSQL(t, abs))
}
