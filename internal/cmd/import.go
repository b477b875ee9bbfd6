package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/database"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sink"
	"github.com/willfong/portfolio-generator/internal/ui"
)

var importFlags = map[string]string{
	"db":          "database.dsn",
	"input":       "output.dir",
	"db-max-open": "database.max_open_conns",
	"db-max-idle": "database.max_idle_conns",
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import CSV data into MySQL/MariaDB database",
	Long: `Import generated CSV data into a MySQL/MariaDB database using LOAD DATA LOCAL INFILE.

This command performs bulk data loading with automatic parallelization.
It handles plain CSV files, xz-compressed files (.csv.xz) and sharded tables.

The import process:
1. Creates tables if they don't exist
2. Disables foreign key and unique checks for speed
3. Loads all tables in parallel with progress reporting
4. Checks loaded row counts against the manifest of the run
5. Creates indexes and foreign keys after loading

Examples:
  portgen import --db "user:pass@tcp(localhost:3306)/lending"
  portgen import --db "user:pass@tcp(localhost:3306)/lending" --input ./my-data`,
	Args: cobra.NoArgs,
	Run:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	d := config.DefaultConfig()
	f := importCmd.Flags()
	f.String("db", "", "database connection string (required unless PORTGEN_DATABASE_DSN is set)")
	f.String("input", d.Output.Dir, "input directory containing CSV files")
	f.Int("db-max-open", d.Database.MaxOpenConns, "max open database connections")
	f.Int("db-max-idle", d.Database.MaxIdleConns, "max idle database connections")
}

func runImport(cmd *cobra.Command, args []string) {
	u := newUI()
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, importFlags)
	if err != nil {
		fail(u, err)
	}
	logger := newLogger(cfg)
	dsn := cfg.Database.DSN
	inputDir := cfg.Output.Dir

	u.Println(u.Header("Portfolio Import"))
	u.Println("")
	u.Println(u.KeyValue("Database", database.MaskDSN(dsn)))
	u.Println(u.KeyValue("Input", inputDir))
	u.Println("")

	pool, err := database.NewPool(cfg.Database)
	if err != nil {
		fail(u, err)
	}
	defer pool.Close()

	spin := u.NewSpinner("Connecting to database")
	spin.Start()
	if err := pool.Connect(ctx); err != nil {
		spin.Error(err.Error())
		os.Exit(1)
	}
	spin.Success("connected")

	importer, err := database.NewImporter(pool, inputDir, database.ImporterOptions{
		Logger: logger,
		OnTable: func(r database.TableResult) {
			u.PrintTableLoadResult(r.Table, r.Rows, r.Duration, r.Files, r.Err)
		},
	})
	if err != nil {
		fail(u, err)
	}
	if importer.Manifest() == nil {
		u.Println(u.Warning("No manifest found, row counts will not be verified"))
	}

	spinTables := u.NewSpinner("Creating tables")
	spinTables.Start()
	if err := importer.CreateTables(ctx); err != nil {
		spinTables.Error("failed: " + err.Error())
		os.Exit(1)
	}
	spinTables.Success("tables ready")

	u.Section("Loading data...")
	startTime := time.Now()
	results, loadErr := importer.Load(ctx)
	loadDuration := time.Since(startTime)

	if loadErr != nil {
		fmt.Fprintln(os.Stderr, u.Error("Import stopped due to error"))
		printManualLoad(u, dsn, inputDir, results)
		printImportSummary(u, results, loadDuration, pool.Stats())
		os.Exit(1)
	}

	u.Section("Creating indexes...")
	progress := u.NewIndexProgress(0)
	if err := importer.CreateIndexes(ctx, progress.Update); err != nil {
		fmt.Fprintln(os.Stderr, u.Error("Error creating indexes: "+err.Error()))
		os.Exit(1)
	}
	progress.Complete()

	printImportSummary(u, results, loadDuration, pool.Stats())
}

// printManualLoad shows how to repeat the first failed load by hand
func printManualLoad(u *ui.UI, dsn, dir string, results []database.TableResult) {
	for _, r := range results {
		if r.Err == nil || errors.Is(r.Err, database.ErrRowCountMismatch) {
			continue
		}
		files, _, err := sink.TableFiles(dir, r.Table)
		if err != nil || len(files) == 0 {
			continue
		}
		for _, t := range models.Schema() {
			if t.Name == r.Table {
				u.DebugBox("To debug manually, run", database.ManualLoadCommand(dsn, t, filepath.Clean(files[0])))
				return
			}
		}
	}
}

func printImportSummary(u *ui.UI, results []database.TableResult, totalDuration time.Duration, stats database.PoolStats) {
	var totalRows int64
	var failures int

	for _, r := range results {
		if r.Err != nil {
			failures++
		} else {
			totalRows += r.Rows
		}
	}

	items := []ui.KV{
		{Key: "Total rows", Value: ui.FormatCount(int(totalRows))},
		{Key: "Total time", Value: ui.FormatDuration(totalDuration)},
		{Key: "Statements", Value: fmt.Sprintf("%d (%d failed)", stats.TotalQueries, stats.FailedQueries)},
	}

	if failures > 0 {
		items = append(items, ui.KV{Key: "Failed", Value: fmt.Sprintf("%d tables", failures)})
		items = append(items, ui.KV{Key: "Status", Value: "Failed"})
	} else {
		items = append(items, ui.KV{Key: "Status", Value: "Success"})
	}

	u.Println(u.SummaryBox("Import Summary", items))
}
