package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/willfong/portfolio-generator/internal/schema"
)

var schemaOutputFile string

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema [dialect] [type]",
	Short: "Output database schema files",
	Long: `Output the SQL schema of the generated tables.

Available schema types:
  full      Complete schema with tables and indexes (default)
  tables    Tables only, no indexes (for bulk loading)
  indexes   Indexes only (run after bulk data load)

Available dialects:
  mysql     MariaDB 11+ and MySQL 8+ (default); foreign keys are added with the indexes
  sqlite    SQLite 3; foreign keys are declared inline

Bulk Loading Strategy:
  For optimal bulk loading performance:
  1. Create tables without indexes: portgen schema tables | mysql ...
  2. Load data using LOAD DATA INFILE (or portgen import)
  3. Create indexes: portgen schema indexes | mysql ...

Examples:
  portgen schema                          # Output complete schema
  portgen schema full > schema.sql        # Save full schema to file
  portgen schema tables | mysql -u root lending
  portgen schema sqlite | sqlite3 portfolio.db`,
	Args: cobra.MaximumNArgs(2),
	Run:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&schemaOutputFile, "output", "o", "", "output file (default: stdout)")
}

func runSchema(cmd *cobra.Command, args []string) {
	u := newUI()

	dialect, part, err := parseSchemaArgs(args)
	if err != nil {
		fail(u, err)
	}
	content := schema.Script(dialect, part)

	if schemaOutputFile == "" {
		fmt.Print(content)
		return
	}

	// Ensure directory exists
	if dir := filepath.Dir(schemaOutputFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fail(u, fmt.Errorf("creating directory: %w", err))
		}
	}
	if err := os.WriteFile(schemaOutputFile, []byte(content), 0644); err != nil {
		fail(u, fmt.Errorf("writing file: %w", err))
	}
	fmt.Fprintln(os.Stderr, u.Success("Schema written to: "+schemaOutputFile))
}

// parseSchemaArgs accepts a dialect, a part, or both, in either order.
func parseSchemaArgs(args []string) (schema.Dialect, schema.Part, error) {
	dialect, part := schema.MySQL, schema.PartFull
	var sawDialect, sawPart bool
	for _, arg := range args {
		if d, err := schema.ParseDialect(arg); err == nil && !sawDialect {
			dialect, sawDialect = d, true
			continue
		}
		p, err := schema.ParsePart(arg)
		if err != nil || sawPart {
			return "", "", fmt.Errorf("unknown schema argument %q (want mysql, sqlite, full, tables or indexes)", arg)
		}
		part, sawPart = p, true
	}
	return dialect, part, nil
}
