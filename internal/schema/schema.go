// Package schema renders SQL DDL from the record contract in models.
//
// Two dialects are supported: MySQL/MariaDB for the import command and
// SQLite for the sqlite sink. Tables are emitted in dependency order.
// As with the bulk loading workflow, tables can be created without
// indexes and foreign keys, which are then added once the data is in.
package schema

import (
	"fmt"
	"strings"

	"github.com/willfong/portfolio-generator/internal/models"
)

// Dialect selects the SQL flavour.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Part selects which statements Script returns.
type Part string

const (
	PartFull    Part = "full"
	PartTables  Part = "tables"
	PartIndexes Part = "indexes"
)

// ParseDialect accepts "mysql", "mariadb" and "sqlite".
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown dialect %q (want mysql or sqlite)", s)
}

// ParsePart accepts "full", "tables" and "indexes".
func ParsePart(s string) (Part, error) {
	switch Part(strings.ToLower(s)) {
	case PartFull:
		return PartFull, nil
	case PartTables:
		return PartTables, nil
	case PartIndexes:
		return PartIndexes, nil
	}
	return "", fmt.Errorf("unknown schema part %q (want full, tables or indexes)", s)
}

// Options tunes CreateTable.
type Options struct {
	// IfNotExists adds IF NOT EXISTS to every CREATE statement.
	IfNotExists bool
	// InlineForeignKeys declares REFERENCES inside CREATE TABLE. SQLite
	// cannot add constraints later, so it always inlines them.
	InlineForeignKeys bool
}

// ColumnType maps a column to its SQL type.
func ColumnType(d Dialect, c models.Column) string {
	if d == SQLite {
		switch c.Kind {
		case models.KindInt, models.KindBool:
			return "INTEGER"
		default:
			// Money, rates and dates keep their exact text form
			return "TEXT"
		}
	}

	switch c.Kind {
	case models.KindInt:
		return "INT"
	case models.KindMoney:
		return "DECIMAL(18,2)"
	case models.KindRate:
		return fmt.Sprintf("DECIMAL(12,%d)", models.RatePlaces)
	case models.KindDate:
		return "DATE"
	case models.KindTimestamp:
		return "DATETIME"
	case models.KindBool:
		return "TINYINT(1)"
	}
	if c.Size > 0 {
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	}
	return "TEXT"
}

// CreateTable renders one CREATE TABLE statement.
func CreateTable(d Dialect, t models.Table, opts Options) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if opts.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(t.Name)
	sb.WriteString(" (\n")

	inline := opts.InlineForeignKeys || d == SQLite
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		line := fmt.Sprintf("    %s %s", c.Name, ColumnType(d, c))
		if !c.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", t.PrimaryKey()))
	if inline {
		for _, c := range t.Columns {
			if c.Ref != "" {
				lines = append(lines, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)", c.Name, c.Ref, referencedKey(c.Ref)))
			}
		}
	}
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	if d == MySQL {
		sb.WriteString(" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	sb.WriteString(";")
	return sb.String()
}

// CreateIndexes renders one index per foreign key column.
func CreateIndexes(d Dialect, t models.Table, ifNotExists bool) []string {
	var stmts []string
	for _, c := range t.Columns {
		if c.Ref == "" {
			continue
		}
		clause := "CREATE INDEX "
		if ifNotExists && d == SQLite {
			clause += "IF NOT EXISTS "
		}
		stmts = append(stmts, fmt.Sprintf("%s%s ON %s (%s);", clause, IndexName(t.Name, c.Name), t.Name, c.Name))
	}
	return stmts
}

// AddForeignKeys renders MySQL ALTER TABLE statements for every reference.
func AddForeignKeys(t models.Table) []string {
	var stmts []string
	for _, c := range t.Columns {
		if c.Ref == "" {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT fk_%s_%s FOREIGN KEY (%s) REFERENCES %s (%s);",
			t.Name, t.Name, c.Name, c.Name, c.Ref, referencedKey(c.Ref)))
	}
	return stmts
}

// IndexName is the conventional name of the index on table.column.
func IndexName(table, column string) string {
	return fmt.Sprintf("idx_%s_%s", table, column)
}

// Tables returns every CREATE TABLE statement in dependency order.
func Tables(d Dialect, opts Options) []string {
	tables := models.Schema()
	stmts := make([]string, len(tables))
	for i, t := range tables {
		stmts[i] = CreateTable(d, t, opts)
	}
	return stmts
}

// Indexes returns the statements run after a bulk load: indexes, then on
// MySQL the foreign key constraints.
func Indexes(d Dialect) []string {
	var stmts []string
	for _, t := range models.Schema() {
		stmts = append(stmts, CreateIndexes(d, t, d == SQLite)...)
	}
	if d == MySQL {
		for _, t := range models.Schema() {
			stmts = append(stmts, AddForeignKeys(t)...)
		}
	}
	return stmts
}

// Script renders a complete, commented DDL script.
func Script(d Dialect, part Part) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "-- portfolio schema (%s, %s)\n", d, part)

	if part == PartFull || part == PartTables {
		// A full SQLite script inlines references, a MySQL one adds them after
		opts := Options{IfNotExists: true}
		for _, stmt := range Tables(d, opts) {
			sb.WriteString("\n")
			sb.WriteString(stmt)
			sb.WriteString("\n")
		}
	}
	if part == PartFull || part == PartIndexes {
		sb.WriteString("\n")
		for _, stmt := range Indexes(d) {
			sb.WriteString(stmt)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// referencedKey returns the primary key column of the named table.
func referencedKey(table string) string {
	for _, t := range models.Schema() {
		if t.Name == table {
			return t.PrimaryKey()
		}
	}
	return "id"
}
