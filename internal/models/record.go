package models

import (
	"fmt"
	"iter"
	"strconv"
)

// Kind is the storage class of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindMoney
	KindRate
	KindDate
	KindTimestamp
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindMoney:
		return "money"
	case KindRate:
		return "rate"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Column describes one field of the tabular record contract.
type Column struct {
	Name string
	Kind Kind
	// Size is the maximum length for text columns.
	Size int
	// Nullable columns emit "" for NULL.
	Nullable bool
	// PrimaryKey marks the record's key column.
	PrimaryKey bool
	// Ref names the referenced table for foreign keys ("customers").
	Ref string
}

// Value converts a formatted field back to a typed value: int64 for ints,
// bool for flags and the text form for everything else, which keeps money
// exact. An empty nullable field is nil.
func (c Column) Value(s string) (any, error) {
	if s == "" && c.Nullable {
		return nil, nil
	}
	switch c.Kind {
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		return n, nil
	case KindBool:
		return s == "1", nil
	}
	return s, nil
}

// Map returns rec as column name to typed value.
func (t Table) Map(rec Record) (map[string]any, error) {
	values := rec.Values()
	m := make(map[string]any, len(t.Columns))
	for i, c := range t.Columns {
		v, err := c.Value(values[i])
		if err != nil {
			return nil, err
		}
		m[c.Name] = v
	}
	return m, nil
}

// Record is one row of an entity table. Values are formatted in Columns order.
type Record interface {
	Columns() []Column
	Values() []string
	Key() string
}

// Table is an ordered, restartable sequence of homogeneous records.
type Table struct {
	Name    string
	Columns []Column
	Len     int
	Rows    iter.Seq[Record]
}

// Headers returns the column names in order.
func (t Table) Headers() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the name of the key column.
func (t Table) PrimaryKey() string {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

// newTable wraps an already finalized slice. Ranging Rows never copies.
func newTable[T Record](name string, columns []Column, rows []T) Table {
	return Table{
		Name:    name,
		Columns: columns,
		Len:     len(rows),
		Rows: func(yield func(Record) bool) {
			for _, r := range rows {
				if !yield(r) {
					return
				}
			}
		},
	}
}

// Column helpers used by the entity definitions.

func pk(name string, size int) Column {
	return Column{Name: name, Kind: KindText, Size: size, PrimaryKey: true}
}

func fk(name string, size int, ref string) Column {
	return Column{Name: name, Kind: KindText, Size: size, Ref: ref}
}

func text(name string, size int) Column {
	return Column{Name: name, Kind: KindText, Size: size}
}

func nullText(name string, size int) Column {
	return Column{Name: name, Kind: KindText, Size: size, Nullable: true}
}

func integer(name string) Column {
	return Column{Name: name, Kind: KindInt}
}

func money(name string) Column {
	return Column{Name: name, Kind: KindMoney}
}

func nullMoney(name string) Column {
	return Column{Name: name, Kind: KindMoney, Nullable: true}
}

func rate(name string) Column {
	return Column{Name: name, Kind: KindRate}
}

func date(name string) Column {
	return Column{Name: name, Kind: KindDate}
}

func nullDate(name string) Column {
	return Column{Name: name, Kind: KindDate, Nullable: true}
}

func timestamp(name string) Column {
	return Column{Name: name, Kind: KindTimestamp}
}

func boolean(name string) Column {
	return Column{Name: name, Kind: KindBool}
}
