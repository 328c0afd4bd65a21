// Package table provides the typed in-memory dataset TrustLens ingests and
// evaluates: named columns of equal length whose cells carry an explicit null
// flag instead of a sentinel value.
package table

import "fmt"

// Value is a single cell. A null cell carries no text.
type Value struct {
	Text string
	Null bool
}

// String returns a non-null cell holding s.
func String(s string) Value { return Value{Text: s} }

// Null returns a null cell.
func Null() Value { return Value{Null: true} }

// Column is a named, ordered sequence of nullable cells.
type Column struct {
	Name   string
	Values []Value
}

// NullCount returns the number of null cells in the column.
func (c Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Null {
			n++
		}
	}
	return n
}

// Table is a set of equal-length named columns. A Table is immutable once
// built; re-ingesting a source replaces the whole Table in the store.
type Table struct {
	columns []Column
	rows    int
}

// New builds a Table, validating that every column is named, names are
// unique, and all columns have the same number of rows.
func New(columns ...Column) (*Table, error) {
	rows := 0
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
		if i == 0 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), rows)
		}
	}
	return &Table{columns: columns, rows: rows}, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.columns) }

// Columns returns the columns in ingestion order.
func (t *Table) Columns() []Column { return t.columns }

// ColumnNames returns the column names in ingestion order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, reporting whether it exists.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// NullCount returns the number of null cells across all columns.
func (t *Table) NullCount() int {
	n := 0
	for _, c := range t.columns {
		n += c.NullCount()
	}
	return n
}
