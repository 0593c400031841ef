// Package table provides the generic columnar table used throughout the
// pipeline: named columns of nullable numeric cells with an implicit row
// index. Raw wave tables, intermediate wide tables, and per-wave long tables
// are all instances of it.
package table

import "fmt"

// Value is one nullable numeric cell. PSID variables are numeric codes, so a
// single cell type covers identifiers, relationship codes, and measurements.
type Value struct {
	Float float64
	Valid bool
}

// Null is the missing-value cell.
var Null = Value{}

// Num returns a valid cell holding f.
func Num(f float64) Value {
	return Value{Float: f, Valid: true}
}

// Int returns the cell truncated to an integer. Only meaningful when the
// cell is valid.
func (v Value) Int() int {
	return int(v.Float)
}

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool {
	return !v.Valid
}

// Table is a fixed-length collection of named columns. Column order is the
// insertion order, which keeps output deterministic.
type Table struct {
	names []string
	cols  map[string][]Value
	rows  int
}

// New creates an empty table with the given row count.
func New(rows int) *Table {
	return &Table{
		cols: make(map[string][]Value),
		rows: rows,
	}
}

// AddColumn adds a named column. The column length must match the table's
// row count, and the name must be unused.
func (t *Table) AddColumn(name string, vals []Value) error {
	if len(vals) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(vals), t.rows)
	}
	if _, exists := t.cols[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	t.names = append(t.names, name)
	t.cols[name] = vals
	return nil
}

// Column returns the named column.
func (t *Table) Column(name string) ([]Value, bool) {
	col, ok := t.cols[name]
	return col, ok
}

// Cell returns the value at (row, column), or Null if the column is absent.
func (t *Table) Cell(row int, name string) Value {
	col, ok := t.cols[name]
	if !ok {
		return Null
	}
	return col[row]
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// NullColumn returns a column of n missing cells.
func NullColumn(n int) []Value {
	return make([]Value, n)
}

// Builder accumulates rows for a table whose columns are known up front.
// Used by the reshape and merge stages, which emit rows one at a time.
type Builder struct {
	names []string
	cols  [][]Value
	rows  int
}

// NewBuilder creates a builder for the given column names.
func NewBuilder(names ...string) *Builder {
	b := &Builder{
		names: append([]string(nil), names...),
		cols:  make([][]Value, len(names)),
	}
	return b
}

// Append adds one row. The number of values must match the column count.
func (b *Builder) Append(vals ...Value) error {
	if len(vals) != len(b.names) {
		return fmt.Errorf("row has %d values, builder has %d columns", len(vals), len(b.names))
	}
	for i, v := range vals {
		b.cols[i] = append(b.cols[i], v)
	}
	b.rows++
	return nil
}

// Len returns the number of appended rows.
func (b *Builder) Len() int {
	return b.rows
}

// Table assembles the accumulated rows into a Table.
func (b *Builder) Table() *Table {
	t := New(b.rows)
	for i, name := range b.names {
		col := b.cols[i]
		if col == nil {
			col = NullColumn(b.rows)
		}
		// Builder-owned invariants make this infallible.
		_ = t.AddColumn(name, col)
	}
	return t
}
