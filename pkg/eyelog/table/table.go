// Package table provides the result container of a parse run: rows of named
// scalar cells and named float series, with a column set that grows as data
// arrives.
//
// Columns keep the order in which they were first set. A row that never set
// a column holds no value for it; Cell reports that as absent.
package table

import (
	"fmt"
	"maps"
	"slices"
)

// ColumnKind distinguishes scalar columns from series columns.
type ColumnKind int

const (
	Scalar ColumnKind = iota
	Series
)

func (k ColumnKind) String() string {
	if k == Series {
		return "series"
	}
	return "scalar"
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Table is a row-oriented table with an open column set.
// A Table is not safe for concurrent use.
type Table struct {
	cols  []Column
	index map[string]int
	rows  []map[string]any
}

// New returns an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// AppendRow appends an empty row and returns its index.
func (t *Table) AppendRow() int {
	t.rows = append(t.rows, make(map[string]any))
	return len(t.rows) - 1
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the columns in first-set order.
func (t *Table) Columns() []Column {
	return slices.Clone(t.cols)
}

// ColumnNames returns the column names in first-set order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Set sets a scalar cell. It fails if row is out of range or col is already a
// series column.
func (t *Table) Set(row int, col string, v any) error {
	if err := t.declare(row, col, Scalar); err != nil {
		return err
	}
	t.rows[row][col] = v
	return nil
}

// SetSeries sets a series cell. The values are copied.
func (t *Table) SetSeries(row int, col string, values []float64) error {
	if err := t.declare(row, col, Series); err != nil {
		return err
	}
	t.rows[row][col] = slices.Clone(values)
	return nil
}

// Cell returns a scalar cell. ok is false for an absent cell or a series
// column.
func (t *Table) Cell(row int, col string) (v any, ok bool) {
	if row < 0 || row >= len(t.rows) {
		return nil, false
	}
	v, ok = t.rows[row][col]
	if _, isSeries := v.([]float64); isSeries {
		return nil, false
	}
	return v, ok
}

// Series returns a series cell. ok is false for an absent cell or a scalar
// column.
func (t *Table) Series(row int, col string) ([]float64, bool) {
	if row < 0 || row >= len(t.rows) {
		return nil, false
	}
	s, ok := t.rows[row][col].([]float64)
	return s, ok
}

// Kind returns the kind of column col. ok is false if t has no such column.
func (t *Table) Kind(col string) (kind ColumnKind, ok bool) {
	i, ok := t.index[col]
	if !ok {
		return Scalar, false
	}
	return t.cols[i].Kind, true
}

// Append appends the rows of other. A row with a cell in a column that t
// holds with the other kind is left out, and its index in other is
// returned in skipped. Columns new to t are added in other's order when
// the first row using them is appended. Series cells are shared with
// other, not copied.
func (t *Table) Append(other *Table) (skipped []int) {
	for i, r := range other.rows {
		if t.conflicts(other, r) {
			skipped = append(skipped, i)
			continue
		}
		for _, c := range other.cols {
			if _, set := r[c.Name]; !set {
				continue
			}
			if _, ok := t.index[c.Name]; !ok {
				t.addColumn(c)
			}
		}
		t.rows = append(t.rows, maps.Clone(r))
	}
	return skipped
}

func (t *Table) conflicts(other *Table, r map[string]any) bool {
	for name := range r {
		have, ok := t.Kind(name)
		if !ok {
			continue
		}
		if want, _ := other.Kind(name); want != have {
			return true
		}
	}
	return false
}

func (t *Table) declare(row int, col string, kind ColumnKind) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d out of range [0,%d)", row, len(t.rows))
	}
	if i, ok := t.index[col]; ok {
		if t.cols[i].Kind != kind {
			return &KindError{Column: col, Have: t.cols[i].Kind, Want: kind}
		}
		return nil
	}
	t.addColumn(Column{Name: col, Kind: kind})
	return nil
}

func (t *Table) addColumn(c Column) {
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
}

// KindError is returned when a column is used as both scalar and series.
type KindError struct {
	Column string
	Have   ColumnKind
	Want   ColumnKind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("column %q is a %s column, not %s", e.Column, e.Have, e.Want)
}
