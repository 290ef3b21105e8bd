// Package dataset holds the in-memory tabular dataset under analysis.
//
// A Dataset is an ordered header plus ordered rows of raw string cells. It is
// built once by an ingestion path (CSV or test fixture) and never mutated
// during a run, which is what lets the detection phases share it across
// goroutines without locking.
package dataset

import "fmt"

// ShapeError reports a row whose field count does not match the header.
// It is fatal: analysis never starts on a ragged dataset.
type ShapeError struct {
	Row  int // zero-based data row index
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("row %d has %d fields, header has %d", e.Row, e.Got, e.Want)
}

// Dataset is an immutable table of raw string cells.
type Dataset struct {
	header []string
	rows   [][]string
	index  map[string]int
}

// New builds a Dataset and validates that every row matches the header width.
func New(header []string, rows [][]string) (*Dataset, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, &ShapeError{Row: i, Got: len(row), Want: len(header)}
		}
	}
	return &Dataset{header: header, rows: rows, index: index}, nil
}

// Header returns the ordered column names. Callers must not modify it.
func (d *Dataset) Header() []string { return d.header }

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns the number of columns.
func (d *Dataset) Columns() int { return len(d.header) }

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Value returns the raw cell at (row, column name). The second return is
// false when the column does not exist.
func (d *Dataset) Value(row int, column string) (string, bool) {
	i, ok := d.index[column]
	if !ok {
		return "", false
	}
	return d.rows[row][i], true
}

// Row returns a data row by index. Callers must not modify it.
func (d *Dataset) Row(i int) []string { return d.rows[i] }

// Column returns all raw values of the named column in row order.
func (d *Dataset) Column(name string) []string {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	out := make([]string, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i]
	}
	return out
}
