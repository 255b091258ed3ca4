package models

import (
	"math"
	"strconv"
	"strings"
)

// Dataset is a tabular snapshot: a header plus string cells. Callers treat
// it as immutable; every transformation returns a new Dataset.
type Dataset struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewDataset builds a Dataset, copying the header.
func NewDataset(name string, columns []string, rows [][]string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Name: name, Columns: cols, Rows: rows}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// ColumnIndex returns the position of name in the header, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's cells.
func (d *Dataset) Column(name string) ([]string, error) {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil, &InputError{Dataset: d.Name, Column: name, Err: ErrMissingColumn}
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

// FloatColumn parses the named column. Empty or non-numeric cells become NaN
// so the caller can count them as violations.
func (d *Dataset) FloatColumn(name string) ([]float64, error) {
	cells, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// Select returns a new dataset holding the given rows, in the given order.
func (d *Dataset) Select(name string, indices []int) *Dataset {
	rows := make([][]string, 0, len(indices))
	for _, i := range indices {
		rows = append(rows, d.Rows[i])
	}
	return NewDataset(name, d.Columns, rows)
}

// RequireColumns reports the first missing column as an InputError.
func (d *Dataset) RequireColumns(names ...string) error {
	for _, n := range names {
		if d.ColumnIndex(n) < 0 {
			return &InputError{Dataset: d.Name, Column: n, Err: ErrMissingColumn}
		}
	}
	return nil
}

// Listings converts every row into a typed Listing. The dataset must carry
// ListingColumns in order.
func (d *Dataset) Listings() ([]*Listing, error) {
	if !HeaderEqual(d.Columns, ListingColumns) {
		return nil, &InputError{Dataset: d.Name, Err: ErrSchemaMismatch}
	}
	out := make([]*Listing, 0, len(d.Rows))
	for _, row := range d.Rows {
		l, err := ListingFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// DatasetFromListings lays listings out as ListingColumns rows.
func DatasetFromListings(name string, listings []*Listing) *Dataset {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, l.Row())
	}
	return NewDataset(name, ListingColumns, rows)
}

// HeaderEqual compares two headers including order.
func HeaderEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
