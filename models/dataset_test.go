package models

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestDatasetColumnAccess(t *testing.T) {
	ds := NewDataset("sample", []string{"id", "price"}, [][]string{{"1", "150"}, {"2", ""}, {"3", "n/a"}})

	ids, err := ds.Column("id")
	if err != nil || !reflect.DeepEqual(ids, []string{"1", "2", "3"}) {
		t.Errorf("Column(id) = %v, %v", ids, err)
	}

	prices, err := ds.FloatColumn("price")
	if err != nil {
		t.Fatalf("FloatColumn: %v", err)
	}
	if prices[0] != 150 || !math.IsNaN(prices[1]) || !math.IsNaN(prices[2]) {
		t.Errorf("FloatColumn(price) = %v", prices)
	}

	_, err = ds.Column("latitude")
	var inErr *InputError
	if !errors.As(err, &inErr) || !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing column: got %v", err)
	}
	if inErr != nil && inErr.Error() != `sample: column "latitude": missing column` {
		t.Errorf("message: got %q", inErr.Error())
	}
}

func TestDatasetSelectCopiesHeader(t *testing.T) {
	ds := NewDataset("sample", []string{"id"}, [][]string{{"1"}, {"2"}, {"3"}})
	sub := ds.Select("picked", []int{2, 0})

	if sub.Name != "picked" || sub.Len() != 2 || sub.Rows[0][0] != "3" {
		t.Errorf("Select: got %+v", sub)
	}
	sub.Columns[0] = "changed"
	if ds.Columns[0] != "id" {
		t.Error("Select should copy the header")
	}
}

func TestListingRowRoundTrip(t *testing.T) {
	row := []string{"2539", "Clean & quiet apt", "2787", "John", "Brooklyn", "Kensington",
		"40.64749", "-73.97237", "Private room", "149", "1", "9", "2018-10-19", "0.21", "6", "365"}

	l, err := ListingFromRow(row)
	if err != nil {
		t.Fatalf("ListingFromRow: %v", err)
	}
	if l.ID != 2539 || l.Price != 149 || l.NeighbourhoodGroup != "Brooklyn" {
		t.Errorf("unexpected listing %+v", l)
	}
	if got := l.Row(); !reflect.DeepEqual(got, row) {
		t.Errorf("Row: got %v, want %v", got, row)
	}
}

func TestListingFromRowAcceptsFloatIntegers(t *testing.T) {
	row := make([]string, len(ListingColumns))
	row[0], row[10] = "7", "3.0"

	l, err := ListingFromRow(row)
	if err != nil {
		t.Fatalf("ListingFromRow: %v", err)
	}
	if l.MinimumNights != 3 {
		t.Errorf("MinimumNights: got %d, want 3", l.MinimumNights)
	}

	row[9] = "cheap"
	if _, err := ListingFromRow(row); err == nil {
		t.Error("expected an error for a non-numeric price")
	}
	if _, err := ListingFromRow(row[:3]); err == nil {
		t.Error("expected an error for a short row")
	}
}

func TestDatasetListingsRequiresSchema(t *testing.T) {
	ds := NewDataset("odd", []string{"id"}, [][]string{{"1"}})
	if _, err := ds.Listings(); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("got %v, want ErrSchemaMismatch", err)
	}
}

func TestReportHelpers(t *testing.T) {
	r := &ValidationReport{Results: []CheckResult{
		{Name: "row_count", Passed: true},
		{Name: "price_range", Reason: "too high"},
	}}

	if failed := r.Failed(); len(failed) != 1 || failed[0].Name != "price_range" {
		t.Errorf("Failed: got %v", failed)
	}
	if res, ok := r.Result("row_count"); !ok || !res.Passed {
		t.Errorf("Result(row_count) = %v, %v", res, ok)
	}
	if _, ok := r.Result("missing"); ok {
		t.Error("Result(missing) should be absent")
	}
}
