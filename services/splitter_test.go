package services

import (
	"reflect"
	"testing"

	"airbnb-pipeline/models"
)

func ids(ds *models.Dataset) []string {
	col, _ := ds.Column("id")
	return col
}

func TestSplitSizes(t *testing.T) {
	s := NewSplitter(newTestLogger())
	ds := boroughSample("clean", 100)

	tests := []struct {
		size      float64
		wantTest  int
		wantTrain int
	}{
		{0.2, 20, 80},
		{0.25, 25, 75},
		{0.001, 1, 99},
		{30, 30, 70},
	}

	for _, tt := range tests {
		trainval, test, err := s.Split(ds, SplitOptions{TestSize: tt.size, Seed: 42, StratifyBy: NoStratification})
		if err != nil {
			t.Fatalf("test size %g: unexpected error: %v", tt.size, err)
		}
		if test.Len() != tt.wantTest || trainval.Len() != tt.wantTrain {
			t.Errorf("test size %g: got %d/%d, want %d/%d",
				tt.size, trainval.Len(), test.Len(), tt.wantTrain, tt.wantTest)
		}
		if trainval.Name != "trainval_data" || test.Name != "test_data" {
			t.Errorf("unexpected names %q, %q", trainval.Name, test.Name)
		}
	}
}

func TestSplitIsDeterministicAndDisjoint(t *testing.T) {
	s := NewSplitter(newTestLogger())
	ds := boroughSample("clean", 60)
	opts := SplitOptions{TestSize: 0.3, Seed: 7}

	tv1, te1, err := s.Split(ds, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tv2, te2, _ := s.Split(ds, opts)

	if !reflect.DeepEqual(ids(tv1), ids(tv2)) || !reflect.DeepEqual(ids(te1), ids(te2)) {
		t.Error("same seed should give the same partitions")
	}

	seen := make(map[string]bool)
	for _, id := range append(ids(tv1), ids(te1)...) {
		if seen[id] {
			t.Fatalf("id %s appears in both partitions", id)
		}
		seen[id] = true
	}
	if len(seen) != 60 {
		t.Errorf("partitions cover %d rows, want 60", len(seen))
	}
}

func TestSplitStratified(t *testing.T) {
	s := NewSplitter(newTestLogger())
	ds := boroughSample("clean", 100)
	for i := 0; i < 100; i++ {
		room := "Entire home/apt"
		if i%4 == 0 {
			room = "Shared room"
		}
		ds.Rows[i][8] = room
	}

	_, test, err := s.Split(ds, SplitOptions{TestSize: 0.2, Seed: 42, StratifyBy: "room_type"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := make(map[string]int)
	rooms, _ := test.Column("room_type")
	for _, r := range rooms {
		counts[r]++
	}
	if counts["Shared room"] != 5 || counts["Entire home/apt"] != 15 {
		t.Errorf("stratified test counts: got %v, want 5 shared / 15 entire", counts)
	}
}

func TestSplitErrors(t *testing.T) {
	s := NewSplitter(newTestLogger())

	tests := []struct {
		name string
		ds   *models.Dataset
		opts SplitOptions
	}{
		{"single row", boroughSample("one", 1), SplitOptions{TestSize: 0.5}},
		{"zero size", boroughSample("ten", 10), SplitOptions{TestSize: 0}},
		{"count too large", boroughSample("ten", 10), SplitOptions{TestSize: 10}},
		{"all rows to test", boroughSample("ten", 10), SplitOptions{TestSize: 0.999}},
		{"unknown stratify column", boroughSample("ten", 10), SplitOptions{TestSize: 0.2, StratifyBy: "colour"}},
	}

	for _, tt := range tests {
		if _, _, err := s.Split(tt.ds, tt.opts); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestSplitKeepsHeader(t *testing.T) {
	ds := boroughSample("clean", 10)
	trainval, test, err := NewSplitter(newTestLogger()).Split(ds, SplitOptions{TestSize: 0.5, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, part := range []*models.Dataset{trainval, test} {
		if !models.HeaderEqual(part.Columns, models.ListingColumns) {
			t.Errorf("%s header: %v", part.Name, part.Columns)
		}
		if part.Len() != 5 {
			t.Errorf("%s: got %d rows, want 5", part.Name, part.Len())
		}
	}
}
