package services

import (
	"bytes"
	"strings"
	"testing"

	"airbnb-pipeline/models"
)

func sampleProfileDataset() *models.Dataset {
	return datasetOf("clean",
		fixture{id: "1", group: "Manhattan", price: "300", room: "Entire home/apt", lastReview: "2019-06-01"},
		fixture{id: "2", group: "Brooklyn", price: "100", room: "Private room", lastReview: "2019-06-02"},
		fixture{id: "3", group: "Brooklyn", price: "80", room: "Private room"},
		fixture{id: "4", group: "Queens", price: "0", room: "Shared room", lastReview: "2019-06-03"},
	)
}

func TestProfileCounts(t *testing.T) {
	p := NewProfileService(newTestLogger()).Generate(sampleProfileDataset())

	if p.TotalListings != 4 {
		t.Errorf("TotalListings: got %d, want 4", p.TotalListings)
	}
	if p.PricedListings != 3 {
		t.Errorf("PricedListings: got %d, want 3", p.PricedListings)
	}
	if p.ListingsByGroup["Brooklyn"] != 2 || p.ListingsByGroup["Manhattan"] != 1 {
		t.Errorf("ListingsByGroup: got %v", p.ListingsByGroup)
	}
	if p.ListingsByRoomType["Private room"] != 2 {
		t.Errorf("ListingsByRoomType: got %v", p.ListingsByRoomType)
	}
	if p.MissingLastReviewRows != 1 {
		t.Errorf("MissingLastReviewRows: got %d, want 1", p.MissingLastReviewRows)
	}
}

func TestProfilePrices(t *testing.T) {
	p := NewProfileService(newTestLogger()).Generate(sampleProfileDataset())

	if p.AveragePrice != 160 {
		t.Errorf("AveragePrice: got %.2f, want 160.00", p.AveragePrice)
	}
	if p.MedianPrice != 100 {
		t.Errorf("MedianPrice: got %.2f, want 100.00", p.MedianPrice)
	}
	if p.MinPrice != 80 || p.MaxPrice != 300 {
		t.Errorf("price range: got %.2f-%.2f, want 80-300", p.MinPrice, p.MaxPrice)
	}
	if p.MostExpensiveName != "Listing 1" || p.MostExpensiveGroup != "Manhattan" {
		t.Errorf("most expensive: got %q (%s)", p.MostExpensiveName, p.MostExpensiveGroup)
	}
}

func TestProfileEmptyInput(t *testing.T) {
	p := NewProfileService(newTestLogger()).Generate(models.NewDataset("empty", models.ListingColumns, nil))

	if p.TotalListings != 0 || p.PricedListings != 0 || p.AveragePrice != 0 {
		t.Errorf("expected zero profile, got %+v", p)
	}
}

func TestProfilePrint(t *testing.T) {
	svc := NewProfileService(newTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, "clean sample", svc.Generate(sampleProfileDataset()))

	out := buf.String()
	for _, want := range []string{"CLEAN SAMPLE", "Total listings", "$160.00", "Brooklyn"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
