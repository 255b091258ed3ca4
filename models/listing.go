package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ListingColumns is the fixed column layout of the NYC Airbnb sample.
// Order matters: cleaned files and the listings table keep it.
var ListingColumns = []string{
	"id",
	"name",
	"host_id",
	"host_name",
	"neighbourhood_group",
	"neighbourhood",
	"latitude",
	"longitude",
	"room_type",
	"price",
	"minimum_nights",
	"number_of_reviews",
	"last_review",
	"reviews_per_month",
	"calculated_host_listings_count",
	"availability_365",
}

// NeighbourhoodGroups are the five boroughs a listing may belong to.
var NeighbourhoodGroups = []string{"Bronx", "Brooklyn", "Manhattan", "Queens", "Staten Island"}

// Listing is one typed row of the dataset, used where a record has to be
// persisted column by column.
type Listing struct {
	ID                          int64
	Name                        string
	HostID                      int64
	HostName                    string
	NeighbourhoodGroup          string
	Neighbourhood               string
	Latitude                    float64
	Longitude                   float64
	RoomType                    string
	Price                       float64
	MinimumNights               int
	NumberOfReviews             int
	LastReview                  string
	ReviewsPerMonth             float64
	CalculatedHostListingsCount int
	Availability365             int
}

// ListingFromRow converts a row laid out as ListingColumns into a Listing.
// Empty numeric cells become zero.
func ListingFromRow(row []string) (*Listing, error) {
	if len(row) != len(ListingColumns) {
		return nil, fmt.Errorf("listing: expected %d cells, got %d", len(ListingColumns), len(row))
	}

	p := &cellParser{row: row}
	l := &Listing{
		ID:                          p.int64(0),
		Name:                        row[1],
		HostID:                      p.int64(2),
		HostName:                    row[3],
		NeighbourhoodGroup:          row[4],
		Neighbourhood:               row[5],
		Latitude:                    p.float(6),
		Longitude:                   p.float(7),
		RoomType:                    row[8],
		Price:                       p.float(9),
		MinimumNights:               int(p.int64(10)),
		NumberOfReviews:             int(p.int64(11)),
		LastReview:                  row[12],
		ReviewsPerMonth:             p.float(13),
		CalculatedHostListingsCount: int(p.int64(14)),
		Availability365:             int(p.int64(15)),
	}
	if p.err != nil {
		return nil, p.err
	}
	return l, nil
}

// Row renders the listing back into ListingColumns order.
func (l *Listing) Row() []string {
	return []string{
		strconv.FormatInt(l.ID, 10),
		l.Name,
		strconv.FormatInt(l.HostID, 10),
		l.HostName,
		l.NeighbourhoodGroup,
		l.Neighbourhood,
		formatFloat(l.Latitude),
		formatFloat(l.Longitude),
		l.RoomType,
		formatFloat(l.Price),
		strconv.Itoa(l.MinimumNights),
		strconv.Itoa(l.NumberOfReviews),
		l.LastReview,
		formatFloat(l.ReviewsPerMonth),
		strconv.Itoa(l.CalculatedHostListingsCount),
		strconv.Itoa(l.Availability365),
	}
}

type cellParser struct {
	row []string
	err error
}

func (p *cellParser) float(i int) float64 {
	s := strings.TrimSpace(p.row[i])
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("listing: column %s: %w", ListingColumns[i], err)
		return 0
	}
	return v
}

// int64 accepts "12.0" style cells, which pandas emits for integer columns
// that contained missing values.
func (p *cellParser) int64(i int) int64 {
	s := strings.TrimSpace(p.row[i])
	if s == "" || p.err != nil {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("listing: column %s: %w", ListingColumns[i], err)
		return 0
	}
	return int64(v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DatasetProfile holds summary statistics over a dataset.
type DatasetProfile struct {
	TotalListings         int
	PricedListings        int
	AveragePrice          float64
	MedianPrice           float64
	MinPrice              float64
	MaxPrice              float64
	MostExpensiveName     string
	MostExpensiveGroup    string
	ListingsByGroup       map[string]int
	ListingsByRoomType    map[string]int
	MissingLastReviewRows int
}
