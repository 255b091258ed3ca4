package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"airbnb-pipeline/models"
	"airbnb-pipeline/utils"
)

// ProfileService summarises a dataset for humans.
type ProfileService struct {
	logger *utils.Logger
}

func NewProfileService(logger *utils.Logger) *ProfileService {
	return &ProfileService{logger: logger}
}

// Generate computes the profile. Missing columns leave their sections empty.
func (s *ProfileService) Generate(ds *models.Dataset) *models.DatasetProfile {
	report := &models.DatasetProfile{
		ListingsByGroup:    make(map[string]int),
		ListingsByRoomType: make(map[string]int),
	}

	if ds == nil || ds.Len() == 0 {
		return report
	}

	report.TotalListings = ds.Len()

	if groups, err := ds.Column("neighbourhood_group"); err == nil {
		for _, g := range groups {
			if g != "" {
				report.ListingsByGroup[g]++
			}
		}
	}
	if rooms, err := ds.Column("room_type"); err == nil {
		for _, r := range rooms {
			if r != "" {
				report.ListingsByRoomType[r]++
			}
		}
	}
	if reviews, err := ds.Column("last_review"); err == nil {
		for _, r := range reviews {
			if strings.TrimSpace(r) == "" {
				report.MissingLastReviewRows++
			}
		}
	}

	prices, err := ds.FloatColumn("price")
	if err != nil {
		s.logger.Debug("[profile] No price column in %s", ds.Name)
		return report
	}
	names, _ := ds.Column("name")
	groups, _ := ds.Column("neighbourhood_group")

	// Price stats (only listings with price > 0)
	var priced []float64
	var total float64
	report.MinPrice = math.Inf(1)
	for i, p := range prices {
		if math.IsNaN(p) || p <= 0 {
			continue
		}
		priced = append(priced, p)
		total += p
		if p < report.MinPrice {
			report.MinPrice = p
		}
		if p > report.MaxPrice {
			report.MaxPrice = p
			report.MostExpensiveName = at(names, i)
			report.MostExpensiveGroup = at(groups, i)
		}
	}

	report.PricedListings = len(priced)
	if len(priced) == 0 {
		report.MinPrice = 0
		return report
	}
	sort.Float64s(priced)
	report.AveragePrice = round2(total / float64(len(priced)))
	report.MedianPrice = round2(median(priced))
	report.MinPrice = round2(report.MinPrice)
	report.MaxPrice = round2(report.MaxPrice)
	return report
}

// Print writes a coloured summary of the profile.
func (s *ProfileService) Print(w io.Writer, title string, r *models.DatasetProfile) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 %s\033[0m\n", strings.ToUpper(title))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings         : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Missing last_review    : \033[1m%d\033[0m\n", r.MissingLastReviewRows)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics (per night)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Median price  : \033[1;32m$%.2f\033[0m\n", r.MedianPrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
		if r.MostExpensiveName != "" {
			fmt.Fprintf(w, "  Most expensive: %s (%s)\n", truncate(r.MostExpensiveName, 36), r.MostExpensiveGroup)
		}
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	printCounts(w, "Listings by Neighbourhood Group", thin, r.ListingsByGroup, r.TotalListings)
	printCounts(w, "Listings by Room Type", thin, r.ListingsByRoomType, r.TotalListings)

	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(w io.Writer, heading, thin string, counts map[string]int, total int) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", heading)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(counts) == 0 {
		fmt.Fprintf(w, "  No data\n\n")
		return
	}

	type kv struct {
		key   string
		count int
	}
	var rows []kv
	for k, n := range counts {
		rows = append(rows, kv{k, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	for _, r := range rows {
		share := float64(r.count) / float64(total)
		bar := strings.Repeat("█", int(share*30+0.5))
		fmt.Fprintf(w, "  %-20s %-30s %5.1f%% (%d)\n", truncate(r.key, 18), bar, share*100, r.count)
	}
	fmt.Fprintln(w)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
