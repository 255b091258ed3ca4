package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"airbnb-pipeline/config"
	"airbnb-pipeline/models"
	"airbnb-pipeline/utils"
)

var (
	// priceRegexp captures numeric price values
	priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// reviewDateLayouts are the last_review formats seen in raw samples.
	reviewDateLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		time.RFC3339,
		"1/2/2006",
		"01/02/2006",
	}
)

// ErrEmptyResult is returned when cleaning filters out every row.
var ErrEmptyResult = errors.New("cleaner: dataset is empty after filtering")

// cleanerRequiredColumns must be present for cleaning to run at all.
var cleanerRequiredColumns = []string{"price", "latitude", "longitude", "last_review"}

// CleanStats counts what each cleaning rule removed.
type CleanStats struct {
	Input           int
	MissingValues   int
	PriceOutOfRange int
	OutsideBox      int
	Duplicates      int
	Output          int
}

// Dropped returns the number of rows removed.
func (s CleanStats) Dropped() int {
	return s.Input - s.Output
}

// Cleaner filters a raw sample down to well-formed listings.
type Cleaner struct {
	logger     *utils.Logger
	thresholds config.Thresholds
}

// NewCleaner creates a Cleaner using the price range and bounding box of th.
func NewCleaner(logger *utils.Logger, th config.Thresholds) *Cleaner {
	return &Cleaner{logger: logger, thresholds: th}
}

// Clean returns a new dataset with the same header. Rows are dropped when
// price or coordinates are missing, the price is outside the configured
// range, or the listing lies outside the bounding box. Duplicate ids keep
// their first occurrence. last_review is coerced to YYYY-MM-DD.
func (c *Cleaner) Clean(ds *models.Dataset, outputName string) (*models.Dataset, CleanStats, error) {
	stats := CleanStats{Input: ds.Len()}
	if err := ds.RequireColumns(cleanerRequiredColumns...); err != nil {
		return nil, stats, err
	}

	priceIdx := ds.ColumnIndex("price")
	latIdx := ds.ColumnIndex("latitude")
	lonIdx := ds.ColumnIndex("longitude")
	reviewIdx := ds.ColumnIndex("last_review")
	idIdx := ds.ColumnIndex("id")
	textIdx := []int{ds.ColumnIndex("name"), ds.ColumnIndex("host_name")}

	seen := utils.NewStringSet()
	rows := make([][]string, 0, ds.Len())

	for _, raw := range ds.Rows {
		price, okPrice := c.parsePrice(cell(raw, priceIdx))
		lat, okLat := parseFloat(cell(raw, latIdx))
		lon, okLon := parseFloat(cell(raw, lonIdx))
		if !okPrice || !okLat || !okLon {
			stats.MissingValues++
			continue
		}

		if price < c.thresholds.MinPrice || price > c.thresholds.MaxPrice {
			stats.PriceOutOfRange++
			continue
		}

		if !c.thresholds.Box.Contains(lon, lat) {
			stats.OutsideBox++
			continue
		}

		if idIdx >= 0 {
			id := strings.TrimSpace(cell(raw, idIdx))
			if id != "" && !seen.Add(id) {
				c.logger.Debug("[cleaner] Duplicate id skipped: %s", id)
				stats.Duplicates++
				continue
			}
		}

		row := make([]string, len(ds.Columns))
		copy(row, raw)
		row[priceIdx] = strconv.FormatFloat(price, 'f', -1, 64)
		row[reviewIdx] = parseReviewDate(cell(raw, reviewIdx))
		for _, i := range textIdx {
			if i >= 0 {
				row[i] = normaliseText(row[i])
			}
		}
		rows = append(rows, row)
	}

	stats.Output = len(rows)
	c.logger.Info("[cleaner] Cleaned %d → %d listings (missing %d, price %d, bbox %d, duplicates %d)",
		stats.Input, stats.Output, stats.MissingValues, stats.PriceOutOfRange, stats.OutsideBox, stats.Duplicates)

	if stats.Output == 0 {
		return nil, stats, ErrEmptyResult
	}
	return models.NewDataset(outputName, ds.Columns, rows), stats, nil
}

// parsePrice extracts the numeric value from cells like "150", "$1,200.50"
// or "USD 99". The second result is false when no number is present.
func (c *Cleaner) parsePrice(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// parseReviewDate normalises a date cell; unparseable values become empty.
func parseReviewDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func parseFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
