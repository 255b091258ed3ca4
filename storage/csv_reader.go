package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"airbnb-pipeline/models"
)

// ReadCSV parses a CSV stream with a header row into a Dataset. Every record
// must have as many fields as the header.
func ReadCSV(name string, r io.Reader) (*models.Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: %s: %w", name, models.ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: %s: read header: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %s: %w", name, err)
		}
		rows = append(rows, rec)
	}

	return models.NewDataset(name, header, rows), nil
}
