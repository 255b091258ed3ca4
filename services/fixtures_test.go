package services

import (
	"fmt"

	"airbnb-pipeline/config"
	"airbnb-pipeline/models"
	"airbnb-pipeline/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

type fixture struct {
	id         string
	group      string
	lat, lon   string
	price      string
	room       string
	lastReview string
}

func (f fixture) row() []string {
	room := f.room
	if room == "" {
		room = "Private room"
	}
	return []string{
		f.id, "Listing " + f.id, "100", "Host", f.group, "Midtown",
		f.lat, f.lon, room, f.price, "1", "10", f.lastReview, "0.5", "1", "365",
	}
}

func datasetOf(name string, fixtures ...fixture) *models.Dataset {
	rows := make([][]string, 0, len(fixtures))
	for _, f := range fixtures {
		rows = append(rows, f.row())
	}
	return models.NewDataset(name, models.ListingColumns, rows)
}

// boroughSample returns n valid listings cycling through all five boroughs.
func boroughSample(name string, n int) *models.Dataset {
	fixtures := make([]fixture, n)
	for i := range fixtures {
		fixtures[i] = fixture{
			id:         fmt.Sprint(i + 1),
			group:      models.NeighbourhoodGroups[i%len(models.NeighbourhoodGroups)],
			lat:        "40.7",
			lon:        "-73.9",
			price:      "100",
			lastReview: "2019-05-21",
		}
	}
	return datasetOf(name, fixtures...)
}

func testThresholds() config.Thresholds {
	return config.DefaultThresholds()
}
