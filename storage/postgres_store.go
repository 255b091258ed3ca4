package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"airbnb-pipeline/models"
	"airbnb-pipeline/utils"
)

// listingsTable is the only table ReadDataset serves.
const listingsTable = "listings"

// PostgresStore persists cleaned listings and validation reports.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id                             BIGINT           PRIMARY KEY,
			name                           TEXT             NOT NULL DEFAULT '',
			host_id                        BIGINT           NOT NULL DEFAULT 0,
			host_name                      TEXT             NOT NULL DEFAULT '',
			neighbourhood_group            TEXT             NOT NULL DEFAULT '',
			neighbourhood                  TEXT             NOT NULL DEFAULT '',
			latitude                       DOUBLE PRECISION NOT NULL,
			longitude                      DOUBLE PRECISION NOT NULL,
			room_type                      TEXT             NOT NULL DEFAULT '',
			price                          NUMERIC(10,2)    NOT NULL,
			minimum_nights                 INTEGER          NOT NULL DEFAULT 0,
			number_of_reviews              INTEGER          NOT NULL DEFAULT 0,
			last_review                    DATE,
			reviews_per_month              DOUBLE PRECISION NOT NULL DEFAULT 0,
			calculated_host_listings_count INTEGER          NOT NULL DEFAULT 0,
			availability_365               INTEGER          NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_group ON listings(neighbourhood_group);

		CREATE TABLE IF NOT EXISTS check_runs (
			run_id      UUID        PRIMARY KEY,
			current_ref TEXT        NOT NULL,
			ref_ref     TEXT        NOT NULL,
			passed      BOOLEAN     NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL,
			duration_ms BIGINT      NOT NULL
		);

		CREATE TABLE IF NOT EXISTS check_results (
			run_id   UUID    NOT NULL REFERENCES check_runs(run_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name     TEXT    NOT NULL,
			passed   BOOLEAN NOT NULL,
			reason   TEXT    NOT NULL DEFAULT '',
			observed TEXT    NOT NULL DEFAULT '',
			expected TEXT    NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, position)
		);
	`)
	return err
}

// Write replaces the listings table with the dataset's rows.
func (ps *PostgresStore) Write(ds *models.Dataset) error {
	return ps.WriteContext(context.Background(), ds)
}

// WriteContext batch-inserts all listings in one transaction, clearing old data first.
func (ps *PostgresStore) WriteContext(ctx context.Context, ds *models.Dataset) error {
	listings, err := ds.Listings()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if len(listings) == 0 {
		return nil
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 200
	for i := 0; i < len(listings); i += batchSize {
		end := min(i+batchSize, len(listings))
		if err := insertBatch(ctx, tx, listings[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.Listing) error {
	const cols = 16
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		ph := make([]string, cols)
		for c := range ph {
			ph[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		var lastReview interface{}
		if l.LastReview != "" {
			lastReview = l.LastReview
		}
		valueArgs = append(valueArgs,
			l.ID, l.Name, l.HostID, l.HostName, l.NeighbourhoodGroup, l.Neighbourhood,
			l.Latitude, l.Longitude, l.RoomType, l.Price, l.MinimumNights, l.NumberOfReviews,
			lastReview, l.ReviewsPerMonth, l.CalculatedHostListingsCount, l.Availability365)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (%s)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(models.ListingColumns, ", "), strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// ReadDataset returns the listings table in ListingColumns order.
func (ps *PostgresStore) ReadDataset(ctx context.Context, table string) (*models.Dataset, error) {
	if table != listingsTable {
		return nil, fmt.Errorf("%w: table %q", ErrUnsupportedSource, table)
	}
	listings, err := ps.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.DatasetFromListings(TablePrefix+table, listings), nil
}

// FetchAll retrieves all stored listings ordered by id.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	rows, err := ps.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM listings
		ORDER BY id
	`, strings.Join(models.ListingColumns, ", ")))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var lastReview sql.NullTime
		if err := rows.Scan(
			&l.ID, &l.Name, &l.HostID, &l.HostName, &l.NeighbourhoodGroup, &l.Neighbourhood,
			&l.Latitude, &l.Longitude, &l.RoomType, &l.Price, &l.MinimumNights, &l.NumberOfReviews,
			&lastReview, &l.ReviewsPerMonth, &l.CalculatedHostListingsCount, &l.Availability365,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if lastReview.Valid {
			l.LastReview = lastReview.Time.Format("2006-01-02")
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// SaveReport stores a validation run and its per-check results.
func (ps *PostgresStore) SaveReport(ctx context.Context, r *models.ValidationReport) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO check_runs (run_id, current_ref, ref_ref, passed, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.RunID, r.Current, r.Reference, r.Passed, r.StartedAt, r.Duration.Milliseconds()); err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	for i, c := range r.Results {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO check_results (run_id, position, name, passed, reason, observed, expected)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.RunID, i, c.Name, c.Passed, c.Reason, c.Observed, c.Expected); err != nil {
			return fmt.Errorf("postgres: insert result %s: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
