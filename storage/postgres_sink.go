package storage

import (
	"bostad-scraper/models"
	apperrors "bostad-scraper/pkg/errors"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink persists listings to the housing table. A listing whose url
// is already stored is skipped, never updated.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS housing (
		id BIGSERIAL PRIMARY KEY,
		location TEXT,
		address TEXT,
		property_type TEXT,
		size_kvm BIGINT,
		price BIGINT,
		available TEXT,
		until TEXT,
		url TEXT UNIQUE
	);

	ALTER TABLE housing ALTER COLUMN size_kvm TYPE BIGINT, ALTER COLUMN price TYPE BIGINT;

	CREATE INDEX IF NOT EXISTS idx_housing_price ON housing(price);
	CREATE INDEX IF NOT EXISTS idx_housing_property_type ON housing(property_type);
	`

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return apperrors.NewStorage("failed to ensure schema", err)
	}

	return nil
}

// InsertListings inserts listings in one batch and returns the ones that
// were new. Conflicting urls count as skipped.
func (s *PostgresSink) InsertListings(ctx context.Context, listings []models.Listing) ([]models.Listing, error) {
	if len(listings) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	insertSQL := `
	INSERT INTO housing (location, address, property_type, size_kvm, price, available, until, url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (url) DO NOTHING;
	`

	for _, l := range listings {
		batch.Queue(
			insertSQL,
			strings.TrimSpace(l.Location),
			strings.TrimSpace(l.Address),
			strings.TrimSpace(l.PropertyType),
			l.SizeSqm,
			l.Price,
			strings.TrimSpace(l.AvailableFrom),
			strings.TrimSpace(l.AvailableUntil),
			strings.TrimSpace(l.URL),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := make([]models.Listing, 0, len(listings))
	for i, l := range listings {
		tag, err := results.Exec()
		if err != nil {
			return inserted, apperrors.NewStorage(fmt.Sprintf("batch insert failed at row %d", i), err)
		}
		if tag.RowsAffected() == 1 {
			inserted = append(inserted, l)
		}
	}

	return inserted, nil
}

const listingColumns = `COALESCE(location, ''), COALESCE(address, ''), COALESCE(property_type, ''),
	size_kvm, price, COALESCE(available, ''), COALESCE(until, ''), COALESCE(url, '')`

func scanListing(row pgx.Row) (models.Listing, error) {
	var l models.Listing
	err := row.Scan(&l.Location, &l.Address, &l.PropertyType, &l.SizeSqm, &l.Price,
		&l.AvailableFrom, &l.AvailableUntil, &l.URL)
	return l, err
}

func (s *PostgresSink) queryListings(ctx context.Context, sql string, args ...any) ([]models.Listing, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// FindByURL returns the stored listing with url, or false if there is none.
func (s *PostgresSink) FindByURL(ctx context.Context, url string) (models.Listing, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM housing WHERE url = $1`, url)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Listing{}, false, nil
	}
	if err != nil {
		return models.Listing{}, false, apperrors.NewStorage("find listing by url", err)
	}
	return l, true, nil
}

func (s *PostgresSink) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM housing`).Scan(&n); err != nil {
		return 0, apperrors.NewStorage("count listings", err)
	}
	return n, nil
}

func (s *PostgresSink) Sample(ctx context.Context, limit int) ([]models.Listing, error) {
	listings, err := s.queryListings(ctx, `SELECT `+listingColumns+` FROM housing ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.NewStorage("sample listings", err)
	}
	return listings, nil
}

// NullCounts counts rows missing a location (NULL or empty) or a price.
type NullCounts struct {
	Location int
	Price    int
}

func (s *PostgresSink) NullCounts(ctx context.Context) (NullCounts, error) {
	var nc NullCounts
	err := s.pool.QueryRow(ctx, `
	SELECT
		COUNT(*) FILTER (WHERE location IS NULL OR location = ''),
		COUNT(*) FILTER (WHERE price IS NULL)
	FROM housing
	`).Scan(&nc.Location, &nc.Price)
	if err != nil {
		return NullCounts{}, apperrors.NewStorage("count missing values", err)
	}
	return nc, nil
}

// LocationPrice is one row's raw location and price, before normalization.
type LocationPrice struct {
	Location string
	Price    *int
}

func (s *PostgresSink) LocationPrices(ctx context.Context) ([]LocationPrice, error) {
	rows, err := s.pool.Query(ctx, `SELECT COALESCE(location, ''), price FROM housing`)
	if err != nil {
		return nil, apperrors.NewStorage("load location prices", err)
	}
	defer rows.Close()

	out := []LocationPrice{}
	for rows.Next() {
		var lp LocationPrice
		if err := rows.Scan(&lp.Location, &lp.Price); err != nil {
			return nil, apperrors.NewStorage("scan location price", err)
		}
		out = append(out, lp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage("load location prices", err)
	}
	return out, nil
}

// TypeStats summarizes prices for one property type. Min, Avg and Max are
// nil when no listing of that type has a price.
type TypeStats struct {
	PropertyType string
	Min          *int
	Avg          *float64
	Max          *int
	Listings     int
}

func (s *PostgresSink) PriceStatsByType(ctx context.Context) ([]TypeStats, error) {
	rows, err := s.pool.Query(ctx, `
	SELECT COALESCE(property_type, ''), MIN(price), ROUND(AVG(price), 2)::float8, MAX(price), COUNT(*)
	FROM housing
	GROUP BY property_type
	ORDER BY 3 DESC NULLS LAST, 1
	`)
	if err != nil {
		return nil, apperrors.NewStorage("price stats by type", err)
	}
	defer rows.Close()

	out := []TypeStats{}
	for rows.Next() {
		var ts TypeStats
		if err := rows.Scan(&ts.PropertyType, &ts.Min, &ts.Avg, &ts.Max, &ts.Listings); err != nil {
			return nil, apperrors.NewStorage("scan price stats", err)
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage("price stats by type", err)
	}
	return out, nil
}

// TopByPrice returns the limit most expensive listings; unpriced ones last.
func (s *PostgresSink) TopByPrice(ctx context.Context, limit int) ([]models.Listing, error) {
	listings, err := s.queryListings(ctx,
		`SELECT `+listingColumns+` FROM housing ORDER BY price DESC NULLS LAST, id LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.NewStorage("top listings by price", err)
	}
	return listings, nil
}

// TopByPricePerSqm returns the limit cheapest listings per square metre,
// ignoring listings without a price or a positive size.
func (s *PostgresSink) TopByPricePerSqm(ctx context.Context, limit int) ([]models.Listing, error) {
	listings, err := s.queryListings(ctx, `
	SELECT `+listingColumns+`
	FROM housing
	WHERE size_kvm > 0 AND price IS NOT NULL
	ORDER BY price::float8 / size_kvm ASC, id
	LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.NewStorage("top listings by price per m2", err)
	}
	return listings, nil
}
