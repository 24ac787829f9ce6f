package database

import (
	"database/sql"
	"fmt"
	"time"

	"rent-monitor/internal/models"

	_ "github.com/lib/pq"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host string, port int, user, password, dbname, sslmode string) (*DB, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the listings table if it doesn't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS listings (
		id VARCHAR(32) PRIMARY KEY,
		property_id VARCHAR(128) NOT NULL,
		source_site VARCHAR(20) NOT NULL,
		name TEXT NOT NULL,
		detail_url TEXT NOT NULL UNIQUE,

		rent_yen INTEGER NOT NULL DEFAULT 0,
		management_fee_yen INTEGER NOT NULL DEFAULT 0,
		parking_fee_yen INTEGER NOT NULL DEFAULT 0,
		total_yen INTEGER NOT NULL DEFAULT 0,
		layout VARCHAR(20),
		area_m2 DECIMAL(10, 2),
		age_years DECIMAL(6, 2),
		nearest_station VARCHAR(100),
		station_walk_min INTEGER,

		fetched_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_listings_total_yen ON listings(total_yen);
	CREATE INDEX IF NOT EXISTS idx_listings_layout ON listings(layout);
	CREATE INDEX IF NOT EXISTS idx_listings_source_site ON listings(source_site);
	`
	_, err := db.conn.Exec(query)
	return err
}

// SaveListing upserts a listing by detail_url
func (db *DB) SaveListing(l *models.Listing) error {
	l.EnsureID()
	if l.FetchedAt.IsZero() {
		l.FetchedAt = time.Now()
	}

	query := `
	INSERT INTO listings (
		id, property_id, source_site, name, detail_url,
		rent_yen, management_fee_yen, parking_fee_yen, total_yen,
		layout, area_m2, age_years, nearest_station, station_walk_min,
		fetched_at, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (detail_url) DO UPDATE SET
		name = EXCLUDED.name,
		rent_yen = EXCLUDED.rent_yen,
		management_fee_yen = EXCLUDED.management_fee_yen,
		parking_fee_yen = EXCLUDED.parking_fee_yen,
		total_yen = EXCLUDED.total_yen,
		layout = EXCLUDED.layout,
		area_m2 = EXCLUDED.area_m2,
		age_years = EXCLUDED.age_years,
		nearest_station = EXCLUDED.nearest_station,
		station_walk_min = EXCLUDED.station_walk_min,
		fetched_at = EXCLUDED.fetched_at
	`
	_, err := db.conn.Exec(query,
		l.ID, l.PropertyID, l.SourceSite, l.Name, l.DetailURL,
		l.RentYen, l.ManagementFeeYen, l.ParkingFeeYen, l.TotalYen,
		l.Layout, l.AreaM2, l.AgeYears, l.NearestStation, l.StationWalkMin,
		l.FetchedAt, time.Now())
	return err
}

// SaveListings upserts a batch
func (db *DB) SaveListings(listings []models.Listing) error {
	var firstErr error
	for i := range listings {
		if err := db.SaveListing(&listings[i]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to save listing %s: %w", listings[i].DetailURL, err)
		}
	}
	return firstErr
}

// GetAllListings retrieves all listings, newest first
func (db *DB) GetAllListings() ([]models.Listing, error) {
	query := `
		SELECT id, property_id, source_site, name, detail_url,
			   rent_yen, management_fee_yen, parking_fee_yen, total_yen,
			   layout, area_m2, age_years, nearest_station, station_walk_min,
			   fetched_at, created_at
		FROM listings
		ORDER BY created_at DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		err := rows.Scan(
			&l.ID, &l.PropertyID, &l.SourceSite, &l.Name, &l.DetailURL,
			&l.RentYen, &l.ManagementFeeYen, &l.ParkingFeeYen, &l.TotalYen,
			&l.Layout, &l.AreaM2, &l.AgeYears, &l.NearestStation, &l.StationWalkMin,
			&l.FetchedAt, &l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// GetListingByID retrieves a listing by ID
func (db *DB) GetListingByID(id string) (*models.Listing, error) {
	query := `
		SELECT id, property_id, source_site, name, detail_url,
			   rent_yen, management_fee_yen, parking_fee_yen, total_yen,
			   layout, area_m2, age_years, nearest_station, station_walk_min,
			   fetched_at, created_at
		FROM listings
		WHERE id = $1
	`

	var l models.Listing
	err := db.conn.QueryRow(query, id).Scan(
		&l.ID, &l.PropertyID, &l.SourceSite, &l.Name, &l.DetailURL,
		&l.RentYen, &l.ManagementFeeYen, &l.ParkingFeeYen, &l.TotalYen,
		&l.Layout, &l.AreaM2, &l.AgeYears, &l.NearestStation, &l.StationWalkMin,
		&l.FetchedAt, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &l, nil
}
