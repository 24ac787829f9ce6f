package database

import (
	"fmt"
	"time"

	"rent-monitor/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host string, port int, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB wraps an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(&models.Listing{})
}

// SaveListing saves or updates a listing (upsert by detail_url)
func (gdb *GormDB) SaveListing(l *models.Listing) error {
	l.EnsureID()
	if l.FetchedAt.IsZero() {
		l.FetchedAt = time.Now()
	}

	var existing models.Listing
	result := gdb.db.Where("detail_url = ?", l.DetailURL).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		return gdb.db.Create(l).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Keep the original CreatedAt and row identity on update
	l.CreatedAt = existing.CreatedAt
	l.ID = existing.ID
	return gdb.db.Save(l).Error
}

// SaveListings upserts a batch, continuing past individual failures.
func (gdb *GormDB) SaveListings(listings []models.Listing) error {
	var firstErr error
	for i := range listings {
		if err := gdb.SaveListing(&listings[i]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to save listing %s: %w", listings[i].DetailURL, err)
		}
	}
	return firstErr
}

// GetAllListings retrieves all listings, newest first
func (gdb *GormDB) GetAllListings() ([]models.Listing, error) {
	var listings []models.Listing
	err := gdb.db.Order("created_at DESC").Find(&listings).Error
	return listings, err
}

// GetListingsWithSort retrieves all listings with custom sorting
func (gdb *GormDB) GetListingsWithSort(sortBy string) ([]models.Listing, error) {
	var listings []models.Listing

	var orderClause string
	switch sortBy {
	case "fetched_at", "fetched_at_desc":
		orderClause = "fetched_at DESC"
	case "fetched_at_asc":
		orderClause = "fetched_at ASC"
	case "total_asc":
		orderClause = "CASE WHEN total_yen = 0 THEN 1 ELSE 0 END, total_yen ASC"
	case "total_desc":
		orderClause = "total_yen DESC"
	case "area_desc":
		orderClause = "CASE WHEN area_m2 = 0 THEN 1 ELSE 0 END, area_m2 DESC"
	case "walk_asc":
		orderClause = "CASE WHEN station_walk_min IS NULL THEN 1 ELSE 0 END, station_walk_min ASC"
	case "age_asc":
		orderClause = "CASE WHEN age_years IS NULL THEN 1 ELSE 0 END, age_years ASC"
	default:
		orderClause = "fetched_at DESC"
	}

	err := gdb.db.Order(orderClause).Find(&listings).Error
	return listings, err
}

// GetListingByID retrieves a listing by ID
func (gdb *GormDB) GetListingByID(id string) (*models.Listing, error) {
	var listing models.Listing
	err := gdb.db.Where("id = ?", id).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// CountListings returns the number of archived listings
func (gdb *GormDB) CountListings() (int64, error) {
	var count int64
	err := gdb.db.Model(&models.Listing{}).Count(&count).Error
	return count, err
}
