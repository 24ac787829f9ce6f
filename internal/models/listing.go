package models

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Listing is one rental listing extracted from a search-result page.
// Numeric fields that a page may simply not state (walk minutes, building
// age) are pointers: nil means the page gave no usable value, which is
// different from a genuine zero (new construction, station on the doorstep).
type Listing struct {
	// 基本情報
	ID         string `gorm:"type:varchar(32);primaryKey" json:"id"`
	PropertyID string `gorm:"type:varchar(100);not null;index" json:"property_id"`
	SourceSite string `gorm:"type:varchar(20);not null;index" json:"source_site"`
	Name       string `gorm:"type:text;not null" json:"name"`
	DetailURL  string `gorm:"type:varchar(500);not null;uniqueIndex" json:"detail_url"`

	// 費用
	RentYen          int `gorm:"type:int;index" json:"rent_yen"`
	ManagementFeeYen int `gorm:"type:int" json:"management_fee_yen"`
	ParkingFeeYen    int `gorm:"type:int" json:"parking_fee_yen"`
	TotalYen         int `gorm:"type:int;index" json:"total_yen"`

	// フィルタ用属性
	Layout         string   `gorm:"type:varchar(20);index" json:"layout,omitempty"`
	AreaM2         float64  `gorm:"type:decimal(10,2)" json:"area_m2,omitempty"`
	AgeYears       *float64 `gorm:"type:decimal(6,2)" json:"age_years,omitempty"`
	NearestStation string   `gorm:"type:text" json:"nearest_station,omitempty"`
	StationWalkMin *int     `gorm:"type:int;index" json:"station_walk_min,omitempty"`

	// タイムスタンプ
	FetchedAt time.Time `gorm:"type:datetime;not null" json:"fetched_at"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index:idx_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName はテーブル名を明示的に指定
func (Listing) TableName() string {
	return "listings"
}

// UniqueID returns the globally unique identity of a listing. PropertyID is
// only unique within one site, so the site key is part of the identity; the
// same ID on two sites is two different listings.
func (l *Listing) UniqueID() string {
	return l.SourceSite + ":" + l.PropertyID
}

// EnsureID fills the storage primary key from the composite identity.
// Stable across runs as long as the detail URL resolves to the same
// property ID on the same site.
func (l *Listing) EnsureID() {
	if l.ID != "" {
		return
	}
	hash := md5.Sum([]byte(l.UniqueID()))
	l.ID = hex.EncodeToString(hash[:])
}

// WalkMinKnown reports whether the walk time was actually extracted.
func (l *Listing) WalkMinKnown() bool {
	return l.StationWalkMin != nil
}
