package model

import (
	"time"

	"github.com/google/uuid"
)

type CapacityStatus string

const (
	CapacityStatusEmpty  CapacityStatus = "EMPTY"
	CapacityStatusLow    CapacityStatus = "LOW"
	CapacityStatusNormal CapacityStatus = "NORMAL"
	CapacityStatusHigh   CapacityStatus = "HIGH"
	CapacityStatusFull   CapacityStatus = "FULL"
)

type CapacityTrend string

const (
	CapacityTrendIncreasing CapacityTrend = "increasing"
	CapacityTrendDecreasing CapacityTrend = "decreasing"
	CapacityTrendStable     CapacityTrend = "stable"
)

// CapacityRecord is the derived per-day state of a zone, unique on (zone_id, record_date).
type CapacityRecord struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ZoneID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_capacity_zone_day" json:"zone_id"`
	RecordDate       time.Time      `gorm:"type:date;not null;uniqueIndex:idx_capacity_zone_day" json:"record_date"`
	CurrentOccupancy int            `gorm:"not null" json:"current_occupancy"`
	MaxCapacity      int            `gorm:"not null" json:"max_capacity"`
	UtilizationRate  float64        `gorm:"not null" json:"utilization_rate"`
	PeakOccupancy    int            `gorm:"not null" json:"peak_occupancy"`
	CapacityStatus   CapacityStatus `gorm:"type:varchar(20);not null" json:"capacity_status"`
	LastUpdated      time.Time      `gorm:"not null" json:"last_updated"`
}

func (CapacityRecord) TableName() string {
	return "capacity_records"
}

// RecordDay truncates t to its UTC calendar day.
func RecordDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
