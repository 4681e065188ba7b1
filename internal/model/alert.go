package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertType string

const (
	AlertTypeSafety   AlertType = "SAFETY"
	AlertTypeCapacity AlertType = "CAPACITY"
)

type AlertSubType string

const (
	AlertSubTypeCapacityExceeded AlertSubType = "CAPACITY_EXCEEDED"
	AlertSubTypeZoneViolation    AlertSubType = "ZONE_VIOLATION"
	AlertSubTypeIncident         AlertSubType = "INCIDENT"
)

// AlertSeverity has one tier fewer than ViolationSeverity.
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "LOW"
	AlertSeverityMedium   AlertSeverity = "MEDIUM"
	AlertSeverityHigh     AlertSeverity = "HIGH"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

type CapacityTrigger struct {
	CurrentOccupancy int     `json:"current_occupancy"`
	MaxCapacity      int     `json:"max_capacity"`
	UtilizationRate  float64 `json:"utilization_rate"`
}

type ViolationTrigger struct {
	ViolationID   uuid.UUID `json:"violation_id"`
	ViolationType string    `json:"violation_type"`
	ViolatorID    *string   `json:"violator_id,omitempty"`
}

// AlertTrigger carries the capacity variant for capacity alerts and the
// violation variant for safety alerts.
type AlertTrigger struct {
	Capacity  *CapacityTrigger  `json:"capacity,omitempty"`
	Violation *ViolationTrigger `json:"violation,omitempty"`
}

type Alert struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VenueID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"venue_id"`
	ZoneID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"zone_id"`
	Type        AlertType     `gorm:"type:varchar(20);not null" json:"type"`
	SubType     AlertSubType  `gorm:"type:varchar(50);not null" json:"sub_type"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Severity    AlertSeverity `gorm:"type:varchar(20);not null" json:"severity"`
	Priority    string        `gorm:"type:varchar(20);not null" json:"priority"`
	Trigger     AlertTrigger  `gorm:"type:jsonb;serializer:json" json:"trigger"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (Alert) TableName() string {
	return "alerts"
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
