package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OccupancyEventType string

const (
	OccupancyEventEntry            OccupancyEventType = "ENTRY"
	OccupancyEventExit             OccupancyEventType = "EXIT"
	OccupancyEventCapacityUpdate   OccupancyEventType = "CAPACITY_UPDATE"
	OccupancyEventManualCorrection OccupancyEventType = "MANUAL_CORRECTION"
)

func (t OccupancyEventType) Valid() bool {
	switch t {
	case OccupancyEventEntry, OccupancyEventExit, OccupancyEventCapacityUpdate, OccupancyEventManualCorrection:
		return true
	}
	return false
}

type EntryMethod string

const (
	EntryMethodManual EntryMethod = "manual"
	EntryMethodCamera EntryMethod = "camera"
)

type ManualUpdateMetadata struct {
	UpdatedBy string `json:"updated_by"`
	Reason    string `json:"reason"`
}

type DetectionMetadata struct {
	CameraID   string   `json:"camera_id"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// OccupancyMetadata carries the manual variant for staff-entered events and the
// detection variant for camera events.
type OccupancyMetadata struct {
	Manual    *ManualUpdateMetadata `json:"manual,omitempty"`
	Detection *DetectionMetadata    `json:"detection,omitempty"`
}

// OccupancyEvent is append-only. Seq is assigned by the database and orders
// events that share a timestamp.
type OccupancyEvent struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Seq            int64              `gorm:"->;column:seq" json:"seq"`
	ZoneID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"zone_id"`
	OccupancyCount int                `gorm:"not null" json:"occupancy_count"`
	EventType      OccupancyEventType `gorm:"type:varchar(50);not null" json:"event_type"`
	ChildID        *uuid.UUID         `gorm:"type:uuid" json:"child_id,omitempty"`
	Timestamp      time.Time          `gorm:"not null;index" json:"timestamp"`
	EntryMethod    EntryMethod        `gorm:"type:varchar(20);not null" json:"entry_method"`
	Metadata       OccupancyMetadata  `gorm:"type:jsonb;serializer:json" json:"metadata"`
}

func (OccupancyEvent) TableName() string {
	return "occupancy_events"
}

func (e *OccupancyEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}
