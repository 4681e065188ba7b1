package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ZoneType string

const (
	ZoneTypePlayArea  ZoneType = "PLAY_AREA"
	ZoneTypeEntrance  ZoneType = "ENTRANCE"
	ZoneTypeExit      ZoneType = "EXIT"
	ZoneTypeRestroom  ZoneType = "RESTROOM"
	ZoneTypeFoodCourt ZoneType = "FOOD_COURT"
	ZoneTypeStaffOnly ZoneType = "STAFF_ONLY"
	ZoneTypeAssembly  ZoneType = "ASSEMBLY_POINT"
)

type Zone struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VenueID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"venue_id"`
	FloorPlanID uuid.UUID   `gorm:"type:uuid;not null;index" json:"floor_plan_id"`
	Name        string      `gorm:"type:varchar(255);not null" json:"name"`
	Type        ZoneType    `gorm:"type:varchar(50);not null" json:"type"`
	Config      *ZoneConfig `gorm:"foreignKey:ZoneID" json:"config,omitempty"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Zone) TableName() string {
	return "zones"
}

func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

// MaxCapacity returns the configured capacity, or 0 when the zone has no configuration.
func (z *Zone) MaxCapacity() int {
	if z.Config == nil {
		return 0
	}
	return z.Config.MaxCapacity
}

func (z *Zone) MinStaffRequired() int {
	if z.Config == nil {
		return 0
	}
	return z.Config.MinStaffRequired
}

// ZoneConfig is maintained by venue admins; the engine only reads it.
type ZoneConfig struct {
	ZoneID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"zone_id"`
	MaxCapacity      int       `gorm:"not null;default:0" json:"max_capacity"`
	MinStaffRequired int       `gorm:"not null;default:0" json:"min_staff_required"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ZoneConfig) TableName() string {
	return "zone_configs"
}
