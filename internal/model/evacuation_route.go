package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ObstacleStatus string

const (
	ObstacleClear   ObstacleStatus = "CLEAR"
	ObstaclePartial ObstacleStatus = "PARTIAL"
	ObstacleBlocked ObstacleStatus = "BLOCKED"
)

type HazardLevel string

const (
	HazardNone    HazardLevel = "NONE"
	HazardLow     HazardLevel = "LOW"
	HazardMedium  HazardLevel = "MEDIUM"
	HazardHigh    HazardLevel = "HIGH"
	HazardExtreme HazardLevel = "EXTREME"
)

// EvacuationRoute is an outgoing egress path of a zone. IsPrimary is advisory:
// several routes of the same zone may carry it.
type EvacuationRoute struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	FromZoneID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"from_zone_id"`
	ToZoneID       uuid.UUID      `gorm:"type:uuid;not null" json:"to_zone_id"`
	Distance       float64        `gorm:"not null" json:"distance"`
	EstimatedTime  int            `gorm:"not null" json:"estimated_time"`
	MaxCapacity    int            `gorm:"not null" json:"max_capacity"`
	IsPrimary      bool           `gorm:"not null;default:false" json:"is_primary"`
	IsAccessible   bool           `gorm:"not null;default:true" json:"is_accessible"`
	HazardLevel    HazardLevel    `gorm:"type:varchar(20);not null;default:NONE" json:"hazard_level"`
	Lighting       bool           `gorm:"not null;default:true" json:"lighting"`
	Signage        bool           `gorm:"not null;default:true" json:"signage"`
	ObstacleStatus ObstacleStatus `gorm:"type:varchar(20);not null;default:CLEAR" json:"obstacle_status"`
	LastInspection *time.Time     `json:"last_inspection,omitempty"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EvacuationRoute) TableName() string {
	return "evacuation_routes"
}

func (r *EvacuationRoute) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type RouteAssignmentStatus string

const (
	RouteAssignmentPending    RouteAssignmentStatus = "PENDING"
	RouteAssignmentAssigned   RouteAssignmentStatus = "ASSIGNED"
	RouteAssignmentInProgress RouteAssignmentStatus = "IN_PROGRESS"
	RouteAssignmentCompleted  RouteAssignmentStatus = "COMPLETED"
	RouteAssignmentCancelled  RouteAssignmentStatus = "CANCELLED"
)

// ActiveRouteAssignmentStatuses are the statuses of an evacuation still under way.
var ActiveRouteAssignmentStatuses = []RouteAssignmentStatus{
	RouteAssignmentPending,
	RouteAssignmentAssigned,
	RouteAssignmentInProgress,
}

type RouteAssignment struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RouteID       uuid.UUID             `gorm:"type:uuid;not null;index" json:"route_id"`
	ChildID       *uuid.UUID            `gorm:"type:uuid" json:"child_id,omitempty"`
	StaffID       *uuid.UUID            `gorm:"type:uuid" json:"staff_id,omitempty"`
	Status        RouteAssignmentStatus `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`
	Priority      int                   `gorm:"not null;default:0" json:"priority"`
	EstimatedTime *int                  `json:"estimated_time,omitempty"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
}

func (RouteAssignment) TableName() string {
	return "route_assignments"
}
