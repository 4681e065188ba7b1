package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccessRuleType string

const (
	AccessRuleCapacityLimit  AccessRuleType = "CAPACITY_LIMIT"
	AccessRuleStaffRatio     AccessRuleType = "STAFF_RATIO"
	AccessRuleAgeRestriction AccessRuleType = "AGE_RESTRICTION"
	AccessRuleTimeWindow     AccessRuleType = "TIME_WINDOW"
)

type CapacityLimitConfig struct {
	MaxOccupancy int `json:"max_occupancy"`
}

type StaffRatioConfig struct {
	ChildrenPerStaff int `json:"children_per_staff"`
}

type AgeRestrictionConfig struct {
	MinAge int `json:"min_age"`
	MaxAge int `json:"max_age"`
}

type TimeWindowConfig struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
}

// AccessRuleConfig holds exactly one variant, selected by the owning rule's type.
type AccessRuleConfig struct {
	CapacityLimit  *CapacityLimitConfig  `json:"capacity_limit,omitempty"`
	StaffRatio     *StaffRatioConfig     `json:"staff_ratio,omitempty"`
	AgeRestriction *AgeRestrictionConfig `json:"age_restriction,omitempty"`
	TimeWindow     *TimeWindowConfig     `json:"time_window,omitempty"`
}

type AccessRule struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ZoneID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"zone_id"`
	Name            string           `gorm:"type:varchar(255);not null" json:"name"`
	RuleType        AccessRuleType   `gorm:"type:varchar(50);not null" json:"rule_type"`
	Config          AccessRuleConfig `gorm:"type:jsonb;serializer:json" json:"config"`
	ViolationAction ViolationAction  `gorm:"type:varchar(50);not null;default:ALERT" json:"violation_action"`
	IsActive        bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AccessRule) TableName() string {
	return "access_rules"
}

func (r *AccessRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return r.Validate()
}

// Validate checks that the config variant matches the rule type.
func (r *AccessRule) Validate() error {
	c := r.Config
	var ok bool
	switch r.RuleType {
	case AccessRuleCapacityLimit:
		ok = c.CapacityLimit != nil
	case AccessRuleStaffRatio:
		ok = c.StaffRatio != nil
	case AccessRuleAgeRestriction:
		ok = c.AgeRestriction != nil
	case AccessRuleTimeWindow:
		ok = c.TimeWindow != nil
	default:
		return fmt.Errorf("unknown access rule type %q", r.RuleType)
	}
	if !ok {
		return fmt.Errorf("access rule %s: config does not match type %s", r.Name, r.RuleType)
	}
	return nil
}
