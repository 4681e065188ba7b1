package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ViolationSeverity string

const (
	ViolationSeverityLow       ViolationSeverity = "LOW"
	ViolationSeverityMedium    ViolationSeverity = "MEDIUM"
	ViolationSeverityHigh      ViolationSeverity = "HIGH"
	ViolationSeverityCritical  ViolationSeverity = "CRITICAL"
	ViolationSeverityEmergency ViolationSeverity = "EMERGENCY"
)

// Rank orders severities from LOW (1) to EMERGENCY (5); unknown values rank 0.
func (s ViolationSeverity) Rank() int {
	switch s {
	case ViolationSeverityLow:
		return 1
	case ViolationSeverityMedium:
		return 2
	case ViolationSeverityHigh:
		return 3
	case ViolationSeverityCritical:
		return 4
	case ViolationSeverityEmergency:
		return 5
	}
	return 0
}

func (s ViolationSeverity) Valid() bool {
	return s.Rank() > 0
}

type ViolatorType string

const (
	ViolatorChild   ViolatorType = "CHILD"
	ViolatorAdult   ViolatorType = "ADULT"
	ViolatorStaff   ViolatorType = "STAFF"
	ViolatorUnknown ViolatorType = "UNKNOWN"
)

type DetectionMethod string

const (
	DetectionStaffReport    DetectionMethod = "STAFF_REPORT"
	DetectionCamera         DetectionMethod = "CAMERA"
	DetectionFaceRecognized DetectionMethod = "FACE_RECOGNITION"
	DetectionSensor         DetectionMethod = "SENSOR"
)

type ViolationAction string

const (
	ActionAlert          ViolationAction = "ALERT"
	ActionEscalate       ViolationAction = "ESCALATE"
	ActionContactStaff   ViolationAction = "CONTACT_STAFF"
	ActionContactParent  ViolationAction = "CONTACT_PARENT"
	ActionCreateIncident ViolationAction = "CREATE_INCIDENT"
)

const (
	ViolationNoise           = "NOISE_VIOLATION"
	ViolationDressCode       = "DRESS_CODE_VIOLATION"
	ViolationFoodRestriction = "FOOD_RESTRICTION"
)

const SystemResolver = "system"

type Violation struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ZoneID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"zone_id"`
	ViolationType   string            `gorm:"type:varchar(100);not null;index" json:"violation_type"`
	Severity        ViolationSeverity `gorm:"type:varchar(20);not null;default:MEDIUM" json:"severity"`
	Description     string            `gorm:"type:text;not null" json:"description"`
	ViolatorID      *string           `gorm:"type:varchar(100)" json:"violator_id,omitempty"`
	ViolatorType    ViolatorType      `gorm:"type:varchar(20);not null;default:CHILD" json:"violator_type"`
	RuleViolated    string            `gorm:"type:varchar(255);not null" json:"rule_violated"`
	DetectionMethod DetectionMethod   `gorm:"type:varchar(50);not null;default:STAFF_REPORT" json:"detection_method"`
	Confidence      *float64          `json:"confidence,omitempty"`
	ActionsTaken    string            `gorm:"type:text" json:"actions_taken"`
	ReportedBy      string            `gorm:"type:varchar(100);not null" json:"reported_by"`
	IsResolved      bool              `gorm:"not null;default:false;index" json:"is_resolved"`
	ResolvedAt      *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy      *string           `gorm:"type:varchar(100)" json:"resolved_by,omitempty"`
	ResolutionNotes *string           `gorm:"type:text" json:"resolution_notes,omitempty"`
	ResolutionTime  *int64            `json:"resolution_time,omitempty"`
	Timestamp       time.Time         `gorm:"not null;index" json:"timestamp"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Violation) TableName() string {
	return "violations"
}

func (v *Violation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}
	return nil
}

// Resolve marks the violation resolved at the given instant. ResolutionTime is
// the elapsed milliseconds since the violation was reported.
func (v *Violation) Resolve(at time.Time, by string, notes *string) {
	elapsed := at.Sub(v.Timestamp).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	v.IsResolved = true
	v.ResolvedAt = &at
	v.ResolvedBy = &by
	v.ResolutionNotes = notes
	v.ResolutionTime = &elapsed
}
