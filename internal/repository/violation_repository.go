package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
)

const severityRankSQL = `CASE severity
	WHEN 'EMERGENCY' THEN 5
	WHEN 'CRITICAL' THEN 4
	WHEN 'HIGH' THEN 3
	WHEN 'MEDIUM' THEN 2
	WHEN 'LOW' THEN 1
	ELSE 0 END DESC`

type ViolationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

func (r *ViolationRepository) Create(ctx context.Context, violation *model.Violation) error {
	return r.db.WithContext(ctx).Create(violation).Error
}

func (r *ViolationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Violation, error) {
	var violation model.Violation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&violation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &violation, nil
}

// MarkResolved persists the resolution fields only if the violation is still open.
// It reports false when another resolution won.
func (r *ViolationRepository) MarkResolved(ctx context.Context, violation *model.Violation) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Violation{}).
		Where("id = ? AND is_resolved = ?", violation.ID, false).
		Updates(map[string]interface{}{
			"is_resolved":      true,
			"resolved_at":      violation.ResolvedAt,
			"resolved_by":      violation.ResolvedBy,
			"resolution_notes": violation.ResolutionNotes,
			"resolution_time":  violation.ResolutionTime,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type ViolationListFilter struct {
	ZoneID        uuid.UUID
	Since         time.Time
	IsResolved    *bool
	Severity      *model.ViolationSeverity
	ViolationType *string
	Offset        int
	Limit         int
}

type ViolationStat struct {
	ViolationType string
	Severity      model.ViolationSeverity
	IsResolved    bool
	Count         int64
}

func (r *ViolationRepository) List(ctx context.Context, filter ViolationListFilter) ([]model.Violation, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Violation{}).
		Where("zone_id = ? AND timestamp >= ?", filter.ZoneID, filter.Since)

	if filter.IsResolved != nil {
		query = query.Where("is_resolved = ?", *filter.IsResolved)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.ViolationType != nil {
		query = query.Where("violation_type = ?", *filter.ViolationType)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var violations []model.Violation
	err := query.
		Order("is_resolved ASC").
		Order(severityRankSQL).
		Order("timestamp DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&violations).Error
	if err != nil {
		return nil, 0, err
	}

	return violations, total, nil
}

func (r *ViolationRepository) Stats(ctx context.Context, zoneID uuid.UUID, since time.Time) ([]ViolationStat, error) {
	var stats []ViolationStat
	err := r.db.WithContext(ctx).Model(&model.Violation{}).
		Select("violation_type, severity, is_resolved, COUNT(*) AS count").
		Where("zone_id = ? AND timestamp >= ?", zoneID, since).
		Group("violation_type, severity, is_resolved").
		Scan(&stats).Error
	return stats, err
}

// AverageResolutionTime returns the mean resolution time in milliseconds, 0 when
// nothing was resolved in the window.
func (r *ViolationRepository) AverageResolutionTime(ctx context.Context, zoneID uuid.UUID, since time.Time) (int64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&model.Violation{}).
		Select("COALESCE(AVG(resolution_time), 0)").
		Where("zone_id = ? AND is_resolved = ? AND resolution_time IS NOT NULL AND timestamp >= ?", zoneID, true, since).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	return int64(avg + 0.5), nil
}
