package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
)

type OccupancyRepository struct {
	db *gorm.DB
}

func NewOccupancyRepository(db *gorm.DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

// ListRecent returns the zone's events since the given instant, most recent first.
// Timestamp ties are broken by insertion sequence.
func (r *OccupancyRepository) ListRecent(ctx context.Context, zoneID uuid.UUID, since time.Time, limit int) ([]model.OccupancyEvent, error) {
	var events []model.OccupancyEvent
	query := r.db.WithContext(ctx).
		Where("zone_id = ? AND timestamp >= ?", zoneID, since).
		Order("timestamp DESC").
		Order("seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}
