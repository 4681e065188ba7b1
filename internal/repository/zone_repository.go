package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
)

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// GetByID loads the zone together with its capacity configuration.
func (r *ZoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Zone, error) {
	var zone model.Zone
	err := r.db.WithContext(ctx).Preload("Config").Where("id = ?", id).First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &zone, nil
}
