package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
)

type AccessRuleRepository struct {
	db *gorm.DB
}

func NewAccessRuleRepository(db *gorm.DB) *AccessRuleRepository {
	return &AccessRuleRepository{db: db}
}

func (r *AccessRuleRepository) ListActiveByZone(ctx context.Context, zoneID uuid.UUID) ([]model.AccessRule, error) {
	var rules []model.AccessRule
	err := r.db.WithContext(ctx).
		Where("zone_id = ? AND is_active = ?", zoneID, true).
		Order("created_at ASC").
		Find(&rules).Error
	return rules, err
}
