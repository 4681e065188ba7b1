package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
)

type EvacuationRouteRepository struct {
	db *gorm.DB
}

func NewEvacuationRouteRepository(db *gorm.DB) *EvacuationRouteRepository {
	return &EvacuationRouteRepository{db: db}
}

// ListActiveFromZone returns primary routes first, then the shortest.
func (r *EvacuationRouteRepository) ListActiveFromZone(ctx context.Context, zoneID uuid.UUID) ([]model.EvacuationRoute, error) {
	var routes []model.EvacuationRoute
	err := r.db.WithContext(ctx).
		Where("from_zone_id = ? AND is_active = ?", zoneID, true).
		Order("is_primary DESC").
		Order("distance ASC").
		Find(&routes).Error
	return routes, err
}

type routeAssignmentCount struct {
	RouteID uuid.UUID
	Count   int
}

// CountActiveAssignments counts pending, assigned and in-progress assignments per route.
func (r *EvacuationRouteRepository) CountActiveAssignments(ctx context.Context, routeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(routeIDs))
	if len(routeIDs) == 0 {
		return counts, nil
	}

	var rows []routeAssignmentCount
	err := r.db.WithContext(ctx).Model(&model.RouteAssignment{}).
		Select("route_id, COUNT(*) AS count").
		Where("route_id IN ? AND status IN ?", routeIDs, model.ActiveRouteAssignmentStatuses).
		Group("route_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.RouteID] = row.Count
	}
	return counts, nil
}
