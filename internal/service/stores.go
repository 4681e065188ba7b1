package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"zone-safety-service/internal/model"
	"zone-safety-service/internal/repository"
)

type ZoneStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Zone, error)
}

type AccessRuleStore interface {
	ListActiveByZone(ctx context.Context, zoneID uuid.UUID) ([]model.AccessRule, error)
}

type OccupancyStore interface {
	ListRecent(ctx context.Context, zoneID uuid.UUID, since time.Time, limit int) ([]model.OccupancyEvent, error)
}

type CapacityStore interface {
	Record(ctx context.Context, event *model.OccupancyEvent, record *model.CapacityRecord) (*model.CapacityRecord, error)
	GetLatest(ctx context.Context, zoneID uuid.UUID) (*model.CapacityRecord, error)
	ListSince(ctx context.Context, zoneID uuid.UUID, since time.Time) ([]model.CapacityRecord, error)
}

type ViolationStore interface {
	Create(ctx context.Context, violation *model.Violation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Violation, error)
	MarkResolved(ctx context.Context, violation *model.Violation) (bool, error)
	List(ctx context.Context, filter repository.ViolationListFilter) ([]model.Violation, int64, error)
	Stats(ctx context.Context, zoneID uuid.UUID, since time.Time) ([]repository.ViolationStat, error)
	AverageResolutionTime(ctx context.Context, zoneID uuid.UUID, since time.Time) (int64, error)
}

type EvacuationRouteStore interface {
	ListActiveFromZone(ctx context.Context, zoneID uuid.UUID) ([]model.EvacuationRoute, error)
	CountActiveAssignments(ctx context.Context, routeIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// AlertEmitter is the boundary to the alerting subsystem.
type AlertEmitter interface {
	Emit(ctx context.Context, alert *model.Alert) (model.AlertAck, error)
}

// ContactNotifier reaches staff, parents and the escalation chain.
type ContactNotifier interface {
	Notify(ctx context.Context, notification model.Notification) error
}
