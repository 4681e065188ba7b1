package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
	"zone-safety-service/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newZone(maxCapacity int) *model.Zone {
	id := uuid.New()
	return &model.Zone{
		ID:      id,
		VenueID: uuid.New(),
		Name:    "Play Area",
		Type:    model.ZoneType("PLAY_AREA"),
		Config:  &model.ZoneConfig{ZoneID: id, MaxCapacity: maxCapacity, MinStaffRequired: 2},
	}
}

func companyAdmin() model.Principal {
	return model.Principal{UserID: "admin-1", Role: model.RoleCompanyAdmin}
}

func venueStaff(venueID uuid.UUID) model.Principal {
	return model.Principal{UserID: "staff-1", Role: model.RoleStaff, VenueID: &venueID}
}

type fakeZones struct {
	zones map[uuid.UUID]*model.Zone
	err   error
}

func newFakeZones(zones ...*model.Zone) *fakeZones {
	f := &fakeZones{zones: make(map[uuid.UUID]*model.Zone)}
	for _, z := range zones {
		f.zones[z.ID] = z
	}
	return f
}

func (f *fakeZones) GetByID(ctx context.Context, id uuid.UUID) (*model.Zone, error) {
	if f.err != nil {
		return nil, f.err
	}
	z, ok := f.zones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return z, nil
}

type fakeRules struct {
	rules []model.AccessRule
	err   error
}

func (f *fakeRules) ListActiveByZone(ctx context.Context, zoneID uuid.UUID) ([]model.AccessRule, error) {
	return f.rules, f.err
}

type fakeOccupancy struct {
	events []model.OccupancyEvent
}

func (f *fakeOccupancy) ListRecent(ctx context.Context, zoneID uuid.UUID, since time.Time, limit int) ([]model.OccupancyEvent, error) {
	return f.events, nil
}

// fakeCapacity merges records per zone and day the way the upsert does.
type fakeCapacity struct {
	mu      sync.Mutex
	events  []model.OccupancyEvent
	records map[string]*model.CapacityRecord
	history []model.CapacityRecord
	err     error
}

func newFakeCapacity() *fakeCapacity {
	return &fakeCapacity{records: make(map[string]*model.CapacityRecord)}
}

func (f *fakeCapacity) Record(ctx context.Context, event *model.OccupancyEvent, record *model.CapacityRecord) (*model.CapacityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	f.events = append(f.events, *event)
	key := record.ZoneID.String() + record.RecordDate.Format("2006-01-02")
	existing, ok := f.records[key]
	if !ok {
		merged := *record
		merged.ID = uuid.New()
		f.records[key] = &merged
		out := merged
		return &out, nil
	}

	peak := max(existing.PeakOccupancy, record.PeakOccupancy)
	merged := *record
	merged.ID = existing.ID
	merged.PeakOccupancy = peak
	f.records[key] = &merged
	out := merged
	return &out, nil
}

func (f *fakeCapacity) GetLatest(ctx context.Context, zoneID uuid.UUID) (*model.CapacityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.CapacityRecord
	for _, r := range f.records {
		if r.ZoneID == zoneID && (latest == nil || r.LastUpdated.After(latest.LastUpdated)) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeCapacity) ListSince(ctx context.Context, zoneID uuid.UUID, since time.Time) ([]model.CapacityRecord, error) {
	return f.history, nil
}

type fakeViolations struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*model.Violation
	createErr   error
	resolveErr  error
	list        []model.Violation
	total       int64
	stats       []repository.ViolationStat
	avg         int64
	lastFilter  repository.ViolationListFilter
	resolveHits int
}

func newFakeViolations() *fakeViolations {
	return &fakeViolations{byID: make(map[uuid.UUID]*model.Violation)}
}

func (f *fakeViolations) Create(ctx context.Context, v *model.Violation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	stored := *v
	f.byID[v.ID] = &stored
	return nil
}

func (f *fakeViolations) GetByID(ctx context.Context, id uuid.UUID) (*model.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *v
	return &out, nil
}

func (f *fakeViolations) MarkResolved(ctx context.Context, v *model.Violation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveHits++
	if f.resolveErr != nil {
		return false, f.resolveErr
	}
	stored, ok := f.byID[v.ID]
	if !ok || stored.IsResolved {
		return false, nil
	}
	updated := *v
	f.byID[v.ID] = &updated
	return true, nil
}

func (f *fakeViolations) List(ctx context.Context, filter repository.ViolationListFilter) ([]model.Violation, int64, error) {
	f.lastFilter = filter
	return f.list, f.total, nil
}

func (f *fakeViolations) Stats(ctx context.Context, zoneID uuid.UUID, since time.Time) ([]repository.ViolationStat, error) {
	return f.stats, nil
}

func (f *fakeViolations) AverageResolutionTime(ctx context.Context, zoneID uuid.UUID, since time.Time) (int64, error) {
	return f.avg, nil
}

type fakeRoutes struct {
	routes      []model.EvacuationRoute
	assignments map[uuid.UUID]int
	err         error
}

func (f *fakeRoutes) ListActiveFromZone(ctx context.Context, zoneID uuid.UUID) ([]model.EvacuationRoute, error) {
	return f.routes, f.err
}

func (f *fakeRoutes) CountActiveAssignments(ctx context.Context, routeIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return f.assignments, nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	alerts []*model.Alert
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, alert *model.Alert) (model.AlertAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.AlertAck{}, f.err
	}
	f.alerts = append(f.alerts, alert)
	return model.AlertAck{Channel: "test", MessageID: alert.ID.String()}, nil
}

func (f *fakeEmitter) subTypes() []model.AlertSubType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AlertSubType, len(f.alerts))
	for i, a := range f.alerts {
		out[i] = a.SubType
	}
	return out
}

type fakeNotifier struct {
	mu            sync.Mutex
	notifications []model.Notification
	err           error
}

func (f *fakeNotifier) Notify(ctx context.Context, n model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotifier) audiences() []model.NotificationAudience {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.NotificationAudience, len(f.notifications))
	for i, n := range f.notifications {
		out[i] = n.Audience
	}
	return out
}
