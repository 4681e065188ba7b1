package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-safety-service/internal/model"
)

type capacityFixture struct {
	zone      *model.Zone
	zones     *fakeZones
	capacity  *fakeCapacity
	occupancy *fakeOccupancy
	alerts    *fakeEmitter
	service   *CapacityService
}

func newCapacityFixture(maxCapacity int) *capacityFixture {
	f := &capacityFixture{
		zone:      newZone(maxCapacity),
		capacity:  newFakeCapacity(),
		occupancy: &fakeOccupancy{},
		alerts:    &fakeEmitter{},
	}
	f.zones = newFakeZones(f.zone)
	f.service = NewCapacityService(f.zones, f.capacity, f.occupancy, f.alerts, zerolog.Nop())
	f.service.now = fixedClock
	return f
}

func (f *capacityFixture) record(t *testing.T, count int) *OccupancyResult {
	t.Helper()
	result, err := f.service.RecordOccupancy(context.Background(), companyAdmin(), RecordOccupancyInput{
		ZoneID:         f.zone.ID.String(),
		OccupancyCount: count,
	})
	require.NoError(t, err)
	return result
}

func TestRecordOccupancyClassifiesAndAlertsWhenFull(t *testing.T) {
	f := newCapacityFixture(10)

	result := f.record(t, 9)
	assert.Equal(t, model.CapacityStatusHigh, result.Status)
	assert.InDelta(t, 0.9, result.Record.UtilizationRate, 1e-9)
	assert.Empty(t, f.alerts.alerts)

	result = f.record(t, 10)
	assert.Equal(t, model.CapacityStatusFull, result.Status)
	require.Len(t, f.alerts.alerts, 1)

	alert := f.alerts.alerts[0]
	assert.Equal(t, model.AlertTypeCapacity, alert.Type)
	assert.Equal(t, model.AlertSubTypeCapacityExceeded, alert.SubType)
	assert.Equal(t, model.AlertSeverityHigh, alert.Severity)
	require.NotNil(t, alert.Trigger.Capacity)
	assert.Equal(t, 10, alert.Trigger.Capacity.CurrentOccupancy)
	assert.Equal(t, f.zone.VenueID, alert.VenueID)
}

func TestRecordOccupancyTracksPeak(t *testing.T) {
	f := newCapacityFixture(20)

	f.record(t, 5)
	f.record(t, 12)
	result := f.record(t, 3)

	assert.Equal(t, 3, result.Record.CurrentOccupancy)
	assert.Equal(t, 12, result.Record.PeakOccupancy)
	assert.Equal(t, model.RecordDay(testNow), result.Record.RecordDate)
	assert.Len(t, f.capacity.events, 3)
}

func TestRecordOccupancyStoresManualMetadata(t *testing.T) {
	f := newCapacityFixture(10)

	_, err := f.service.RecordOccupancy(context.Background(), companyAdmin(), RecordOccupancyInput{
		ZoneID:         f.zone.ID.String(),
		OccupancyCount: 4,
		EventType:      model.OccupancyEventManualCorrection,
		Reason:         "  headcount  ",
	})
	require.NoError(t, err)

	require.Len(t, f.capacity.events, 1)
	event := f.capacity.events[0]
	assert.Equal(t, model.EntryMethodManual, event.EntryMethod)
	require.NotNil(t, event.Metadata.Manual)
	assert.Equal(t, "admin-1", event.Metadata.Manual.UpdatedBy)
	assert.Equal(t, "headcount", event.Metadata.Manual.Reason)
	assert.Nil(t, event.Metadata.Detection)
}

func TestRecordOccupancyAlertFailureIsWarning(t *testing.T) {
	f := newCapacityFixture(10)
	f.alerts.err = errors.New("stream down")

	result := f.record(t, 11)
	assert.Equal(t, model.CapacityStatusFull, result.Status)
	assert.Equal(t, []string{"capacity alert could not be delivered"}, result.Warnings)
	assert.Len(t, f.capacity.events, 1)
}

func TestRecordOccupancyValidation(t *testing.T) {
	f := newCapacityFixture(10)
	ctx := context.Background()

	_, err := f.service.RecordOccupancy(ctx, companyAdmin(), RecordOccupancyInput{ZoneID: f.zone.ID.String(), OccupancyCount: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.RecordOccupancy(ctx, companyAdmin(), RecordOccupancyInput{ZoneID: "not-a-uuid", OccupancyCount: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.RecordOccupancy(ctx, companyAdmin(), RecordOccupancyInput{ZoneID: f.zone.ID.String(), OccupancyCount: 1, EventType: "TELEPORT"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.RecordOccupancy(ctx, companyAdmin(), RecordOccupancyInput{ZoneID: uuid.NewString(), OccupancyCount: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.capacity.events)
}

func TestRecordOccupancyPermissions(t *testing.T) {
	f := newCapacityFixture(10)
	ctx := context.Background()
	input := RecordOccupancyInput{ZoneID: f.zone.ID.String(), OccupancyCount: 1}

	_, err := f.service.RecordOccupancy(ctx, venueStaff(f.zone.VenueID), input)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	otherVenue := uuid.New()
	_, err = f.service.RecordOccupancy(ctx, model.Principal{UserID: "va", Role: model.RoleVenueAdmin, VenueID: &otherVenue}, input)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.service.RecordOccupancy(ctx, model.SystemPrincipal("detector:cam-1"), input)
	assert.NoError(t, err)
}

func TestRecordOccupancyStoreFailure(t *testing.T) {
	f := newCapacityFixture(10)
	f.capacity.err = errStoreDown

	_, err := f.service.RecordOccupancy(context.Background(), companyAdmin(), RecordOccupancyInput{ZoneID: f.zone.ID.String(), OccupancyCount: 1})
	assert.ErrorIs(t, err, ErrDependencyFailure)
	assert.ErrorIs(t, err, errStoreDown)

	f.capacity.err = fmt.Errorf("query: %w", context.DeadlineExceeded)
	_, err = f.service.RecordOccupancy(context.Background(), companyAdmin(), RecordOccupancyInput{ZoneID: f.zone.ID.String(), OccupancyCount: 1})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRecordOccupancyConcurrentPeak(t *testing.T) {
	f := newCapacityFixture(100)

	done := make(chan struct{})
	for i := 1; i <= 20; i++ {
		i := i
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = f.service.RecordOccupancy(context.Background(), companyAdmin(), RecordOccupancyInput{
				ZoneID:         f.zone.ID.String(),
				OccupancyCount: i,
			})
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	latest, err := f.capacity.GetLatest(context.Background(), f.zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, latest.PeakOccupancy)
}

func TestGetCapacitySnapshot(t *testing.T) {
	f := newCapacityFixture(10)
	f.record(t, 9)

	f.occupancy.events = []model.OccupancyEvent{
		{OccupancyCount: 9, Timestamp: testNow},
		{OccupancyCount: 7, Timestamp: testNow.Add(-10 * time.Minute)},
		{OccupancyCount: 5, Timestamp: testNow.Add(-70 * time.Minute)},
	}
	f.capacity.history = []model.CapacityRecord{
		{RecordDate: model.RecordDay(testNow), PeakOccupancy: 9, UtilizationRate: 0.9},
		{RecordDate: model.RecordDay(testNow.AddDate(0, 0, -1)), PeakOccupancy: 9, UtilizationRate: 0.85},
		{RecordDate: model.RecordDay(testNow.AddDate(0, 0, -2)), PeakOccupancy: 8, UtilizationRate: 0.8},
	}

	snapshot, err := f.service.GetCapacitySnapshot(context.Background(), companyAdmin(), f.zone.ID.String(), SnapshotOptions{IncludeHistory: true})
	require.NoError(t, err)

	assert.Equal(t, 9, snapshot.Current.CurrentOccupancy)
	assert.InDelta(t, 90.0, snapshot.Current.UtilizationPercent, 1e-9)
	assert.Equal(t, 1, snapshot.Current.RemainingCapacity)
	assert.True(t, snapshot.Current.IsNearCapacity)
	assert.False(t, snapshot.Current.IsAtCapacity)
	assert.Equal(t, model.CapacityStatusHigh, snapshot.Current.Status)
	// running averages 9, 8, 7
	assert.Equal(t, model.CapacityTrendDecreasing, snapshot.Current.Trend)

	assert.Equal(t, 10, snapshot.Configuration.MaxCapacity)
	assert.Equal(t, 2, snapshot.Configuration.MinStaffRequired)

	require.Len(t, snapshot.Analytics.HourlyStats, 2)
	assert.Equal(t, "09", snapshot.Analytics.HourlyStats[0].Hour)
	assert.Equal(t, "10", snapshot.Analytics.HourlyStats[1].Hour)
	assert.Equal(t, 8, snapshot.Analytics.HourlyStats[1].AverageOccupancy)
	assert.Equal(t, 9, snapshot.Analytics.HourlyStats[1].PeakOccupancy)
	assert.Len(t, snapshot.Analytics.DailyPeaks, 3)

	require.Len(t, snapshot.Insights, 2)
	assert.Equal(t, InsightWarning, snapshot.Insights[0].Type)
	assert.Equal(t, InsightTrend, snapshot.Insights[1].Type)
}

func TestGetCapacitySnapshotWithoutRecords(t *testing.T) {
	f := newCapacityFixture(10)

	snapshot, err := f.service.GetCapacitySnapshot(context.Background(), companyAdmin(), f.zone.ID.String(), SnapshotOptions{})
	require.NoError(t, err)

	assert.Nil(t, snapshot.Current.Record)
	assert.Equal(t, 0, snapshot.Current.CurrentOccupancy)
	assert.Equal(t, model.CapacityStatusEmpty, snapshot.Current.Status)
	assert.Equal(t, model.CapacityTrendStable, snapshot.Current.Trend)
	assert.Nil(t, snapshot.History)
	assert.Empty(t, snapshot.Insights)
}
