package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"zone-safety-service/internal/model"
)

const (
	defaultHistoryDays   = 7
	recentOccupancyLimit = 100
	trendSampleSize      = 10
	defaultUpdateReason  = "Manual capacity update"
)

type CapacityService struct {
	zones     ZoneStore
	capacity  CapacityStore
	occupancy OccupancyStore
	alerts    AlertEmitter
	log       zerolog.Logger
	now       func() time.Time
}

func NewCapacityService(
	zones ZoneStore,
	capacity CapacityStore,
	occupancy OccupancyStore,
	alerts AlertEmitter,
	log zerolog.Logger,
) *CapacityService {
	return &CapacityService{
		zones:     zones,
		capacity:  capacity,
		occupancy: occupancy,
		alerts:    alerts,
		log:       log,
		now:       time.Now,
	}
}

type RecordOccupancyInput struct {
	ZoneID         string
	OccupancyCount int
	EventType      model.OccupancyEventType
	ChildID        *string
	EntryMethod    model.EntryMethod
	Reason         string
	Detection      *model.DetectionMetadata
}

type OccupancyResult struct {
	Record   *model.CapacityRecord `json:"capacity_record"`
	Status   model.CapacityStatus  `json:"capacity_status"`
	Warnings []string              `json:"warnings,omitempty"`
}

// RecordOccupancy appends the occupancy event, merges the day's capacity record
// and raises a CAPACITY_EXCEEDED alert when the zone is full. Alert failures are
// reported as warnings and never undo the write.
func (s *CapacityService) RecordOccupancy(ctx context.Context, principal model.Principal, input RecordOccupancyInput) (*OccupancyResult, error) {
	if !principal.IsAdmin() && !principal.IsSystem() {
		return nil, ErrPermissionDenied
	}

	zoneID, err := parseID(input.ZoneID, "zone id")
	if err != nil {
		return nil, err
	}
	if input.OccupancyCount < 0 {
		return nil, invalidInput("occupancy count must not be negative")
	}

	eventType := input.EventType
	if eventType == "" {
		eventType = model.OccupancyEventCapacityUpdate
	}
	if !eventType.Valid() {
		return nil, invalidInput("unknown event type %q", eventType)
	}

	var childID *uuid.UUID
	if input.ChildID != nil && *input.ChildID != "" {
		parsed, err := parseID(*input.ChildID, "child id")
		if err != nil {
			return nil, err
		}
		childID = &parsed
	}

	zone, err := loadZone(ctx, s.zones, principal, zoneID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	maxCapacity := zone.MaxCapacity()
	classification := Classify(input.OccupancyCount, maxCapacity)

	event := &model.OccupancyEvent{
		ZoneID:         zone.ID,
		OccupancyCount: input.OccupancyCount,
		EventType:      eventType,
		ChildID:        childID,
		Timestamp:      now,
		EntryMethod:    model.EntryMethodManual,
	}
	if input.EntryMethod == model.EntryMethodCamera || input.Detection != nil {
		event.EntryMethod = model.EntryMethodCamera
		event.Metadata.Detection = input.Detection
	} else {
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			reason = defaultUpdateReason
		}
		event.Metadata.Manual = &model.ManualUpdateMetadata{
			UpdatedBy: principal.UserID,
			Reason:    reason,
		}
	}

	record := &model.CapacityRecord{
		ZoneID:           zone.ID,
		RecordDate:       model.RecordDay(now),
		CurrentOccupancy: input.OccupancyCount,
		MaxCapacity:      maxCapacity,
		UtilizationRate:  classification.UtilizationRate,
		PeakOccupancy:    input.OccupancyCount,
		CapacityStatus:   classification.Status,
		LastUpdated:      now,
	}

	merged, err := s.capacity.Record(ctx, event, record)
	if err != nil {
		return nil, dependencyError("record occupancy", err)
	}

	result := &OccupancyResult{
		Record: merged,
		Status: classification.Status,
	}

	if classification.UtilizationRate >= fullUtilization {
		alert := capacityExceededAlert(zone, input.OccupancyCount, maxCapacity, classification.UtilizationRate, now)
		if _, err := s.alerts.Emit(ctx, alert); err != nil {
			s.log.Error().Err(err).
				Str("zone_id", zone.ID.String()).
				Int("occupancy", input.OccupancyCount).
				Msg("failed to emit capacity alert")
			result.Warnings = append(result.Warnings, "capacity alert could not be delivered")
		}
	}

	return result, nil
}

func capacityExceededAlert(zone *model.Zone, occupancy, maxCapacity int, rate float64, now time.Time) *model.Alert {
	return &model.Alert{
		ID:          uuid.New(),
		VenueID:     zone.VenueID,
		ZoneID:      zone.ID,
		Type:        model.AlertTypeCapacity,
		SubType:     model.AlertSubTypeCapacityExceeded,
		Title:       fmt.Sprintf("Zone at capacity: %s", zone.Name),
		Description: fmt.Sprintf("%d people in a zone configured for %d", occupancy, maxCapacity),
		Severity:    model.AlertSeverityHigh,
		Priority:    "HIGH",
		Trigger: model.AlertTrigger{
			Capacity: &model.CapacityTrigger{
				CurrentOccupancy: occupancy,
				MaxCapacity:      maxCapacity,
				UtilizationRate:  rate,
			},
		},
		CreatedAt: now,
	}
}

type SnapshotOptions struct {
	IncludeHistory bool
	DaysBack       int
}

type CurrentCapacity struct {
	Record             *model.CapacityRecord `json:"record"`
	CurrentOccupancy   int                   `json:"current_occupancy"`
	UtilizationPercent float64               `json:"utilization_percent"`
	RemainingCapacity  int                   `json:"remaining_capacity"`
	IsAtCapacity       bool                  `json:"is_at_capacity"`
	IsNearCapacity     bool                  `json:"is_near_capacity"`
	Status             model.CapacityStatus  `json:"status"`
	Trend              model.CapacityTrend   `json:"trend"`
}

type CapacityConfiguration struct {
	MaxCapacity      int `json:"max_capacity"`
	MinStaffRequired int `json:"min_staff_required"`
}

type HourlyStat struct {
	Hour             string `json:"hour"`
	AverageOccupancy int    `json:"average_occupancy"`
	PeakOccupancy    int    `json:"peak_occupancy"`
	DataPoints       int    `json:"data_points"`
}

type DailyPeak struct {
	Date               time.Time `json:"date"`
	PeakOccupancy      int       `json:"peak_occupancy"`
	UtilizationPercent float64   `json:"utilization_percent"`
}

type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightTrend   InsightType = "trend"
)

type Insight struct {
	Type     InsightType `json:"type"`
	Message  string      `json:"message"`
	Priority string      `json:"priority"`
}

type CapacityAnalytics struct {
	HourlyStats []HourlyStat `json:"hourly_stats"`
	DailyPeaks  []DailyPeak  `json:"daily_peaks"`
}

type CapacitySnapshot struct {
	Zone          ZoneInfo               `json:"zone"`
	Current       CurrentCapacity        `json:"current"`
	Configuration CapacityConfiguration  `json:"configuration"`
	Analytics     CapacityAnalytics      `json:"analytics"`
	Insights      []Insight              `json:"insights"`
	History       []model.CapacityRecord `json:"history,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// GetCapacitySnapshot is read-only.
func (s *CapacityService) GetCapacitySnapshot(ctx context.Context, principal model.Principal, rawZoneID string, opts SnapshotOptions) (*CapacitySnapshot, error) {
	zoneID, err := parseID(rawZoneID, "zone id")
	if err != nil {
		return nil, err
	}

	zone, err := loadZone(ctx, s.zones, principal, zoneID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	latest, err := s.capacity.GetLatest(ctx, zone.ID)
	if err != nil {
		return nil, dependencyError("load capacity record", err)
	}

	var history []model.CapacityRecord
	if opts.IncludeHistory {
		daysBack := opts.DaysBack
		if daysBack <= 0 {
			daysBack = defaultHistoryDays
		}
		history, err = s.capacity.ListSince(ctx, zone.ID, now.AddDate(0, 0, -daysBack))
		if err != nil {
			return nil, dependencyError("load capacity history", err)
		}
	}

	recent, err := s.occupancy.ListRecent(ctx, zone.ID, now.Add(-24*time.Hour), recentOccupancyLimit)
	if err != nil {
		return nil, dependencyError("load occupancy events", err)
	}

	maxCapacity := zone.MaxCapacity()
	currentOccupancy := 0
	if latest != nil {
		currentOccupancy = latest.CurrentOccupancy
	}
	classification := Classify(currentOccupancy, maxCapacity)
	percent := classification.UtilizationRate * 100

	samples := make([]int, 0, trendSampleSize)
	for i := 0; i < len(recent) && i < trendSampleSize; i++ {
		samples = append(samples, recent[i].OccupancyCount)
	}

	snapshot := &CapacitySnapshot{
		Zone: zoneInfo(zone),
		Current: CurrentCapacity{
			Record:             latest,
			CurrentOccupancy:   currentOccupancy,
			UtilizationPercent: math.Round(percent*10) / 10,
			RemainingCapacity:  max(0, maxCapacity-currentOccupancy),
			IsAtCapacity:       percent >= 100,
			IsNearCapacity:     percent >= 85,
			Status:             classification.Status,
			Trend:              Trend(samples),
		},
		Configuration: CapacityConfiguration{
			MaxCapacity:      maxCapacity,
			MinStaffRequired: zone.MinStaffRequired(),
		},
		Analytics: CapacityAnalytics{
			HourlyStats: hourlyStats(recent),
			DailyPeaks:  dailyPeaks(history),
		},
		Insights:  capacityInsights(latest, history),
		History:   history,
		Timestamp: now,
	}

	return snapshot, nil
}

func hourlyStats(events []model.OccupancyEvent) []HourlyStat {
	type bucket struct {
		total, count, peak int
	}
	buckets := make(map[string]*bucket)
	for _, e := range events {
		hour := fmt.Sprintf("%02d", e.Timestamp.UTC().Hour())
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{}
			buckets[hour] = b
		}
		b.total += e.OccupancyCount
		b.count++
		b.peak = max(b.peak, e.OccupancyCount)
	}

	stats := make([]HourlyStat, 0, len(buckets))
	for hour, b := range buckets {
		stats = append(stats, HourlyStat{
			Hour:             hour,
			AverageOccupancy: int(math.Round(float64(b.total) / float64(b.count))),
			PeakOccupancy:    b.peak,
			DataPoints:       b.count,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Hour < stats[j].Hour })
	return stats
}

func dailyPeaks(history []model.CapacityRecord) []DailyPeak {
	peaks := make([]DailyPeak, 0, len(history))
	for _, r := range history {
		peaks = append(peaks, DailyPeak{
			Date:               r.RecordDate,
			PeakOccupancy:      r.PeakOccupancy,
			UtilizationPercent: r.UtilizationRate * 100,
		})
	}
	return peaks
}

func capacityInsights(current *model.CapacityRecord, history []model.CapacityRecord) []Insight {
	insights := []Insight{}

	if current != nil && current.UtilizationRate*100 >= 90 {
		insights = append(insights, Insight{
			Type:     InsightWarning,
			Message:  "Zone is near capacity. Consider crowd control measures.",
			Priority: "high",
		})
	}

	if len(history) >= 3 {
		var sum float64
		for _, r := range history[:3] {
			sum += r.UtilizationRate * 100
		}
		if sum/3 > 80 {
			insights = append(insights, Insight{
				Type:     InsightTrend,
				Message:  "Consistently high utilization. Consider capacity expansion.",
				Priority: "medium",
			})
		}
	}

	return insights
}
