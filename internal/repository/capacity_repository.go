package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
)

const upsertCapacityRecordSQL = `
	INSERT INTO capacity_records (
		id, zone_id, record_date, current_occupancy, max_capacity,
		utilization_rate, peak_occupancy, capacity_status, last_updated
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (zone_id, record_date)
	DO UPDATE SET
		current_occupancy = EXCLUDED.current_occupancy,
		max_capacity = EXCLUDED.max_capacity,
		utilization_rate = EXCLUDED.utilization_rate,
		peak_occupancy = GREATEST(capacity_records.peak_occupancy, EXCLUDED.peak_occupancy),
		capacity_status = EXCLUDED.capacity_status,
		last_updated = EXCLUDED.last_updated
	RETURNING id, zone_id, record_date, current_occupancy, max_capacity,
		utilization_rate, peak_occupancy, capacity_status, last_updated`

type CapacityRepository struct {
	db *gorm.DB
}

func NewCapacityRepository(db *gorm.DB) *CapacityRepository {
	return &CapacityRepository{db: db}
}

// Record appends the occupancy event and merges the day's capacity record in one
// transaction. The merge is a single upsert, so concurrent writers on the same
// zone and day serialize on the row and the peak never decreases.
func (r *CapacityRepository) Record(ctx context.Context, event *model.OccupancyEvent, record *model.CapacityRecord) (*model.CapacityRecord, error) {
	var merged model.CapacityRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		return tx.Raw(upsertCapacityRecordSQL,
			record.ID,
			record.ZoneID,
			record.RecordDate,
			record.CurrentOccupancy,
			record.MaxCapacity,
			record.UtilizationRate,
			record.PeakOccupancy,
			record.CapacityStatus,
			record.LastUpdated,
		).Scan(&merged).Error
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// GetLatest returns nil without error when the zone has no record yet.
func (r *CapacityRepository) GetLatest(ctx context.Context, zoneID uuid.UUID) (*model.CapacityRecord, error) {
	var record model.CapacityRecord
	err := r.db.WithContext(ctx).
		Where("zone_id = ?", zoneID).
		Order("last_updated DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *CapacityRepository) ListSince(ctx context.Context, zoneID uuid.UUID, since time.Time) ([]model.CapacityRecord, error) {
	var records []model.CapacityRecord
	err := r.db.WithContext(ctx).
		Where("zone_id = ? AND record_date >= ?", zoneID, model.RecordDay(since)).
		Order("record_date DESC").
		Find(&records).Error
	return records, err
}
