package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'violation_severity') THEN
			CREATE TYPE violation_severity AS ENUM ('LOW', 'MEDIUM', 'HIGH', 'CRITICAL', 'EMERGENCY');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'capacity_status') THEN
			CREATE TYPE capacity_status AS ENUM ('EMPTY', 'LOW', 'NORMAL', 'HIGH', 'FULL');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS zones (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		venue_id UUID NOT NULL,
		floor_plan_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(50) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_zones_venue_id ON zones (venue_id);`,
	`CREATE TABLE IF NOT EXISTS zone_configs (
		zone_id UUID PRIMARY KEY REFERENCES zones (id) ON DELETE CASCADE,
		max_capacity INTEGER NOT NULL DEFAULT 0 CHECK (max_capacity >= 0),
		min_staff_required INTEGER NOT NULL DEFAULT 0 CHECK (min_staff_required >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS access_rules (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		zone_id UUID NOT NULL REFERENCES zones (id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		rule_type VARCHAR(50) NOT NULL CHECK (rule_type IN ('CAPACITY_LIMIT', 'STAFF_RATIO', 'AGE_RESTRICTION', 'TIME_WINDOW')),
		config JSONB NOT NULL DEFAULT '{}'::jsonb,
		violation_action VARCHAR(50) NOT NULL DEFAULT 'ALERT',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_access_rules_zone_active ON access_rules (zone_id) WHERE is_active;`,
	`CREATE TABLE IF NOT EXISTS occupancy_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		seq BIGSERIAL NOT NULL UNIQUE,
		zone_id UUID NOT NULL REFERENCES zones (id) ON DELETE CASCADE,
		occupancy_count INTEGER NOT NULL CHECK (occupancy_count >= 0),
		event_type VARCHAR(50) NOT NULL CHECK (event_type IN ('ENTRY', 'EXIT', 'CAPACITY_UPDATE', 'MANUAL_CORRECTION')),
		child_id UUID,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		entry_method VARCHAR(20) NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb
	);`,
	`CREATE INDEX IF NOT EXISTS idx_occupancy_events_zone_time ON occupancy_events (zone_id, timestamp DESC, seq DESC);`,
	`CREATE TABLE IF NOT EXISTS capacity_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		zone_id UUID NOT NULL REFERENCES zones (id) ON DELETE CASCADE,
		record_date DATE NOT NULL,
		current_occupancy INTEGER NOT NULL CHECK (current_occupancy >= 0),
		max_capacity INTEGER NOT NULL,
		utilization_rate DOUBLE PRECISION NOT NULL,
		peak_occupancy INTEGER NOT NULL,
		capacity_status capacity_status NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL,
		CONSTRAINT idx_capacity_zone_day UNIQUE (zone_id, record_date),
		CHECK (peak_occupancy >= current_occupancy)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_capacity_records_zone_updated ON capacity_records (zone_id, last_updated DESC);`,
	`CREATE TABLE IF NOT EXISTS violations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		zone_id UUID NOT NULL REFERENCES zones (id) ON DELETE CASCADE,
		violation_type VARCHAR(100) NOT NULL,
		severity violation_severity NOT NULL DEFAULT 'MEDIUM',
		description TEXT NOT NULL,
		violator_id VARCHAR(100),
		violator_type VARCHAR(20) NOT NULL DEFAULT 'CHILD',
		rule_violated VARCHAR(255) NOT NULL,
		detection_method VARCHAR(50) NOT NULL DEFAULT 'STAFF_REPORT',
		confidence DOUBLE PRECISION CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
		actions_taken TEXT,
		reported_by VARCHAR(100) NOT NULL,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at TIMESTAMPTZ,
		resolved_by VARCHAR(100),
		resolution_notes TEXT,
		resolution_time BIGINT CHECK (resolution_time IS NULL OR resolution_time >= 0),
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (NOT is_resolved OR (resolved_at IS NOT NULL AND resolved_by IS NOT NULL))
	);`,
	`CREATE INDEX IF NOT EXISTS idx_violations_zone_time ON violations (zone_id, timestamp DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_violations_zone_open ON violations (zone_id) WHERE NOT is_resolved;`,
	`CREATE TABLE IF NOT EXISTS evacuation_routes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		from_zone_id UUID NOT NULL REFERENCES zones (id) ON DELETE CASCADE,
		to_zone_id UUID NOT NULL REFERENCES zones (id) ON DELETE CASCADE,
		distance DOUBLE PRECISION NOT NULL CHECK (distance >= 0),
		estimated_time INTEGER NOT NULL CHECK (estimated_time >= 0),
		max_capacity INTEGER NOT NULL CHECK (max_capacity >= 0),
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		is_accessible BOOLEAN NOT NULL DEFAULT TRUE,
		hazard_level VARCHAR(20) NOT NULL DEFAULT 'NONE' CHECK (hazard_level IN ('NONE', 'LOW', 'MEDIUM', 'HIGH', 'EXTREME')),
		lighting BOOLEAN NOT NULL DEFAULT TRUE,
		signage BOOLEAN NOT NULL DEFAULT TRUE,
		obstacle_status VARCHAR(20) NOT NULL DEFAULT 'CLEAR' CHECK (obstacle_status IN ('CLEAR', 'PARTIAL', 'BLOCKED')),
		last_inspection TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_evacuation_routes_from_zone ON evacuation_routes (from_zone_id) WHERE is_active;`,
	`CREATE TABLE IF NOT EXISTS route_assignments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		route_id UUID NOT NULL REFERENCES evacuation_routes (id) ON DELETE CASCADE,
		child_id UUID,
		staff_id UUID,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'ASSIGNED', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED')),
		priority INTEGER NOT NULL DEFAULT 0,
		estimated_time INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_route_assignments_route_status ON route_assignments (route_id, status);`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		venue_id UUID NOT NULL,
		zone_id UUID NOT NULL REFERENCES zones (id) ON DELETE CASCADE,
		type VARCHAR(20) NOT NULL,
		sub_type VARCHAR(50) NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		severity VARCHAR(20) NOT NULL,
		priority VARCHAR(20) NOT NULL,
		trigger JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_zone_created ON alerts (zone_id, created_at DESC);`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	updatedAtTrigger("zones"),
	updatedAtTrigger("access_rules"),
	updatedAtTrigger("violations"),
	updatedAtTrigger("evacuation_routes"),
}

func updatedAtTrigger(table string) string {
	return fmt.Sprintf(`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_%[1]s_updated_at') THEN
			CREATE TRIGGER trg_%[1]s_updated_at
				BEFORE UPDATE ON %[1]s
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`, table)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
