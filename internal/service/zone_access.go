package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
)

type ZoneInfo struct {
	ID      uuid.UUID      `json:"id"`
	Name    string         `json:"name"`
	Type    model.ZoneType `json:"type"`
	VenueID uuid.UUID      `json:"venue_id"`
}

func zoneInfo(zone *model.Zone) ZoneInfo {
	return ZoneInfo{
		ID:      zone.ID,
		Name:    zone.Name,
		Type:    zone.Type,
		VenueID: zone.VenueID,
	}
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidInput("invalid %s", field)
	}
	return id, nil
}

func loadZone(ctx context.Context, zones ZoneStore, principal model.Principal, zoneID uuid.UUID) (*model.Zone, error) {
	zone, err := zones.GetByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, dependencyError("load zone", err)
	}

	if !canAccessZone(principal, zone) {
		return nil, ErrPermissionDenied
	}

	return zone, nil
}

// canAccessZone scopes venue admins and staff to their own venue.
func canAccessZone(principal model.Principal, zone *model.Zone) bool {
	switch principal.Role {
	case model.RoleCompanyAdmin, model.RoleSystem, model.RoleParent:
		return true
	case model.RoleVenueAdmin, model.RoleStaff:
		return principal.VenueID != nil && *principal.VenueID == zone.VenueID
	}
	return false
}
