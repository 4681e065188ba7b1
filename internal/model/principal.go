package model

import "github.com/google/uuid"

type Role string

const (
	RoleCompanyAdmin Role = "COMPANY_ADMIN"
	RoleVenueAdmin   Role = "VENUE_ADMIN"
	RoleStaff        Role = "STAFF"
	RoleParent       Role = "PARENT"
	RoleSystem       Role = "SYSTEM"
)

// Principal is the caller identity every core operation receives explicitly.
type Principal struct {
	UserID  string
	VenueID *uuid.UUID
	Role    Role
}

// SystemPrincipal identifies automated callers such as detectors.
func SystemPrincipal(actor string) Principal {
	return Principal{UserID: actor, Role: RoleSystem}
}

func (p Principal) IsCompanyAdmin() bool { return p.Role == RoleCompanyAdmin }
func (p Principal) IsVenueAdmin() bool   { return p.Role == RoleVenueAdmin }
func (p Principal) IsStaff() bool        { return p.Role == RoleStaff }
func (p Principal) IsParent() bool       { return p.Role == RoleParent }
func (p Principal) IsSystem() bool       { return p.Role == RoleSystem }

func (p Principal) IsAdmin() bool {
	return p.IsCompanyAdmin() || p.IsVenueAdmin()
}
