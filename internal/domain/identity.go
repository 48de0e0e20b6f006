package domain

import "strings"

type Role string

const (
	RoleGuest Role = "guest"
	RoleOwner Role = "owner"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated caller as supplied by the identity provider.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner
	case RoleStaff:
		return RoleStaff
	case RoleAdmin:
		return RoleAdmin
	}
	return RoleGuest
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

// Staff covers roles allowed to manage any hotel's bookings.
func (i Identity) Staff() bool { return i.Role == RoleStaff || i.Role == RoleAdmin }
