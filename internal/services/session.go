package services

import (
	"github.com/google/uuid"

	"waste_tracker/internal/models"
)

// Session identifies the caller of a service operation. It is built by the
// auth middleware from a verified bearer token and passed explicitly.
type Session struct {
	UserID uuid.UUID
	Role   models.Role
}

func (s Session) IsAdmin() bool { return s.Role == models.RoleSuperAdmin }
func (s Session) IsDriver() bool { return s.Role == models.RoleDriver }

func requireAdmin(s Session) error {
	if !s.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func requireStaff(s Session) error {
	if s.UserID == uuid.Nil {
		return ErrUnauthorized
	}
	if !s.IsAdmin() && !s.IsDriver() {
		return ErrForbidden
	}
	return nil
}
