// Package policy holds the pure authorization predicates shared by all
// endpoints. Predicates are functions of the caller and target only; they
// never touch the database.
package policy

import (
	"jobfinder/internal/models"
)

// IsAdmin reports whether the user has admin privileges, either via the
// staff flag or the ADMIN role code.
func IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.IsStaff || u.RoleCode == models.RoleAdmin
}

// IsOwnerOrAdmin reports whether the user is an admin or owns the resource
// identified by ownerID. Resources with no owner are admin-only.
func IsOwnerOrAdmin(u *models.User, ownerID *uint) bool {
	if IsAdmin(u) {
		return true
	}
	if u == nil || ownerID == nil {
		return false
	}
	return *ownerID == u.ID
}

// CanAuthenticate gates credential issuance on account status. BANNED and
// SUSPENDED accounts are refused with distinct messages; every other status
// may obtain credentials — status only restricts later actions.
func CanAuthenticate(u *models.User) *models.AppError {
	switch u.StatusCode {
	case models.StatusBanned:
		return models.NewAuthenticationError("Your account has been permanently locked. Please contact support.")
	case models.StatusSuspended:
		return models.NewAuthenticationError("Your account is temporarily suspended due to repeated failed logins. Please contact support.")
	default:
		return nil
	}
}
