package rbac

import (
	"time"

	"github.com/aegis-admin/aegis-admin/internal/directory"
)

// Role is a named permission bundle, managed via the admin screens.
type Role struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active,omitempty"`
}

// Permission is an addressable backend operation. The catalog is seeded
// elsewhere; the client only lists and assigns.
type Permission struct {
	ID     int64  `json:"id"`
	Entity string `json:"entity"`
	URL    string `json:"url"`
	Method string `json:"method"`
}

// UserRole binds one user to one role inside a validity window. This is
// the domain (camelCase) shape; the wire shape lives in codec.go.
type UserRole struct {
	ID      int64
	UserID  int64
	RoleID  int64
	StartAt string
	EndAt   string
	User    *directory.User
	Role    *Role
}

// Active reports whether the assignment window covers now. Assignments
// with unparseable bounds count as active.
func (ur UserRole) Active(now time.Time) bool {
	if start, ok := parseWindow(ur.StartAt); ok && now.Before(start) {
		return false
	}
	return !ur.Expired(now)
}

// Expired reports whether the assignment window has closed. Distinct
// from !Active: a window that has not opened yet is inactive but not
// expired, and must not be swept. Unparseable or empty end bounds never
// count as expired.
func (ur UserRole) Expired(now time.Time) bool {
	end, ok := parseWindow(ur.EndAt)
	return ok && now.After(end)
}

func parseWindow(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, windowLayout, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UserWithRoles is the overview row for the users-and-roles screen.
type UserWithRoles struct {
	User  directory.User
	Roles []UserRole
}
