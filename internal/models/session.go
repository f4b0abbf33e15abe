package models

import "time"

// Role identifies which dashboard a user gets.
type Role string

// Known roles.
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User is the profile returned by the login endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session represents the authenticated identity of the current user.
type Session struct {
	User
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Expired reports whether the token expiry has passed. A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Session storage keys. Students and admins keep separate entries so both
// can be logged in side by side.
const (
	SessionKeyStudentToken = "token"
	SessionKeyStudentUser  = "user"
	SessionKeyAdminToken   = "adminToken"
	SessionKeyAdminUser    = "adminUser"
)

// SessionKeys returns the token and profile keys for a role.
func SessionKeys(r Role) (tokenKey, userKey string) {
	if r == RoleAdmin {
		return SessionKeyAdminToken, SessionKeyAdminUser
	}
	return SessionKeyStudentToken, SessionKeyStudentUser
}
