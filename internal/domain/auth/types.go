package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role represents a user's privilege level on the TOM API.
// The integer values match the API's user.role field.
type Role int

const (
	RoleAdmin   Role = 1
	RoleFaculty Role = 2
	RoleUser    Role = 3
	RoleVisitor Role = 4
)

var roleNames = map[Role]string{
	RoleAdmin:   "admin",
	RoleFaculty: "faculty",
	RoleUser:    "user",
	RoleVisitor: "visitor",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// IsElevated reports whether the role may use administrative views.
func (r Role) IsElevated() bool { return r == RoleAdmin || r == RoleFaculty }

// ParseRole accepts either the role name ("faculty") or its integer code ("2").
func ParseRole(s string) (Role, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if v == name {
			return role, nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil && Role(n).Valid() {
		return Role(n), nil
	}
	return 0, fmt.Errorf("invalid role: %q (valid options: admin, faculty, user, visitor)", s)
}

// RoleSet is an unordered set of roles allowed through a guard.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// ElevatedRoles is the set used by administrative views.
func ElevatedRoles() RoleSet { return NewRoleSet(RoleAdmin, RoleFaculty) }

// Contains reports membership.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Credentials are the token pair issued by the TOM API for one session.
// AccessToken is replaced on refresh; RefreshToken is only ever read.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// NeedsRefresh reports whether the access token is missing or expires within skew of now.
// A zero Expiry means unknown and is treated as still valid.
func (c Credentials) NeedsRefresh(now time.Time, skew time.Duration) bool {
	if c.AccessToken == "" {
		return true
	}
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(skew).Before(c.Expiry)
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID          string      `json:"id"`
	UserID      int64       `json:"user_id"`
	Username    string      `json:"username"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	Institute   string      `json:"institute"`
	Role        Role        `json:"role"`
	Credentials Credentials `json:"credentials"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// IsElevated returns true if the session belongs to an admin or faculty member.
func (s Session) IsElevated() bool { return s.Role.IsElevated() }

// Profile is the subset of the TOM API user used to open a session.
type Profile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Email     string
	Institute string
	Role      Role
	IsActive  bool
}
