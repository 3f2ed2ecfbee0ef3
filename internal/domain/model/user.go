//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// User is a TOM API user profile.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Institute    string     `json:"institute"`
	Role         int        `json:"role"`
	Email        string     `json:"email"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	Targets      []int64    `json:"targets,omitempty"`
	Observations []int64    `json:"observations,omitempty"`
}

// Active reports whether the account is active. Missing is treated as active.
func (u User) Active() bool { return u.IsActive == nil || *u.IsActive }

// UserUpdate carries editable profile fields.
type UserUpdate struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Institute *string `json:"institute,omitempty"`
}

// UserRoleUpdate changes a user's role.
type UserRoleUpdate struct {
	Role int `json:"role"`
}
