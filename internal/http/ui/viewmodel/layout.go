package viewmodel

import "github.com/tomobs/tom-portal/internal/domain/auth"

// User represents the authenticated user exposed to the front-end chrome.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Layout captures shared chrome metadata (navigation state, auth flags).
type Layout struct {
	IsAuthenticated bool  `json:"authenticated"`
	CanManageUsers  bool  `json:"can_manage_users"`
	CanAnnounce     bool  `json:"can_announce"`
	CanViewETLLogs  bool  `json:"can_view_etl_logs"`
	User            *User `json:"user,omitempty"`
}

// NewLayout derives navigation flags from the session; nil means signed out.
func NewLayout(s *auth.Session) Layout {
	if s == nil {
		return Layout{}
	}
	role := s.Role
	return Layout{
		IsAuthenticated: true,
		CanManageUsers:  auth.IsAuthorized(&role, auth.UserAdminRoles()),
		CanAnnounce:     auth.IsAuthorized(&role, auth.AnnouncerRoles()),
		CanViewETLLogs:  auth.IsAuthorized(&role, auth.ETLLogRoles()),
		User: &User{
			Username: s.Username,
			Email:    s.Email,
			Role:     role.String(),
		},
	}
}
