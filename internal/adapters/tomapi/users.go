package tomapi

import (
	"context"
	"net/http"
	"strconv"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	"github.com/tomobs/tom-portal/internal/domain/model"
	"github.com/tomobs/tom-portal/internal/ports"
)

var _ ports.ProfileFetcher = (*Client)(nil)

// CurrentUser loads the profile behind an access token. It does not retry on 401.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (domainauth.Profile, error) {
	var u model.User
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "api/user/",
		bearer:   accessToken,
		resource: "user",
	}, &u)
	if err != nil {
		return domainauth.Profile{}, err
	}
	return profileFromUser(u), nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, request{method: http.MethodGet, path: "api/user/", auth: true, resource: "user"}, &u)
	return u, err
}

// UpdateProfile edits the signed-in user's own profile.
func (c *Client) UpdateProfile(ctx context.Context, id int64, in model.UserUpdate) (model.User, error) {
	var u model.User
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "api/user/" + strconv.FormatInt(id, 10) + "/edit/",
		body:     in,
		auth:     true,
		resource: "user",
	}, &u)
	return u, err
}

// ListUsers returns every user. The TOM API restricts this to admins.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, request{method: http.MethodGet, path: "api/users/", auth: true, resource: "users"}, &users)
	return users, err
}

// SetUserRole changes a user's role.
func (c *Client) SetUserRole(ctx context.Context, id int64, role domainauth.Role) (model.User, error) {
	var u model.User
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "api/user/" + strconv.FormatInt(id, 10) + "/",
		body:     model.UserRoleUpdate{Role: int(role)},
		auth:     true,
		resource: "user_role",
	}, &u)
	return u, err
}

// DeleteAccount deactivates a user. The TOM API only lets users delete themselves.
func (c *Client) DeleteAccount(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "api/user/" + strconv.FormatInt(id, 10) + "/delete/",
		auth:     true,
		resource: "user_delete",
	}, nil)
}

func profileFromUser(u model.User) domainauth.Profile {
	return domainauth.Profile{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Institute: u.Institute,
		Role:      domainauth.Role(u.Role),
		IsActive:  u.Active(),
	}
}
