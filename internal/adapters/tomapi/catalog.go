package tomapi

import (
	"context"
	"net/http"

	"github.com/tomobs/tom-portal/internal/domain/model"
)

// ListTags returns the caller's tags.
func (c *Client) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := c.do(ctx, request{method: http.MethodGet, path: "api/tags/", auth: true, resource: "tags"}, &tags)
	return tags, err
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, in model.TagCreate) (model.Tag, error) {
	var tag model.Tag
	err := c.do(ctx, request{method: http.MethodPost, path: "api/tags/", body: in, auth: true, resource: "tags"}, &tag)
	return tag, err
}

// ListAnnouncements returns all announcements.
func (c *Client) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	var out []model.Announcement
	err := c.do(ctx, request{method: http.MethodGet, path: "api/announcements/", auth: true, resource: "announcements"}, &out)
	return out, err
}

// CreateAnnouncement publishes an announcement. Only admins and faculty may.
func (c *Client) CreateAnnouncement(ctx context.Context, in model.AnnouncementCreate) (model.Announcement, error) {
	var out model.Announcement
	err := c.do(ctx, request{method: http.MethodPost, path: "api/announcements/", body: in, auth: true, resource: "announcements"}, &out)
	return out, err
}

// ETLLogs returns the most recent data pipeline runs.
func (c *Client) ETLLogs(ctx context.Context) ([]model.ETLLog, error) {
	var out []model.ETLLog
	err := c.do(ctx, request{method: http.MethodGet, path: "api/logs/ETL/", auth: true, resource: "etl_logs"}, &out)
	return out, err
}
