//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Tag groups targets and observations.
type Tag struct {
	ID           int64   `json:"id,omitempty"`
	User         *User   `json:"user,omitempty"`
	Name         string  `json:"name"`
	Targets      []int64 `json:"targets"`
	Observations []int64 `json:"observations"`
}

// TagCreate is the payload for creating a tag.
type TagCreate struct {
	Name string `json:"name"`
}

// AnnouncementType distinguishes announcement banners.
type AnnouncementType int

// Announcement is a site-wide notice published by elevated users.
type Announcement struct {
	ID        int64            `json:"id,omitempty"`
	User      *User            `json:"user,omitempty"`
	Title     string           `json:"title"`
	Context   string           `json:"context"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	Type      AnnouncementType `json:"type"`
}

// AnnouncementCreate is the payload for publishing an announcement.
type AnnouncementCreate struct {
	Title   string           `json:"title"`
	Context string           `json:"context"`
	Type    AnnouncementType `json:"type"`
}

// Validate requires a title and body.
func (a AnnouncementCreate) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(a.Context) == "" {
		return errors.New("context is required")
	}
	return nil
}

// ETLLog records one run of the telescope data pipeline.
type ETLLog struct {
	Name          string    `json:"name"`
	Observatory   int       `json:"observatory"`
	Success       bool      `json:"success"`
	FileProcessed int       `json:"file_processed"`
	RowProcessed  int       `json:"row_processed"`
	CreatedAt     time.Time `json:"created_at"`
}
