//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ObservationStatus is the lifecycle state of an observation request.
type ObservationStatus int

const (
	StatusPrep       ObservationStatus = 1
	StatusPending    ObservationStatus = 2
	StatusInProgress ObservationStatus = 3
	StatusDone       ObservationStatus = 4
	StatusExpired    ObservationStatus = 5
	StatusDenied     ObservationStatus = 6
	StatusPostponed  ObservationStatus = 7
)

var statusLabels = map[ObservationStatus]string{
	StatusPrep:       "Prep.",
	StatusPending:    "Pending",
	StatusInProgress: "In progress",
	StatusDone:       "DONE",
	StatusExpired:    "EXPIRED",
	StatusDenied:     "DENIED",
	StatusPostponed:  "Postponed",
}

// Label returns the display label, or the number for unknown values.
func (s ObservationStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return strconv.Itoa(int(s))
}

// ObservationPriority orders observation requests.
type ObservationPriority int

const (
	PriorityHigh   ObservationPriority = 1
	PriorityMedium ObservationPriority = 2
	PriorityLow    ObservationPriority = 3
	PriorityToO    ObservationPriority = 4
)

var priorityLabels = map[ObservationPriority]string{
	PriorityHigh:   "HIGH",
	PriorityMedium: "MEDIUM",
	PriorityLow:    "LOW",
	PriorityToO:    "TOO",
}

func (p ObservationPriority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return strconv.Itoa(int(p))
}

// ObservatoryLulin is the only observatory the API schedules against.
const ObservatoryLulin = 1

// Comment is a note attached to an observation.
type Comment struct {
	ID        int64   `json:"id,omitempty"`
	User      *User   `json:"user,omitempty"`
	Context   string  `json:"context"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

// CommentCreate is a message posted to an observation's discussion.
type CommentCreate struct {
	Message string `json:"message"`
}

// Validate requires a non-blank message.
func (c CommentCreate) Validate() error {
	if strings.TrimSpace(c.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// Observation is a scheduled or completed request to observe one or more targets.
type Observation struct {
	ID          int64               `json:"id"`
	User        *User               `json:"user,omitempty"`
	Name        string              `json:"name"`
	Observatory int                 `json:"observatory"`
	Priority    ObservationPriority `json:"priority"`
	Status      ObservationStatus   `json:"status"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date"`
	CreatedAt   *time.Time          `json:"created_at,omitempty"`
	UpdatedAt   *time.Time          `json:"updated_at,omitempty"`
	Tags        []Tag               `json:"tags"`
	Comments    []Comment           `json:"comments"`
	Targets     []Target            `json:"targets,omitempty"`
	Code        string              `json:"code,omitempty"`
}

// ObservationCreate is the payload for creating an observation.
type ObservationCreate struct {
	Name        string              `json:"name,omitempty"`
	Observatory int                 `json:"observatory"`
	Priority    ObservationPriority `json:"priority"`
	Status      ObservationStatus   `json:"status,omitempty"`
	StartDate   time.Time           `json:"start_date"`
	EndDate     time.Time           `json:"end_date"`
	Tags        []int64             `json:"tags"`
	Targets     []int64             `json:"targets,omitempty"`
	Code        string              `json:"code,omitempty"`
}

// Validate checks the priority and the observing window.
func (o ObservationCreate) Validate() error {
	if _, ok := priorityLabels[o.Priority]; !ok {
		return errors.New("priority must be one of HIGH, MEDIUM, LOW, TOO")
	}
	if o.StartDate.IsZero() || o.EndDate.IsZero() {
		return errors.New("start_date and end_date are required")
	}
	if !o.EndDate.After(o.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}

// ObservationUpdate carries partial observation changes.
type ObservationUpdate struct {
	Name      *string              `json:"name,omitempty"`
	Priority  *ObservationPriority `json:"priority,omitempty"`
	Status    *ObservationStatus   `json:"status,omitempty"`
	StartDate *string              `json:"start_date,omitempty"`
	EndDate   *string              `json:"end_date,omitempty"`
	Targets   []int64              `json:"targets,omitempty"`
	Code      *string              `json:"code,omitempty"`
}

// ObservationFilter narrows observation listings.
type ObservationFilter struct {
	ListOptions
	Name   string
	Tags   []int64
	Users  []int64
	Status []ObservationStatus
}

// CountBucket is one group of an aggregate count.
type CountBucket struct {
	ID    int `json:"id"`
	Name  any `json:"name"`
	Count int `json:"count"`
}

// ObservationStats aggregates observations across the platform.
type ObservationStats struct {
	TotalObservations int           `json:"total_observations"`
	TotalTargets      int           `json:"total_targets"`
	TotalUsers        int           `json:"total_users"`
	ObservatoryCounts []CountBucket `json:"observatory_counts"`
	PriorityCounts    []CountBucket `json:"priority_counts"`
	StatusCounts      []CountBucket `json:"status_counts"`
}
