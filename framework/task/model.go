// Package task tracks units of work through their lifecycle: a task is
// stored pending, queued, moved through statuses, and leaves the queue when
// it completes or fails.
package task

import (
	"fmt"
	"time"
)

// Status is a task lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further work happens in s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ParseStatus validates a status name.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
	return s, nil
}

// Event names what triggered a task.
type Event string

const EventTest Event = "test"

// ParseEvent validates an event name.
func ParseEvent(name string) (Event, error) {
	switch e := Event(name); e {
	case EventTest:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEvent, name)
}

// Task is the stored form of a unit of work.
type Task struct {
	ID        string         `json:"_id,omitempty"`
	Event     Event          `json:"event"`
	Status    Status         `json:"status"`
	Data      map[string]any `json:"data"`
	Author    string         `json:"author"`
	History   []Status       `json:"history"`
	Log       []string       `json:"log"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}
