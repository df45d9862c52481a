package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

const defaultCategory = "General"

// ErrInvalidDraft is returned when a task draft cannot become a task.
var ErrInvalidDraft = errors.New("invalid task draft")

// ParsePriority maps a case-insensitive priority name onto the enum.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single board item.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate,omitempty"`
}

// TaskDraft carries the caller supplied fields of a task that does not exist yet.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate,omitempty"`
}

// Normalize trims the draft and fills in the defaults used by the board
// when category or priority are left blank.
func (d TaskDraft) Normalize() TaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.DueDate = strings.TrimSpace(d.DueDate)
	if d.Category == "" {
		d.Category = defaultCategory
	}
	if d.Priority == "" {
		d.Priority = PriorityLow
	} else if p, err := ParsePriority(string(d.Priority)); err == nil {
		d.Priority = p
	}
	return d
}

// Validate checks a normalized draft.
func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDraft)
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidDraft, d.Priority)
	}
	return nil
}

func (d TaskDraft) task(id string) Task {
	return Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
	}
}
