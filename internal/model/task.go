package model

import (
	"time"
)

type TaskID string

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// DueMode controls how a due instant travels across timezones.
// Only "fixed" is implemented; "floating" is reserved.
type DueMode string

const DueModeFixed DueMode = "fixed"

// DueBy describes when a task is due. Date is always present
// (YYYY-MM-DD); Time is an optional absolute instant within that day.
type DueBy struct {
	Date string     `json:"date"`
	Time *time.Time `json:"time,omitempty"`
	Mode DueMode    `json:"mode"`
}

// CompletedOn records when a task was completed, stamped in the
// owner's timezone at the moment of completion.
type CompletedOn struct {
	Date string    `json:"date"`
	Time time.Time `json:"time"`
}

type Task struct {
	ID          TaskID   `json:"id"`
	OwnerID     string   `json:"ownerId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Project     *string  `json:"project,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Completed   bool     `json:"completed"`

	DueBy       *DueBy       `json:"dueBy,omitempty"`
	CompletedOn *CompletedOn `json:"completedOn,omitempty"`

	// Position orders the task within its bucket. OverduePosition is
	// assigned lazily the first time the task is observed overdue and
	// orders it within the cross-cutting overdue bucket only.
	Position        int  `json:"position"`
	OverduePosition *int `json:"overduePosition,omitempty"`

	// Rev guards read-modify-write position updates.
	Rev int64 `json:"rev"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
