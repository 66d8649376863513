package task

import (
	"time"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

const dateLayout = "2006-01-02"

// Class is a task's temporal classification at a given instant.
type Class int

const (
	// ClassNone covers tasks outside every temporal bucket: grouped
	// tasks without a due date, and completed tasks whose due date
	// already passed.
	ClassNone Class = iota
	ClassInbox
	ClassDueToday
	ClassOverdue
	ClassUpcoming
)

func (c Class) String() string {
	switch c {
	case ClassInbox:
		return "inbox"
	case ClassDueToday:
		return "due_today"
	case ClassOverdue:
		return "overdue"
	case ClassUpcoming:
		return "upcoming"
	default:
		return "none"
	}
}

// Bucket identifies the ordering scope a position value is relative to.
// It is derived from the task's own fields, never stored.
type Bucket string

const (
	BucketInbox   Bucket = "inbox"
	BucketOverdue Bucket = "overdue"
)

func DateBucket(date string) Bucket {
	return Bucket("date:" + date)
}

// PrimaryBucket is the bucket the task's Position field is scoped to.
// Overdue is a cross-cutting view; an overdue task's primary bucket is
// still its due-date bucket.
func PrimaryBucket(t model.Task) Bucket {
	if t.DueBy == nil {
		return BucketInbox
	}
	return DateBucket(t.DueBy.Date)
}

// LoadLocation resolves a caller-asserted IANA timezone name.
// Empty means UTC; "today" must reflect the owner's wall clock,
// never the server's.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, invalidf("unknown timezone %q", tz)
	}
	return loc, nil
}

// DayWindow is the owner's current calendar day: [Start, End) plus the
// ISO date string used for date-only comparisons.
type DayWindow struct {
	Date  string
	Start time.Time
	End   time.Time
}

func WindowFor(now time.Time, loc *time.Location) DayWindow {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayWindow{
		Date:  local.Format(dateLayout),
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}
}

// Classify is a pure function of (task, now, owner timezone).
func Classify(t model.Task, now time.Time, loc *time.Location) Class {
	if t.DueBy == nil {
		if t.Project == nil {
			return ClassInbox
		}
		return ClassNone
	}

	w := WindowFor(now, loc)

	// Date comparison is lexicographic; ISO dates sort correctly.
	if t.DueBy.Date < w.Date {
		if !t.Completed {
			return ClassOverdue
		}
		return ClassNone
	}

	if t.DueBy.Time != nil {
		at := *t.DueBy.Time
		if at.Before(w.End) {
			return ClassDueToday
		}
		return ClassUpcoming
	}

	if t.DueBy.Date == w.Date {
		return ClassDueToday
	}
	return ClassUpcoming
}

// CompletedIn reports whether the task's completion instant falls
// inside the window. A task completed today is always visible in the
// today view regardless of its original due date.
func CompletedIn(t model.Task, w DayWindow) bool {
	if t.CompletedOn == nil {
		return false
	}
	if !t.CompletedOn.Time.IsZero() {
		at := t.CompletedOn.Time
		return !at.Before(w.Start) && at.Before(w.End)
	}
	return t.CompletedOn.Date == w.Date
}
