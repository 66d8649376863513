package task

import (
	"context"
	"sort"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

// View is the typed form of the "view" query parameter. Parsing happens
// once at the edge; storage-layer code only ever sees the enum.
type View int

const (
	ViewAll View = iota
	ViewInbox
	ViewToday
	ViewUpcoming
)

func ParseView(s string) (View, error) {
	switch s {
	case "":
		return ViewAll, nil
	case "inbox":
		return ViewInbox, nil
	case "today":
		return ViewToday, nil
	case "upcoming":
		return ViewUpcoming, nil
	default:
		return 0, invalidf("unknown view %q", s)
	}
}

func matchesCompleted(t model.Task, completed *bool) bool {
	return completed == nil || t.Completed == *completed
}

// List evaluates a view for one owner in the caller's timezone.
// The today view triggers the overdue position backfill.
func (s *Service) List(ctx context.Context, owner string, view View, completed *bool, tz string) ([]model.Task, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.ListOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := s.now()
	w := WindowFor(now, loc)

	switch view {
	case ViewInbox:
		out := []model.Task{}
		for _, t := range all {
			if Classify(t, now, loc) != ClassInbox {
				continue
			}
			// Tasks captured and completed today stay visible even
			// when the filter asks for incomplete ones.
			if matchesCompleted(t, completed) || CompletedIn(t, w) {
				out = append(out, t)
			}
		}
		sortByPosition(out)
		return out, nil

	case ViewToday:
		var overdue, today []model.Task
		for _, t := range all {
			switch Classify(t, now, loc) {
			case ClassOverdue:
				overdue = append(overdue, t)
			case ClassDueToday:
				today = append(today, t)
			default:
				if CompletedIn(t, w) {
					today = append(today, t)
				}
			}
		}
		overdue, err = s.EnsureOverduePositions(ctx, owner, overdue)
		if err != nil {
			return nil, err
		}
		sort.Slice(overdue, func(i, j int) bool {
			return overduePos(overdue[i]) < overduePos(overdue[j])
		})
		sortByPosition(today)
		return append(overdue, today...), nil

	case ViewUpcoming:
		out := []model.Task{}
		for _, t := range all {
			if Classify(t, now, loc) == ClassUpcoming && matchesCompleted(t, completed) {
				out = append(out, t)
			}
		}
		sortByDueDate(out)
		return out, nil

	default: // ViewAll
		out := []model.Task{}
		for _, t := range all {
			if matchesCompleted(t, completed) {
				out = append(out, t)
			}
		}
		sortByDueDate(out)
		return out, nil
	}
}

func overduePos(t model.Task) int {
	if t.OverduePosition == nil {
		return 0
	}
	return *t.OverduePosition
}

func sortByPosition(ts []model.Task) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Position < ts[j].Position })
}

// sortByDueDate orders by due date ascending (undated last), ties
// broken by position.
func sortByDueDate(ts []model.Task) {
	sort.Slice(ts, func(i, j int) bool {
		di, dj := ts[i].DueBy, ts[j].DueBy
		switch {
		case di == nil && dj == nil:
			return ts[i].Position < ts[j].Position
		case di == nil:
			return false
		case dj == nil:
			return true
		case di.Date != dj.Date:
			return di.Date < dj.Date
		default:
			return ts[i].Position < ts[j].Position
		}
	})
}
