package task

import (
	"context"
	"sort"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 2
	case model.PriorityMedium:
		return 1
	default:
		return 0
	}
}

// EnsureOverduePositions backfills overduePosition for tasks observed
// overdue for the first time, without disturbing existing assignments.
// It is an explicit step in the view/move pipeline rather than a hidden
// side effect, and it is idempotent: a second run over the same set is
// a no-op.
//
// New arrivals are appended after the highest existing position,
// ordered by priority (high first), then original due date, then
// original position — a sensible default for tasks that fell through
// from different days.
func (s *Service) EnsureOverduePositions(ctx context.Context, owner string, overdue []model.Task) ([]model.Task, error) {
	base := 0
	var unpositioned []model.Task
	for _, t := range overdue {
		if t.OverduePosition == nil {
			unpositioned = append(unpositioned, t)
			continue
		}
		if *t.OverduePosition > base {
			base = *t.OverduePosition
		}
	}
	if len(unpositioned) == 0 {
		return overdue, nil
	}

	sort.SliceStable(unpositioned, func(i, j int) bool {
		a, b := unpositioned[i], unpositioned[j]
		if pa, pb := priorityRank(a.Priority), priorityRank(b.Priority); pa != pb {
			return pa > pb
		}
		if a.DueBy != nil && b.DueBy != nil && a.DueBy.Date != b.DueBy.Date {
			return a.DueBy.Date < b.DueBy.Date
		}
		return a.Position < b.Position
	})

	assigned := make(map[model.TaskID]model.Task, len(unpositioned))
	for i, t := range unpositioned {
		pos := base + (i+1)*Gap
		posPtr := &pos
		updated, err := s.repo.Update(ctx, owner, t.ID, Patch{
			OverduePosition: &posPtr,
			ExpectRev:       &t.Rev,
		})
		if err != nil {
			return nil, err
		}
		assigned[t.ID] = updated
	}

	out := make([]model.Task, 0, len(overdue))
	for _, t := range overdue {
		if u, ok := assigned[t.ID]; ok {
			out = append(out, u)
		} else {
			out = append(out, t)
		}
	}
	return out, nil
}
