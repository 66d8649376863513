package task

import (
	"context"
	"time"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
	"github.com/tdebasis/rhythmai-task-service/internal/telemetry"
)

// MoveRequest names exactly one placement strategy. Moving never
// changes the task's date or bucket; cross-bucket moves go through
// Update with a new due date.
type MoveRequest struct {
	InsertAfter  model.TaskID
	InsertBefore model.TaskID
	MoveToTop    bool
	MoveToBottom bool

	// Timezone is the caller's IANA zone, needed to detect the shared
	// overdue bucket. Empty means UTC.
	Timezone string
}

func (m MoveRequest) placement() (Placement, model.TaskID, error) {
	n := 0
	var (
		place Placement
		ref   model.TaskID
	)
	if m.InsertAfter != "" {
		n, place, ref = n+1, PlaceAfter, m.InsertAfter
	}
	if m.InsertBefore != "" {
		n, place, ref = n+1, PlaceBefore, m.InsertBefore
	}
	if m.MoveToTop {
		n, place = n+1, PlaceTop
	}
	if m.MoveToBottom {
		n, place = n+1, PlaceBottom
	}
	if n != 1 {
		return 0, "", invalidf("exactly one of insertAfter, insertBefore, moveToTop, moveToBottom must be set")
	}
	return place, ref, nil
}

// Move runs the single transition Received -> Validated -> Positioned
// -> Persisted, or rejects. When the acting and reference tasks live
// in different buckets but are both currently overdue, the move is
// promoted to the shared overdue ordering; the caller never names the
// overdue bucket explicitly.
func (s *Service) Move(ctx context.Context, owner string, id model.TaskID, req MoveRequest) (model.Task, error) {
	place, refID, err := req.placement()
	if err != nil {
		return model.Task{}, err
	}
	loc, err := LoadLocation(req.Timezone)
	if err != nil {
		return model.Task{}, err
	}

	t, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return model.Task{}, err
	}
	bucket := PrimaryBucket(t)

	var ref model.Task
	overdueMove := false
	if refID != "" {
		ref, err = s.repo.Get(ctx, owner, refID)
		if err != nil {
			return model.Task{}, err
		}
		if refBucket := PrimaryBucket(ref); refBucket != bucket {
			now := s.now()
			if Classify(t, now, loc) == ClassOverdue && Classify(ref, now, loc) == ClassOverdue {
				overdueMove = true
			} else {
				return model.Task{}, invalidf("task %s is in bucket %q but reference task %s is in bucket %q", t.ID, bucket, ref.ID, refBucket)
			}
		}
	}

	if overdueMove {
		return s.moveWithinOverdue(ctx, owner, t, ref, place, loc)
	}

	members, err := s.bucketMembers(ctx, owner, bucket)
	if err != nil {
		return model.Task{}, err
	}
	positions := positionsOf(excludeTask(members, t.ID))

	refPos := 0
	if refID != "" {
		refPos = ref.Position
	}
	pos := allocate(positions, place, refPos)

	moved, err := s.repo.Update(ctx, owner, id, Patch{
		Position:  &pos,
		ExpectRev: &t.Rev,
	})
	if err != nil {
		return model.Task{}, err
	}
	s.record(telemetry.EventTaskMoved, telemetry.EventMetadata{
		"task":    string(moved.ID),
		"owner":   owner,
		"overdue": false,
	})
	return moved, nil
}

// moveWithinOverdue reorders inside the cross-cutting overdue bucket.
// Both tasks are guaranteed an overduePosition first, so the reference
// point exists even if no view query ran since they fell overdue.
func (s *Service) moveWithinOverdue(ctx context.Context, owner string, t, ref model.Task, place Placement, loc *time.Location) (model.Task, error) {
	overdue, err := s.overdueTasks(ctx, owner, loc)
	if err != nil {
		return model.Task{}, err
	}
	overdue, err = s.EnsureOverduePositions(ctx, owner, overdue)
	if err != nil {
		return model.Task{}, err
	}

	positions := make([]int, 0, len(overdue))
	var cur, refCur model.Task
	for _, o := range overdue {
		if o.ID == t.ID {
			cur = o
			continue
		}
		if o.ID == ref.ID {
			refCur = o
		}
		if o.OverduePosition != nil {
			positions = append(positions, *o.OverduePosition)
		}
	}
	if refCur.ID == "" || refCur.OverduePosition == nil {
		return model.Task{}, invalidf("reference task %s is not in the overdue bucket", ref.ID)
	}
	if cur.ID == "" {
		cur = t
	}

	pos := allocate(positions, place, *refCur.OverduePosition)
	posPtr := &pos

	moved, err := s.repo.Update(ctx, owner, t.ID, Patch{
		OverduePosition: &posPtr,
		ExpectRev:       &cur.Rev,
	})
	if err != nil {
		return model.Task{}, err
	}
	s.record(telemetry.EventTaskMoved, telemetry.EventMetadata{
		"task":    string(moved.ID),
		"owner":   owner,
		"overdue": true,
	})
	return moved, nil
}

func (s *Service) overdueTasks(ctx context.Context, owner string, loc *time.Location) ([]model.Task, error) {
	all, err := s.repo.ListOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if Classify(t, now, loc) == ClassOverdue {
			out = append(out, t)
		}
	}
	return out, nil
}
