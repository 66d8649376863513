package task

import (
	"context"
	"time"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
	"github.com/tdebasis/rhythmai-task-service/internal/telemetry"
)

// Service owns the read-compute-write cycles around positions and
// classification. Handlers stay thin.
type Service struct {
	repo   Repo
	now    func() time.Time
	events telemetry.Recorder
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetRecorder turns on activity event collection. Recording is
// best-effort and never fails an operation.
func (s *Service) SetRecorder(rec telemetry.Recorder) {
	s.events = rec
}

func (s *Service) record(et telemetry.EventType, meta telemetry.EventMetadata) {
	if s.events != nil {
		_ = s.events.Record(et, meta)
	}
}

// CreateRequest carries the fields a caller may set at creation, plus
// an optional placement hint. At most one hint may be used.
type CreateRequest struct {
	Title       string
	Description string
	Priority    model.Priority
	Project     *string
	Tags        []string
	DueBy       *model.DueBy

	Position    *int         // exact position
	InsertAfter model.TaskID // place directly after this task
	InsertAtTop bool
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func validateDueBy(d *model.DueBy) error {
	if d == nil {
		return nil
	}
	if !validDate(d.Date) {
		return invalidf("malformed due date %q, want YYYY-MM-DD", d.Date)
	}
	if d.Mode == "" {
		d.Mode = model.DueModeFixed
	}
	if d.Mode != model.DueModeFixed {
		return invalidf("unsupported due mode %q", d.Mode)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, owner string, req CreateRequest) (model.Task, error) {
	if req.Title == "" {
		return model.Task{}, invalidf("title is required")
	}
	if err := validateDueBy(req.DueBy); err != nil {
		return model.Task{}, err
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}

	t := model.Task{
		OwnerID:     owner,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Project:     req.Project,
		Tags:        req.Tags,
		DueBy:       req.DueBy,
	}

	pos, err := s.initialPosition(ctx, owner, PrimaryBucket(t), req)
	if err != nil {
		return model.Task{}, err
	}
	t.Position = pos

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return model.Task{}, err
	}
	s.record(telemetry.EventTaskCreated, telemetry.EventMetadata{
		"task":    string(created.ID),
		"owner":   owner,
		"project": strOrEmpty(created.Project),
	})
	return created, nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// initialPosition resolves a creation placement hint; the default is
// append to the bucket's end.
func (s *Service) initialPosition(ctx context.Context, owner string, bucket Bucket, req CreateRequest) (int, error) {
	hints := 0
	if req.Position != nil {
		hints++
	}
	if req.InsertAfter != "" {
		hints++
	}
	if req.InsertAtTop {
		hints++
	}
	if hints > 1 {
		return 0, invalidf("at most one of position, insertAfter, insertAtTop may be set")
	}

	if req.Position != nil {
		return *req.Position, nil
	}

	members, err := s.bucketMembers(ctx, owner, bucket)
	if err != nil {
		return 0, err
	}
	positions := positionsOf(members)

	if req.InsertAfter != "" {
		ref, err := s.repo.Get(ctx, owner, req.InsertAfter)
		if err != nil {
			return 0, err
		}
		if PrimaryBucket(ref) != bucket {
			return 0, invalidf("insertAfter task %s is in bucket %q, not %q", ref.ID, PrimaryBucket(ref), bucket)
		}
		return allocate(positions, PlaceAfter, ref.Position), nil
	}
	if req.InsertAtTop {
		return allocate(positions, PlaceTop, 0), nil
	}
	return allocate(positions, PlaceBottom, 0), nil
}

// UpdateRequest is the service-level patch. DueBy and Completed use
// double/boolean pointers so "leave alone", "set" and "clear" are all
// expressible.
type UpdateRequest struct {
	Title       *string
	Description *string
	Priority    *model.Priority
	Project     *string // empty clears
	Tags        *[]string
	DueBy       **model.DueBy
	Completed   *bool

	Position    *int
	InsertAfter model.TaskID
	InsertAtTop bool

	// Timezone is the caller's IANA zone, used to stamp CompletedOn
	// and to detect overdue transitions. Empty means UTC.
	Timezone string
}

func (s *Service) Update(ctx context.Context, owner string, id model.TaskID, req UpdateRequest) (model.Task, error) {
	loc, err := LoadLocation(req.Timezone)
	if err != nil {
		return model.Task{}, err
	}

	cur, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return model.Task{}, err
	}
	now := s.now()
	wasOverdue := Classify(cur, now, loc) == ClassOverdue

	p := Patch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Project:     req.Project,
		Tags:        req.Tags,
	}
	if req.Priority != nil {
		switch *req.Priority {
		case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
		default:
			return model.Task{}, invalidf("unknown priority %q", *req.Priority)
		}
	}

	next := cur
	if req.DueBy != nil {
		if err := validateDueBy(*req.DueBy); err != nil {
			return model.Task{}, err
		}
		p.DueBy = req.DueBy
		next.DueBy = *req.DueBy
	}
	if req.Completed != nil {
		p.Completed = req.Completed
		next.Completed = *req.Completed
		if *req.Completed {
			done := &model.CompletedOn{
				Date: now.In(loc).Format(dateLayout),
				Time: now,
			}
			p.CompletedOn = &done
			next.CompletedOn = done
		} else {
			var cleared *model.CompletedOn
			p.CompletedOn = &cleared
			next.CompletedOn = nil
		}
	}

	bucketChanged := req.DueBy != nil && PrimaryBucket(next) != PrimaryBucket(cur)

	if pos, ok, err := s.updatePosition(ctx, owner, next, bucketChanged, req); err != nil {
		return model.Task{}, err
	} else if ok {
		p.Position = &pos
	}

	// Once a task leaves the overdue classification its stale
	// overduePosition must not influence any future ordering.
	if wasOverdue && Classify(next, now, loc) != ClassOverdue {
		var cleared *int
		p.OverduePosition = &cleared
	}

	p.ExpectRev = &cur.Rev
	updated, err := s.repo.Update(ctx, owner, id, p)
	if err != nil {
		return model.Task{}, err
	}
	if req.Completed != nil && *req.Completed != cur.Completed {
		et := telemetry.EventTaskCompleted
		if !*req.Completed {
			et = telemetry.EventTaskReopened
		}
		s.record(et, telemetry.EventMetadata{
			"task":    string(updated.ID),
			"owner":   owner,
			"project": strOrEmpty(updated.Project),
		})
	}
	return updated, nil
}

// updatePosition resolves the position consequences of an update:
// an explicit hint wins; otherwise a bucket change appends to the end
// of the new bucket.
func (s *Service) updatePosition(ctx context.Context, owner string, next model.Task, bucketChanged bool, req UpdateRequest) (int, bool, error) {
	hints := 0
	if req.Position != nil {
		hints++
	}
	if req.InsertAfter != "" {
		hints++
	}
	if req.InsertAtTop {
		hints++
	}
	if hints > 1 {
		return 0, false, invalidf("at most one of position, insertAfter, insertAtTop may be set")
	}

	if req.Position != nil {
		return *req.Position, true, nil
	}

	if hints == 0 && !bucketChanged {
		return 0, false, nil
	}

	bucket := PrimaryBucket(next)
	members, err := s.bucketMembers(ctx, owner, bucket)
	if err != nil {
		return 0, false, err
	}
	// The task itself may still be listed under its old position.
	members = excludeTask(members, next.ID)
	positions := positionsOf(members)

	switch {
	case req.InsertAfter != "":
		ref, err := s.repo.Get(ctx, owner, req.InsertAfter)
		if err != nil {
			return 0, false, err
		}
		if PrimaryBucket(ref) != bucket {
			return 0, false, invalidf("insertAfter task %s is in bucket %q, not %q", ref.ID, PrimaryBucket(ref), bucket)
		}
		return allocate(positions, PlaceAfter, ref.Position), true, nil
	case req.InsertAtTop:
		return allocate(positions, PlaceTop, 0), true, nil
	default:
		return allocate(positions, PlaceBottom, 0), true, nil
	}
}

func (s *Service) Get(ctx context.Context, owner string, id model.TaskID) (model.Task, error) {
	return s.repo.Get(ctx, owner, id)
}

func (s *Service) Delete(ctx context.Context, owner string, id model.TaskID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.record(telemetry.EventTaskDeleted, telemetry.EventMetadata{
		"task":  string(id),
		"owner": owner,
	})
	return nil
}

// bucketMembers returns the owner's tasks whose primary bucket matches.
func (s *Service) bucketMembers(ctx context.Context, owner string, bucket Bucket) ([]model.Task, error) {
	all, err := s.repo.ListOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if PrimaryBucket(t) == bucket {
			out = append(out, t)
		}
	}
	return out, nil
}

func positionsOf(members []model.Task) []int {
	out := make([]int, 0, len(members))
	for _, t := range members {
		out = append(out, t.Position)
	}
	return out
}

func excludeTask(members []model.Task, id model.TaskID) []model.Task {
	out := make([]model.Task, 0, len(members))
	for _, t := range members {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
