package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

// Patch is a partial update.
// nil pointer => "no change"
// empty string for Project => clear (set to nil)
// double pointers (DueBy, CompletedOn, OverduePosition) distinguish
// "set to value" from "clear": outer nil = no change, inner nil = clear.
type Patch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty"`
	Project     *string         `json:"project,omitempty"`
	Tags        *[]string       `json:"tags,omitempty"`
	Completed   *bool           `json:"completed,omitempty"`

	DueBy       **model.DueBy       `json:"-"`
	CompletedOn **model.CompletedOn `json:"-"`

	Position        *int  `json:"-"`
	OverduePosition **int `json:"-"`

	// ExpectRev, when set, makes the update compare-and-swap: the
	// write fails with ErrConflict unless the stored rev still matches.
	ExpectRev *int64 `json:"-"`
}

type Repo interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, owner string, id model.TaskID) (model.Task, error)
	Update(ctx context.Context, owner string, id model.TaskID, p Patch) (model.Task, error)
	Delete(ctx context.Context, owner string, id model.TaskID) error
	ListOwner(ctx context.Context, owner string) ([]model.Task, error)
}

func newID(prefix string) model.TaskID {
	return model.TaskID(prefix + "_" + uuid.NewString())
}

func normalizeTask(t *model.Task) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
}

func applyPatch(t *model.Task, p Patch) error {
	if p.ExpectRev != nil && *p.ExpectRev != t.Rev {
		return ErrConflict
	}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Project != nil {
		if *p.Project == "" {
			t.Project = nil
		} else {
			t.Project = p.Project
		}
	}
	if p.Tags != nil {
		if *p.Tags == nil {
			t.Tags = []string{}
		} else {
			t.Tags = *p.Tags
		}
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueBy != nil {
		t.DueBy = *p.DueBy
	}
	if p.CompletedOn != nil {
		t.CompletedOn = *p.CompletedOn
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.OverduePosition != nil {
		t.OverduePosition = *p.OverduePosition
	}

	t.Rev++
	return nil
}

// MemoryRepo keeps everything in a flat map. Used by tests and as the
// "memory" storage driver.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]model.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: map[model.TaskID]model.Task{}}
}

func (r *MemoryRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	t.ID = newID("task")
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Rev = 1
	normalizeTask(&t)

	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) getLocked(owner string, id model.TaskID) (model.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	if t.OwnerID != owner {
		return model.Task{}, ErrForbidden
	}
	normalizeTask(&t)
	return t, nil
}

func (r *MemoryRepo) Get(ctx context.Context, owner string, id model.TaskID) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(owner, id)
}

func (r *MemoryRepo) Update(ctx context.Context, owner string, id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.getLocked(owner, id)
	if err != nil {
		return model.Task{}, err
	}
	if err := applyPatch(&t, p); err != nil {
		return model.Task{}, err
	}
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, owner string, id model.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.getLocked(owner, id); err != nil {
		return err
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepo) ListOwner(ctx context.Context, owner string) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.OwnerID != owner {
			continue
		}
		normalizeTask(&t)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
