package project

import (
	"context"
	"sort"
	"sync"
	"time"
)

type key struct {
	owner string
	name  string
}

type MemoryRepo struct {
	mu sync.RWMutex
	m  map[key]Project
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{m: make(map[key]Project)}
}

func (r *MemoryRepo) Create(ctx context.Context, owner, name, color string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{owner: owner, name: name}
	if _, exists := r.m[k]; exists {
		return Project{}, ErrExists
	}
	now := time.Now()
	p := Project{
		Name:      name,
		OwnerID:   owner,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.m[k] = p
	return p, nil
}

func (r *MemoryRepo) Get(ctx context.Context, owner, name string) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.m[key{owner: owner, name: name}]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) List(ctx context.Context, owner string, includeArchived bool) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Project, 0)
	for k, p := range r.m {
		if k.owner != owner {
			continue
		}
		if p.Archived && !includeArchived {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) SetArchived(ctx context.Context, owner, name string, archived bool) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{owner: owner, name: name}
	p, ok := r.m[k]
	if !ok {
		return Project{}, ErrNotFound
	}
	p.Archived = archived
	p.UpdatedAt = time.Now()
	r.m[k] = p
	return p, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, owner, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{owner: owner, name: name}
	if _, ok := r.m[k]; !ok {
		return ErrNotFound
	}
	delete(r.m, k)
	return nil
}
