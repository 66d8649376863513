package task

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

// DiskvRepo persists one JSON document per task under
// <dataDir>/<ownerID>/<taskID>. It is the default on-disk driver.
type DiskvRepo struct {
	// Serializes read-modify-write cycles; diskv only guarantees
	// atomicity per key.
	mu sync.Mutex
	d  *diskv.Diskv
}

func NewDiskvRepo(dataDir string) *DiskvRepo {
	return &DiskvRepo{d: diskv.New(diskv.Options{
		BasePath:          dataDir,
		AdvancedTransform: taskKeyTransform,
		InverseTransform:  taskPathTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}
}

func taskKeyTransform(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1] + ".json",
	}
}

func taskPathTransform(pk *diskv.PathKey) string {
	name := strings.TrimSuffix(pk.FileName, ".json")
	return strings.Join(append(append([]string{}, pk.Path...), name), "/")
}

func taskKey(owner string, id model.TaskID) string {
	return owner + "/" + string(id)
}

func (r *DiskvRepo) read(key string) (model.Task, error) {
	b, err := r.d.Read(key)
	if err != nil {
		return model.Task{}, ErrNotFound
	}
	var t model.Task
	if err := json.Unmarshal(b, &t); err != nil {
		return model.Task{}, err
	}
	normalizeTask(&t)
	return t, nil
}

func (r *DiskvRepo) write(key string, t model.Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.d.Write(key, b)
}

func (r *DiskvRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	t.ID = newID("task")
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Rev = 1
	normalizeTask(&t)

	if err := r.write(taskKey(t.OwnerID, t.ID), t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *DiskvRepo) Get(ctx context.Context, owner string, id model.TaskID) (model.Task, error) {
	return r.read(taskKey(owner, id))
}

func (r *DiskvRepo) Update(ctx context.Context, owner string, id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := taskKey(owner, id)
	t, err := r.read(key)
	if err != nil {
		return model.Task{}, err
	}
	if err := applyPatch(&t, p); err != nil {
		return model.Task{}, err
	}
	t.UpdatedAt = time.Now()
	if err := r.write(key, t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *DiskvRepo) Delete(ctx context.Context, owner string, id model.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := taskKey(owner, id)
	if _, err := r.read(key); err != nil {
		return err
	}
	return r.d.Erase(key)
}

func (r *DiskvRepo) ListOwner(ctx context.Context, owner string) ([]model.Task, error) {
	out := []model.Task{}
	for key := range r.d.KeysPrefix(owner+"/", ctx.Done()) {
		t, err := r.read(key)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
