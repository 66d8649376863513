package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

func TestMemoryRepo_CreateDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{OwnerID: testOwner, Title: "x"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Rev)
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.NotNil(t, created.Tags)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestMemoryRepo_UpdateBumpsRev(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{OwnerID: testOwner, Title: "x"})
	require.NoError(t, err)

	title := "renamed"
	updated, err := repo.Update(ctx, testOwner, created.ID, Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, int64(2), updated.Rev)
}

func TestMemoryRepo_ExpectRevConflict(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{OwnerID: testOwner, Title: "x"})
	require.NoError(t, err)

	stale := created.Rev
	title := "first"
	_, err = repo.Update(ctx, testOwner, created.ID, Patch{Title: &title, ExpectRev: &stale})
	require.NoError(t, err)

	// Second writer still holds the old rev.
	title = "second"
	_, err = repo.Update(ctx, testOwner, created.ID, Patch{Title: &title, ExpectRev: &stale})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := repo.Get(ctx, testOwner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestMemoryRepo_PatchClearSemantics(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{
		OwnerID: testOwner,
		Title:   "x",
		Project: strPtr("home"),
		DueBy:   dueOn("2025-09-10"),
	})
	require.NoError(t, err)

	empty := ""
	var noDue *model.DueBy
	updated, err := repo.Update(ctx, testOwner, created.ID, Patch{
		Project: &empty,
		DueBy:   &noDue,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Project)
	assert.Nil(t, updated.DueBy)
}

func TestMemoryRepo_DeleteAndList(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	a, err := repo.Create(ctx, model.Task{OwnerID: testOwner, Title: "a"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.Task{OwnerID: testOwner, Title: "b"})
	require.NoError(t, err)
	theirs, err := repo.Create(ctx, model.Task{OwnerID: "user_mallory", Title: "theirs"})
	require.NoError(t, err)

	ts, err := repo.ListOwner(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, ts, 2)

	require.NoError(t, repo.Delete(ctx, testOwner, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, testOwner, a.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, testOwner, theirs.ID), ErrForbidden)
}
