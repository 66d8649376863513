package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

const testOwner = "user_alice"

// newTestService pins the clock to noon UTC on 2025-09-10.
func newTestService() (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func mustCreate(t *testing.T, svc *Service, req CreateRequest) model.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), testOwner, req)
	require.NoError(t, err)
	return task
}

func TestCreate_AppendsToBucket(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := mustCreate(t, svc, CreateRequest{Title: "a", DueBy: dueOn("2025-09-10")})
	b := mustCreate(t, svc, CreateRequest{Title: "b", DueBy: dueOn("2025-09-10")})

	assert.Equal(t, 1000, a.Position)
	assert.Equal(t, 2000, b.Position)

	// Different bucket starts its own numbering.
	inbox := mustCreate(t, svc, CreateRequest{Title: "capture"})
	assert.Equal(t, 1000, inbox.Position)

	got, err := svc.Get(ctx, testOwner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, got.Priority)
}

func TestCreate_PlacementHints(t *testing.T) {
	svc, _ := newTestService()

	a := mustCreate(t, svc, CreateRequest{Title: "a"})
	b := mustCreate(t, svc, CreateRequest{Title: "b", InsertAfter: a.ID})
	top := mustCreate(t, svc, CreateRequest{Title: "t", InsertAtTop: true})
	exact := mustCreate(t, svc, CreateRequest{Title: "e", Position: intPtr(42)})

	assert.Equal(t, 2000, b.Position)
	assert.Equal(t, 0, top.Position)
	assert.Equal(t, 42, exact.Position)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var inv *InvalidArgumentError

	_, err := svc.Create(ctx, testOwner, CreateRequest{})
	assert.ErrorAs(t, err, &inv)

	_, err = svc.Create(ctx, testOwner, CreateRequest{Title: "x", DueBy: &model.DueBy{Date: "next tuesday"}})
	assert.ErrorAs(t, err, &inv)

	_, err = svc.Create(ctx, testOwner, CreateRequest{Title: "x", DueBy: &model.DueBy{Date: "2025-09-10", Mode: "floating"}})
	assert.ErrorAs(t, err, &inv)

	a := mustCreate(t, svc, CreateRequest{Title: "a"})
	_, err = svc.Create(ctx, testOwner, CreateRequest{Title: "x", InsertAfter: a.ID, InsertAtTop: true})
	assert.ErrorAs(t, err, &inv)
}

func TestCreate_InsertAfterCrossBucketRejected(t *testing.T) {
	svc, _ := newTestService()

	dated := mustCreate(t, svc, CreateRequest{Title: "dated", DueBy: dueOn("2025-09-12")})

	var inv *InvalidArgumentError
	_, err := svc.Create(context.Background(), testOwner, CreateRequest{Title: "inbox", InsertAfter: dated.ID})
	assert.ErrorAs(t, err, &inv)
}

func TestUpdate_CompleteStampsCompletedOn(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := mustCreate(t, svc, CreateRequest{Title: "a"})

	done := true
	updated, err := svc.Update(ctx, testOwner, a.ID, UpdateRequest{Completed: &done, Timezone: "America/New_York"})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedOn)
	// Noon UTC on Sep 10 is morning of Sep 10 in New York.
	assert.Equal(t, "2025-09-10", updated.CompletedOn.Date)
	assert.True(t, updated.Completed)

	undone := false
	updated, err = svc.Update(ctx, testOwner, a.ID, UpdateRequest{Completed: &undone})
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedOn)
	assert.False(t, updated.Completed)
}

func TestUpdate_DueDateChangeAppendsToNewBucket(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	existing := mustCreate(t, svc, CreateRequest{Title: "x", DueBy: dueOn("2025-09-12")})
	assert.Equal(t, 1000, existing.Position)

	moved := mustCreate(t, svc, CreateRequest{Title: "m"})
	due := dueOn("2025-09-12")
	updated, err := svc.Update(ctx, testOwner, moved.ID, UpdateRequest{DueBy: &due})
	require.NoError(t, err)
	assert.Equal(t, 2000, updated.Position)
}

func TestUpdate_LeavingOverdueClearsOverduePosition(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	late := mustCreate(t, svc, CreateRequest{Title: "late", DueBy: dueOn("2025-09-01")})
	pos := 1000
	posPtr := &pos
	_, err := repo.Update(ctx, testOwner, late.ID, Patch{OverduePosition: &posPtr})
	require.NoError(t, err)

	due := dueOn("2025-09-10")
	updated, err := svc.Update(ctx, testOwner, late.ID, UpdateRequest{DueBy: &due})
	require.NoError(t, err)
	assert.Nil(t, updated.OverduePosition)
}

func TestService_OwnerScoping(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := mustCreate(t, svc, CreateRequest{Title: "a"})

	_, err := svc.Get(ctx, "user_mallory", a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, testOwner, model.TaskID("task_missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func intPtr(v int) *int { return &v }
