package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

// PgRepo is the PostgreSQL storage driver.
type PgRepo struct {
	pool *pgxpool.Pool
}

func NewPgRepo(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

// EnsureSchema creates the tasks table if it doesn't exist.
func (r *PgRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id               TEXT PRIMARY KEY,
			owner_id         TEXT NOT NULL,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			priority         TEXT NOT NULL DEFAULT 'MEDIUM',
			project          TEXT,
			tags             TEXT[] DEFAULT '{}',
			completed        BOOLEAN NOT NULL DEFAULT FALSE,
			due_by           JSONB,
			completed_on     JSONB,
			position         INTEGER NOT NULL DEFAULT 0,
			overdue_position INTEGER,
			rev              BIGINT NOT NULL DEFAULT 1,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id)`)
	return err
}

func marshalNullable(v any, isNil bool) (*string, error) {
	if isNil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func (r *PgRepo) insert(ctx context.Context, t model.Task) error {
	dueJSON, err := marshalNullable(t.DueBy, t.DueBy == nil)
	if err != nil {
		return fmt.Errorf("marshal dueBy: %w", err)
	}
	doneJSON, err := marshalNullable(t.CompletedOn, t.CompletedOn == nil)
	if err != nil {
		return fmt.Errorf("marshal completedOn: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, priority, project, tags,
			completed, due_by, completed_on, position, overdue_position, rev, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11, $12, $13, $14, $15)`,
		t.ID, t.OwnerID, t.Title, t.Description, t.Priority, t.Project, t.Tags,
		t.Completed, dueJSON, doneJSON, t.Position, t.OverduePosition, t.Rev, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PgRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	now := time.Now().Truncate(time.Microsecond)
	t.ID = newID("task")
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Rev = 1
	normalizeTask(&t)

	if err := r.insert(ctx, t); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t        model.Task
		dueJSON  *string
		doneJSON *string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Priority, &t.Project,
		&t.Tags, &t.Completed, &dueJSON, &doneJSON, &t.Position, &t.OverduePosition,
		&t.Rev, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	if dueJSON != nil {
		var d model.DueBy
		if err := json.Unmarshal([]byte(*dueJSON), &d); err != nil {
			return model.Task{}, fmt.Errorf("unmarshal dueBy: %w", err)
		}
		t.DueBy = &d
	}
	if doneJSON != nil {
		var c model.CompletedOn
		if err := json.Unmarshal([]byte(*doneJSON), &c); err != nil {
			return model.Task{}, fmt.Errorf("unmarshal completedOn: %w", err)
		}
		t.CompletedOn = &c
	}
	normalizeTask(&t)
	return t, nil
}

const taskColumns = `id, owner_id, title, description, priority, project, tags,
	completed, due_by::text, completed_on::text, position, overdue_position, rev, created_at, updated_at`

func (r *PgRepo) Get(ctx context.Context, owner string, id model.TaskID) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return model.Task{}, err
	}
	if t.OwnerID != owner {
		return model.Task{}, ErrForbidden
	}
	return t, nil
}

func (r *PgRepo) Update(ctx context.Context, owner string, id model.TaskID, p Patch) (model.Task, error) {
	t, err := r.Get(ctx, owner, id)
	if err != nil {
		return model.Task{}, err
	}
	prevRev := t.Rev
	if err := applyPatch(&t, p); err != nil {
		return model.Task{}, err
	}
	t.UpdatedAt = time.Now().Truncate(time.Microsecond)

	dueJSON, err := marshalNullable(t.DueBy, t.DueBy == nil)
	if err != nil {
		return model.Task{}, fmt.Errorf("marshal dueBy: %w", err)
	}
	doneJSON, err := marshalNullable(t.CompletedOn, t.CompletedOn == nil)
	if err != nil {
		return model.Task{}, fmt.Errorf("marshal completedOn: %w", err)
	}

	// The rev guard makes the read-modify-write safe against a
	// concurrent writer that slipped in between our read and this
	// statement.
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET title = $1, description = $2, priority = $3, project = $4,
			tags = $5, completed = $6, due_by = $7::jsonb, completed_on = $8::jsonb,
			position = $9, overdue_position = $10, rev = $11, updated_at = $12
		WHERE id = $13 AND owner_id = $14 AND rev = $15`,
		t.Title, t.Description, t.Priority, t.Project, t.Tags, t.Completed,
		dueJSON, doneJSON, t.Position, t.OverduePosition, t.Rev, t.UpdatedAt,
		id, owner, prevRev)
	if err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Task{}, ErrConflict
	}
	return t, nil
}

func (r *PgRepo) Delete(ctx context.Context, owner string, id model.TaskID) error {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, owner)
	return err
}

func (r *PgRepo) ListOwner(ctx context.Context, owner string) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 ORDER BY id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
