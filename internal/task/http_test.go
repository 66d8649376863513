package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Service) {
	t.Helper()
	svc, _ := newTestService()
	h := NewHandler(svc)
	h.SetOwnerResolver(func(*http.Request) string { return testOwner })

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", h.List)
	mux.HandleFunc("POST /api/tasks", h.Create)
	mux.HandleFunc("GET /api/tasks/{id}", h.Get)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/move", h.Move)
	return mux, svc
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) model.Task {
	t.Helper()
	var out model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHTTP_CreateMoveList(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/tasks", map[string]any{"title": "a"})
	require.Equal(t, http.StatusCreated, rec.Code)
	a := decodeTask(t, rec)

	rec = doJSON(t, mux, http.MethodPost, "/api/tasks", map[string]any{"title": "b"})
	require.Equal(t, http.StatusCreated, rec.Code)
	b := decodeTask(t, rec)

	rec = doJSON(t, mux, http.MethodPost, fmt.Sprintf("/api/tasks/%s/move", a.ID), map[string]any{"insertAfter": string(b.ID)})
	require.Equal(t, http.StatusOK, rec.Code)
	moved := decodeTask(t, rec)
	assert.Greater(t, moved.Position, b.Position)

	rec = doJSON(t, mux, http.MethodGet, "/api/tasks?view=inbox", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestHTTP_PatchDueByNullClears(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/tasks", map[string]any{
		"title": "dated",
		"dueBy": map[string]any{"date": "2025-09-12", "mode": "fixed"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)
	require.NotNil(t, created.DueBy)

	// Absent key leaves the date alone.
	rec = doJSON(t, mux, http.MethodPatch, "/api/tasks/"+string(created.ID), map[string]any{"title": "renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decodeTask(t, rec).DueBy)

	// Explicit null clears it.
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/"+string(created.ID), bytes.NewBufferString(`{"dueBy":null}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeTask(t, rec).DueBy)
}

func TestHTTP_CompleteWithTimezone(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/tasks", map[string]any{"title": "a"})
	require.Equal(t, http.StatusCreated, rec.Code)
	a := decodeTask(t, rec)

	rec = doJSON(t, mux, http.MethodPatch, "/api/tasks/"+string(a.ID)+"?tz=America/New_York", map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeTask(t, rec)
	require.NotNil(t, done.CompletedOn)
	assert.Equal(t, "2025-09-10", done.CompletedOn.Date)
}

func TestHTTP_ErrorMapping(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/tasks/task_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/tasks", map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/tasks?view=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/tasks?view=today&tz=Mars/Olympus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_Delete(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/tasks", map[string]any{"title": "a"})
	require.Equal(t, http.StatusCreated, rec.Code)
	a := decodeTask(t, rec)

	rec = doJSON(t, mux, http.MethodDelete, "/api/tasks/"+string(a.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/tasks/"+string(a.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
