package project

import (
	"encoding/json"
	"errors"
	"net/http"
)

type Handler struct {
	repo          Repo
	ownerResolver func(*http.Request) string
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetOwnerResolver(fn func(*http.Request) string) {
	h.ownerResolver = fn
}

func (h *Handler) ownerForRequest(r *http.Request) string {
	if h.ownerResolver == nil {
		return ""
	}
	return h.ownerResolver(r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRepoErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, ErrExists):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "project already exists"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}

// GET /api/projects?archived=1
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "1"
	ps, err := h.repo.List(r.Context(), h.ownerForRequest(r), includeArchived)
	if err != nil {
		writeRepoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// POST /api/projects
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad json"})
		return
	}
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "name is required"})
		return
	}
	p, err := h.repo.Create(r.Context(), h.ownerForRequest(r), in.Name, in.Color)
	if err != nil {
		writeRepoErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// POST /api/projects/{name}/archive
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Archived *bool `json:"archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad json"})
		return
	}
	archived := true
	if in.Archived != nil {
		archived = *in.Archived
	}
	p, err := h.repo.SetArchived(r.Context(), h.ownerForRequest(r), r.PathValue("name"), archived)
	if err != nil {
		writeRepoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /api/projects/{name}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), h.ownerForRequest(r), r.PathValue("name")); err != nil {
		writeRepoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
