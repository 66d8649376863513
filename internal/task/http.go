package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tdebasis/rhythmai-task-service/internal/model"
)

type Handler struct {
	svc           *Service
	ownerResolver func(*http.Request) string
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SetOwnerResolver wires identity extraction in; the handler itself
// never looks at credentials.
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

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeDomainErr(w http.ResponseWriter, err error) {
	var inv *InvalidArgumentError
	switch {
	case errors.Is(err, ErrNotFound):
		writeErr(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrForbidden):
		writeErr(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrConflict):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.As(err, &inv):
		writeErr(w, http.StatusBadRequest, inv.Reason)
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func parseBoolPtr(s string) *bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true", "yes":
		b := true
		return &b
	case "0", "false", "no":
		b := false
		return &b
	}
	return nil
}

// GET /api/tasks?view=&completed=&tz=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := ParseView(q.Get("view"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	ts, err := h.svc.List(r.Context(), h.ownerForRequest(r), view, parseBoolPtr(q.Get("completed")), q.Get("tz"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

type createIn struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	Project     *string        `json:"project"`
	Tags        []string       `json:"tags"`
	DueBy       *model.DueBy   `json:"dueBy"`

	Position    *int   `json:"position"`
	InsertAfter string `json:"insertAfter"`
	InsertAtTop bool   `json:"insertAtTop"`
}

// POST /api/tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createIn
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	t, err := h.svc.Create(r.Context(), h.ownerForRequest(r), CreateRequest{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Project:     in.Project,
		Tags:        in.Tags,
		DueBy:       in.DueBy,
		Position:    in.Position,
		InsertAfter: model.TaskID(in.InsertAfter),
		InsertAtTop: in.InsertAtTop,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GET /api/tasks/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), h.ownerForRequest(r), model.TaskID(r.PathValue("id")))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type updateIn struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *model.Priority `json:"priority"`
	Project     *string         `json:"project"`
	Tags        *[]string       `json:"tags"`
	Completed   *bool           `json:"completed"`

	// Raw so that an explicit JSON null clears the due date while an
	// absent key leaves it alone.
	DueBy *json.RawMessage `json:"dueBy"`

	Position    *int   `json:"position"`
	InsertAfter string `json:"insertAfter"`
	InsertAtTop bool   `json:"insertAtTop"`
}

// PATCH /api/tasks/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in updateIn
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}

	req := UpdateRequest{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Project:     in.Project,
		Tags:        in.Tags,
		Completed:   in.Completed,
		Position:    in.Position,
		InsertAfter: model.TaskID(in.InsertAfter),
		InsertAtTop: in.InsertAtTop,
		Timezone:    r.URL.Query().Get("tz"),
	}
	if in.DueBy != nil {
		if string(*in.DueBy) == "null" {
			var cleared *model.DueBy
			req.DueBy = &cleared
		} else {
			var d model.DueBy
			if err := json.Unmarshal(*in.DueBy, &d); err != nil {
				writeErr(w, http.StatusBadRequest, "bad dueBy")
				return
			}
			dp := &d
			req.DueBy = &dp
		}
	}

	t, err := h.svc.Update(r.Context(), h.ownerForRequest(r), model.TaskID(r.PathValue("id")), req)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type moveIn struct {
	InsertAfter  string `json:"insertAfter"`
	InsertBefore string `json:"insertBefore"`
	MoveToTop    bool   `json:"moveToTop"`
	MoveToBottom bool   `json:"moveToBottom"`
}

// POST /api/tasks/{id}/move
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var in moveIn
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	t, err := h.svc.Move(r.Context(), h.ownerForRequest(r), model.TaskID(r.PathValue("id")), MoveRequest{
		InsertAfter:  model.TaskID(in.InsertAfter),
		InsertBefore: model.TaskID(in.InsertBefore),
		MoveToTop:    in.MoveToTop,
		MoveToBottom: in.MoveToBottom,
		Timezone:     r.URL.Query().Get("tz"),
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DELETE /api/tasks/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), h.ownerForRequest(r), model.TaskID(r.PathValue("id"))); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
