package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tdebasis/rhythmai-task-service/internal/auth"
	"github.com/tdebasis/rhythmai-task-service/internal/config"
	"github.com/tdebasis/rhythmai-task-service/internal/httpmw"
	"github.com/tdebasis/rhythmai-task-service/internal/project"
	"github.com/tdebasis/rhythmai-task-service/internal/task"
	"github.com/tdebasis/rhythmai-task-service/internal/telemetry"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger
}

// NewHandler wires storage, auth and the task API into one handler.
func NewHandler(ctx context.Context, opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	cfg := opts.Config
	if strings.TrimSpace(cfg.Storage.DataDir) == "" {
		cfg.Storage.DataDir = "data"
	}

	repo, err := buildTaskRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	authRepo, err := auth.NewFileRepo(filepath.Join(cfg.Storage.DataDir, "auth"))
	if err != nil {
		return nil, err
	}
	authService := auth.NewService(authRepo, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour, opts.Logger)
	authHandler := auth.NewHandler(authService)

	recorder := telemetry.NewMemoryRecorder()
	authService.SetRecorder(recorder)

	ownerResolver := func(r *http.Request) string {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			return ""
		}
		return u.ID
	}

	svc := task.NewService(repo)
	svc.SetRecorder(recorder)
	taskHandler := task.NewHandler(svc)
	taskHandler.SetOwnerResolver(ownerResolver)

	projectHandler := project.NewHandler(project.NewMemoryRepo())
	projectHandler.SetOwnerResolver(ownerResolver)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/auth/session", authHandler.Session)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	requireAPI := func(h http.HandlerFunc) http.Handler {
		return authService.RequireAPI(h)
	}
	mux.Handle("GET /api/tasks", requireAPI(taskHandler.List))
	mux.Handle("POST /api/tasks", requireAPI(taskHandler.Create))
	mux.Handle("GET /api/tasks/{id}", requireAPI(taskHandler.Get))
	mux.Handle("PATCH /api/tasks/{id}", requireAPI(taskHandler.Update))
	mux.Handle("DELETE /api/tasks/{id}", requireAPI(taskHandler.Delete))
	mux.Handle("POST /api/tasks/{id}/move", requireAPI(taskHandler.Move))

	mux.Handle("GET /api/projects", requireAPI(projectHandler.List))
	mux.Handle("POST /api/projects", requireAPI(projectHandler.Create))
	mux.Handle("POST /api/projects/{name}/archive", requireAPI(projectHandler.Archive))
	mux.Handle("DELETE /api/projects/{name}", requireAPI(projectHandler.Delete))

	mux.Handle("GET /api/stats", requireAPI(func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().AddDate(0, 0, -30)
		if v := r.URL.Query().Get("since"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed since date, want YYYY-MM-DD"})
				return
			}
			since = parsed
		}
		events, err := recorder.Events(since, nil)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		stats, err := telemetry.CalculateStats(events, since)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "rhythmai-task-service",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := repo.ListOwner(r.Context(), "readyz-probe"); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "rhythmai-task-service",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func buildTaskRepo(ctx context.Context, cfg *config.Config) (task.Repo, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return task.NewMemoryRepo(), nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, err
		}
		repo := task.NewPgRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default: // diskv
		return task.NewDiskvRepo(filepath.Join(cfg.Storage.DataDir, "tasks")), nil
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
