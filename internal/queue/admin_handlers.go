package queue

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/supermarket/internal/common"
)

// Inspector is the subset of *asynq.Inspector used by AdminHandler.
type Inspector interface {
	ListArchivedTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	RunTask(queue, id string) error
}

// AdminHandler exposes print tasks that exhausted their retries.
type AdminHandler struct {
	Inspector Inspector
	Queue     string
	PageSize  int
}

type archivedTask struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Retried      int       `json:"retried"`
	MaxRetry     int       `json:"maxRetry"`
	LastError    string    `json:"lastError,omitempty"`
	LastFailedAt time.Time `json:"lastFailedAt,omitempty"`
}

// ListArchived handles GET /api/v1/admin/queue/archived?page=N.
func (h *AdminHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeInternal, "queue unavailable", nil)
		return
	}
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			common.WriteError(w, common.BadRequest("page must be a positive integer", err))
			return
		}
		page = n
	}
	tasks, err := h.Inspector.ListArchivedTasks(h.queue(), asynq.PageSize(h.pageSize()), asynq.Page(page))
	if err != nil && !errors.Is(err, asynq.ErrQueueNotFound) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list archived tasks")
		common.WriteError(w, err)
		return
	}
	items := make([]archivedTask, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, archivedTask{
			ID:           t.ID,
			Type:         t.Type,
			Retried:      t.Retried,
			MaxRetry:     t.MaxRetry,
			LastError:    t.LastErr,
			LastFailedAt: t.LastFailedAt,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items, "page": page})
}

// Replay handles POST /api/v1/admin/queue/archived/{id}/run.
func (h *AdminHandler) Replay(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeInternal, "queue unavailable", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.WriteError(w, common.BadRequest("task id required", nil))
		return
	}
	if err := h.Inspector.RunTask(h.queue(), id); err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "task not found", nil)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("task_id", id).Msg("replay archived task")
		common.WriteError(w, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("task_id", id).Msg("archived task replayed")
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{"id": id}})
}

func (h *AdminHandler) queue() string {
	if h.Queue == "" {
		return DefaultQueue
	}
	return h.Queue
}

func (h *AdminHandler) pageSize() int {
	if h.PageSize <= 0 {
		return 20
	}
	return h.PageSize
}
