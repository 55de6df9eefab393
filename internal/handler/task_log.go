package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/evidence"
	"github.com/dukerupert/happyloop/internal/habit"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/progress"
	"github.com/dukerupert/happyloop/internal/store"
	"github.com/dukerupert/happyloop/internal/websocket"
)

type TaskLogHandler struct {
	broadcaster
	taskLogStore *store.TaskLogStore
	kidStore     *store.KidStore
	taskStore    *store.TaskStore
	progress     *progress.Service
	evidence     *evidence.Store
	logger       *slog.Logger
	now          func() time.Time
}

func NewTaskLogHandler(tls *store.TaskLogStore, ks *store.KidStore, ts *store.TaskStore, prog *progress.Service, ev *evidence.Store, hub *websocket.Hub, logger *slog.Logger) *TaskLogHandler {
	return &TaskLogHandler{
		broadcaster:  broadcaster{hub: hub},
		taskLogStore: tls,
		kidStore:     ks,
		taskStore:    ts,
		progress:     prog,
		evidence:     ev,
		logger:       logger,
		now:          time.Now,
	}
}

type completeRequest struct {
	TaskID int64  `json:"task_id" validate:"required,min=1"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Complete records a pending completion of a task by a kid.
func (h *TaskLogHandler) Complete(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}

	var req completeRequest
	if !decode(w, r, &req) {
		return
	}

	today := habit.Day(h.now().UTC())
	date := today
	if req.Date != "" {
		d, err := habit.ParseDate(req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = d
	}
	if date.After(today) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date cannot be in the future"})
		return
	}

	task, err := h.taskStore.GetByID(req.TaskID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	if !task.Enabled {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task is disabled"})
		return
	}

	l, err := h.taskLogStore.Create(kid.ID, task.ID, habit.FormatDate(date))
	if errors.Is(err, store.ErrDuplicateLog) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "task already completed for that date"})
		return
	}
	if err != nil {
		h.logger.Error("create task log", "kid_id", kid.ID, "task_id", task.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record completion"})
		return
	}

	h.broadcast(kid.ParentID, websocket.NewMessage("task_log", "created", l.ID, map[string]any{"kid_id": kid.ID}))

	writeJSON(w, http.StatusCreated, l)
}

// ListByKid returns a kid's completions, newest first, optionally bounded by
// ?from= and ?to= dates.
func (h *TaskLogHandler) ListByKid(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for _, s := range []string{from, to} {
		if s == "" {
			continue
		}
		if _, err := habit.ParseDate(s); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to must be YYYY-MM-DD"})
			return
		}
	}
	if from != "" && to != "" && from > to {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from must not be after to"})
		return
	}

	logs, err := h.taskLogStore.ListByKid(kid.ID, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list task logs"})
		return
	}
	if logs == nil {
		logs = []model.TaskLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

type pendingItem struct {
	model.TaskLogDetail
	EvidenceURL  string `json:"evidence_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Pending is the parent's review queue, oldest first.
func (h *TaskLogHandler) Pending(w http.ResponseWriter, r *http.Request) {
	details, err := h.taskLogStore.ListPendingByParent(auth.ParentID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list pending completions"})
		return
	}

	items := make([]pendingItem, 0, len(details))
	for _, d := range details {
		item := pendingItem{TaskLogDetail: d}
		if d.Media != nil {
			item.EvidenceURL = h.evidence.URL(d.Media.StoragePath)
			item.ThumbnailURL = h.evidence.URL(d.Media.ThumbnailPath)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

type approveRequest struct {
	Points *int `json:"points" validate:"omitempty,min=0,max=1000"`
}

func (h *TaskLogHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req approveRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	dec, err := h.progress.Approve(auth.ParentID(r.Context()), id, req.Points)
	h.respondDecision(w, "approved", id, dec, err)
}

func (h *TaskLogHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	dec, err := h.progress.Reject(auth.ParentID(r.Context()), id)
	h.respondDecision(w, "rejected", id, dec, err)
}

func (h *TaskLogHandler) respondDecision(w http.ResponseWriter, action string, id int64, dec *progress.Decision, err error) {
	if errors.Is(err, progress.ErrLogNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task log not found"})
		return
	}
	if err != nil {
		h.logger.Error("task log decision", "action", action, "log_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task log"})
		return
	}

	h.broadcast(dec.Kid.ParentID, websocket.NewMessage("task_log", action, id, map[string]any{
		"kid_id": dec.Kid.ID,
		"points": dec.Result.Points,
		"streak": dec.Result.Streak,
	}))

	writeJSON(w, http.StatusOK, dec)
}

// Recompute rebuilds a kid's points and streak from their full history.
func (h *TaskLogHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}

	res, err := h.progress.Recompute(kid.ID)
	if err != nil {
		h.logger.Error("recompute kid", "kid_id", kid.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to recompute"})
		return
	}

	h.broadcast(kid.ParentID, websocket.NewMessage("kid", "recomputed", kid.ID, map[string]any{
		"points": res.Points,
		"streak": res.Streak,
	}))

	kid.Points, kid.Streak = res.Points, res.Streak
	writeJSON(w, http.StatusOK, kid)
}
