package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/habit"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/schedule"
	"github.com/dukerupert/happyloop/internal/seed"
	"github.com/dukerupert/happyloop/internal/store"
	"github.com/dukerupert/happyloop/internal/websocket"
)

type TaskHandler struct {
	broadcaster
	taskStore    *store.TaskStore
	kidStore     *store.KidStore
	taskLogStore *store.TaskLogStore
	seeder       *seed.Service
	logger       *slog.Logger
	now          func() time.Time
}

func NewTaskHandler(ts *store.TaskStore, ks *store.KidStore, tls *store.TaskLogStore, seeder *seed.Service, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		broadcaster:  broadcaster{hub: hub},
		taskStore:    ts,
		kidStore:     ks,
		taskLogStore: tls,
		seeder:       seeder,
		logger:       logger,
		now:          time.Now,
	}
}

type taskRequest struct {
	Name             string                 `json:"name" validate:"required,max=100"`
	Description      string                 `json:"description" validate:"max=500"`
	Icon             string                 `json:"icon" validate:"max=16"`
	Points           int                    `json:"points" validate:"min=1,max=1000"`
	Frequency        model.Frequency        `json:"frequency" validate:"required,oneof=daily weekly monthly weekday weekend"`
	VerificationType model.VerificationType `json:"verification_type" validate:"omitempty,oneof=none photo video"`
	Enabled          *bool                  `json:"enabled"`
}

func (req taskRequest) task() model.Task {
	t := model.Task{
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		Icon:             req.Icon,
		Points:           req.Points,
		Frequency:        req.Frequency,
		VerificationType: req.VerificationType,
		Enabled:          req.Enabled == nil || *req.Enabled,
	}
	if t.VerificationType == "" {
		t.VerificationType = model.VerificationNone
	}
	return t
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	t := req.task()
	if t.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	task, err := h.taskStore.Create(t)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.broadcast(auth.ParentID(r.Context()), websocket.NewMessage("task", "created", task.ID, nil))

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	t := req.task()
	if t.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	used, err := h.taskStore.HasLogs(existing.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	var task *model.Task
	if used {
		if t.Points != existing.Points || t.Frequency != existing.Frequency || t.VerificationType != existing.VerificationType {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "task has completions; only name, description, icon and enabled can change"})
			return
		}
		task, err = h.taskStore.UpdateDetails(existing.ID, t.Name, t.Description, t.Icon, t.Enabled)
	} else {
		task, err = h.taskStore.Update(existing.ID, t)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.broadcast(auth.ParentID(r.Context()), websocket.NewMessage("task", "updated", task.ID, nil))

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	err := h.taskStore.Delete(existing.ID)
	if errors.Is(err, store.ErrTaskInUse) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "task has completions; disable it instead"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	h.broadcast(auth.ParentID(r.Context()), websocket.NewMessage("task", "deleted", existing.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) loadTask(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}
	task, err := h.taskStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return nil, false
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return nil, false
	}
	return task, true
}

// SetupSamples fills an empty task catalog with the sample tasks.
func (h *TaskHandler) SetupSamples(w http.ResponseWriter, r *http.Request) {
	n, err := h.seeder.SetupSampleTasks()
	if err != nil {
		h.logger.Error("setup sample tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set up sample tasks"})
		return
	}
	if n > 0 {
		h.broadcast(auth.ParentID(r.Context()), websocket.NewMessage("task", "created", 0, map[string]any{"count": n}))
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": n})
}

func (h *TaskHandler) ListForKid(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}
	tasks, err := h.taskStore.ListForKid(kid.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

type assignRequest struct {
	TaskIDs []int64 `json:"task_ids" validate:"required,min=1,dive,min=1"`
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}

	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	for _, id := range req.TaskIDs {
		task, err := h.taskStore.GetByID(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
			return
		}
		if task == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
			return
		}
	}

	if err := h.taskStore.Assign(kid.ID, req.TaskIDs...); err != nil {
		h.logger.Error("assign tasks", "kid_id", kid.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to assign tasks"})
		return
	}

	h.broadcast(kid.ParentID, websocket.NewMessage("kid_task", "assigned", kid.ID, map[string]any{"task_ids": req.TaskIDs}))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}
	taskID, err := parsePathInt(r, "taskID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task id"})
		return
	}

	if err := h.taskStore.Unassign(kid.ID, taskID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to unassign task"})
		return
	}

	h.broadcast(kid.ParentID, websocket.NewMessage("kid_task", "unassigned", kid.ID, map[string]any{"task_id": taskID}))

	w.WriteHeader(http.StatusNoContent)
}

// Today lists the kid's assigned tasks due on ?date= (default today) with
// their completion status.
func (h *TaskHandler) Today(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}

	date := habit.Day(h.now().UTC())
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := habit.ParseDate(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = d
	}

	tasks, err := h.taskStore.ListForKid(kid.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	logs, err := h.taskLogStore.ListByKid(kid.ID, habit.FormatDate(schedule.WindowStart(date)), habit.FormatDate(date))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list task logs"})
		return
	}

	today := schedule.Today(tasks, logs, date)
	if today == nil {
		today = []schedule.TaskWithStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  habit.FormatDate(date),
		"kid":   kid,
		"tasks": today,
	})
}
