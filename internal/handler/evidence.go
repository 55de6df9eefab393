package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/happyloop/internal/aicheck"
	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/evidence"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/store"
	"github.com/dukerupert/happyloop/internal/websocket"
)

type EvidenceHandler struct {
	broadcaster
	taskLogStore *store.TaskLogStore
	kidStore     *store.KidStore
	taskStore    *store.TaskStore
	mediaStore   *store.MediaStore
	configStore  *store.FamilyConfigStore
	files        *evidence.Store
	checker      *aicheck.Checker
	logger       *slog.Logger
}

func NewEvidenceHandler(
	tls *store.TaskLogStore,
	ks *store.KidStore,
	ts *store.TaskStore,
	ms *store.MediaStore,
	fcs *store.FamilyConfigStore,
	files *evidence.Store,
	checker *aicheck.Checker,
	hub *websocket.Hub,
	logger *slog.Logger,
) *EvidenceHandler {
	return &EvidenceHandler{
		broadcaster:  broadcaster{hub: hub},
		taskLogStore: tls,
		kidStore:     ks,
		taskStore:    ts,
		mediaStore:   ms,
		configStore:  fcs,
		files:        files,
		checker:      checker,
		logger:       logger,
	}
}

type uploadResponse struct {
	Media        *model.MediaUpload `json:"media"`
	EvidenceURL  string             `json:"evidence_url"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty"`
	AIValidated  *bool              `json:"ai_validated,omitempty"`
	AIReason     string             `json:"ai_reason,omitempty"`
}

// Upload stores a photo, video or audio clip as evidence for a task log,
// replacing any earlier evidence for the same log.
func (h *EvidenceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	l, kid, ok := h.ownedLog(w, r, id)
	if !ok {
		return
	}
	if !h.files.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "evidence storage is not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, evidence.MaxUploadSize+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, evidence.MaxUploadSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read file"})
		return
	}
	if len(data) > evidence.MaxUploadSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is empty"})
		return
	}

	stored, err := h.files.Save(r.Context(), evidence.Upload{
		KidID:       kid.ID,
		TaskLogID:   l.ID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if errors.Is(err, evidence.ErrUnsupportedType) {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "evidence must be an image, video or audio file"})
		return
	}
	if err != nil {
		h.logger.Error("save evidence", "log_id", l.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to store evidence"})
		return
	}

	previous, err := h.mediaStore.GetByTaskLog(l.ID)
	if err != nil {
		h.logger.Warn("load previous evidence", "log_id", l.ID, "error", err)
	}
	media, err := h.mediaStore.Attach(l.ID, stored.Key, stored.Type, stored.ThumbnailKey)
	if err != nil {
		h.logger.Error("attach evidence", "log_id", l.ID, "error", err)
		if derr := h.files.Delete(r.Context(), stored.Key, stored.ThumbnailKey); derr != nil {
			h.logger.Warn("remove orphaned evidence", "key", stored.Key, "error", derr)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to attach evidence"})
		return
	}
	if previous != nil {
		if err := h.files.Delete(r.Context(), previous.StoragePath, previous.ThumbnailPath); err != nil {
			h.logger.Warn("remove replaced evidence", "log_id", l.ID, "error", err)
		}
	}

	resp := uploadResponse{
		Media:        media,
		EvidenceURL:  h.files.URL(media.StoragePath),
		ThumbnailURL: h.files.URL(media.ThumbnailPath),
	}
	if stored.Type == model.MediaImage {
		if v := h.validate(r, kid, l, data, stored.ContentType); v != nil {
			resp.AIValidated = model.BoolPtr(v.Valid)
			resp.AIReason = v.Reason
		}
	}

	h.broadcast(kid.ParentID, websocket.NewMessage("media", "uploaded", media.ID, map[string]any{
		"kid_id":      kid.ID,
		"task_log_id": l.ID,
	}))

	writeJSON(w, http.StatusCreated, resp)
}

// validate runs the AI check when the family has it switched on. Failures
// leave the log unvalidated for the parent to review by hand.
func (h *EvidenceHandler) validate(r *http.Request, kid *model.Kid, l *model.TaskLog, image []byte, contentType string) *aicheck.Verdict {
	if h.checker == nil || !h.checker.Enabled() {
		return nil
	}
	cfg, err := h.configStore.Get(kid.ParentID)
	if err != nil {
		h.logger.Warn("load family config", "parent_id", kid.ParentID, "error", err)
		return nil
	}
	if !cfg.AIValidation {
		return nil
	}
	task, err := h.taskStore.GetByID(l.TaskID)
	if err != nil || task == nil {
		h.logger.Warn("load task for ai check", "task_id", l.TaskID, "error", err)
		return nil
	}

	v, err := h.checker.Check(r.Context(), task.Name, task.Description, image, contentType)
	if err != nil {
		h.logger.Warn("ai check", "log_id", l.ID, "error", err)
		return nil
	}
	if err := h.taskLogStore.SetAIValidated(l.ID, v.Valid); err != nil {
		h.logger.Error("store ai verdict", "log_id", l.ID, "error", err)
		return nil
	}
	return v
}

// Serve streams a stored evidence object to the parent who owns it.
func (h *EvidenceHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := "evidence/" + r.PathValue("key")
	kidID, ok := evidence.KidIDOf(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "evidence not found"})
		return
	}
	kid, err := h.kidStore.GetByID(kidID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get kid"})
		return
	}
	if kid == nil || kid.ParentID != auth.ParentID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "evidence not found"})
		return
	}

	body, contentType, err := h.files.Open(r.Context(), key)
	if errors.Is(err, evidence.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "evidence storage is not configured"})
		return
	}
	if err != nil {
		h.logger.Warn("open evidence", "key", key, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "evidence not found"})
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Debug("stream evidence", "key", key, "error", err)
	}
}

func (h *EvidenceHandler) ownedLog(w http.ResponseWriter, r *http.Request, id int64) (*model.TaskLog, *model.Kid, bool) {
	l, err := h.taskLogStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task log"})
		return nil, nil, false
	}
	if l == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task log not found"})
		return nil, nil, false
	}
	kid, err := h.kidStore.GetByID(l.KidID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get kid"})
		return nil, nil, false
	}
	if kid == nil || kid.ParentID != auth.ParentID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task log not found"})
		return nil, nil, false
	}
	return l, kid, true
}
