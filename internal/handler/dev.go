package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/seed"
	"github.com/dukerupert/happyloop/internal/websocket"
)

// DevHandler exposes the account maintenance jobs: demo data, legacy
// reseeding, duplicate cleanup and kid deletion.
type DevHandler struct {
	broadcaster
	seeder *seed.Service
	logger *slog.Logger
}

func NewDevHandler(seeder *seed.Service, hub *websocket.Hub, logger *slog.Logger) *DevHandler {
	return &DevHandler{broadcaster: broadcaster{hub: hub}, seeder: seeder, logger: logger}
}

func (h *DevHandler) Populate(w http.ResponseWriter, r *http.Request) {
	parentID := auth.ParentID(r.Context())
	rep, err := h.seeder.Populate(parentID)
	if !h.check(w, "populate", err) {
		return
	}
	h.broadcast(parentID, websocket.NewMessage("sample_data", "populated", parentID, nil))
	writeJSON(w, http.StatusOK, rep)
}

func (h *DevHandler) Reseed(w http.ResponseWriter, r *http.Request) {
	parentID := auth.ParentID(r.Context())
	rep, err := h.seeder.Reseed(parentID)
	if !h.check(w, "reseed", err) {
		return
	}
	h.broadcast(parentID, websocket.NewMessage("sample_data", "reseeded", parentID, nil))
	writeJSON(w, http.StatusOK, rep)
}

func (h *DevHandler) CleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	parentID := auth.ParentID(r.Context())
	res, err := h.seeder.CleanupDuplicateKids(parentID)
	if !h.check(w, "cleanup duplicates", err) {
		return
	}
	if len(res.Removed) > 0 {
		h.broadcast(parentID, websocket.NewMessage("kid", "deleted", 0, map[string]any{"ids": res.Removed}))
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *DevHandler) DeleteKids(w http.ResponseWriter, r *http.Request) {
	parentID := auth.ParentID(r.Context())
	n, err := h.seeder.DeleteKids(parentID)
	if !h.check(w, "delete kids", err) {
		return
	}
	if n > 0 {
		h.broadcast(parentID, websocket.NewMessage("kid", "deleted", 0, map[string]any{"count": n}))
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *DevHandler) check(w http.ResponseWriter, job string, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, seed.ErrParentNotFound) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "account no longer exists"})
		return false
	}
	h.logger.Error("dev job failed", "job", job, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": job + " failed"})
	return false
}
