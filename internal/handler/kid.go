package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/store"
	"github.com/dukerupert/happyloop/internal/websocket"
)

const defaultAvatar = "🙂"

type KidHandler struct {
	broadcaster
	kidStore    *store.KidStore
	parentStore *store.ParentStore
	logger      *slog.Logger
}

func NewKidHandler(ks *store.KidStore, ps *store.ParentStore, hub *websocket.Hub, logger *slog.Logger) *KidHandler {
	return &KidHandler{
		broadcaster: broadcaster{hub: hub},
		kidStore:    ks,
		parentStore: ps,
		logger:      logger,
	}
}

type kidRequest struct {
	Name   string `json:"name" validate:"required,max=50"`
	Age    int    `json:"age" validate:"min=1,max=18"`
	Avatar string `json:"avatar" validate:"max=16"`
}

func (req *kidRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Avatar = strings.TrimSpace(req.Avatar)
	if req.Avatar == "" {
		req.Avatar = defaultAvatar
	}
}

func (h *KidHandler) List(w http.ResponseWriter, r *http.Request) {
	kids, err := h.kidStore.ListByParent(auth.ParentID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list kids"})
		return
	}
	if kids == nil {
		kids = []model.Kid{}
	}
	writeJSON(w, http.StatusOK, kids)
}

func (h *KidHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req kidRequest
	if !decode(w, r, &req) {
		return
	}
	req.normalize()
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	parentID := auth.ParentID(r.Context())
	kid, err := h.kidStore.Create(parentID, req.Name, req.Age, req.Avatar)
	if err != nil {
		h.logger.Error("create kid", "parent_id", parentID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create kid"})
		return
	}

	h.broadcast(parentID, websocket.NewMessage("kid", "created", kid.ID, nil))

	writeJSON(w, http.StatusCreated, kid)
}

func (h *KidHandler) Get(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, kid)
}

func (h *KidHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}

	var req kidRequest
	if !decode(w, r, &req) {
		return
	}
	req.normalize()
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	kid, err := h.kidStore.Update(existing.ID, req.Name, req.Age, req.Avatar)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update kid"})
		return
	}

	h.broadcast(existing.ParentID, websocket.NewMessage("kid", "updated", kid.ID, nil))

	writeJSON(w, http.StatusOK, kid)
}

func (h *KidHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}

	if err := h.kidStore.Delete(existing.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete kid"})
		return
	}

	h.broadcast(existing.ParentID, websocket.NewMessage("kid", "deleted", existing.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

// Verify reports the logged-in parent together with the kids visible to
// them, so a client can confirm its session maps to the expected family.
func (h *KidHandler) Verify(w http.ResponseWriter, r *http.Request) {
	parentID := auth.ParentID(r.Context())
	parent, err := h.parentStore.GetByID(parentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get account"})
		return
	}
	if parent == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "account no longer exists"})
		return
	}

	kids, err := h.kidStore.ListByParent(parentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list kids"})
		return
	}
	if kids == nil {
		kids = []model.Kid{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"parent":    parent,
		"kids":      kids,
		"kid_count": len(kids),
	})
}
