package handler

import (
	"net/http"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/store"
	"github.com/dukerupert/happyloop/internal/websocket"
)

type FamilyConfigHandler struct {
	broadcaster
	configStore *store.FamilyConfigStore
}

func NewFamilyConfigHandler(fcs *store.FamilyConfigStore, hub *websocket.Hub) *FamilyConfigHandler {
	return &FamilyConfigHandler{broadcaster: broadcaster{hub: hub}, configStore: fcs}
}

func (h *FamilyConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configStore.Get(auth.ParentID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get family config"})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type familyConfigRequest struct {
	ShowLeaderboard       *bool                       `json:"show_leaderboard" validate:"required"`
	AIValidation          *bool                       `json:"ai_validation" validate:"required"`
	NotificationFrequency model.NotificationFrequency `json:"notification_frequency" validate:"required,oneof=daily weekly never"`
}

func (h *FamilyConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req familyConfigRequest
	if !decode(w, r, &req) {
		return
	}

	parentID := auth.ParentID(r.Context())
	cfg, err := h.configStore.Update(parentID, *req.ShowLeaderboard, *req.AIValidation, req.NotificationFrequency)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update family config"})
		return
	}

	h.broadcast(parentID, websocket.NewMessage("family_config", "updated", parentID, nil))

	writeJSON(w, http.StatusOK, cfg)
}
