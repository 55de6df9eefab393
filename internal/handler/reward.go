package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/store"
	"github.com/dukerupert/happyloop/internal/websocket"
)

type RewardHandler struct {
	broadcaster
	rewardStore *store.RewardStore
	kidStore    *store.KidStore
	configStore *store.FamilyConfigStore
	logger      *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, ks *store.KidStore, fcs *store.FamilyConfigStore, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{
		broadcaster: broadcaster{hub: hub},
		rewardStore: rs,
		kidStore:    ks,
		configStore: fcs,
		logger:      logger,
	}
}

type rewardRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Image       string `json:"image" validate:"max=16"`
	PointCost   int    `json:"point_cost" validate:"min=0,max=100000"`
	Available   *bool  `json:"available"`
}

func (req *rewardRequest) available() bool {
	return req.Available == nil || *req.Available
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	reward, err := h.rewardStore.Create(req.Name, strings.TrimSpace(req.Description), req.Image, req.PointCost, req.available())
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create reward"})
		return
	}

	h.broadcast(auth.ParentID(r.Context()), websocket.NewMessage("reward", "created", reward.ID, nil))

	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewardStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list rewards"})
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

// ListAvailable returns the rewards a kid can currently redeem, cheapest first.
func (h *RewardHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewardStore.ListAvailable()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list rewards"})
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadReward(w, r)
	if !ok {
		return
	}

	var req rewardRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	reward, err := h.rewardStore.Update(existing.ID, req.Name, strings.TrimSpace(req.Description), req.Image, req.PointCost, req.available())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update reward"})
		return
	}

	h.broadcast(auth.ParentID(r.Context()), websocket.NewMessage("reward", "updated", reward.ID, nil))

	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadReward(w, r)
	if !ok {
		return
	}

	err := h.rewardStore.Delete(existing.ID)
	if errors.Is(err, store.ErrRewardInUse) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "reward has been redeemed; mark it unavailable instead"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete reward"})
		return
	}

	h.broadcast(auth.ParentID(r.Context()), websocket.NewMessage("reward", "deleted", existing.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) loadReward(w http.ResponseWriter, r *http.Request) (*model.Reward, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}
	reward, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get reward"})
		return nil, false
	}
	if reward == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not found"})
		return nil, false
	}
	return reward, true
}

type redeemRequest struct {
	KidID int64 `json:"kid_id" validate:"required,min=1"`
}

// Redeem spends a kid's points on a reward.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req redeemRequest
	if !decode(w, r, &req) {
		return
	}
	kid, err := h.kidStore.GetByID(req.KidID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get kid"})
		return
	}
	if kid == nil || kid.ParentID != auth.ParentID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "kid not found"})
		return
	}

	redemption, err := h.rewardStore.Redeem(id, kid.ID)
	switch {
	case errors.Is(err, store.ErrRewardUnavailable):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not available"})
		return
	case errors.Is(err, store.ErrInsufficientPoints):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "insufficient points"})
		return
	case err != nil:
		h.logger.Error("redeem reward", "reward_id", id, "kid_id", kid.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to redeem reward"})
		return
	}

	h.broadcast(kid.ParentID, websocket.NewMessage("reward", "redeemed", id, map[string]any{
		"kid_id":       kid.ID,
		"points_spent": redemption.PointsSpent,
	}))

	writeJSON(w, http.StatusCreated, redemption)
}

func (h *RewardHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}
	redemptions, err := h.rewardStore.ListRedemptionsByKid(kid.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list redemptions"})
		return
	}
	if redemptions == nil {
		redemptions = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}

func (h *RewardHandler) GetPointBalance(w http.ResponseWriter, r *http.Request) {
	kid, ok := loadKid(w, r, h.kidStore, "id")
	if !ok {
		return
	}
	balance, err := h.rewardStore.GetPointBalance(kid.ID)
	if err != nil || balance == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get balance"})
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *RewardHandler) ListPointBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.rewardStore.ListPointBalances(auth.ParentID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list balances"})
		return
	}
	if balances == nil {
		balances = []model.PointBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

// GetLeaderboard ranks the parent's kids by points. Families that turned the
// leaderboard off get an empty board.
func (h *RewardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	parentID := auth.ParentID(r.Context())
	cfg, err := h.configStore.Get(parentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get family config"})
		return
	}

	entries := []model.LeaderboardEntry{}
	if cfg.ShowLeaderboard {
		entries, err = h.rewardStore.Leaderboard(parentID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get leaderboard"})
			return
		}
		if entries == nil {
			entries = []model.LeaderboardEntry{}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": cfg.ShowLeaderboard,
		"entries": entries,
	})
}
