package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/middleware"
	"github.com/dukerupert/happyloop/internal/model"
	"github.com/dukerupert/happyloop/internal/store"
)

type AuthHandler struct {
	parentStore  *store.ParentStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(ps *store.ParentStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		parentStore:  ps,
		sessionStore: ss,
		logger:       logger,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	existing, err := h.parentStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "an account with that email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to hash password"})
		return
	}

	parent, err := h.parentStore.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create parent", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create account"})
		return
	}
	h.logger.Info("parent registered", "parent_id", parent.ID)

	if !h.startSession(w, r, parent.ID) {
		return
	}
	writeJSON(w, http.StatusCreated, parent)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	parent, hash, err := h.parentStore.GetPasswordHash(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	// Same answer for unknown email and wrong password.
	if parent == nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	if !h.startSession(w, r, parent.ID) {
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, parentID int64) bool {
	sess, err := h.sessionStore.Create(parentID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(store.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return true
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessionStore.GetByToken(cookie.Value); err == nil && sess != nil {
			if err := h.sessionStore.Delete(sess.ID); err != nil {
				h.logger.Error("delete session", "error", err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the logged-in parent.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	parent, ok := h.currentParent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

func (h *AuthHandler) currentParent(w http.ResponseWriter, r *http.Request) (*model.Parent, bool) {
	parent, err := h.parentStore.GetByID(auth.ParentID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get account"})
		return nil, false
	}
	if parent == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "account no longer exists"})
		return nil, false
	}
	return parent, true
}
