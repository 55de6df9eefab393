package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dukerupert/happyloop/internal/auth"
	"github.com/dukerupert/happyloop/internal/store"
)

// SessionCookieName is the cookie that carries a parent's session token.
const SessionCookieName = "happyloop_session"

// RequireAuth validates the session cookie and populates AuthContext.
// Unauthenticated API requests get a JSON 401 rather than a redirect.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				ParentID:  sess.ParentID,
				SessionID: sess.ID,
			}

			if h, ok := r.Context().Value(parentHolderKey{}).(*parentHolder); ok {
				h.parentID = sess.ParentID
			}
			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type parentHolderKey struct{}

type parentHolder struct {
	parentID int64
}

func withParentHolder(ctx context.Context, h *parentHolder) context.Context {
	return context.WithValue(ctx, parentHolderKey{}, h)
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "authentication required")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
