package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/happyloop/internal/aicheck"
	"github.com/dukerupert/happyloop/internal/config"
	"github.com/dukerupert/happyloop/internal/evidence"
	"github.com/dukerupert/happyloop/internal/handler"
	"github.com/dukerupert/happyloop/internal/middleware"
	"github.com/dukerupert/happyloop/internal/progress"
	"github.com/dukerupert/happyloop/internal/seed"
	"github.com/dukerupert/happyloop/internal/store"
	ws "github.com/dukerupert/happyloop/internal/websocket"
)

// Login and register attempts allowed per client per window.
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	kidH          *handler.KidHandler
	taskH         *handler.TaskHandler
	taskLogH      *handler.TaskLogHandler
	evidenceH     *handler.EvidenceHandler
	rewardH       *handler.RewardHandler
	familyConfigH *handler.FamilyConfigHandler
	devH          *handler.DevHandler
	sessionStore  *store.SessionStore
	rateLimiter   *middleware.RateLimiter
	origins       []string
	logger        *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, files *evidence.Store, checker *aicheck.Checker, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	parentStore := store.NewParentStore(db)
	sessionStore := store.NewSessionStore(db)
	kidStore := store.NewKidStore(db)
	taskStore := store.NewTaskStore(db)
	taskLogStore := store.NewTaskLogStore(db)
	mediaStore := store.NewMediaStore(db)
	rewardStore := store.NewRewardStore(db)
	familyConfigStore := store.NewFamilyConfigStore(db)

	progressSvc := progress.NewService(taskLogStore, kidStore, taskStore, logger)
	seeder := seed.NewService(parentStore, kidStore, taskStore, taskLogStore, rewardStore, progressSvc, seed.Options{
		Days:       cfg.Seed.Days,
		RandomSeed: uint64(cfg.Seed.Seed),
	}, logger)

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(parentStore, sessionStore, logger.With("component", "auth")),
		kidH:          handler.NewKidHandler(kidStore, parentStore, hub, logger.With("component", "kid")),
		taskH:         handler.NewTaskHandler(taskStore, kidStore, taskLogStore, seeder, hub, logger.With("component", "task")),
		taskLogH:      handler.NewTaskLogHandler(taskLogStore, kidStore, taskStore, progressSvc, files, hub, logger.With("component", "task_log")),
		evidenceH:     handler.NewEvidenceHandler(taskLogStore, kidStore, taskStore, mediaStore, familyConfigStore, files, checker, hub, logger.With("component", "evidence_handler")),
		rewardH:       handler.NewRewardHandler(rewardStore, kidStore, familyConfigStore, hub, logger.With("component", "reward")),
		familyConfigH: handler.NewFamilyConfigHandler(familyConfigStore, hub),
		devH:          handler.NewDevHandler(seeder, hub, logger.With("component", "dev")),
		sessionStore:  sessionStore,
		rateLimiter:   middleware.NewRateLimiter(),
		origins:       originPatterns(cfg.BaseURL),
		logger:        logger,
	}
}

// originPatterns allows websocket connections from the configured base URL.
func originPatterns(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimited("register", s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimited("login", s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "database unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(route string, h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP(route), authRateLimit, authRateWindow)(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Kids
	mux.HandleFunc("GET /api/kids", s.kidH.List)
	mux.HandleFunc("POST /api/kids", s.kidH.Create)
	mux.HandleFunc("GET /api/kids/verify", s.kidH.Verify)
	mux.HandleFunc("GET /api/kids/{id}", s.kidH.Get)
	mux.HandleFunc("PUT /api/kids/{id}", s.kidH.Update)
	mux.HandleFunc("DELETE /api/kids/{id}", s.kidH.Delete)

	// Task assignments and today view
	mux.HandleFunc("GET /api/kids/{id}/tasks", s.taskH.ListForKid)
	mux.HandleFunc("POST /api/kids/{id}/tasks", s.taskH.Assign)
	mux.HandleFunc("DELETE /api/kids/{id}/tasks/{taskID}", s.taskH.Unassign)
	mux.HandleFunc("GET /api/kids/{id}/today", s.taskH.Today)

	// Completions
	mux.HandleFunc("POST /api/kids/{id}/logs", s.taskLogH.Complete)
	mux.HandleFunc("GET /api/kids/{id}/logs", s.taskLogH.ListByKid)
	mux.HandleFunc("POST /api/kids/{id}/recompute", s.taskLogH.Recompute)
	mux.HandleFunc("GET /api/logs/pending", s.taskLogH.Pending)
	mux.HandleFunc("POST /api/logs/{id}/approve", s.taskLogH.Approve)
	mux.HandleFunc("POST /api/logs/{id}/reject", s.taskLogH.Reject)

	// Evidence
	mux.HandleFunc("POST /api/logs/{id}/evidence", s.evidenceH.Upload)
	mux.HandleFunc("GET /api/evidence/{key...}", s.evidenceH.Serve)

	// Task catalog
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("POST /api/tasks/samples", s.taskH.SetupSamples)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("GET /api/rewards/available", s.rewardH.ListAvailable)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("GET /api/kids/{id}/balance", s.rewardH.GetPointBalance)
	mux.HandleFunc("GET /api/kids/{id}/redemptions", s.rewardH.ListRedemptions)
	mux.HandleFunc("GET /api/balances", s.rewardH.ListPointBalances)
	mux.HandleFunc("GET /api/leaderboard", s.rewardH.GetLeaderboard)

	// Family config
	mux.HandleFunc("GET /api/family-config", s.familyConfigH.Get)
	mux.HandleFunc("PUT /api/family-config", s.familyConfigH.Update)

	// Dev maintenance
	mux.HandleFunc("POST /api/dev/populate", s.devH.Populate)
	mux.HandleFunc("POST /api/dev/reseed", s.devH.Reseed)
	mux.HandleFunc("POST /api/dev/cleanup-duplicates", s.devH.CleanupDuplicates)
	mux.HandleFunc("DELETE /api/dev/kids", s.devH.DeleteKids)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.origins, s.logger.With("component", "websocket")))
}
