package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/calmchores/internal/backup"
	"github.com/dukerupert/calmchores/internal/chore"
	"github.com/dukerupert/calmchores/internal/config"
	"github.com/dukerupert/calmchores/internal/handler"
	"github.com/dukerupert/calmchores/internal/middleware"
	"github.com/dukerupert/calmchores/internal/push"
	"github.com/dukerupert/calmchores/internal/store"
	ws "github.com/dukerupert/calmchores/internal/websocket"
)

// Signup and login attempts allowed per client IP.
const (
	authRateLimit  = 10
	authRatePeriod = time.Minute
)

type Server struct {
	hub            *ws.Hub
	authH          *handler.AuthHandler
	houseH         *handler.HouseHandler
	meH            *handler.MeHandler
	taskH          *handler.TaskHandler
	statsH         *handler.StatsHandler
	pushH          *handler.PushHandler
	sessionStore   *store.SessionStore
	houseStore     *store.HouseStore
	pushStore      *store.PushStore
	rateLimiter    *middleware.RateLimiter
	backupManager  *backup.Manager
	pushScheduler  *push.Scheduler
	allowedOrigins []string
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	houseStore := store.NewHouseStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)
	taskStore := store.NewTaskStore(db)
	pushSt := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	svc := chore.NewService(taskStore, houseStore, nil)

	backupMgr := backup.NewManager(backup.Config{
		S3:            cfg.S3,
		Passphrase:    cfg.BackupPassphrase,
		Interval:      cfg.BackupInterval,
		RetentionDays: cfg.BackupRetention,
	}, db, backupStore, logger.With("component", "backup"))

	// Push notification service + scheduler
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var notifier handler.AssignmentNotifier
	if cfg.PushEnabled() {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, pushSt, taskStore, logger.With("component", "push"))
		notifier = pushSched
	}

	return &Server{
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, houseStore, sessionStore, cfg.SecureCookies, logger.With("component", "auth")),
		houseH:         handler.NewHouseHandler(svc, houseStore, sessionStore, hub, logger.With("component", "house")),
		meH:            handler.NewMeHandler(userStore, houseStore, hub, logger.With("component", "me")),
		taskH:          handler.NewTaskHandler(svc, houseStore, hub, notifier, logger.With("component", "task")),
		statsH:         handler.NewStatsHandler(svc, houseStore, logger.With("component", "stats")),
		pushH:          handler.NewPushHandler(pushSt, pushSvc, logger.With("component", "push_handler")),
		sessionStore:   sessionStore,
		houseStore:     houseStore,
		pushStore:      pushSt,
		rateLimiter:    middleware.NewRateLimiter(),
		backupManager:  backupMgr,
		pushScheduler:  pushSched,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler, nil when push is
// not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.houseStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, authRateLimit, authRatePeriod)
	return rl(h).ServeHTTP
}

// inHouse guards routes that act on the session's current house.
func inHouse(h http.HandlerFunc) http.Handler {
	return middleware.RequireHouse(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Profile
	mux.HandleFunc("GET /api/me", s.meH.Get)
	mux.HandleFunc("PUT /api/me", s.meH.Update)
	mux.HandleFunc("PUT /api/me/password", s.meH.ChangePassword)

	// Houses the caller belongs to
	mux.HandleFunc("GET /api/houses", s.houseH.List)
	mux.HandleFunc("POST /api/houses", s.houseH.Create)
	mux.HandleFunc("POST /api/houses/join", s.houseH.Join)
	mux.HandleFunc("POST /api/houses/{id}/select", s.houseH.Select)

	// Current house
	mux.Handle("GET /api/house", inHouse(s.houseH.Get))
	mux.Handle("PUT /api/house", inHouse(s.houseH.Rename))
	mux.Handle("PUT /api/house/areas", inHouse(s.houseH.SetAreas))
	mux.Handle("DELETE /api/house/members/{id}", inHouse(s.houseH.RemoveMember))

	// Tasks
	mux.Handle("GET /api/tasks", inHouse(s.taskH.List))
	mux.Handle("POST /api/tasks", inHouse(s.taskH.Create))
	mux.Handle("GET /api/tasks/{id}", inHouse(s.taskH.Get))
	mux.Handle("PUT /api/tasks/{id}", inHouse(s.taskH.Update))
	mux.Handle("DELETE /api/tasks/{id}", inHouse(s.taskH.Delete))
	mux.Handle("POST /api/tasks/{id}/complete", inHouse(s.taskH.Complete))
	mux.Handle("POST /api/tasks/{id}/uncomplete", inHouse(s.taskH.Uncomplete))
	mux.Handle("POST /api/tasks/{id}/toggle", inHouse(s.taskH.Toggle))
	mux.Handle("GET /api/tasks/{id}/completions", inHouse(s.taskH.Completions))

	// Stats
	mux.Handle("GET /api/stats/me", inHouse(s.statsH.Me))
	mux.Handle("GET /api/stats/users/{id}", inHouse(s.statsH.User))
	mux.Handle("GET /api/stats/leaderboard", inHouse(s.statsH.Leaderboard))

	// Push notification API routes
	if s.pushScheduler != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.Handle("POST /api/push/subscriptions", inHouse(s.pushH.Subscribe))
		mux.Handle("DELETE /api/push/subscriptions", inHouse(s.pushH.Unsubscribe))
		mux.Handle("GET /api/push/subscriptions", inHouse(s.pushH.ListSubscriptions))
		mux.Handle("GET /api/push/preferences", inHouse(s.pushH.GetPreferences))
		mux.Handle("PUT /api/push/preferences", inHouse(s.pushH.UpdatePreferences))
		mux.Handle("POST /api/push/test", inHouse(s.pushH.TestNotification))
	}

	mux.Handle("GET /ws", inHouse(ws.HandleWebSocket(s.hub, s.allowedOrigins, s.logger.With("component", "websocket"))))
}
