// Package api provides the HTTP API server and handlers for the VidMemo backend.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/ratelimit"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService     *service.AuthService
	videoService    *service.VideoService
	memoService     *service.MemoService
	taskService     *service.TaskService
	reminderService *service.ReminderService
	tagService      *service.TagService
	themeService    *service.ThemeService
	authLimiter     *ratelimit.KeyedRateLimiter
	router          *chi.Mux
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	authService *service.AuthService,
	videoService *service.VideoService,
	memoService *service.MemoService,
	taskService *service.TaskService,
	reminderService *service.ReminderService,
	tagService *service.TagService,
	themeService *service.ThemeService,
	authLimiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) *Server {
	s := &Server{
		authService:     authService,
		videoService:    videoService,
		memoService:     memoService,
		taskService:     taskService,
		reminderService: reminderService,
		tagService:      tagService,
		themeService:    themeService,
		authLimiter:     authLimiter,
		router:          chi.NewRouter(),
		logger:          logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Unknown routes and methods still answer with the JSON envelope.
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "Route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, "Method not allowed", s.logger)
	})

	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		// Auth endpoints (public, rate limited per client IP).
		r.Route("/auth", func(r chi.Router) {
			if s.authLimiter != nil {
				r.Use(RateLimitMiddleware(s.authLimiter, s.logger))
			}
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
		})

		// Videos.
		r.Route("/videos", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateVideo)
			r.Get("/", s.handleListVideos)
			r.Get("/{id}", s.handleGetVideo)
			r.Patch("/{id}", s.handleUpdateVideo)
			r.Delete("/{id}", s.handleDeleteVideo)
			r.Get("/{id}/memos", s.handleListVideoMemos)
		})

		// Memos.
		r.Route("/memos", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateMemo)
			r.Get("/", s.handleListMemos)
			r.Get("/{id}", s.handleGetMemo)
			r.Patch("/{id}", s.handleUpdateMemo)
			r.Delete("/{id}", s.handleDeleteMemo)
		})

		// Tasks.
		r.Route("/tasks", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateTask)
			r.Get("/", s.handleListTasks)
			r.Get("/stats", s.handleTaskStats)
			r.Get("/overdue", s.handleOverdueTasks)
			r.Get("/upcoming", s.handleUpcomingTasks)
			r.Get("/dashboard", s.handleTaskDashboard)
			r.Get("/search", s.handleSearchTasks)
			r.Post("/from-memo/{memoID}", s.handleCreateTaskFromMemo)
			r.Get("/{id}", s.handleGetTask)
			r.Patch("/{id}", s.handleUpdateTask)
			r.Put("/{id}", s.handleUpdateTask)
			r.Delete("/{id}", s.handleDeleteTask)
			r.Post("/{id}/complete", s.handleCompleteTask)
			r.Post("/{id}/reopen", s.handleReopenTask)
		})

		// Reminders.
		r.Route("/reminders", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateReminder)
			r.Get("/", s.handleListReminders)
			r.Get("/due", s.handleDueReminders)
			r.Get("/{id}", s.handleGetReminder)
			r.Delete("/{id}", s.handleDeleteReminder)
			r.Post("/{id}/dispatch", s.handleDispatchReminder)
		})

		// Tags.
		r.Route("/tags", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateTag)
			r.Get("/", s.handleListTags)
			r.Patch("/{id}", s.handleUpdateTag)
			r.Delete("/{id}", s.handleDeleteTag)
		})

		// Themes.
		r.Route("/themes", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateTheme)
			r.Get("/", s.handleListThemes)
			r.Patch("/{id}", s.handleUpdateTheme)
			r.Delete("/{id}", s.handleDeleteTheme)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, r, map[string]string{
		"status": "healthy",
	}, s.logger)
}
