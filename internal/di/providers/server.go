package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/vidmemo/vidmemo-server/internal/api"
	"github.com/vidmemo/vidmemo-server/internal/config"
	"github.com/vidmemo/vidmemo-server/internal/logger"
	"github.com/vidmemo/vidmemo-server/internal/ratelimit"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// AuthRateLimiterHandle wraps the per-IP auth limiter with Shutdownable.
type AuthRateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *AuthRateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAuthRateLimiter provides the rate limiter guarding the auth endpoints.
func ProvideAuthRateLimiter(i do.Injector) (*AuthRateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := api.NewAuthRateLimiter(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst)
	return &AuthRateLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiterHandle := do.MustInvoke[*AuthRateLimiterHandle](i)

	authService := do.MustInvoke[*service.AuthService](i)
	videoService := do.MustInvoke[*service.VideoService](i)
	memoService := do.MustInvoke[*service.MemoService](i)
	taskService := do.MustInvoke[*service.TaskService](i)
	reminderService := do.MustInvoke[*service.ReminderService](i)
	tagService := do.MustInvoke[*service.TagService](i)
	themeService := do.MustInvoke[*service.ThemeService](i)

	handler := api.NewServer(
		authService,
		videoService,
		memoService,
		taskService,
		reminderService,
		tagService,
		themeService,
		limiterHandle.KeyedRateLimiter,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
