// Package di provides dependency injection configuration for the VidMemo server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/vidmemo/vidmemo-server/internal/auth"
	"github.com/vidmemo/vidmemo-server/internal/config"
	"github.com/vidmemo/vidmemo-server/internal/di/providers"
	"github.com/vidmemo/vidmemo-server/internal/logger"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideVideoService)
	do.Provide(injector, providers.ProvideMemoService)
	do.Provide(injector, providers.ProvideTaskService)
	do.Provide(injector, providers.ProvideReminderService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideThemeService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideAuthRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.VideoService](injector)
	_ = do.MustInvoke[*service.MemoService](injector)
	_ = do.MustInvoke[*service.TaskService](injector)
	_ = do.MustInvoke[*service.ReminderService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.ThemeService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.AuthRateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
