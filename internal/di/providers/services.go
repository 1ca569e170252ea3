package providers

import (
	"github.com/samber/do/v2"

	"github.com/vidmemo/vidmemo-server/internal/auth"
	"github.com/vidmemo/vidmemo-server/internal/config"
	"github.com/vidmemo/vidmemo-server/internal/logger"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Logger), nil
}

// ProvideVideoService provides the video library service.
func ProvideVideoService(i do.Injector) (*service.VideoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVideoService(storeHandle.Store, log.Logger), nil
}

// ProvideMemoService provides the memo service.
func ProvideMemoService(i do.Injector) (*service.MemoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMemoService(storeHandle.Store, log.Logger), nil
}

// ProvideTaskService provides the task service.
func ProvideTaskService(i do.Injector) (*service.TaskService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTaskService(storeHandle.Store, cfg.Tasks.UpcomingWindow, cfg.Tasks.QueryTimeout, log.Logger), nil
}

// ProvideReminderService provides the reminder service.
func ProvideReminderService(i do.Injector) (*service.ReminderService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReminderService(storeHandle.Store, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideThemeService provides the theme service.
func ProvideThemeService(i do.Injector) (*service.ThemeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewThemeService(storeHandle.Store, log.Logger), nil
}
