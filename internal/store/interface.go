// Package store defines the persistence interface for the VidMemo server.
package store

import (
	"context"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
)

// TaskFilter narrows task listings. Zero values mean no filtering on
// that field. TagID matches tasks whose source memo carries the tag.
type TaskFilter struct {
	Status    domain.TaskStatus
	Priority  domain.TaskPriority
	TagID     string
	DueAfter  *time.Time
	DueBefore *time.Time
}

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Auth sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	RotateSessionToken(ctx context.Context, sessionID, oldHash, newHash string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Themes
	CreateTheme(ctx context.Context, theme *domain.Theme) error
	GetTheme(ctx context.Context, id string) (*domain.Theme, error)
	ListThemes(ctx context.Context, userID string) ([]*domain.Theme, error)
	UpdateTheme(ctx context.Context, theme *domain.Theme) error
	DeleteTheme(ctx context.Context, id string) error

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	ListTags(ctx context.Context, userID string) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	DeleteTag(ctx context.Context, id string) error

	// Videos
	CreateVideo(ctx context.Context, video *domain.Video) error
	GetVideo(ctx context.Context, id string) (*domain.Video, error)
	ListVideos(ctx context.Context, userID string) ([]*domain.Video, error)
	UpdateVideo(ctx context.Context, video *domain.Video) error
	DeleteVideo(ctx context.Context, id string) error

	// Memos
	CreateMemo(ctx context.Context, memo *domain.Memo) error
	GetMemo(ctx context.Context, id string) (*domain.Memo, error)
	ListMemos(ctx context.Context, userID string) ([]*domain.Memo, error)
	ListMemosByVideo(ctx context.Context, videoID string) ([]*domain.Memo, error)
	UpdateMemo(ctx context.Context, memo *domain.Memo) error
	DeleteMemo(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	UpdateTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]*domain.Task, error)
	OverdueTasks(ctx context.Context, userID string, now time.Time) ([]*domain.Task, error)
	UpcomingTasks(ctx context.Context, userID string, now time.Time, window time.Duration) ([]*domain.Task, error)
	TaskStats(ctx context.Context, userID string, now time.Time) (*domain.TaskStats, error)
	TaskDashboard(ctx context.Context, userID string, now time.Time, window time.Duration) (*domain.TaskDashboard, error)
	SearchTasks(ctx context.Context, userID, query string) ([]*domain.Task, error)

	// Reminders
	CreateReminder(ctx context.Context, reminder *domain.Reminder) error
	GetReminder(ctx context.Context, id string) (*domain.Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]*domain.Reminder, error)
	DueReminders(ctx context.Context, userID string, now time.Time) ([]*domain.Reminder, error)
	MarkReminderDispatched(ctx context.Context, id string, now time.Time) error
	DeleteReminder(ctx context.Context, id string) error
}
