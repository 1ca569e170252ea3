package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	domainerrors "github.com/vidmemo/vidmemo-server/internal/errors"
	"github.com/vidmemo/vidmemo-server/internal/id"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// maxFromMemoTitle caps titles derived from memo content.
const maxFromMemoTitle = 120

// TaskService implements the task lifecycle: creation, patch updates,
// the pending/in_progress/completed state machine, and the aggregation
// queries backing the dashboard.
type TaskService struct {
	store          store.Store
	upcomingWindow time.Duration
	queryTimeout   time.Duration
	logger         *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(store store.Store, upcomingWindow, queryTimeout time.Duration, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:          store,
		upcomingWindow: upcomingWindow,
		queryTimeout:   queryTimeout,
		logger:         logger,
	}
}

// CreateTaskRequest contains the fields for a new task.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=500"`
	Description string     `json:"description" validate:"max=10000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest is a patch: nil fields are left unchanged.
// ClearDueDate removes the due date; it wins over DueDate.
type UpdateTaskRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=500"`
	Description  *string    `json:"description" validate:"omitempty,max=10000"`
	Status       *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// ListTasksRequest carries the list filters.
type ListTasksRequest struct {
	Status    string `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high"`
	TagID     string `json:"tag_id"`
	DueAfter  *time.Time
	DueBefore *time.Time
}

// Create creates a task owned by userID. Status starts pending and
// priority defaults to medium.
func (s *TaskService) Create(ctx context.Context, userID string, req CreateTaskRequest) (*domain.Task, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	taskID, err := id.Generate("task")
	if err != nil {
		return nil, fmt.Errorf("generate task ID: %w", err)
	}

	priority := domain.TaskPriorityMedium
	if req.Priority != "" {
		priority = domain.TaskPriority(req.Priority)
	}

	task := &domain.Task{
		Entity: domain.Entity{
			ID: taskID,
		},
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatusPending,
		Priority:    priority,
		DueDate:     req.DueDate,
		Version:     1,
	}
	task.InitTimestamps()

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// CreateFromMemo creates a task linked to one of the user's memos. The
// task records the memo as provenance; deleting the memo later leaves
// the task intact.
func (s *TaskService) CreateFromMemo(ctx context.Context, userID, memoID string, req CreateTaskRequest) (*domain.Task, error) {
	memo, err := s.store.GetMemo(ctx, memoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("memo not found")
		}
		return nil, fmt.Errorf("get memo: %w", err)
	}
	if memo.UserID != userID {
		return nil, domainerrors.NotFound("memo not found")
	}

	if req.Title == "" {
		req.Title = titleFromContent(memo.Content)
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	taskID, err := id.Generate("task")
	if err != nil {
		return nil, fmt.Errorf("generate task ID: %w", err)
	}

	priority := domain.TaskPriorityMedium
	if req.Priority != "" {
		priority = domain.TaskPriority(req.Priority)
	}

	task := &domain.Task{
		Entity: domain.Entity{
			ID: taskID,
		},
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatusPending,
		Priority:    priority,
		DueDate:     req.DueDate,
		MemoID:      &memoID,
		Version:     1,
	}
	task.InitTimestamps()

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task from memo: %w", err)
	}
	return task, nil
}

// titleFromContent derives a task title from the first line of memo
// content, truncated at a rune boundary.
func titleFromContent(content string) string {
	title := strings.TrimSpace(content)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if utf8.RuneCountInString(title) > maxFromMemoTitle {
		runes := []rune(title)
		title = string(runes[:maxFromMemoTitle])
	}
	if title == "" {
		title = "Untitled task"
	}
	return title
}

// Get returns a task after checking ownership.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.getOwned(ctx, userID, taskID)
}

func (s *TaskService) getOwned(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("task not found")
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task.UserID != userID {
		return nil, domainerrors.Forbidden("task belongs to another user")
	}
	return task, nil
}

// Update applies a patch to a task. Status changes go through the
// transition rules; the write uses optimistic concurrency with one
// internal retry before surfacing CONFLICT.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, req UpdateTaskRequest) (*domain.Task, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	return s.updateWithRetry(ctx, userID, taskID, func(task *domain.Task) error {
		return applyPatch(task, req)
	})
}

// Complete marks a task completed. Completing an already completed
// task is a hard error rather than a no-op, so clients notice the
// double submit.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.updateWithRetry(ctx, userID, taskID, func(task *domain.Task) error {
		if task.IsCompleted() {
			return domainerrors.Conflict("task already completed")
		}
		task.MarkCompleted(time.Now())
		return nil
	})
}

// Reopen moves a completed task back to pending and clears its
// completion timestamp.
func (s *TaskService) Reopen(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.updateWithRetry(ctx, userID, taskID, func(task *domain.Task) error {
		if !task.IsCompleted() {
			return domainerrors.Conflict("task is not completed")
		}
		task.Reopen()
		return nil
	})
}

// updateWithRetry loads the task, applies mutate, and writes it back
// under the version check. A single version conflict re-reads and
// retries once; a second conflict is returned to the caller.
func (s *TaskService) updateWithRetry(ctx context.Context, userID, taskID string, mutate func(*domain.Task) error) (*domain.Task, error) {
	for attempt := 0; ; attempt++ {
		task, err := s.getOwned(ctx, userID, taskID)
		if err != nil {
			return nil, err
		}

		if err := mutate(task); err != nil {
			return nil, err
		}
		task.Touch()

		err = s.store.UpdateTask(ctx, task)
		if err == nil {
			return task, nil
		}
		if errors.Is(err, store.ErrConflict) && attempt == 0 {
			if s.logger != nil {
				s.logger.Debug("Task version conflict, retrying", "task_id", taskID)
			}
			continue
		}
		if errors.Is(err, store.ErrConflict) {
			return nil, domainerrors.Conflict("task was modified concurrently")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("task not found")
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
}

func applyPatch(task *domain.Task, req UpdateTaskRequest) error {
	if req.Status != nil {
		to := domain.TaskStatus(*req.Status)
		if to != task.Status {
			if !task.CanTransition(to) {
				return domainerrors.Conflictf("cannot transition task from %s to %s", task.Status, to)
			}
			switch to {
			case domain.TaskStatusCompleted:
				task.MarkCompleted(time.Now())
			case domain.TaskStatusPending:
				if task.IsCompleted() {
					task.Reopen()
				} else {
					task.Status = to
				}
			default:
				task.Status = to
			}
		}
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = domain.TaskPriority(*req.Priority)
	}
	if req.ClearDueDate {
		task.DueDate = nil
	} else if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	return nil
}

// Delete removes a task after checking ownership.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.getOwned(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// List returns the user's tasks, filtered.
func (s *TaskService) List(ctx context.Context, userID string, req ListTasksRequest) ([]*domain.Task, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, userID, store.TaskFilter{
		Status:    domain.TaskStatus(req.Status),
		Priority:  domain.TaskPriority(req.Priority),
		TagID:     req.TagID,
		DueAfter:  req.DueAfter,
		DueBefore: req.DueBefore,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Overdue returns uncompleted tasks due before now.
func (s *TaskService) Overdue(ctx context.Context, userID string, now time.Time) ([]*domain.Task, error) {
	tasks, err := s.store.OverdueTasks(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("overdue tasks: %w", err)
	}
	return tasks, nil
}

// Upcoming returns uncompleted tasks due within the window. A zero
// window uses the configured default.
func (s *TaskService) Upcoming(ctx context.Context, userID string, now time.Time, window time.Duration) ([]*domain.Task, error) {
	if window <= 0 {
		window = s.upcomingWindow
	}
	tasks, err := s.store.UpcomingTasks(ctx, userID, now, window)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	return tasks, nil
}

// Stats recomputes the status, priority, and overdue counts.
func (s *TaskService) Stats(ctx context.Context, userID string, now time.Time) (*domain.TaskStats, error) {
	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	stats, err := s.store.TaskStats(ctx, userID, now)
	if err != nil {
		return nil, s.wrapQueryErr(ctx, err, "task stats")
	}
	return stats, nil
}

// Dashboard assembles overdue, upcoming, and stats from one snapshot.
func (s *TaskService) Dashboard(ctx context.Context, userID string, now time.Time, window time.Duration) (*domain.TaskDashboard, error) {
	if window <= 0 {
		window = s.upcomingWindow
	}

	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	dash, err := s.store.TaskDashboard(ctx, userID, now, window)
	if err != nil {
		return nil, s.wrapQueryErr(ctx, err, "task dashboard")
	}
	return dash, nil
}

// Search does a case-insensitive substring match over title and
// description. A blank query returns the full list.
func (s *TaskService) Search(ctx context.Context, userID, query string) ([]*domain.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, userID, ListTasksRequest{})
	}

	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	tasks, err := s.store.SearchTasks(ctx, userID, query)
	if err != nil {
		return nil, s.wrapQueryErr(ctx, err, "search tasks")
	}
	return tasks, nil
}

func (s *TaskService) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *TaskService) wrapQueryErr(ctx context.Context, err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domainerrors.Timeout(op + " timed out")
	}
	return fmt.Errorf("%s: %w", op, err)
}
