package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	domainerrors "github.com/vidmemo/vidmemo-server/internal/errors"
	"github.com/vidmemo/vidmemo-server/internal/id"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// ReminderService manages reminders attached to tasks or memos and
// their one-way pending to dispatched transition.
type ReminderService struct {
	store  store.Store
	logger *slog.Logger
}

// NewReminderService creates a new reminder service.
func NewReminderService(store store.Store, logger *slog.Logger) *ReminderService {
	return &ReminderService{store: store, logger: logger}
}

// CreateReminderRequest contains the fields for a new reminder.
// Exactly one of TaskID and MemoID must be set.
type CreateReminderRequest struct {
	TaskID *string   `json:"task_id"`
	MemoID *string   `json:"memo_id"`
	FireAt time.Time `json:"fire_at" validate:"required"`
}

// Create creates a reminder for one of the user's tasks or memos.
func (s *ReminderService) Create(ctx context.Context, userID string, req CreateReminderRequest) (*domain.Reminder, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	reminderID, err := id.Generate("reminder")
	if err != nil {
		return nil, fmt.Errorf("generate reminder ID: %w", err)
	}

	reminder := &domain.Reminder{
		Entity: domain.Entity{
			ID: reminderID,
		},
		UserID: userID,
		TaskID: req.TaskID,
		MemoID: req.MemoID,
		FireAt: req.FireAt,
		Status: domain.ReminderStatusPending,
	}
	reminder.InitTimestamps()

	if !reminder.HasValidAssociation() {
		return nil, domainerrors.Validation("exactly one of task_id and memo_id must be set")
	}

	// The association must exist and belong to the caller.
	if reminder.TaskID != nil {
		task, err := s.store.GetTask(ctx, *reminder.TaskID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("task not found")
			}
			return nil, fmt.Errorf("get task: %w", err)
		}
		if task.UserID != userID {
			return nil, domainerrors.NotFound("task not found")
		}
	}
	if reminder.MemoID != nil {
		memo, err := s.store.GetMemo(ctx, *reminder.MemoID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("memo not found")
			}
			return nil, fmt.Errorf("get memo: %w", err)
		}
		if memo.UserID != userID {
			return nil, domainerrors.NotFound("memo not found")
		}
	}

	if err := s.store.CreateReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return reminder, nil
}

// Get returns a reminder after checking ownership.
func (s *ReminderService) Get(ctx context.Context, userID, reminderID string) (*domain.Reminder, error) {
	return s.getOwned(ctx, userID, reminderID)
}

func (s *ReminderService) getOwned(ctx context.Context, userID, reminderID string) (*domain.Reminder, error) {
	reminder, err := s.store.GetReminder(ctx, reminderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("reminder not found")
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	if reminder.UserID != userID {
		return nil, domainerrors.Forbidden("reminder belongs to another user")
	}
	return reminder, nil
}

// List returns all of the user's reminders in fire order.
func (s *ReminderService) List(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	reminders, err := s.store.ListReminders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// Due returns the user's pending reminders with fire_at at or before
// now.
func (s *ReminderService) Due(ctx context.Context, userID string, now time.Time) ([]*domain.Reminder, error) {
	reminders, err := s.store.DueReminders(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return reminders, nil
}

// Dispatch marks a reminder dispatched. Dispatched is terminal:
// dispatching twice is a conflict, never a silent success.
func (s *ReminderService) Dispatch(ctx context.Context, userID, reminderID string) (*domain.Reminder, error) {
	if _, err := s.getOwned(ctx, userID, reminderID); err != nil {
		return nil, err
	}

	err := s.store.MarkReminderDispatched(ctx, reminderID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, domainerrors.Conflict("reminder already dispatched")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("reminder not found")
		}
		return nil, fmt.Errorf("dispatch reminder: %w", err)
	}

	reminder, err := s.store.GetReminder(ctx, reminderID)
	if err != nil {
		return nil, fmt.Errorf("reload reminder: %w", err)
	}
	return reminder, nil
}

// Delete removes a reminder after checking ownership.
func (s *ReminderService) Delete(ctx context.Context, userID, reminderID string) error {
	if _, err := s.getOwned(ctx, userID, reminderID); err != nil {
		return err
	}
	if err := s.store.DeleteReminder(ctx, reminderID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}
