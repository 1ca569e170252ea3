package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

const reminderColumns = `id, user_id, created_at, updated_at, task_id, memo_id, fire_at, status, dispatched_at`

func scanReminder(scanner interface{ Scan(dest ...any) error }) (*domain.Reminder, error) {
	var r domain.Reminder

	var (
		createdAt    string
		updatedAt    string
		taskID       sql.NullString
		memoID       sql.NullString
		fireAt       string
		status       string
		dispatchedAt sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&createdAt,
		&updatedAt,
		&taskID,
		&memoID,
		&fireAt,
		&status,
		&dispatchedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	r.FireAt, err = parseTime(fireAt)
	if err != nil {
		return nil, err
	}
	r.DispatchedAt, err = parseNullableTime(dispatchedAt)
	if err != nil {
		return nil, err
	}

	if taskID.Valid {
		r.TaskID = &taskID.String
	}
	if memoID.Valid {
		r.MemoID = &memoID.String
	}
	r.Status = domain.ReminderStatus(status)

	return &r, nil
}

// CreateReminder inserts a new reminder.
func (s *Store) CreateReminder(ctx context.Context, reminder *domain.Reminder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, user_id, created_at, updated_at, task_id, memo_id, fire_at, status, dispatched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reminder.ID,
		reminder.UserID,
		formatTime(reminder.CreatedAt),
		formatTime(reminder.UpdatedAt),
		nullableString(reminder.TaskID),
		nullableString(reminder.MemoID),
		formatTime(reminder.FireAt),
		string(reminder.Status),
		nullTimeString(reminder.DispatchedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrNotFound.WithMessage("associated resource not found")
		}
		return err
	}
	return nil
}

// GetReminder retrieves a reminder by ID.
func (s *Store) GetReminder(ctx context.Context, id string) (*domain.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)

	reminder, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

// ListReminders returns all reminders for a user, soonest fire time first.
func (s *Store) ListReminders(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	return s.queryReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? ORDER BY fire_at ASC`, userID)
}

// DueReminders returns a user's pending reminders whose fire time is at
// or before now, in fire order.
func (s *Store) DueReminders(ctx context.Context, userID string, now time.Time) ([]*domain.Reminder, error) {
	return s.queryReminders(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = ? AND status = ? AND fire_at <= ?
		ORDER BY fire_at ASC`,
		userID, string(domain.ReminderStatusPending), formatTime(now))
}

// MarkReminderDispatched transitions a reminder from pending to
// dispatched. The status check in the WHERE clause makes dispatch
// idempotent under races: a reminder already dispatched returns
// store.ErrConflict.
func (s *Store) MarkReminderDispatched(ctx context.Context, id string, now time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET
			status = ?,
			dispatched_at = ?,
			updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.ReminderStatusDispatched),
		formatTime(now),
		formatTime(now),
		id,
		string(domain.ReminderStatusPending),
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reminders WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrNotFound
		}
		return store.ErrConflict.WithMessage("reminder already dispatched")
	}
	return nil
}

// DeleteReminder performs a hard delete of a reminder by ID.
func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...any) ([]*domain.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*domain.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reminders, nil
}
