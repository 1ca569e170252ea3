package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so the task queries
// can run standalone or inside the dashboard transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// taskColumns is the ordered list of columns selected in task queries.
// Must match the scan order in scanTask.
const taskColumns = `id, user_id, created_at, updated_at, title, description,
	status, priority, due_date, completed_at, memo_id, version`

// taskOrder sorts by due date with undated tasks last, ties broken by
// newest first.
const taskOrder = ` ORDER BY due_date IS NULL, due_date ASC, created_at DESC`

// scanTask scans a sql.Row (or sql.Rows via its Scan method) into a domain.Task.
func scanTask(scanner interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var t domain.Task

	var (
		createdAt   string
		updatedAt   string
		status      string
		priority    string
		dueDate     sql.NullString
		completedAt sql.NullString
		memoID      sql.NullString
	)

	err := scanner.Scan(
		&t.ID,
		&t.UserID,
		&createdAt,
		&updatedAt,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&dueDate,
		&completedAt,
		&memoID,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	t.DueDate, err = parseNullableTime(dueDate)
	if err != nil {
		return nil, err
	}
	t.CompletedAt, err = parseNullableTime(completedAt)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	if memoID.Valid {
		t.MemoID = &memoID.String
	}

	return &t, nil
}

// CreateTask inserts a new task. The version column starts at 1.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, created_at, updated_at, title, description,
			status, priority, due_date, completed_at, memo_id, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTimeString(task.DueDate),
		nullTimeString(task.CompletedAt),
		nullableString(task.MemoID),
		task.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTask retrieves a task by ID.
// Returns store.ErrNotFound if the task does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask writes a task back using optimistic concurrency: the
// update only applies if the stored version still matches task.Version.
// On success the task's version is incremented in place. A stale
// version returns store.ErrConflict; a missing row returns
// store.ErrNotFound.
func (s *Store) UpdateTask(ctx context.Context, task *domain.Task) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			updated_at = ?,
			title = ?,
			description = ?,
			status = ?,
			priority = ?,
			due_date = ?,
			completed_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?`,
		formatTime(task.UpdatedAt),
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTimeString(task.DueDate),
		nullTimeString(task.CompletedAt),
		task.ID,
		task.Version,
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
			`SELECT COUNT(*) FROM tasks WHERE id = ?`, task.ID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrNotFound
		}
		return store.ErrConflict
	}

	task.Version++
	return nil
}

// DeleteTask performs a hard delete of a task by ID.
// Reminders on the task are removed by cascade.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ?`, id)
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

// ListTasks returns a user's tasks, optionally filtered by status and
// priority.
func (s *Store) ListTasks(ctx context.Context, userID string, filter store.TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.TagID != "" {
		query += ` AND memo_id IN (SELECT memo_id FROM memo_tags WHERE tag_id = ?)`
		args = append(args, filter.TagID)
	}
	if filter.DueAfter != nil {
		query += ` AND due_date >= ?`
		args = append(args, formatTime(*filter.DueAfter))
	}
	if filter.DueBefore != nil {
		query += ` AND due_date < ?`
		args = append(args, formatTime(*filter.DueBefore))
	}
	query += taskOrder

	return queryTasks(ctx, s.db, query, args...)
}

// OverdueTasks returns a user's uncompleted tasks whose due date is
// strictly before now, most overdue first.
func (s *Store) OverdueTasks(ctx context.Context, userID string, now time.Time) ([]*domain.Task, error) {
	return overdueTasks(ctx, s.db, userID, now)
}

// UpcomingTasks returns a user's uncompleted tasks due within
// [now, now+window), soonest first. Disjoint from OverdueTasks for the
// same now.
func (s *Store) UpcomingTasks(ctx context.Context, userID string, now time.Time, window time.Duration) ([]*domain.Task, error) {
	return upcomingTasks(ctx, s.db, userID, now, window)
}

// TaskStats returns counts of a user's tasks by status and priority,
// plus the number currently overdue. Every status and priority bucket
// is present even when zero.
func (s *Store) TaskStats(ctx context.Context, userID string, now time.Time) (*domain.TaskStats, error) {
	return taskStats(ctx, s.db, userID, now)
}

// TaskDashboard assembles overdue tasks, upcoming tasks, and stats in a
// single transaction so all three views reflect the same snapshot.
func (s *Store) TaskDashboard(ctx context.Context, userID string, now time.Time, window time.Duration) (*domain.TaskDashboard, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	overdue, err := overdueTasks(ctx, tx, userID, now)
	if err != nil {
		return nil, err
	}
	upcoming, err := upcomingTasks(ctx, tx, userID, now, window)
	if err != nil {
		return nil, err
	}
	stats, err := taskStats(ctx, tx, userID, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.TaskDashboard{
		Overdue:  overdue,
		Upcoming: upcoming,
		Stats:    stats,
	}, nil
}

// SearchTasks returns a user's tasks whose title or description
// contains the query, case-insensitively.
func (s *Store) SearchTasks(ctx context.Context, userID, query string) ([]*domain.Task, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return queryTasks(ctx, s.db, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ?
		  AND (lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')`+taskOrder,
		userID, pattern, pattern)
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func overdueTasks(ctx context.Context, q queryer, userID string, now time.Time) ([]*domain.Task, error) {
	return queryTasks(ctx, q, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND status != ? AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date ASC, created_at DESC`,
		userID, string(domain.TaskStatusCompleted), formatTime(now))
}

func upcomingTasks(ctx context.Context, q queryer, userID string, now time.Time, window time.Duration) ([]*domain.Task, error) {
	return queryTasks(ctx, q, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND status != ? AND due_date IS NOT NULL
		  AND due_date >= ? AND due_date < ?
		ORDER BY due_date ASC, created_at DESC`,
		userID, string(domain.TaskStatusCompleted), formatTime(now), formatTime(now.Add(window)))
}

func taskStats(ctx context.Context, q queryer, userID string, now time.Time) (*domain.TaskStats, error) {
	stats := domain.NewTaskStats()

	rows, err := q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByStatus[domain.TaskStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = q.QueryContext(ctx,
		`SELECT priority, COUNT(*) FROM tasks WHERE user_id = ? GROUP BY priority`, userID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var priority string
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByPriority[domain.TaskPriority(priority)] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE user_id = ? AND status != ? AND due_date IS NOT NULL AND due_date < ?`,
		userID, string(domain.TaskStatusCompleted), formatTime(now)).Scan(&stats.OverdueCount)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func queryTasks(ctx context.Context, q queryer, query string, args ...any) ([]*domain.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
