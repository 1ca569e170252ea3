package domain

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// TaskPriority is the urgency level of a task.
type TaskPriority string

// Task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the known values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a unit of actionable work, optionally derived from a memo.
//
// Invariant: CompletedAt is set if and only if Status is completed.
// Invariant: DueDate is retained after completion for historical reporting.
// MemoID is provenance only; the referenced memo may no longer exist.
type Task struct {
	Entity
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	MemoID      *string      `json:"memo_id,omitempty"`

	// Version increments on every write and backs optimistic locking.
	// Hidden from API responses.
	Version int64 `json:"-"`
}

// CanTransition reports whether moving from the task's current status to the
// target status is allowed. The transition graph is:
//
//	pending <-> in_progress
//	pending/in_progress -> completed
//	completed -> pending (reopen)
//
// completed -> in_progress is deliberately rejected: a completed task must be
// reopened to pending first so progress is re-acknowledged explicitly.
func (t *Task) CanTransition(to TaskStatus) bool {
	if t.Status == to {
		return false
	}
	switch t.Status {
	case TaskStatusPending:
		return to == TaskStatusInProgress || to == TaskStatusCompleted
	case TaskStatusInProgress:
		return to == TaskStatusPending || to == TaskStatusCompleted
	case TaskStatusCompleted:
		return to == TaskStatusPending
	}
	return false
}

// MarkCompleted transitions the task to completed at the given time.
// Callers must check CanTransition first.
func (t *Task) MarkCompleted(now time.Time) {
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// Reopen transitions a completed task back to pending and clears CompletedAt.
// Callers must check IsCompleted first.
func (t *Task) Reopen() {
	t.Status = TaskStatusPending
	t.CompletedAt = nil
	t.Touch()
}

// IsCompleted reports whether the task is in the completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// IsOverdue reports whether the task's due date has passed and the task is
// still open. Tasks without a due date are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted() {
		return false
	}
	return t.DueDate.Before(now)
}

// IsUpcoming reports whether the task's due date falls within [now, now+window)
// and the task is still open.
func (t *Task) IsUpcoming(now time.Time, window time.Duration) bool {
	if t.DueDate == nil || t.IsCompleted() {
		return false
	}
	due := *t.DueDate
	return !due.Before(now) && due.Before(now.Add(window))
}

// TaskStats is a point-in-time snapshot of a user's task aggregates.
// Recomputed per call rather than incrementally maintained.
type TaskStats struct {
	ByStatus     map[TaskStatus]int   `json:"counts_by_status"`
	ByPriority   map[TaskPriority]int `json:"counts_by_priority"`
	OverdueCount int                  `json:"overdue_count"`
}

// NewTaskStats returns stats with all known buckets pre-populated at zero so
// clients never see a missing key.
func NewTaskStats() *TaskStats {
	return &TaskStats{
		ByStatus: map[TaskStatus]int{
			TaskStatusPending:    0,
			TaskStatusInProgress: 0,
			TaskStatusCompleted:  0,
		},
		ByPriority: map[TaskPriority]int{
			TaskPriorityLow:    0,
			TaskPriorityMedium: 0,
			TaskPriorityHigh:   0,
		},
	}
}

// TaskDashboard is the composite snapshot returned by the dashboard query.
// All three sections reflect the same storage snapshot.
type TaskDashboard struct {
	Overdue  []*Task    `json:"overdue"`
	Upcoming []*Task    `json:"upcoming"`
	Stats    *TaskStats `json:"stats"`
}
