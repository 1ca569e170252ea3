package domain

import "time"

// ReminderStatus is the delivery state of a reminder.
type ReminderStatus string

// Reminder statuses. dispatched is terminal.
const (
	ReminderStatusPending    ReminderStatus = "pending"
	ReminderStatusDispatched ReminderStatus = "dispatched"
)

// Reminder is a scheduled due-time notice tied to a task or a memo.
// Exactly one of TaskID/MemoID must be set. Delivery is pull-based: callers
// poll for due reminders and mark them dispatched to avoid redelivery.
type Reminder struct {
	Entity
	UserID       string         `json:"user_id"`
	TaskID       *string        `json:"task_id,omitempty"`
	MemoID       *string        `json:"memo_id,omitempty"`
	FireAt       time.Time      `json:"fire_at"`
	Status       ReminderStatus `json:"status"`
	DispatchedAt *time.Time     `json:"dispatched_at,omitempty"`
}

// HasValidAssociation reports whether exactly one of TaskID/MemoID is set.
func (r *Reminder) HasValidAssociation() bool {
	return (r.TaskID != nil) != (r.MemoID != nil)
}

// IsDue reports whether the reminder should fire at or before the given time
// and has not been dispatched yet.
func (r *Reminder) IsDue(now time.Time) bool {
	return r.Status == ReminderStatusPending && !r.FireAt.After(now)
}

// MarkDispatched moves the reminder to the terminal dispatched state.
// Callers must verify the reminder is still pending.
func (r *Reminder) MarkDispatched(now time.Time) {
	r.Status = ReminderStatusDispatched
	r.DispatchedAt = &now
	r.UpdatedAt = now
}
