package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

func makeTestTask(id, userID, title string) *domain.Task {
	now := time.Now()
	return &domain.Task{
		Entity: domain.Entity{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:   userID,
		Title:    title,
		Status:   domain.TaskStatusPending,
		Priority: domain.TaskPriorityMedium,
	}
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	due := time.Now().Add(48 * time.Hour)
	memoID := "memo-1"
	task := makeTestTask("task-1", "user-1", "Watch the follow-up lecture")
	task.Description = "Second half of the series"
	task.Priority = domain.TaskPriorityHigh
	task.DueDate = &due
	task.MemoID = &memoID

	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != task.Title {
		t.Errorf("Title: got %q, want %q", got.Title, task.Title)
	}
	if got.Status != domain.TaskStatusPending {
		t.Errorf("Status: got %q, want pending", got.Status)
	}
	if got.Priority != domain.TaskPriorityHigh {
		t.Errorf("Priority: got %q, want high", got.Priority)
	}
	if got.DueDate == nil || got.DueDate.Unix() != due.Unix() {
		t.Errorf("DueDate: got %v, want %v", got.DueDate, due)
	}
	if got.MemoID == nil || *got.MemoID != "memo-1" {
		t.Errorf("MemoID: got %v, want memo-1", got.MemoID)
	}
	if got.Version != 1 {
		t.Errorf("Version: got %d, want 1", got.Version)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt: got %v, want nil", got.CompletedAt)
	}
}

func TestUpdateTask_VersionIncrements(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	task := makeTestTask("task-1", "user-1", "Original")
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	task.Title = "Renamed"
	if err := s.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.Version != 2 {
		t.Errorf("in-memory Version: got %d, want 2", task.Version)
	}

	got, err := s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("Title: got %q, want %q", got.Title, "Renamed")
	}
	if got.Version != 2 {
		t.Errorf("stored Version: got %d, want 2", got.Version)
	}
}

func TestUpdateTask_StaleVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	task := makeTestTask("task-1", "user-1", "Contended")
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// Two readers load the same version.
	first, err := s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	second, err := s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}

	first.Title = "Winner"
	if err := s.UpdateTask(ctx, first); err != nil {
		t.Fatalf("first UpdateTask: %v", err)
	}

	second.Title = "Loser"
	err = s.UpdateTask(ctx, second)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Winner" {
		t.Errorf("Title: got %q, want %q", got.Title, "Winner")
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := makeTestTask("nonexistent", "user-1", "Ghost")
	task.Version = 1
	if err := s.UpdateTask(ctx, task); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTasks_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")
	seedUser(t, s, "user-2")

	pending := makeTestTask("task-1", "user-1", "Pending medium")
	inProgress := makeTestTask("task-2", "user-1", "In progress high")
	inProgress.Status = domain.TaskStatusInProgress
	inProgress.Priority = domain.TaskPriorityHigh
	other := makeTestTask("task-3", "user-2", "Someone else's")

	for _, task := range []*domain.Task{pending, inProgress, other} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", task.ID, err)
		}
	}

	all, err := s.ListTasks(ctx, "user-1", store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}

	byStatus, err := s.ListTasks(ctx, "user-1", store.TaskFilter{Status: domain.TaskStatusInProgress})
	if err != nil {
		t.Fatalf("ListTasks by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "task-2" {
		t.Errorf("status filter: got %d tasks", len(byStatus))
	}

	both, err := s.ListTasks(ctx, "user-1", store.TaskFilter{
		Status:   domain.TaskStatusInProgress,
		Priority: domain.TaskPriorityHigh,
	})
	if err != nil {
		t.Fatalf("ListTasks combined: %v", err)
	}
	if len(both) != 1 || both[0].ID != "task-2" {
		t.Errorf("combined filter: got %d tasks", len(both))
	}

	none, err := s.ListTasks(ctx, "user-1", store.TaskFilter{Priority: domain.TaskPriorityLow})
	if err != nil {
		t.Fatalf("ListTasks none: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no low-priority tasks, got %d", len(none))
	}
}

func TestListTasks_DueDateOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	now := time.Now()
	later := now.Add(72 * time.Hour)
	sooner := now.Add(24 * time.Hour)

	undated := makeTestTask("task-undated", "user-1", "No due date")
	far := makeTestTask("task-far", "user-1", "Later")
	far.DueDate = &later
	near := makeTestTask("task-near", "user-1", "Sooner")
	near.DueDate = &sooner

	for _, task := range []*domain.Task{undated, far, near} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", task.ID, err)
		}
	}

	tasks, err := s.ListTasks(ctx, "user-1", store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	want := []string{"task-near", "task-far", "task-undated"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, tasks[i].ID, id)
		}
	}
}

func TestOverdueAndUpcomingDisjoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	now := time.Now()
	window := 7 * 24 * time.Hour

	past := now.Add(-24 * time.Hour)
	inside := now.Add(48 * time.Hour)
	beyond := now.Add(10 * 24 * time.Hour)

	overdueTask := makeTestTask("task-overdue", "user-1", "Overdue")
	overdueTask.DueDate = &past
	upcomingTask := makeTestTask("task-upcoming", "user-1", "Upcoming")
	upcomingTask.DueDate = &inside
	farTask := makeTestTask("task-far", "user-1", "Beyond the window")
	farTask.DueDate = &beyond
	doneTask := makeTestTask("task-done", "user-1", "Completed late")
	doneTask.DueDate = &past
	doneTask.MarkCompleted(now)

	for _, task := range []*domain.Task{overdueTask, upcomingTask, farTask, doneTask} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", task.ID, err)
		}
	}

	overdue, err := s.OverdueTasks(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("OverdueTasks: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != "task-overdue" {
		t.Errorf("overdue: got %d tasks", len(overdue))
	}

	upcoming, err := s.UpcomingTasks(ctx, "user-1", now, window)
	if err != nil {
		t.Fatalf("UpcomingTasks: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ID != "task-upcoming" {
		t.Errorf("upcoming: got %d tasks", len(upcoming))
	}

	// No task appears in both buckets.
	seen := map[string]bool{}
	for _, task := range overdue {
		seen[task.ID] = true
	}
	for _, task := range upcoming {
		if seen[task.ID] {
			t.Errorf("task %s in both overdue and upcoming", task.ID)
		}
	}
}

func TestOverdueTasks_SubsecondBoundary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	// A whole-second due date must still compare as past when now falls
	// a fraction of a second later inside the same second.
	due := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := due.Add(500 * time.Millisecond)

	task := makeTestTask("task-1", "user-1", "Due on the second")
	task.DueDate = &due
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	overdue, err := s.OverdueTasks(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("OverdueTasks: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != "task-1" {
		t.Fatalf("expected the task overdue, got %d results", len(overdue))
	}

	upcoming, err := s.UpcomingTasks(ctx, "user-1", now, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("UpcomingTasks: %v", err)
	}
	if len(upcoming) != 0 {
		t.Errorf("expected no upcoming tasks, got %d", len(upcoming))
	}

	stats, err := s.TaskStats(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("TaskStats: %v", err)
	}
	if stats.OverdueCount != 1 {
		t.Errorf("overdue count: got %d, want 1", stats.OverdueCount)
	}
}

func TestTaskStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	now := time.Now()
	past := now.Add(-time.Hour)

	t1 := makeTestTask("task-1", "user-1", "Pending low")
	t1.Priority = domain.TaskPriorityLow
	t2 := makeTestTask("task-2", "user-1", "Pending overdue")
	t2.DueDate = &past
	t3 := makeTestTask("task-3", "user-1", "Done high")
	t3.Priority = domain.TaskPriorityHigh
	t3.MarkCompleted(now)

	for _, task := range []*domain.Task{t1, t2, t3} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", task.ID, err)
		}
	}

	stats, err := s.TaskStats(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("TaskStats: %v", err)
	}

	if got := stats.ByStatus[domain.TaskStatusPending]; got != 2 {
		t.Errorf("pending: got %d, want 2", got)
	}
	if got := stats.ByStatus[domain.TaskStatusInProgress]; got != 0 {
		t.Errorf("in_progress: got %d, want 0", got)
	}
	if got := stats.ByStatus[domain.TaskStatusCompleted]; got != 1 {
		t.Errorf("completed: got %d, want 1", got)
	}
	if got := stats.ByPriority[domain.TaskPriorityMedium]; got != 1 {
		t.Errorf("medium: got %d, want 1", got)
	}
	if stats.OverdueCount != 1 {
		t.Errorf("overdue: got %d, want 1", stats.OverdueCount)
	}
}

func TestTaskStats_EmptyBuckets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	stats, err := s.TaskStats(ctx, "user-1", time.Now())
	if err != nil {
		t.Fatalf("TaskStats: %v", err)
	}
	if len(stats.ByStatus) != 3 {
		t.Errorf("expected 3 status buckets, got %d", len(stats.ByStatus))
	}
	if len(stats.ByPriority) != 3 {
		t.Errorf("expected 3 priority buckets, got %d", len(stats.ByPriority))
	}
	if stats.OverdueCount != 0 {
		t.Errorf("overdue: got %d, want 0", stats.OverdueCount)
	}
}

func TestTaskDashboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	now := time.Now()
	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)

	overdueTask := makeTestTask("task-overdue", "user-1", "Overdue")
	overdueTask.DueDate = &past
	upcomingTask := makeTestTask("task-upcoming", "user-1", "Upcoming")
	upcomingTask.DueDate = &soon

	for _, task := range []*domain.Task{overdueTask, upcomingTask} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", task.ID, err)
		}
	}

	dash, err := s.TaskDashboard(ctx, "user-1", now, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("TaskDashboard: %v", err)
	}
	if len(dash.Overdue) != 1 || dash.Overdue[0].ID != "task-overdue" {
		t.Errorf("dashboard overdue: got %d tasks", len(dash.Overdue))
	}
	if len(dash.Upcoming) != 1 || dash.Upcoming[0].ID != "task-upcoming" {
		t.Errorf("dashboard upcoming: got %d tasks", len(dash.Upcoming))
	}
	if dash.Stats == nil {
		t.Fatal("dashboard stats missing")
	}
	// Stats come from the same snapshot as the lists.
	if dash.Stats.OverdueCount != len(dash.Overdue) {
		t.Errorf("stats overdue %d != list overdue %d", dash.Stats.OverdueCount, len(dash.Overdue))
	}
}

func TestSearchTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")
	seedUser(t, s, "user-2")

	t1 := makeTestTask("task-1", "user-1", "Review Kubernetes networking")
	t2 := makeTestTask("task-2", "user-1", "Groceries")
	t2.Description = "Also check the NETWORK drive backup"
	t3 := makeTestTask("task-3", "user-2", "Networking homework")

	for _, task := range []*domain.Task{t1, t2, t3} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", task.ID, err)
		}
	}

	// Case-insensitive, matches title or description, scoped to the user.
	results, err := s.SearchTasks(ctx, "user-1", "network")
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	// LIKE metacharacters in the query match literally.
	literal, err := s.SearchTasks(ctx, "user-1", "100%")
	if err != nil {
		t.Fatalf("SearchTasks literal: %v", err)
	}
	if len(literal) != 0 {
		t.Errorf("expected no results for %%-literal query, got %d", len(literal))
	}
}

func TestDeleteTask_CascadesReminders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	task := makeTestTask("task-1", "user-1", "Has a reminder")
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	taskID := "task-1"
	reminder := makeTestReminder("rem-1", "user-1")
	reminder.TaskID = &taskID
	if err := s.CreateReminder(ctx, reminder); err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	if err := s.DeleteTask(ctx, "task-1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	if _, err := s.GetReminder(ctx, "rem-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("reminder should cascade away, got %v", err)
	}
}
