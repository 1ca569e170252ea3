package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	domainerrors "github.com/vidmemo/vidmemo-server/internal/errors"
	"github.com/vidmemo/vidmemo-server/internal/id"
	"github.com/vidmemo/vidmemo-server/internal/store/sqlite"
)

const testWindow = 7 * 24 * time.Hour

type taskFixture struct {
	tasks  *TaskService
	memos  *MemoService
	videos *VideoService
	store  *sqlite.Store
	userID string
}

func setupTaskTest(t *testing.T) *taskFixture {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	userID := id.MustGenerate("user")
	user := &domain.User{
		Entity:       domain.Entity{ID: userID},
		Email:        userID + "@example.com",
		Username:     "tester",
		PasswordHash: "hash",
	}
	user.InitTimestamps()
	require.NoError(t, s.CreateUser(context.Background(), user))

	return &taskFixture{
		tasks:  NewTaskService(s, testWindow, 5*time.Second, nil),
		memos:  NewMemoService(s, nil),
		videos: NewVideoService(s, nil),
		store:  s,
		userID: userID,
	}
}

func (f *taskFixture) createTask(t *testing.T, req CreateTaskRequest) *domain.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), f.userID, req)
	require.NoError(t, err)
	return task
}

func (f *taskFixture) otherUser(t *testing.T) string {
	t.Helper()
	otherID := id.MustGenerate("user")
	user := &domain.User{
		Entity:       domain.Entity{ID: otherID},
		Email:        otherID + "@example.com",
		Username:     "other",
		PasswordHash: "hash",
	}
	user.InitTimestamps()
	require.NoError(t, f.store.CreateUser(context.Background(), user))
	return otherID
}

func TestCreateTask_Defaults(t *testing.T) {
	f := setupTaskTest(t)

	task := f.createTask(t, CreateTaskRequest{Title: "Write the summary"})

	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.MemoID)
	assert.Equal(t, int64(1), task.Version)
}

func TestCreateTask_Validation(t *testing.T) {
	f := setupTaskTest(t)

	_, err := f.tasks.Create(context.Background(), f.userID, CreateTaskRequest{Title: ""})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestUpdateTask_Patch(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	task := f.createTask(t, CreateTaskRequest{Title: "Original", Description: "keep me"})

	title := "Renamed"
	priority := "high"
	updated, err := f.tasks.Update(ctx, f.userID, task.ID, UpdateTaskRequest{
		Title:    &title,
		Priority: &priority,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, domain.TaskPriorityHigh, updated.Priority)
	// Unset fields stay as they were.
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, int64(2), updated.Version)
}

func TestUpdateTask_ClearDueDate(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	due := time.Now().Add(24 * time.Hour)
	task := f.createTask(t, CreateTaskRequest{Title: "Dated", DueDate: &due})

	updated, err := f.tasks.Update(ctx, f.userID, task.ID, UpdateTaskRequest{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
}

func TestUpdateTask_StatusTransitions(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	task := f.createTask(t, CreateTaskRequest{Title: "Stateful"})

	inProgress := "in_progress"
	updated, err := f.tasks.Update(ctx, f.userID, task.ID, UpdateTaskRequest{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)

	completed := "completed"
	updated, err = f.tasks.Update(ctx, f.userID, task.ID, UpdateTaskRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	// completed -> in_progress is not in the transition graph.
	_, err = f.tasks.Update(ctx, f.userID, task.ID, UpdateTaskRequest{Status: &inProgress})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeConflict, domainErr.Code)

	// completed -> pending reopens and clears completed_at.
	pending := "pending"
	updated, err = f.tasks.Update(ctx, f.userID, task.ID, UpdateTaskRequest{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, updated.Status)
	assert.Nil(t, updated.CompletedAt)
}

func TestCompleteTask(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	task := f.createTask(t, CreateTaskRequest{Title: "Finish me"})

	completed, err := f.tasks.Complete(ctx, f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	// Completing a completed task is a hard error, not a no-op.
	_, err = f.tasks.Complete(ctx, f.userID, task.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeConflict, domainErr.Code)
	assert.Equal(t, "task already completed", domainErr.Message)
}

func TestReopenTask(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	task := f.createTask(t, CreateTaskRequest{Title: "Cycle"})

	// Reopening a non-completed task is a conflict.
	_, err := f.tasks.Reopen(ctx, f.userID, task.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeConflict, domainErr.Code)

	first, err := f.tasks.Complete(ctx, f.userID, task.ID)
	require.NoError(t, err)
	firstCompletedAt := *first.CompletedAt

	reopened, err := f.tasks.Reopen(ctx, f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)

	// A later completion gets a fresh timestamp.
	time.Sleep(5 * time.Millisecond)
	second, err := f.tasks.Complete(ctx, f.userID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, second.CompletedAt.After(firstCompletedAt))
}

func TestTaskOwnership(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()
	otherID := f.otherUser(t)

	task := f.createTask(t, CreateTaskRequest{Title: "Mine"})

	_, err := f.tasks.Get(ctx, otherID, task.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	title := "Stolen"
	_, err = f.tasks.Update(ctx, otherID, task.ID, UpdateTaskRequest{Title: &title})
	require.Error(t, err)

	err = f.tasks.Delete(ctx, otherID, task.ID)
	require.Error(t, err)
}

func TestUpdateTask_RetriesStaleVersionOnce(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	task := f.createTask(t, CreateTaskRequest{Title: "Contended"})

	// Bump the stored version behind the service's back, simulating a
	// concurrent writer between reads. The service re-reads and
	// retries, so the patch still lands.
	stored, err := f.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	stored.Description = "touched concurrently"
	require.NoError(t, f.store.UpdateTask(ctx, stored))

	title := "Patched"
	updated, err := f.tasks.Update(ctx, f.userID, task.ID, UpdateTaskRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Patched", updated.Title)
	assert.Equal(t, "touched concurrently", updated.Description)
}

func TestCreateFromMemo(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	video, err := f.videos.Create(ctx, f.userID, CreateVideoRequest{
		YoutubeID:  "abc123",
		YoutubeURL: "https://www.youtube.com/watch?v=abc123",
		Title:      "Lecture",
	})
	require.NoError(t, err)

	memo, err := f.memos.Create(ctx, f.userID, CreateMemoRequest{
		VideoID: video.ID,
		Content: "Re-derive the proof from 12:30\nwith the alternative method",
	})
	require.NoError(t, err)

	task, err := f.tasks.CreateFromMemo(ctx, f.userID, memo.ID, CreateTaskRequest{})
	require.NoError(t, err)

	require.NotNil(t, task.MemoID)
	assert.Equal(t, memo.ID, *task.MemoID)
	// Title comes from the memo's first line.
	assert.Equal(t, "Re-derive the proof from 12:30", task.Title)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
}

func TestCreateFromMemo_SurvivesMemoDeletion(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	video, err := f.videos.Create(ctx, f.userID, CreateVideoRequest{
		YoutubeID:  "abc123",
		YoutubeURL: "https://www.youtube.com/watch?v=abc123",
		Title:      "Lecture",
	})
	require.NoError(t, err)

	memo, err := f.memos.Create(ctx, f.userID, CreateMemoRequest{
		VideoID: video.ID,
		Content: "fleeting note",
	})
	require.NoError(t, err)

	task, err := f.tasks.CreateFromMemo(ctx, f.userID, memo.ID, CreateTaskRequest{Title: "Derived"})
	require.NoError(t, err)

	require.NoError(t, f.memos.Delete(ctx, f.userID, memo.ID))

	// The task persists and keeps its provenance.
	got, err := f.tasks.Get(ctx, f.userID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MemoID)
	assert.Equal(t, memo.ID, *got.MemoID)
}

func TestCreateFromMemo_StoreFailureIsNotNotFound(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	require.NoError(t, f.store.Close())

	_, err := f.tasks.CreateFromMemo(ctx, f.userID, "memo-1", CreateTaskRequest{})
	require.Error(t, err)

	// An infrastructure failure must not masquerade as a missing memo.
	var domainErr *domainerrors.Error
	assert.False(t, errors.As(err, &domainErr), "got %v", err)
}

func TestCreateFromMemo_NotFound(t *testing.T) {
	f := setupTaskTest(t)

	_, err := f.tasks.CreateFromMemo(context.Background(), f.userID, "memo-nonexistent", CreateTaskRequest{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}

func TestDashboardConsistency(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)
	f.createTask(t, CreateTaskRequest{Title: "Overdue", DueDate: &past})
	f.createTask(t, CreateTaskRequest{Title: "Upcoming", DueDate: &soon})
	f.createTask(t, CreateTaskRequest{Title: "Undated"})

	dash, err := f.tasks.Dashboard(ctx, f.userID, now, 0)
	require.NoError(t, err)

	assert.Len(t, dash.Overdue, 1)
	assert.Len(t, dash.Upcoming, 1)
	require.NotNil(t, dash.Stats)
	assert.Equal(t, 1, dash.Stats.OverdueCount)
	assert.Equal(t, 3, dash.Stats.ByStatus[domain.TaskStatusPending])

	// Overdue and upcoming never overlap.
	for _, o := range dash.Overdue {
		for _, u := range dash.Upcoming {
			assert.NotEqual(t, o.ID, u.ID)
		}
	}
}

func TestSearch_BlankQueryListsAll(t *testing.T) {
	f := setupTaskTest(t)
	ctx := context.Background()

	f.createTask(t, CreateTaskRequest{Title: "Alpha"})
	f.createTask(t, CreateTaskRequest{Title: "Beta"})

	results, err := f.tasks.Search(ctx, f.userID, "   ")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	matches, err := f.tasks.Search(ctx, f.userID, "alp")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Alpha", matches[0].Title)
}
