package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmemo/vidmemo-server/internal/domain"
)

// createTestTask creates a task over HTTP and returns its decoded form.
func createTestTask(t *testing.T, srv *Server, token string, body map[string]any) *domain.Task {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var out struct {
		Data domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return &out.Data
}

func TestCreateTask_Defaults(t *testing.T) {
	srv, authResp := newTestServer(t)

	task := createTestTask(t, srv, authResp.AccessToken, map[string]any{
		"title": "Review the chapter on interfaces",
	})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.CompletedAt)
}

func TestCreateTask_Validation(t *testing.T) {
	srv, authResp := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", authResp.AccessToken, map[string]any{
		"title":    "",
		"priority": "urgent",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)

	details, ok := env.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "priority")
}

func TestUpdateTask_PartialPatch(t *testing.T) {
	srv, authResp := newTestServer(t)
	task := createTestTask(t, srv, authResp.AccessToken, map[string]any{
		"title":       "Original title",
		"description": "Original description",
	})

	rec := doJSON(t, srv, http.MethodPatch, "/api/tasks/"+task.ID, authResp.AccessToken, map[string]any{
		"priority": "high",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Original title", out.Data.Title)
	assert.Equal(t, "Original description", out.Data.Description)
	assert.Equal(t, domain.TaskPriorityHigh, out.Data.Priority)
}

func TestUpdateTask_PutMethod(t *testing.T) {
	srv, authResp := newTestServer(t)
	task := createTestTask(t, srv, authResp.AccessToken, map[string]any{
		"title": "Keep the title",
	})

	// PUT is served with the same patch semantics as PATCH.
	rec := doJSON(t, srv, http.MethodPut, "/api/tasks/"+task.ID, authResp.AccessToken, map[string]any{
		"priority": "high",
	})

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	var out struct {
		Data domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Keep the title", out.Data.Title)
	assert.Equal(t, domain.TaskPriorityHigh, out.Data.Priority)
}

func TestTaskLifecycle_CompleteAndReopen(t *testing.T) {
	srv, authResp := newTestServer(t)
	token := authResp.AccessToken
	task := createTestTask(t, srv, token, map[string]any{"title": "Finish the essay"})

	// Complete.
	rec := doJSON(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, domain.TaskStatusCompleted, out.Data.Status)
	assert.NotNil(t, out.Data.CompletedAt)

	// Completing again is a conflict.
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/complete", token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	// Reopen returns it to pending with no completion time.
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/reopen", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out.Data = domain.Task{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, domain.TaskStatusPending, out.Data.Status)
	assert.Nil(t, out.Data.CompletedAt)

	// Reopening a task that is not completed is a conflict.
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/reopen", token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestListTasks_StatusFilter(t *testing.T) {
	srv, authResp := newTestServer(t)
	token := authResp.AccessToken

	createTestTask(t, srv, token, map[string]any{"title": "Task one"})
	done := createTestTask(t, srv, token, map[string]any{"title": "Task two"})

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks/"+done.ID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/tasks?status=pending", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data []domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "Task one", out.Data[0].Title)
}

func TestListTasks_InvalidDueAfter(t *testing.T) {
	srv, authResp := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks?due_after=yesterday", authResp.AccessToken, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
}

func TestTaskDashboard(t *testing.T) {
	srv, authResp := newTestServer(t)
	token := authResp.AccessToken
	now := time.Now().UTC()

	createTestTask(t, srv, token, map[string]any{
		"title":    "Already late",
		"due_date": now.Add(-24 * time.Hour).Format(time.RFC3339),
	})
	createTestTask(t, srv, token, map[string]any{
		"title":    "Due soon",
		"due_date": now.Add(24 * time.Hour).Format(time.RFC3339),
	})
	createTestTask(t, srv, token, map[string]any{"title": "No deadline"})

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/dashboard?now="+now.Format(time.RFC3339), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data domain.TaskDashboard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.Data.Stats)
	assert.Equal(t, 1, out.Data.Stats.OverdueCount)
	require.Len(t, out.Data.Overdue, 1)
	assert.Equal(t, "Already late", out.Data.Overdue[0].Title)
	require.Len(t, out.Data.Upcoming, 1)
	assert.Equal(t, "Due soon", out.Data.Upcoming[0].Title)
}

func TestSearchTasks(t *testing.T) {
	srv, authResp := newTestServer(t)
	token := authResp.AccessToken

	createTestTask(t, srv, token, map[string]any{"title": "Grind through the compiler chapter"})
	createTestTask(t, srv, token, map[string]any{"title": "Water the plants"})

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/search?q=compiler", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data []domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "Grind through the compiler chapter", out.Data[0].Title)
}

func TestCreateTaskFromMemo(t *testing.T) {
	srv, authResp := newTestServer(t)
	token := authResp.AccessToken

	// A memo needs a video to live on.
	rec := doJSON(t, srv, http.MethodPost, "/api/videos", token, map[string]any{
		"youtube_id":  "dQw4w9WgXcQ",
		"youtube_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"title":       "Lecture 12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var videoOut struct {
		Data domain.Video `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &videoOut))

	rec = doJSON(t, srv, http.MethodPost, "/api/memos", token, map[string]any{
		"video_id": videoOut.Data.ID,
		"content":  "Re-derive the proof from 12:30\nIt skipped two steps.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var memoOut struct {
		Data domain.Memo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &memoOut))

	// Deriving without a title falls back to the memo's first line.
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/from-memo/"+memoOut.Data.ID, token, map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var taskOut struct {
		Data domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &taskOut))
	assert.Equal(t, "Re-derive the proof from 12:30", taskOut.Data.Title)
	require.NotNil(t, taskOut.Data.MemoID)
	assert.Equal(t, memoOut.Data.ID, *taskOut.Data.MemoID)

	// The derived task survives deleting its source memo.
	rec = doJSON(t, srv, http.MethodDelete, "/api/memos/"+memoOut.Data.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/tasks/"+taskOut.Data.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTaskFromMemo_UnknownMemo(t *testing.T) {
	srv, authResp := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks/from-memo/memo-nope", authResp.AccessToken, map[string]any{})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTask_OwnershipIsolation(t *testing.T) {
	srv, authResp := newTestServer(t)
	task := createTestTask(t, srv, authResp.AccessToken, map[string]any{"title": "Private task"})

	// Register a second user.
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "bob@example.com",
		"username": "bobby",
		"password": "a-different-password",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var other struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &other))

	rec = doJSON(t, srv, http.MethodGet, "/api/tasks/"+task.ID, other.Data.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestDeleteTask(t *testing.T) {
	srv, authResp := newTestServer(t)
	token := authResp.AccessToken
	task := createTestTask(t, srv, token, map[string]any{"title": "Short-lived"})

	rec := doJSON(t, srv, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpcomingTasks_WindowOverride(t *testing.T) {
	srv, authResp := newTestServer(t)
	token := authResp.AccessToken
	now := time.Now().UTC()

	createTestTask(t, srv, token, map[string]any{
		"title":    "Due in two days",
		"due_date": now.Add(48 * time.Hour).Format(time.RFC3339),
	})

	// A one-day window excludes it.
	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/upcoming?now="+now.Format(time.RFC3339)+"&window=24h", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data []domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Empty(t, out.Data)

	// The default window (7 days) includes it.
	rec = doJSON(t, srv, http.MethodGet, "/api/tasks/upcoming?now="+now.Format(time.RFC3339), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Data, 1)
}

func TestUpcomingTasks_BadWindow(t *testing.T) {
	srv, authResp := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/upcoming?window=two-days", nil)
	req.Header.Set("Authorization", "Bearer "+authResp.AccessToken)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
