package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// handleCreateTask creates a standalone task.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)

	var req service.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	task, err := s.taskService.Create(ctx, userID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, task, s.logger)
}

// handleCreateTaskFromMemo derives a task from one of the user's memos.
// An empty title falls back to the first line of the memo content.
func (s *Server) handleCreateTaskFromMemo(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	memoID := chi.URLParam(r, "memoID")

	var req service.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	task, err := s.taskService.CreateFromMemo(ctx, userID, memoID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, task, s.logger)
}

// handleGetTask returns a single task by ID.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	task, err := s.taskService.Get(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, task, s.logger)
}

// handleListTasks returns the user's tasks, optionally filtered by
// status, priority, tag and due date range.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	q := r.URL.Query()
	req := service.ListTasksRequest{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		TagID:    q.Get("tag_id"),
	}

	if raw := q.Get("due_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, r, "Invalid due_after parameter, expected RFC 3339 timestamp", s.logger)
			return
		}
		req.DueAfter = &t
	}
	if raw := q.Get("due_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, r, "Invalid due_before parameter, expected RFC 3339 timestamp", s.logger)
			return
		}
		req.DueBefore = &t
	}

	tasks, err := s.taskService.List(ctx, userID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, tasks, s.logger)
}

// handleUpdateTask applies a partial update to a task.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	var req service.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	task, err := s.taskService.Update(ctx, userID, id, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, task, s.logger)
}

// handleCompleteTask marks a task completed.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	task, err := s.taskService.Complete(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, task, s.logger)
}

// handleReopenTask moves a completed task back to pending.
func (s *Server) handleReopenTask(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	task, err := s.taskService.Reopen(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, task, s.logger)
}

// handleDeleteTask deletes a task.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := s.taskService.Delete(ctx, userID, id); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleOverdueTasks returns open tasks whose due date has passed.
func (s *Server) handleOverdueTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	now, err := parseTimeQuery(r, "now", time.Now())
	if err != nil {
		response.BadRequest(w, r, "Invalid now parameter, expected RFC 3339 timestamp", s.logger)
		return
	}

	tasks, err := s.taskService.Overdue(ctx, userID, now)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, tasks, s.logger)
}

// handleUpcomingTasks returns open tasks due within the window.
// The window defaults to the configured value and can be overridden
// with a ?window= duration parameter.
func (s *Server) handleUpcomingTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	now, err := parseTimeQuery(r, "now", time.Now())
	if err != nil {
		response.BadRequest(w, r, "Invalid now parameter, expected RFC 3339 timestamp", s.logger)
		return
	}

	window, err := parseDurationQuery(r, "window", 0)
	if err != nil {
		response.BadRequest(w, r, "Invalid window parameter, expected a duration like 72h", s.logger)
		return
	}

	tasks, err := s.taskService.Upcoming(ctx, userID, now, window)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, tasks, s.logger)
}

// handleTaskStats returns aggregate task counts.
func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	now, err := parseTimeQuery(r, "now", time.Now())
	if err != nil {
		response.BadRequest(w, r, "Invalid now parameter, expected RFC 3339 timestamp", s.logger)
		return
	}

	stats, err := s.taskService.Stats(ctx, userID, now)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, stats, s.logger)
}

// handleTaskDashboard returns stats, overdue and upcoming tasks from
// a single consistent snapshot.
func (s *Server) handleTaskDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	now, err := parseTimeQuery(r, "now", time.Now())
	if err != nil {
		response.BadRequest(w, r, "Invalid now parameter, expected RFC 3339 timestamp", s.logger)
		return
	}

	window, err := parseDurationQuery(r, "window", 0)
	if err != nil {
		response.BadRequest(w, r, "Invalid window parameter, expected a duration like 72h", s.logger)
		return
	}

	dashboard, err := s.taskService.Dashboard(ctx, userID, now, window)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, dashboard, s.logger)
}

// handleSearchTasks searches task titles and descriptions.
func (s *Server) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	tasks, err := s.taskService.Search(ctx, userID, r.URL.Query().Get("q"))
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, tasks, s.logger)
}
