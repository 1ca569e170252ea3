package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// handleCreateReminder creates a reminder for exactly one task or memo.
func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)

	var req service.CreateReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	reminder, err := s.reminderService.Create(ctx, userID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, reminder, s.logger)
}

// handleListReminders returns the user's reminders in firing order.
func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	reminders, err := s.reminderService.List(ctx, userID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, reminders, s.logger)
}

// handleDueReminders returns pending reminders whose fire time has passed.
func (s *Server) handleDueReminders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	now, err := parseTimeQuery(r, "now", time.Now())
	if err != nil {
		response.BadRequest(w, r, "Invalid now parameter, expected RFC 3339 timestamp", s.logger)
		return
	}

	reminders, err := s.reminderService.Due(ctx, userID, now)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, reminders, s.logger)
}

// handleGetReminder returns a single reminder by ID.
func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	reminder, err := s.reminderService.Get(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, reminder, s.logger)
}

// handleDispatchReminder marks a pending reminder as dispatched.
// Dispatching is terminal; a second dispatch fails.
func (s *Server) handleDispatchReminder(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	reminder, err := s.reminderService.Dispatch(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, reminder, s.logger)
}

// handleDeleteReminder deletes a reminder.
func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := s.reminderService.Delete(ctx, userID, id); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.NoContent(w)
}
