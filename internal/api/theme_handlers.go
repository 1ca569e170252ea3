package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// handleCreateTheme creates a theme.
func (s *Server) handleCreateTheme(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)

	var req service.ThemeRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	theme, err := s.themeService.Create(ctx, userID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, theme, s.logger)
}

// handleListThemes returns the user's themes.
func (s *Server) handleListThemes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	themes, err := s.themeService.List(ctx, userID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, themes, s.logger)
}

// handleUpdateTheme renames a theme.
func (s *Server) handleUpdateTheme(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	var req service.ThemeRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	theme, err := s.themeService.Update(ctx, userID, id, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, theme, s.logger)
}

// handleDeleteTheme deletes a theme. Videos keep their library entry and
// lose the theme assignment.
func (s *Server) handleDeleteTheme(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := s.themeService.Delete(ctx, userID, id); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.NoContent(w)
}
