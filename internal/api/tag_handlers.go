package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// handleCreateTag creates a tag.
func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)

	var req service.CreateTagRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	tag, err := s.tagService.Create(ctx, userID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, tag, s.logger)
}

// handleListTags returns the user's tags sorted by name.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	tags, err := s.tagService.List(ctx, userID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, tags, s.logger)
}

// handleUpdateTag applies a partial update to a tag.
func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	var req service.UpdateTagRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	tag, err := s.tagService.Update(ctx, userID, id, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, tag, s.logger)
}

// handleDeleteTag deletes a tag, detaching it from any memos.
func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := s.tagService.Delete(ctx, userID, id); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.NoContent(w)
}
