package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// handleCreateMemo attaches a memo to one of the user's videos.
func (s *Server) handleCreateMemo(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)

	var req service.CreateMemoRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	memo, err := s.memoService.Create(ctx, userID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, memo, s.logger)
}

// handleListMemos returns all of the user's memos.
func (s *Server) handleListMemos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	memos, err := s.memoService.List(ctx, userID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, memos, s.logger)
}

// handleGetMemo returns a single memo by ID.
func (s *Server) handleGetMemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	memo, err := s.memoService.Get(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, memo, s.logger)
}

// handleUpdateMemo applies a partial update to a memo. A non-null tag_ids
// replaces the memo's whole tag set.
func (s *Server) handleUpdateMemo(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	var req service.UpdateMemoRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	memo, err := s.memoService.Update(ctx, userID, id, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, memo, s.logger)
}

// handleDeleteMemo deletes a memo. Tasks derived from the memo survive.
func (s *Server) handleDeleteMemo(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := s.memoService.Delete(ctx, userID, id); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.NoContent(w)
}
