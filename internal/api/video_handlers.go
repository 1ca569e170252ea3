package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// handleCreateVideo saves a video to the user's library.
func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)

	var req service.CreateVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	video, err := s.videoService.Create(ctx, userID, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, video, s.logger)
}

// handleListVideos returns the user's saved videos.
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	videos, err := s.videoService.List(ctx, userID)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, videos, s.logger)
}

// handleGetVideo returns a single video by ID.
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	video, err := s.videoService.Get(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, video, s.logger)
}

// handleUpdateVideo applies a partial update to a video.
func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	var req service.UpdateVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	video, err := s.videoService.Update(ctx, userID, id, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, video, s.logger)
}

// handleDeleteVideo deletes a video and its memos.
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := s.videoService.Delete(ctx, userID, id); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleListVideoMemos returns the memos attached to a video, timestamped
// memos first in playback order.
func (s *Server) handleListVideoMemos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	memos, err := s.memoService.ListByVideo(ctx, userID, id)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, memos, s.logger)
}
