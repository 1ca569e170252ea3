package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	domainerrors "github.com/vidmemo/vidmemo-server/internal/errors"
	"github.com/vidmemo/vidmemo-server/internal/id"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// VideoService manages a user's saved videos and theme assignment.
type VideoService struct {
	store  store.Store
	logger *slog.Logger
}

// NewVideoService creates a new video service.
func NewVideoService(store store.Store, logger *slog.Logger) *VideoService {
	return &VideoService{store: store, logger: logger}
}

// CreateVideoRequest contains the fields for saving a video.
type CreateVideoRequest struct {
	YoutubeID  string  `json:"youtube_id" validate:"required,min=1,max=64"`
	YoutubeURL string  `json:"youtube_url" validate:"required,url"`
	Title      string  `json:"title" validate:"required,min=1,max=500"`
	ThemeID    *string `json:"theme_id"`
}

// UpdateVideoRequest is a patch; nil fields are unchanged.
// ClearTheme removes the theme assignment.
type UpdateVideoRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=500"`
	ThemeID    *string `json:"theme_id"`
	ClearTheme bool    `json:"clear_theme"`
}

// Create saves a video for the user.
func (s *VideoService) Create(ctx context.Context, userID string, req CreateVideoRequest) (*domain.Video, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if req.ThemeID != nil {
		if err := s.checkTheme(ctx, userID, *req.ThemeID); err != nil {
			return nil, err
		}
	}

	videoID, err := id.Generate("video")
	if err != nil {
		return nil, fmt.Errorf("generate video ID: %w", err)
	}

	video := &domain.Video{
		Entity: domain.Entity{
			ID: videoID,
		},
		UserID:     userID,
		YoutubeID:  req.YoutubeID,
		YoutubeURL: req.YoutubeURL,
		Title:      req.Title,
		ThemeID:    req.ThemeID,
	}
	video.InitTimestamps()

	if err := s.store.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	return video, nil
}

// Get returns a video after checking ownership.
func (s *VideoService) Get(ctx context.Context, userID, videoID string) (*domain.Video, error) {
	return s.getOwned(ctx, userID, videoID)
}

func (s *VideoService) getOwned(ctx context.Context, userID, videoID string) (*domain.Video, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("video not found")
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	if video.UserID != userID {
		return nil, domainerrors.Forbidden("video belongs to another user")
	}
	return video, nil
}

// List returns all of the user's videos, newest first.
func (s *VideoService) List(ctx context.Context, userID string) ([]*domain.Video, error) {
	videos, err := s.store.ListVideos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// Update applies a patch to a video.
func (s *VideoService) Update(ctx context.Context, userID, videoID string, req UpdateVideoRequest) (*domain.Video, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	video, err := s.getOwned(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.ClearTheme {
		video.ThemeID = nil
	} else if req.ThemeID != nil {
		if err := s.checkTheme(ctx, userID, *req.ThemeID); err != nil {
			return nil, err
		}
		video.ThemeID = req.ThemeID
	}
	video.Touch()

	if err := s.store.UpdateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

// Delete removes a video and, by cascade, its memos.
func (s *VideoService) Delete(ctx context.Context, userID, videoID string) error {
	if _, err := s.getOwned(ctx, userID, videoID); err != nil {
		return err
	}
	if err := s.store.DeleteVideo(ctx, videoID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// checkTheme verifies the theme exists and is owned by the user.
func (s *VideoService) checkTheme(ctx context.Context, userID, themeID string) error {
	theme, err := s.store.GetTheme(ctx, themeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("theme not found")
		}
		return fmt.Errorf("get theme: %w", err)
	}
	if theme.UserID != userID {
		return domainerrors.NotFound("theme not found")
	}
	return nil
}
