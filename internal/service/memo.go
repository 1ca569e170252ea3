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

// MemoService manages timestamped memos on videos and their tag sets.
type MemoService struct {
	store  store.Store
	logger *slog.Logger
}

// NewMemoService creates a new memo service.
func NewMemoService(store store.Store, logger *slog.Logger) *MemoService {
	return &MemoService{store: store, logger: logger}
}

// CreateMemoRequest contains the fields for a new memo.
type CreateMemoRequest struct {
	VideoID      string   `json:"video_id" validate:"required"`
	Content      string   `json:"content" validate:"required,min=1,max=10000"`
	TimestampSec *int     `json:"timestamp_sec" validate:"omitempty,gte=0"`
	TagIDs       []string `json:"tag_ids"`
}

// UpdateMemoRequest is a patch; nil fields are unchanged. A non-nil
// TagIDs replaces the whole tag set.
type UpdateMemoRequest struct {
	Content        *string   `json:"content" validate:"omitempty,min=1,max=10000"`
	TimestampSec   *int      `json:"timestamp_sec" validate:"omitempty,gte=0"`
	ClearTimestamp bool      `json:"clear_timestamp"`
	TagIDs         *[]string `json:"tag_ids"`
}

// Create adds a memo to one of the user's videos.
func (s *MemoService) Create(ctx context.Context, userID string, req CreateMemoRequest) (*domain.Memo, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	video, err := s.store.GetVideo(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("video not found")
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	if video.UserID != userID {
		return nil, domainerrors.NotFound("video not found")
	}

	if err := s.checkTags(ctx, userID, req.TagIDs); err != nil {
		return nil, err
	}

	memoID, err := id.Generate("memo")
	if err != nil {
		return nil, fmt.Errorf("generate memo ID: %w", err)
	}

	memo := &domain.Memo{
		Entity: domain.Entity{
			ID: memoID,
		},
		UserID:       userID,
		VideoID:      req.VideoID,
		Content:      req.Content,
		TimestampSec: req.TimestampSec,
		TagIDs:       req.TagIDs,
	}
	memo.InitTimestamps()

	if err := s.store.CreateMemo(ctx, memo); err != nil {
		return nil, fmt.Errorf("create memo: %w", err)
	}
	return memo, nil
}

// Get returns a memo after checking ownership.
func (s *MemoService) Get(ctx context.Context, userID, memoID string) (*domain.Memo, error) {
	return s.getOwned(ctx, userID, memoID)
}

func (s *MemoService) getOwned(ctx context.Context, userID, memoID string) (*domain.Memo, error) {
	memo, err := s.store.GetMemo(ctx, memoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("memo not found")
		}
		return nil, fmt.Errorf("get memo: %w", err)
	}
	if memo.UserID != userID {
		return nil, domainerrors.Forbidden("memo belongs to another user")
	}
	return memo, nil
}

// List returns all of the user's memos, newest first.
func (s *MemoService) List(ctx context.Context, userID string) ([]*domain.Memo, error) {
	memos, err := s.store.ListMemos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memos: %w", err)
	}
	return memos, nil
}

// ListByVideo returns the memos on one of the user's videos in
// timestamp order.
func (s *MemoService) ListByVideo(ctx context.Context, userID, videoID string) ([]*domain.Memo, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("video not found")
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	if video.UserID != userID {
		return nil, domainerrors.NotFound("video not found")
	}

	memos, err := s.store.ListMemosByVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("list memos by video: %w", err)
	}
	return memos, nil
}

// Update applies a patch to a memo.
func (s *MemoService) Update(ctx context.Context, userID, memoID string, req UpdateMemoRequest) (*domain.Memo, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	memo, err := s.getOwned(ctx, userID, memoID)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		memo.Content = *req.Content
	}
	if req.ClearTimestamp {
		memo.TimestampSec = nil
	} else if req.TimestampSec != nil {
		memo.TimestampSec = req.TimestampSec
	}
	if req.TagIDs != nil {
		if err := s.checkTags(ctx, userID, *req.TagIDs); err != nil {
			return nil, err
		}
		memo.TagIDs = *req.TagIDs
	}
	memo.Touch()

	if err := s.store.UpdateMemo(ctx, memo); err != nil {
		return nil, fmt.Errorf("update memo: %w", err)
	}
	return memo, nil
}

// Delete removes a memo. Tasks created from it survive with their
// memo_id pointing at the deleted memo.
func (s *MemoService) Delete(ctx context.Context, userID, memoID string) error {
	if _, err := s.getOwned(ctx, userID, memoID); err != nil {
		return err
	}
	if err := s.store.DeleteMemo(ctx, memoID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete memo: %w", err)
	}
	return nil
}

// checkTags verifies every tag exists and is owned by the user.
func (s *MemoService) checkTags(ctx context.Context, userID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		tag, err := s.store.GetTag(ctx, tagID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("tag %s not found", tagID)
			}
			return fmt.Errorf("get tag: %w", err)
		}
		if tag.UserID != userID {
			return domainerrors.NotFoundf("tag %s not found", tagID)
		}
	}
	return nil
}
