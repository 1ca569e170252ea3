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

// TagService manages a user's memo tags.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// CreateTagRequest contains the fields for a new tag.
type CreateTagRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=64"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateTagRequest is a patch; nil fields are unchanged.
type UpdateTagRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=64"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// Create creates a tag owned by userID.
func (s *TagService) Create(ctx context.Context, userID string, req CreateTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tag := &domain.Tag{
		Entity: domain.Entity{
			ID: tagID,
		},
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	}
	tag.InitTimestamps()

	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) getOwned(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if tag.UserID != userID {
		return nil, domainerrors.Forbidden("tag belongs to another user")
	}
	return tag, nil
}

// List returns all of the user's tags sorted by name.
func (s *TagService) List(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Update applies a patch to a tag.
func (s *TagService) Update(ctx context.Context, userID, tagID string, req UpdateTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.getOwned(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tag.Name = *req.Name
	}
	if req.Color != nil {
		tag.Color = req.Color
	}
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete removes a tag and its memo associations.
func (s *TagService) Delete(ctx context.Context, userID, tagID string) error {
	if _, err := s.getOwned(ctx, userID, tagID); err != nil {
		return err
	}
	if err := s.store.DeleteTag(ctx, tagID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}
