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

// ThemeService manages the themes used to group videos.
type ThemeService struct {
	store  store.Store
	logger *slog.Logger
}

// NewThemeService creates a new theme service.
func NewThemeService(store store.Store, logger *slog.Logger) *ThemeService {
	return &ThemeService{store: store, logger: logger}
}

// ThemeRequest contains the single mutable theme field.
type ThemeRequest struct {
	Name string `json:"name" validate:"required,min=1,max=128"`
}

// Create creates a theme owned by userID.
func (s *ThemeService) Create(ctx context.Context, userID string, req ThemeRequest) (*domain.Theme, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	themeID, err := id.Generate("theme")
	if err != nil {
		return nil, fmt.Errorf("generate theme ID: %w", err)
	}

	theme := &domain.Theme{
		Entity: domain.Entity{
			ID: themeID,
		},
		UserID: userID,
		Name:   req.Name,
	}
	theme.InitTimestamps()

	if err := s.store.CreateTheme(ctx, theme); err != nil {
		return nil, fmt.Errorf("create theme: %w", err)
	}
	return theme, nil
}

func (s *ThemeService) getOwned(ctx context.Context, userID, themeID string) (*domain.Theme, error) {
	theme, err := s.store.GetTheme(ctx, themeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("theme not found")
		}
		return nil, fmt.Errorf("get theme: %w", err)
	}
	if theme.UserID != userID {
		return nil, domainerrors.Forbidden("theme belongs to another user")
	}
	return theme, nil
}

// List returns all of the user's themes, newest first.
func (s *ThemeService) List(ctx context.Context, userID string) ([]*domain.Theme, error) {
	themes, err := s.store.ListThemes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return themes, nil
}

// Update renames a theme.
func (s *ThemeService) Update(ctx context.Context, userID, themeID string, req ThemeRequest) (*domain.Theme, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	theme, err := s.getOwned(ctx, userID, themeID)
	if err != nil {
		return nil, err
	}

	theme.Name = req.Name
	theme.Touch()

	if err := s.store.UpdateTheme(ctx, theme); err != nil {
		return nil, fmt.Errorf("update theme: %w", err)
	}
	return theme, nil
}

// Delete removes a theme. Videos keep existing without it.
func (s *ThemeService) Delete(ctx context.Context, userID, themeID string) error {
	if _, err := s.getOwned(ctx, userID, themeID); err != nil {
		return err
	}
	if err := s.store.DeleteTheme(ctx, themeID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete theme: %w", err)
	}
	return nil
}
