package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

const themeColumns = `id, user_id, created_at, updated_at, name`

func scanTheme(scanner interface{ Scan(dest ...any) error }) (*domain.Theme, error) {
	var th domain.Theme

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&th.ID,
		&th.UserID,
		&createdAt,
		&updatedAt,
		&th.Name,
	)
	if err != nil {
		return nil, err
	}

	th.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	th.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &th, nil
}

// CreateTheme inserts a new theme.
func (s *Store) CreateTheme(ctx context.Context, theme *domain.Theme) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO themes (id, user_id, created_at, updated_at, name)
		VALUES (?, ?, ?, ?, ?)`,
		theme.ID,
		theme.UserID,
		formatTime(theme.CreatedAt),
		formatTime(theme.UpdatedAt),
		theme.Name,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTheme retrieves a theme by ID.
func (s *Store) GetTheme(ctx context.Context, id string) (*domain.Theme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE id = ?`, id)

	theme, err := scanTheme(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return theme, nil
}

// ListThemes returns all themes for a user, newest first.
func (s *Store) ListThemes(ctx context.Context, userID string) ([]*domain.Theme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var themes []*domain.Theme
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		themes = append(themes, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return themes, nil
}

// UpdateTheme performs a full row update on an existing theme.
func (s *Store) UpdateTheme(ctx context.Context, theme *domain.Theme) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE themes SET updated_at = ?, name = ? WHERE id = ?`,
		formatTime(theme.UpdatedAt),
		theme.Name,
		theme.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTheme performs a hard delete of a theme by ID.
// Videos referencing it keep existing with their theme cleared.
func (s *Store) DeleteTheme(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM themes WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
