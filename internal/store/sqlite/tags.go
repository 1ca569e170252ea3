package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

const tagColumns = `id, user_id, created_at, updated_at, name, color`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var tag domain.Tag

	var (
		createdAt string
		updatedAt string
		color     sql.NullString
	)

	err := scanner.Scan(
		&tag.ID,
		&tag.UserID,
		&createdAt,
		&updatedAt,
		&tag.Name,
		&color,
	)
	if err != nil {
		return nil, err
	}

	tag.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	tag.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if color.Valid {
		tag.Color = &color.String
	}

	return &tag, nil
}

// CreateTag inserts a new tag.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, created_at, updated_at, name, color)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tag.ID,
		tag.UserID,
		formatTime(tag.CreatedAt),
		formatTime(tag.UpdatedAt),
		tag.Name,
		nullableString(tag.Color),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)

	tag, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns all tags for a user, sorted by name.
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateTag performs a full row update on an existing tag.
func (s *Store) UpdateTag(ctx context.Context, tag *domain.Tag) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET updated_at = ?, name = ?, color = ? WHERE id = ?`,
		formatTime(tag.UpdatedAt),
		tag.Name,
		nullableString(tag.Color),
		tag.ID,
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

// DeleteTag performs a hard delete of a tag by ID.
// Memo associations are removed by the memo_tags cascade.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ?`, id)
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
