package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

const videoColumns = `id, user_id, created_at, updated_at, youtube_id, youtube_url, title, theme_id`

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*domain.Video, error) {
	var v domain.Video

	var (
		createdAt string
		updatedAt string
		themeID   sql.NullString
	)

	err := scanner.Scan(
		&v.ID,
		&v.UserID,
		&createdAt,
		&updatedAt,
		&v.YoutubeID,
		&v.YoutubeURL,
		&v.Title,
		&themeID,
	)
	if err != nil {
		return nil, err
	}

	v.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	v.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if themeID.Valid {
		v.ThemeID = &themeID.String
	}

	return &v, nil
}

// CreateVideo inserts a new video.
func (s *Store) CreateVideo(ctx context.Context, video *domain.Video) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (id, user_id, created_at, updated_at, youtube_id, youtube_url, title, theme_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID,
		video.UserID,
		formatTime(video.CreatedAt),
		formatTime(video.UpdatedAt),
		video.YoutubeID,
		video.YoutubeURL,
		video.Title,
		nullableString(video.ThemeID),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetVideo retrieves a video by ID.
func (s *Store) GetVideo(ctx context.Context, id string) (*domain.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)

	video, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return video, nil
}

// ListVideos returns all videos for a user, newest first.
func (s *Store) ListVideos(ctx context.Context, userID string) ([]*domain.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return videos, nil
}

// UpdateVideo performs a full row update on an existing video.
func (s *Store) UpdateVideo(ctx context.Context, video *domain.Video) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE videos SET
			updated_at = ?,
			youtube_id = ?,
			youtube_url = ?,
			title = ?,
			theme_id = ?
		WHERE id = ?`,
		formatTime(video.UpdatedAt),
		video.YoutubeID,
		video.YoutubeURL,
		video.Title,
		nullableString(video.ThemeID),
		video.ID,
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

// DeleteVideo performs a hard delete of a video by ID.
// Memos on the video are removed by cascade.
func (s *Store) DeleteVideo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM videos WHERE id = ?`, id)
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
