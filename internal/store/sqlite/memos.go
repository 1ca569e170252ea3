package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

const memoColumns = `id, user_id, video_id, created_at, updated_at, content, timestamp_sec`

func scanMemo(scanner interface{ Scan(dest ...any) error }) (*domain.Memo, error) {
	var m domain.Memo

	var (
		createdAt    string
		updatedAt    string
		timestampSec sql.NullInt64
	)

	err := scanner.Scan(
		&m.ID,
		&m.UserID,
		&m.VideoID,
		&createdAt,
		&updatedAt,
		&m.Content,
		&timestampSec,
	)
	if err != nil {
		return nil, err
	}

	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	m.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if timestampSec.Valid {
		sec := int(timestampSec.Int64)
		m.TimestampSec = &sec
	}

	return &m, nil
}

// replaceMemoTags rewrites the memo_tags rows for a memo inside tx.
func replaceMemoTags(ctx context.Context, tx *sql.Tx, memoID string, tagIDs []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memo_tags WHERE memo_id = ?`, memoID); err != nil {
		return fmt.Errorf("clear memo tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memo_tags (memo_id, tag_id) VALUES (?, ?)`, memoID, tagID); err != nil {
			return fmt.Errorf("insert memo tag %s: %w", tagID, err)
		}
	}
	return nil
}

// loadMemoTags fills in the TagIDs slice for each memo.
func (s *Store) loadMemoTags(ctx context.Context, memos []*domain.Memo) error {
	for _, m := range memos {
		rows, err := s.db.QueryContext(ctx,
			`SELECT tag_id FROM memo_tags WHERE memo_id = ?`, m.ID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var tagID string
			if err := rows.Scan(&tagID); err != nil {
				rows.Close()
				return err
			}
			m.TagIDs = append(m.TagIDs, tagID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

// CreateMemo inserts a new memo along with its tag associations.
func (s *Store) CreateMemo(ctx context.Context, memo *domain.Memo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memos (id, user_id, video_id, created_at, updated_at, content, timestamp_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		memo.ID,
		memo.UserID,
		memo.VideoID,
		formatTime(memo.CreatedAt),
		formatTime(memo.UpdatedAt),
		memo.Content,
		nullableInt(memo.TimestampSec),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := replaceMemoTags(ctx, tx, memo.ID, memo.TagIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// GetMemo retrieves a memo by ID, including its tag IDs.
func (s *Store) GetMemo(ctx context.Context, id string) (*domain.Memo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoColumns+` FROM memos WHERE id = ?`, id)

	memo, err := scanMemo(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadMemoTags(ctx, []*domain.Memo{memo}); err != nil {
		return nil, err
	}
	return memo, nil
}

// ListMemos returns all memos for a user, newest first.
func (s *Store) ListMemos(ctx context.Context, userID string) ([]*domain.Memo, error) {
	return s.queryMemos(ctx,
		`SELECT `+memoColumns+` FROM memos WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListMemosByVideo returns all memos on a video, ordered by their
// position in the video (untimed memos last).
func (s *Store) ListMemosByVideo(ctx context.Context, videoID string) ([]*domain.Memo, error) {
	return s.queryMemos(ctx,
		`SELECT `+memoColumns+` FROM memos WHERE video_id = ?
		 ORDER BY timestamp_sec IS NULL, timestamp_sec ASC, created_at ASC`, videoID)
}

func (s *Store) queryMemos(ctx context.Context, query string, args ...any) ([]*domain.Memo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memos []*domain.Memo
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			return nil, err
		}
		memos = append(memos, memo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadMemoTags(ctx, memos); err != nil {
		return nil, err
	}
	return memos, nil
}

// UpdateMemo performs a full row update on an existing memo, replacing
// its tag associations.
func (s *Store) UpdateMemo(ctx context.Context, memo *domain.Memo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE memos SET
			updated_at = ?,
			content = ?,
			timestamp_sec = ?
		WHERE id = ?`,
		formatTime(memo.UpdatedAt),
		memo.Content,
		nullableInt(memo.TimestampSec),
		memo.ID,
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

	if err := replaceMemoTags(ctx, tx, memo.ID, memo.TagIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteMemo performs a hard delete of a memo by ID.
// Tag associations and reminders on the memo are removed by cascade.
// Tasks created from the memo keep their memo_id as provenance.
func (s *Store) DeleteMemo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM memos WHERE id = ?`, id)
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
