package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// sessionColumns is the ordered list of columns selected in session queries.
// Must match the scan order in scanSession.
const sessionColumns = `id, user_id, refresh_token_hash, expires_at, created_at, last_seen_at, ip_address`

// scanSession scans a sql.Row (or sql.Rows via its Scan method) into a domain.Session.
func scanSession(scanner interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var sess domain.Session

	var (
		expiresAt  string
		createdAt  string
		lastSeenAt string
		ipAddress  sql.NullString
	)

	err := scanner.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.RefreshTokenHash,
		&expiresAt,
		&createdAt,
		&lastSeenAt,
		&ipAddress,
	)
	if err != nil {
		return nil, err
	}

	sess.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	sess.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sess.LastSeenAt, err = parseTime(lastSeenAt)
	if err != nil {
		return nil, err
	}

	if ipAddress.Valid {
		sess.IPAddress = ipAddress.String
	}

	return &sess, nil
}

// CreateSession inserts a new session into the database.
// Returns store.ErrAlreadyExists if the session ID already exists.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at, created_at, last_seen_at, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.LastSeenAt),
		nullString(session.IPAddress),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetSession retrieves a session by ID.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSessionByRefreshToken retrieves a session by its refresh token hash.
// Returns store.ErrNotFound if no session matches.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = ?`, tokenHash)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// RotateSessionToken atomically replaces a session's refresh token hash,
// but only if the stored hash still equals oldHash. The compare in the
// WHERE clause makes concurrent refreshes of the same token race-safe:
// exactly one wins, the rest get store.ErrConflict.
func (s *Store) RotateSessionToken(ctx context.Context, sessionID, oldHash, newHash string, expiresAt time.Time) error {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			refresh_token_hash = ?,
			expires_at = ?,
			last_seen_at = ?
		WHERE id = ? AND refresh_token_hash = ?`,
		newHash,
		formatTime(expiresAt),
		now,
		sessionID,
		oldHash,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing session from a lost race.
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrNotFound
		}
		return store.ErrConflict
	}
	return nil
}

// DeleteSession performs a hard delete of a session by ID.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, id)
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

// DeleteUserSessions deletes all sessions belonging to a user.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredSessions deletes all sessions where expires_at is in the past.
// Returns the number of sessions deleted.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
