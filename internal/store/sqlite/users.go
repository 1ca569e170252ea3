package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, email, username, password_hash`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
	)
	if err != nil {
		return nil, err
	}

	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// CreateUser inserts a new user into the database.
// Returns store.ErrAlreadyExists if the email is already in use.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, email, email_lower, username, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Email,
		strings.ToLower(user.Email),
		user.Username,
		user.PasswordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
// Returns store.ErrNotFound if no user has that email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, strings.ToLower(email))

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
