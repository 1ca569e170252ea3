package domain

import "time"

// User is the identity anchor. Every other entity is owned by exactly one
// user via its user_id; nothing is shared across users.
type User struct {
	Entity
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialized to API responses
}

// Session tracks an authenticated client and its refresh token.
// The refresh token itself is never stored; only its hash.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
