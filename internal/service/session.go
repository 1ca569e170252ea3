package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/auth"
	"github.com/vidmemo/vidmemo-server/internal/domain"
	domainerrors "github.com/vidmemo/vidmemo-server/internal/errors"
	"github.com/vidmemo/vidmemo-server/internal/id"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// SessionService handles user session management and lifecycle.
// Sessions track authenticated clients and their refresh tokens.
type SessionService struct {
	store        store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewSessionService creates a new session management service.
func NewSessionService(
	store store.Store,
	tokenService *auth.TokenService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// SessionResponse contains the token pair handed to the client.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	SessionID    string `json:"session_id"`
}

// CreateSession generates tokens and creates a new session for a user.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User, ipAddress string) (*SessionResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("session")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        ipAddress,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}, nil
}

// RefreshSession rotates tokens for an existing session. The presented
// refresh token is single-use: the rotation is a compare-and-swap on
// the stored hash, so a token that was already consumed fails. A replay
// of a consumed token revokes the whole session, since it means the
// token leaked.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken, ipAddress string) (*SessionResponse, *domain.User, error) {
	tokenHash := auth.HashRefreshToken(refreshToken)
	session, err := s.store.GetSessionByRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token").WithCause(err)
	}

	if session.IsExpired() {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.TokenExpired("refresh token expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		// User was deleted, clean up session
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.NotFound("user not found").WithCause(err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	newRefreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiry := time.Now().Add(s.tokenService.RefreshTokenDuration())
	err = s.store.RotateSessionToken(ctx, session.ID, tokenHash, auth.HashRefreshToken(newRefreshToken), newExpiry)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Someone else consumed this token between our read and the
			// swap. Treat it as a replay and revoke the session.
			_ = s.store.DeleteSession(ctx, session.ID)
			if s.logger != nil {
				s.logger.Warn("Refresh token replay detected, session revoked",
					"session_id", session.ID,
					"user_id", session.UserID,
				)
			}
			return nil, nil, domainerrors.TokenExpired("refresh token already used")
		}
		return nil, nil, fmt.Errorf("rotate session token: %w", err)
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    session.ID,
	}, user, nil
}

// RevokeByRefreshToken deletes the session holding the given refresh
// token. Unknown tokens are ignored so logout is idempotent.
func (s *SessionService) RevokeByRefreshToken(ctx context.Context, refreshToken string) error {
	tokenHash := auth.HashRefreshToken(refreshToken)
	session, err := s.store.GetSessionByRefreshToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 && s.logger != nil {
		s.logger.Info("Deleted expired sessions", "count", n)
	}
	return n, nil
}
