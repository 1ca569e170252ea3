// Package service implements the application's business logic on top of
// the store layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidmemo/vidmemo-server/internal/auth"
	"github.com/vidmemo/vidmemo-server/internal/domain"
	domainerrors "github.com/vidmemo/vidmemo-server/internal/errors"
	"github.com/vidmemo/vidmemo-server/internal/id"
	"github.com/vidmemo/vidmemo-server/internal/store"
	"github.com/vidmemo/vidmemo-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

// AuthService handles user authentication (registration, login, token
// verification). Session management is delegated to SessionService.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"` // Extracted from request by handler
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IPAddress    string `json:"-"` // Extracted from request by handler
}

// LogoutRequest contains the refresh token of the session to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a new user account and an initial session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Entity: domain.Entity{
			ID: userID,
		},
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, "")
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User registered",
			"user_id", userID,
			"email", user.Email,
		)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User logged in",
			"user_id", user.ID,
			"email", user.Email,
		)
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Refresh rotates a refresh token and issues a new token pair.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Logout revokes the session holding the given refresh token.
// Revoking an already-revoked or unknown token succeeds.
func (s *AuthService) Logout(ctx context.Context, req LogoutRequest) error {
	if err := validate.Validate(req); err != nil {
		return err
	}
	return s.sessionService.RevokeByRefreshToken(ctx, req.RefreshToken)
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *AuthService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	return s.tokenService.VerifyAccessToken(token)
}
