package api

import (
	"net/http"

	"github.com/vidmemo/vidmemo-server/internal/http/response"
	"github.com/vidmemo/vidmemo-server/internal/service"
)

// handleRegister creates a new user account and returns an initial session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)

	var req service.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	resp, err := s.authService.Register(ctx, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Created(w, r, resp, s.logger)
}

// handleLogin authenticates a user and returns a token pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)

	var req service.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}
	req.IPAddress = getClientIP(r)

	resp, err := s.authService.Login(ctx, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, resp, s.logger)
}

// handleRefresh rotates a refresh token and returns a fresh token pair.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)

	var req service.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}
	req.IPAddress = getClientIP(r)

	resp, err := s.authService.Refresh(ctx, req)
	if err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, resp, s.logger)
}

// handleLogout revokes the session holding the supplied refresh token.
// Logging out an already-revoked session succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := writeContext(r)

	var req service.LogoutRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, r, "Invalid request body", s.logger)
		return
	}

	if err := s.authService.Logout(ctx, req); err != nil {
		response.HandleError(w, r, err, s.logger)
		return
	}

	response.Success(w, r, map[string]string{"message": "Logged out successfully"}, s.logger)
}
