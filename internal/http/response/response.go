// Package response provides standardized HTTP response formatting and error handling utilities.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	domainerrors "github.com/vidmemo/vidmemo-server/internal/errors"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    Meta       `json:"meta"`
}

// ErrorBody carries the machine-readable error code alongside the
// human-readable message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Meta is attached to every response.
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

func newMeta(r *http.Request) Meta {
	m := Meta{Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	if r != nil {
		m.RequestID = middleware.GetReqID(r.Context())
	}
	return m
}

// JSON writes a JSON response with the given status code using json/v2.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	envelope := Envelope{
		Success: status < 400,
		Data:    data,
		Meta:    newMeta(r),
	}

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, r *http.Request, data any, logger *slog.Logger) {
	JSON(w, r, http.StatusOK, data, logger)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, r *http.Request, data any, logger *slog.Logger) {
	JSON(w, r, http.StatusCreated, data, logger)
}

// NoContent writes a no content response (204 No Content).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error response with the given status, code, and message.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	envelope := Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: newMeta(r),
	}

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		if logger != nil {
			logger.Error("Failed to encode error response", "error", err)
		}
	}
}

// Unauthorized writes a 401 response with the UNAUTHENTICATED code.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string, logger *slog.Logger) {
	Error(w, r, http.StatusUnauthorized, string(domainerrors.CodeUnauthenticated), message, nil, logger)
}

// BadRequest writes a 400 response with the VALIDATION code.
func BadRequest(w http.ResponseWriter, r *http.Request, message string, logger *slog.Logger) {
	Error(w, r, http.StatusBadRequest, string(domainerrors.CodeValidation), message, nil, logger)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, r *http.Request, message string, logger *slog.Logger) {
	Error(w, r, http.StatusNotFound, string(domainerrors.CodeNotFound), message, nil, logger)
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, message string, logger *slog.Logger) {
	Error(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", message, nil, logger)
}

// TooManyRequests writes a 429 response with the RATE_LIMITED code.
func TooManyRequests(w http.ResponseWriter, r *http.Request, message string, logger *slog.Logger) {
	Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", message, nil, logger)
}

// InternalError writes a 500 response.
func InternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	Error(w, r, http.StatusInternalServerError, string(domainerrors.CodeInternal), "internal server error", nil, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain errors carry their own code and status, store errors are mapped
// to generic codes, anything else becomes 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		Error(w, r, domainErr.HTTPStatus(), string(domainErr.Code), domainErr.Message, domainErr.Details, logger)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		code := domainerrors.CodeInternal
		switch storeErr.Code {
		case http.StatusNotFound:
			code = domainerrors.CodeNotFound
		case http.StatusConflict:
			code = domainerrors.CodeConflict
		case http.StatusBadRequest:
			code = domainerrors.CodeValidation
		}
		Error(w, r, storeErr.HTTPCode(), string(code), storeErr.Message, nil, logger)
		return
	}

	// Unknown error = 500
	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, r, logger)
}
