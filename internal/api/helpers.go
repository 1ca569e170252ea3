package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// writeContext detaches the request context from client cancellation so a
// dropped connection never half-applies a mutation. Context values (user
// identity, request ID) are preserved.
func writeContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// decodeJSON reads and decodes a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

// parseTimeQuery parses an RFC 3339 time from the named query parameter.
// A missing parameter yields the fallback; a malformed one yields an error.
func parseTimeQuery(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// parseDurationQuery parses a Go duration (e.g. "72h") from the named query
// parameter. A missing parameter yields the fallback.
func parseDurationQuery(r *http.Request, name string, fallback time.Duration) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
