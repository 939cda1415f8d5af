// Package httpx holds the HTTP concerns shared by the storefront handlers:
// actor identity propagated from the trusted edge, and the anti-forgery
// token check that runs before any mutating business logic.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	userHeader = "X-User-ID"
	roleHeader = "X-User-Role"
)

// UserID returns the authenticated actor, or "" when the request is
// anonymous. The edge proxy strips these headers from client traffic and
// sets them after authenticating, so their presence is trusted here.
func UserID(r *http.Request) string {
	return r.Header.Get(userHeader)
}

func IsAdmin(r *http.Request) bool {
	return r.Header.Get(roleHeader) == "admin"
}

// RequireUser rejects anonymous requests. Cart mutation and checkout are
// gated on it.
func RequireUser(logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserID(r) == "" {
			WriteError(w, logger, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

func RequireAdmin(logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserID(r) == "" {
			WriteError(w, logger, http.StatusUnauthorized, "authentication required")
			return
		}
		if !IsAdmin(r) {
			WriteError(w, logger, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}
