package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/buildunia/commerce/internal/kv"
)

const csrfHeader = "X-CSRF-Token"

// CSRFGuard issues per-session anti-forgery tokens and validates them on
// mutating requests before any business logic runs. Tokens live in the
// injected kv store so every storefront instance sees the same set.
type CSRFGuard struct {
	store  kv.Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewCSRFGuard(store kv.Store, ttl time.Duration, logger *slog.Logger) *CSRFGuard {
	return &CSRFGuard{store: store, ttl: ttl, logger: logger}
}

func csrfKey(userID, token string) string {
	return fmt.Sprintf("csrf:%s:%s", userID, token)
}

// HandleIssueToken mints a token bound to the authenticated actor.
func (g *CSRFGuard) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	if userID == "" {
		WriteError(w, g.logger, http.StatusUnauthorized, "authentication required")
		return
	}

	token := uuid.New().String()
	if err := g.store.Set(r.Context(), csrfKey(userID, token), []byte("1"), g.ttl); err != nil {
		g.logger.Error("failed to store csrf token", "error", err)
		WriteError(w, g.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	WriteJSON(w, g.logger, http.StatusOK, map[string]string{"token": token})
}

// Protect wraps a mutating handler with the token check.
func (g *CSRFGuard) Protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserID(r)
		if userID == "" {
			WriteError(w, g.logger, http.StatusUnauthorized, "authentication required")
			return
		}

		token := r.Header.Get(csrfHeader)
		if token == "" {
			WriteError(w, g.logger, http.StatusForbidden, "missing anti-forgery token")
			return
		}

		_, err := g.store.Get(r.Context(), csrfKey(userID, token))
		if errors.Is(err, kv.ErrNotFound) {
			WriteError(w, g.logger, http.StatusForbidden, "invalid anti-forgery token")
			return
		}
		if err != nil {
			g.logger.Error("failed to look up csrf token", "error", err)
			WriteError(w, g.logger, http.StatusInternalServerError, "internal server error")
			return
		}

		next(w, r)
	}
}
