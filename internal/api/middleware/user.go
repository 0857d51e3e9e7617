package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// UserIDHeader carries the caller's user id.
const UserIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "userID"

// UserID resolves the caller from the X-User-ID header, falling back to
// defaultUserID when the header is absent. A malformed id is rejected with 400.
// The resolved id is stored in the request context and added to the request logger.
func UserID(defaultUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				userID = defaultUserID
			}

			if err := validation.ValidateID(userID); err != nil {
				response.RespondError(w, r, http.StatusBadRequest, "invalid "+UserIDHeader+" header", err.Error())
				return
			}

			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", userID)
			})

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id stored by UserID, or "" if none.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
