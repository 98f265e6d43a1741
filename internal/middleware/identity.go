package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// UserIDHeader carries the caller's user ID. The gateway in front of the API
// authenticates the caller and sets it; this service trusts it as given.
const UserIDHeader = "X-User-ID"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// UserIDKey is the context key for the caller's user ID
const UserIDKey contextKey = "user_id"

// UserIdentity returns an Echo middleware that resolves the caller's user ID
// from UserIDHeader and rejects requests without a valid one
func UserIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(UserIDHeader)
			if raw == "" {
				return unauthorizedError(c, "Missing "+UserIDHeader+" header")
			}

			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				log.Debug().Str("user_id", raw).Msg("Rejected malformed user ID")
				return unauthorizedError(c, "Invalid "+UserIDHeader+" header")
			}

			ctx := context.WithValue(c.Request().Context(), UserIDKey, userID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetUserID extracts the caller's user ID from the context
func GetUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithUserID returns a copy of ctx carrying userID
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
