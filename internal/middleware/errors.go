package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	errorTypeUnauthorized = "https://wealth.fortuna.app/errors/unauthorized"
	errorTypeRateLimit    = "https://wealth.fortuna.app/errors/rate-limit"
)

// problemDetails mirrors handler.ProblemDetails (RFC 7807) without importing it
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func problem(c echo.Context, status int, typ, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     typ,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, errorTypeUnauthorized, detail)
}

func rateLimitError(c echo.Context, detail string) error {
	return problem(c, http.StatusTooManyRequests, errorTypeRateLimit, detail)
}
