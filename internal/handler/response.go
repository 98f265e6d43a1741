package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`

	// Set on insufficient funds or position
	Required  string `json:"required,omitempty"`
	Available string `json:"available,omitempty"`
	Shortfall string `json:"shortfall,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation         = "https://wealth.fortuna.app/errors/validation"
	ErrorTypeNotFound           = "https://wealth.fortuna.app/errors/not-found"
	ErrorTypeInsufficientFunds  = "https://wealth.fortuna.app/errors/insufficient-funds"
	ErrorTypeInsufficientAssets = "https://wealth.fortuna.app/errors/insufficient-position"
	ErrorTypePriceUnavailable   = "https://wealth.fortuna.app/errors/price-unavailable"
	ErrorTypeInternal           = "https://wealth.fortuna.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInsufficientFundsError creates a 422 response carrying the shortfall
func NewInsufficientFundsError(c echo.Context, e domain.InsufficientFundsError) error {
	return c.JSON(http.StatusUnprocessableEntity, ProblemDetails{
		Type:      ErrorTypeInsufficientFunds,
		Title:     "Insufficient Funds",
		Status:    http.StatusUnprocessableEntity,
		Detail:    e.Error(),
		Instance:  c.Request().URL.Path,
		Required:  e.Required.String(),
		Available: e.Available.String(),
		Shortfall: e.Shortfall().String(),
	})
}

// NewInsufficientPositionError creates a 422 response for an oversized sale
func NewInsufficientPositionError(c echo.Context, e domain.InsufficientPositionError) error {
	return c.JSON(http.StatusUnprocessableEntity, ProblemDetails{
		Type:      ErrorTypeInsufficientAssets,
		Title:     "Insufficient Position",
		Status:    http.StatusUnprocessableEntity,
		Detail:    e.Error(),
		Instance:  c.Request().URL.Path,
		Required:  e.Requested.String(),
		Available: e.Held.String(),
		Shortfall: e.Requested.Sub(e.Held).String(),
	})
}

// NewPriceUnavailableError creates a retryable 503 response
func NewPriceUnavailableError(c echo.Context, detail string) error {
	c.Response().Header().Set("Retry-After", "30")
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypePriceUnavailable,
		Title:    "Price Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// respondError maps a service error onto its problem response. action names
// the failed operation in logs and in the 500 detail.
func respondError(c echo.Context, err error, action string) error {
	var funds domain.InsufficientFundsError
	var position domain.InsufficientPositionError

	switch {
	case errors.As(err, &funds):
		return NewInsufficientFundsError(c, funds)
	case errors.As(err, &position):
		return NewInsufficientPositionError(c, position)
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrInsufficientPosition):
		problemType := ErrorTypeInsufficientFunds
		if errors.Is(err, domain.ErrInsufficientPosition) {
			problemType = ErrorTypeInsufficientAssets
		}
		return c.JSON(http.StatusUnprocessableEntity, ProblemDetails{
			Type:     problemType,
			Title:    "Unprocessable",
			Status:   http.StatusUnprocessableEntity,
			Detail:   err.Error(),
			Instance: c.Request().URL.Path,
		})
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrPriceUnavailable):
		log.Warn().Err(err).Str("path", c.Request().URL.Path).Msg(action + ": price unavailable")
		return NewPriceUnavailableError(c, "Market price is temporarily unavailable, try again later")
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(action)
	return NewInternalError(c, action)
}
