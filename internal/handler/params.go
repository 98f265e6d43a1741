package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// parseIDParam reads a positive int32 path parameter
func parseIDParam(c echo.Context, name string) (int32, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return int32(id), nil
}

// parseOptionalID parses an optional positive int32 query value
func parseOptionalID(raw string) (*int32, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("must be a positive integer")
	}
	v := int32(id)
	return &v, nil
}

// parseAmount parses a decimal string. Empty input yields zero when optional.
func parseAmount(raw string, optional bool) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		if optional {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("is required")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("must be a valid decimal number")
	}
	return d, nil
}

// parseDate accepts RFC 3339 instants or plain YYYY-MM-DD days in loc
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

// parseOptionalDate is parseDate for optional fields
func parseOptionalDate(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseAsOf resolves an as-of query value. A plain day means the end of that
// day; an empty value means now.
func parseAsOf(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if raw == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be YYYY-MM-DD or RFC 3339")
	}
	return util.DayEnd(t, loc), nil
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
