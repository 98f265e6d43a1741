package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIdentity(t *testing.T) {
	e := echo.New()
	valid := uuid.New()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   uuid.UUID
	}{
		{"valid user id", valid.String(), http.StatusOK, valid},
		{"missing header", "", http.StatusUnauthorized, uuid.Nil},
		{"malformed id", "not-a-uuid", http.StatusUnauthorized, uuid.Nil},
		{"nil uuid", uuid.Nil.String(), http.StatusUnauthorized, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen uuid.UUID
			handler := UserIdentity()(func(c echo.Context) error {
				seen = GetUserID(c)
				return c.String(http.StatusOK, "OK")
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, seen)

			if tt.wantStatus == http.StatusUnauthorized {
				var problem problemDetails
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
				assert.Equal(t, errorTypeUnauthorized, problem.Type)
				assert.Equal(t, "/api/v1/accounts", problem.Instance)
			}
		})
	}
}

func TestGetUserID_NotPresent(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Equal(t, uuid.Nil, GetUserID(c))
}

func TestWithUserID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	userID := uuid.New()
	req = req.WithContext(WithUserID(req.Context(), userID))
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, userID, GetUserID(c))
}
