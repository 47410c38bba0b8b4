package validation

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Difficulty string `query:"difficulty" validate:"omitempty,oneof=beginner advanced"`
}

func TestValidator(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     request
		wantMsg string
	}{
		{name: "valid", req: request{Email: "a@example.com", Password: "12345678"}},
		{name: "missing email", req: request{Password: "12345678"}, wantMsg: "email is required"},
		{name: "bad email", req: request{Email: "nope", Password: "12345678"}, wantMsg: "email must be a valid email"},
		{name: "short password", req: request{Email: "a@example.com", Password: "1"}, wantMsg: "password must be at least 8"},
		{
			name:    "bad difficulty",
			req:     request{Email: "a@example.com", Password: "12345678", Difficulty: "easy"},
			wantMsg: "difficulty must be one of: beginner advanced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
			assert.Equal(t, tt.wantMsg, httpErr.Message)
		})
	}
}
