package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "middleware-test-secret-0123456789"
	testIssuer   = "tripsaver-test"
	testAudience = "tripsaver-api"
)

type testClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func signToken(t *testing.T, secret, issuer, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := testClaims{
		Email: "gus@example.com",
		Name:  "Gus",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newTestAuthMiddleware(t *testing.T) *AuthMiddleware {
	t.Helper()
	v, err := NewTokenValidator(testSecret, testIssuer, testAudience)
	require.NoError(t, err)
	return NewAuthMiddleware(v)
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	e := echo.New()
	m := newTestAuthMiddleware(t)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID string
	}{
		{"valid token", "Bearer " + signToken(t, testSecret, testIssuer, "user-123", future), http.StatusOK, "user-123"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + signToken(t, "another-secret-0123456789abcdef", testIssuer, "user-123", future), http.StatusUnauthorized, ""},
		{"wrong issuer", "Bearer " + signToken(t, testSecret, "someone-else", "user-123", future), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signToken(t, testSecret, testIssuer, "user-123", time.Now().Add(-time.Hour)), http.StatusUnauthorized, ""},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotUserID string
			var gotClaims *CustomClaims
			handler := func(c echo.Context) error {
				gotUserID = GetUserID(c)
				gotClaims = GetCustomClaims(c)
				return c.NoContent(http.StatusOK)
			}

			require.NoError(t, m.Authenticate()(handler)(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, gotClaims)
				assert.Equal(t, "gus@example.com", gotClaims.Email)
			} else {
				assert.Contains(t, rec.Body.String(), problemTypeBase+"unauthorized")
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "", GetUserID(c))

	ctx := context.WithValue(req.Context(), UserIDKey, "user-9")
	c.SetRequest(req.WithContext(ctx))
	assert.Equal(t, "user-9", GetUserID(c))
}

func TestGetClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "user-1"},
			CustomClaims:     &CustomClaims{Email: "a@example.com", Name: "A"},
		}
		c.SetRequest(req.WithContext(context.WithValue(req.Context(), ClaimsKey, claims)))

		require.NotNil(t, GetClaims(c))
		assert.Equal(t, "user-1", GetClaims(c).RegisteredClaims.Subject)
		assert.Equal(t, "A", GetCustomClaims(c).Name)
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		assert.Nil(t, GetClaims(c))
		assert.Nil(t, GetCustomClaims(c))
	})
}
