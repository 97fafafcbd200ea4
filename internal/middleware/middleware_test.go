package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/howyoufell/internal/identity"
	"github.com/suteetoe/howyoufell/pkg/jwtutil"
	"github.com/suteetoe/howyoufell/pkg/logger"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T, verifier jwtutil.Verifier) *echo.Echo {
	logger.SetLogger(zaptest.NewLogger(t))

	e := echo.New()
	e.Use(RequestIDMiddleware())
	e.GET("/whoami", func(c echo.Context) error {
		claims, ok := identity.ClaimsFromContext(c.Request().Context())
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"subject": claims.Subject, "email": claims.Email, "hasEmail": claims.HasEmail})
	}, AuthMiddleware(verifier))
	return e
}

func TestRequestID(t *testing.T) {
	e := newServer(t, jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "secret", ExpirationHours: 1}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	util := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "secret", ExpirationHours: 1})
	e := newServer(t, util)

	withEmail, err := util.GenerateToken("user-1", "B@x.com")
	require.NoError(t, err)
	withoutEmail, err := util.GenerateToken("service-account", "")
	require.NoError(t, err)
	foreign, err := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "other", ExpirationHours: 1}).GenerateToken("u", "b@x.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + withEmail, status: http.StatusUnauthorized},
		{name: "no token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + foreign, status: http.StatusUnauthorized},
		{name: "with email", header: "Bearer " + withEmail, status: http.StatusOK,
			body: `{"subject":"user-1","email":"B@x.com","hasEmail":true}`},
		{name: "lower-case scheme", header: "bearer " + withEmail, status: http.StatusOK,
			body: `{"subject":"user-1","email":"B@x.com","hasEmail":true}`},
		{name: "without email", header: "Bearer " + withoutEmail, status: http.StatusOK,
			body: `{"subject":"service-account","email":"","hasEmail":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
			}
		})
	}
}

type staticVerifier jwtutil.Claims

func (v staticVerifier) Verify(context.Context, string) (jwtutil.Claims, error) {
	return jwtutil.Claims(v), nil
}

func TestAuthMiddlewareKeepsEmptyEmailClaim(t *testing.T) {
	e := newServer(t, staticVerifier{Subject: "user-2", HasEmail: true})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer anything")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subject":"user-2","email":"","hasEmail":true}`, rec.Body.String())
}
