package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/howyoufell/internal/identity"
	"github.com/suteetoe/howyoufell/pkg/jwtutil"
	"github.com/suteetoe/howyoufell/pkg/logger"
	"github.com/suteetoe/howyoufell/prometheus"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the bearer token and stores the caller's claims in the
// request context for the identity accessor
func AuthMiddleware(verifier jwtutil.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header", logger.Event(logger.EventUnauthorized))
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				log.Warn("Invalid authorization header format", logger.Event(logger.EventUnauthorized))
				prometheus.RecordAuthError("invalid_header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			claims, err := verifier.Verify(c.Request().Context(), parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", logger.Event(logger.EventUnauthorized), zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			req := c.Request()
			c.SetRequest(req.WithContext(identity.WithClaims(req.Context(), identity.Claims{
				Subject:  claims.Subject,
				Email:    claims.Email,
				HasEmail: claims.HasEmail,
			})))

			log.Debug("Bearer token validated",
				zap.String("subject", claims.Subject),
				zap.Bool("has_email", claims.HasEmail))

			return next(c)
		}
	}
}
