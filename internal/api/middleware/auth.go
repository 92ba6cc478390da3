package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vaultkeeper/credvault/internal/api/metrics"
	"github.com/vaultkeeper/credvault/internal/core/domain"
)

// IdentityKey is the echo.Context key the verified domain.Identity is stored under.
const IdentityKey = "identity"

// Authenticator verifies a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

// Auth validates the bearer token and injects the caller's identity into
// context. A missing token fails with domain.ErrMissingToken (401); anything
// else that does not verify fails with the authenticator's error (403).
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, token := splitAuthorization(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
				return domain.ErrMissingToken
			}
			if !strings.EqualFold(scheme, "bearer") {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
				return domain.ErrInvalidSignature
			}

			identity, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, domain.ErrTokenExpired) {
					reason = "expired"
				}
				metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
				return err
			}

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

func splitAuthorization(header string) (scheme, token string) {
	parts := strings.Fields(header)
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
