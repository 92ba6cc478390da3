package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/vaultkeeper/credvault/internal/api/middleware"
	"github.com/vaultkeeper/credvault/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. An
// absent identity means the route was mounted without the middleware; it is
// reported as a missing token.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := c.Get(middleware.IdentityKey).(domain.Identity)
	if !ok || identity.Email == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}
	return identity, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Both failures surface as domain validation errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
