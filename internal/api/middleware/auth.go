package middleware

import (
	"fmt"

	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const callerKey = "caller"

type TokenParser interface {
	Parse(raw string) (auth.Caller, error)
}

// JWT authenticates "Authorization: Bearer <token>" and stores the caller in
// the echo context.
func JWT(tokens TokenParser) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, c echo.Context) (bool, error) {
			caller, err := tokens.Parse(key)
			if err != nil {
				return false, err
			}
			c.Set(callerKey, caller)
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		},
	})
}

// RequireRole lets the request through when the caller has one of roles.
func RequireRole(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFrom(c)
			if !ok {
				return domain.ErrUnauthorized
			}
			for _, role := range roles {
				if caller.Role == role {
					return next(c)
				}
			}
			return fmt.Errorf("%w: requires role %v", domain.ErrForbidden, roles)
		}
	}
}

func CallerFrom(c echo.Context) (auth.Caller, bool) {
	caller, ok := c.Get(callerKey).(auth.Caller)
	return caller, ok
}
