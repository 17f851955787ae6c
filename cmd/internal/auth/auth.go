// Package auth verifies bearer tokens and carries the resulting session
// through echo's request context.
package auth

import (
	"agenda/cmd/internal/utils/apierror"
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

var ErrUnauthenticated = errors.New("unauthenticated")

const sessionKey = "session"

// Verifier resolves a bearer token to the owner id it was issued for.
// It returns ErrUnauthenticated for tokens that are not acceptable.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Session is the authenticated caller of a request.
type Session struct {
	Owner string
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's Session for the handlers.
func Middleware(verifier Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
			}

			owner, err := verifier.Verify(c.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					log.Errorf("failed to verify token: %v", err)
				}
				return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
			}

			c.Set(sessionKey, &Session{Owner: owner})
			return next(c)
		}
	}
}

// SessionFromCtx returns the session stored by Middleware.
func SessionFromCtx(c echo.Context) (*Session, error) {
	session, ok := c.Get(sessionKey).(*Session)
	if !ok || session == nil || session.Owner == "" {
		return nil, ErrUnauthenticated
	}
	return session, nil
}
