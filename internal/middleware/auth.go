// Package middleware holds the HTTP middleware chain: auth, request
// logging, and metrics.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/service"
)

const (
	// UserContextKey is where WithUser stores the authenticated user on the
	// echo context.
	UserContextKey = "user"

	// SessionCookieName is the auth session cookie.
	SessionCookieName = "ember_session"
)

// WithUser resolves the session token (cookie or bearer header) to a user
// and attaches it to the context. Requests without a valid session pass
// through anonymously.
func WithUser(users service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return next(c)
			}
			user, err := users.Authenticate(c.Request().Context(), token)
			if err != nil {
				// Stale cookie; treat as anonymous.
				return next(c)
			}
			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if GetUser(c) == nil {
			return domain.Unauthorized("middleware.RequireAuth", "Authentication required")
		}
		return next(c)
	}
}

// RequireAdmin rejects requests from anyone but admins.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := GetUser(c)
		if user == nil {
			return domain.Unauthorized("middleware.RequireAdmin", "Authentication required")
		}
		if !user.IsAdmin() {
			return domain.Forbidden("middleware.RequireAdmin", "Admin access required")
		}
		return next(c)
	}
}

// GetUser returns the authenticated user, or nil for anonymous requests.
func GetUser(c echo.Context) *model.User {
	if user, ok := c.Get(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
