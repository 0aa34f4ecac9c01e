package storefront

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/middleware"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/service"
)

// AuthHandler serves signup, login, and logout.
type AuthHandler struct {
	users  service.UserService
	secure bool
}

// NewAuthHandler creates an AuthHandler. secure marks session cookies as
// HTTPS-only; disable it only in development.
func NewAuthHandler(users service.UserService, secure bool) *AuthHandler {
	return &AuthHandler{users: users, secure: secure}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req service.SignupParams
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	user, sess, err := h.users.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	user, sess, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.users.Logout(c.Request().Context(), cookie.Value); err != nil {
			return err
		}
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/auth/me (authenticated).
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.GetUser(c))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, sess *model.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
