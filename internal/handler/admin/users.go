package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/middleware"
	"github.com/wickshop/ember/internal/service"
)

// UserHandler manages accounts from the back office.
type UserHandler struct {
	users service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/admin/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /api/admin/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PATCH /api/admin/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	var params service.UpdateUserParams
	if err := handler.BindAndValidate(c, &params); err != nil {
		return err
	}

	user, err := h.users.UpdateUser(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/admin/users/:id. Admins cannot delete
// themselves.
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if actor := middleware.GetUser(c); actor != nil && actor.ID == id {
		return domain.Errorf(domain.ECONFLICT, "admin.DeleteUser", "Cannot delete your own account")
	}
	if err := h.users.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
