package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// CountUsers handles GET /v1/admin/users/count.
//
// @Summary      Count registered users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/users/count [get]
func (h *AdminHandler) CountUsers(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	n, err := h.service.CountUsers(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// UpdateRole handles PUT /v1/admin/users/:id/role.
//
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/users/{id}/role [put]
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateRole(c.Request().Context(), id, c.Param("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}
