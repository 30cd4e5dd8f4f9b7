package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

type DashboardHandler struct {
	todos ports.TodoService
	admin ports.AdminService
}

func NewDashboardHandler(todos ports.TodoService, admin ports.AdminService) *DashboardHandler {
	return &DashboardHandler{todos: todos, admin: admin}
}

// Stats handles GET /v1/dashboard/stats. total_users is present only for
// callers allowed to count users.
//
// @Summary      Dashboard counters
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.DashboardStats
// @Failure      500  {object}  errorResponse
// @Router       /v1/dashboard/stats [get]
func (h *DashboardHandler) Stats(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	stats, err := h.todos.Stats(ctx, id.UserID)
	if err != nil {
		return err
	}
	out := ports.DashboardStats{TodoStats: stats}

	if domain.Can(id.Role, domain.ActionCountUsers) {
		n, err := h.admin.CountUsers(ctx, id)
		if err != nil {
			return err
		}
		out.TotalUsers = &n
	}
	return c.JSON(http.StatusOK, out)
}
