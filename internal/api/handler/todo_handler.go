package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/ports"
)

// TodoHandler handles HTTP requests for the caller's todos. The owner is
// always the session's user; it is never read from the request.
type TodoHandler struct {
	service ports.TodoService
	loc     *time.Location
}

func NewTodoHandler(service ports.TodoService, loc *time.Location) *TodoHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TodoHandler{service: service, loc: loc}
}

// List handles GET /v1/todos.
//
// @Summary      List todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        filter  query     string  false  "all | today | upcoming | completed | overdue"
// @Param        sort    query     string  false  "due_date | priority | created_at | title"
// @Param        order   query     string  false  "asc | desc"
// @Param        page    query     int     false  "1-based page"
// @Param        search  query     string  false  "Case-insensitive text in title or description"
// @Success      200     {object}  ports.TodoPage
// @Failure      400     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /v1/todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var q listTodosQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return errInvalidPayload
	}

	page, err := h.service.List(c.Request().Context(), ports.ListTodosInput{
		OwnerID:   id.UserID,
		Filter:    q.Filter,
		SortField: q.SortField,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		Search:    q.Search,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /v1/todos/:id.
//
// @Summary      Get a todo
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo id"
// @Success      200  {object}  domain.Todo
// @Failure      404  {object}  errorResponse
// @Router       /v1/todos/{id} [get]
func (h *TodoHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	todo, err := h.service.Get(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todo)
}

// Create handles POST /v1/todos.
//
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      todoRequest  true  "Todo fields"
// @Success      201   {object}  domain.Todo
// @Failure      422   {object}  validationResponse
// @Router       /v1/todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req todoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toTodoInput(req, h.loc)
	if err != nil {
		return err
	}

	todo, err := h.service.Create(c.Request().Context(), id.UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, todo)
}

// Update handles PUT /v1/todos/:id.
//
// @Summary      Replace a todo's fields
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Todo id"
// @Param        body  body      todoRequest  true  "Todo fields"
// @Success      200   {object}  domain.Todo
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  validationResponse
// @Router       /v1/todos/{id} [put]
func (h *TodoHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req todoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toTodoInput(req, h.loc)
	if err != nil {
		return err
	}

	todo, err := h.service.Update(c.Request().Context(), id.UserID, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todo)
}

// Toggle handles PATCH /v1/todos/:id/completed.
//
// @Summary      Set completion
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Todo id"
// @Param        body  body      toggleRequest  true  "Completion flag"
// @Success      200   {object}  domain.Todo
// @Failure      404   {object}  errorResponse
// @Router       /v1/todos/{id}/completed [patch]
func (h *TodoHandler) Toggle(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req toggleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	todo, err := h.service.SetCompleted(c.Request().Context(), id.UserID, c.Param("id"), *req.Completed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todo)
}

// Delete handles DELETE /v1/todos/:id.
//
// @Summary      Delete a todo
// @Tags         todos
// @Security     BearerAuth
// @Param        id   path  string  true  "Todo id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/todos/{id} [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id.UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
