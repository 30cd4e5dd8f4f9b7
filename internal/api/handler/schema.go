package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

var errInvalidPayload = echo.NewHTTPError(http.StatusBadRequest, "invalid payload")

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// validationResponse lists every invalid field.
type validationResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"     validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updatePasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// --- Todos ---

type todoRequest struct {
	Title       string `json:"title"       validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	DueDate     string `json:"due_date"    validate:"required"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Completed   bool   `json:"completed"`
}

type toggleRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type listTodosQuery struct {
	Filter    string `query:"filter"`
	SortField string `query:"sort"`
	SortOrder string `query:"order"`
	Page      int    `query:"page"`
	Search    string `query:"search"`
}

// --- Profile ---

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// --- Notifications ---

type unreadResponse struct {
	Unread int `json:"unread_count"`
}

// --- Admin ---

type countResponse struct {
	Count int64 `json:"count"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}
