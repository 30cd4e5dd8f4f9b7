package domain

import "errors"

// Authentication.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset link")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrFederationDisabled = errors.New("federated sign-in is not configured")
)

// Authorization.
var ErrForbidden = errors.New("forbidden")

// Lookups and conflicts.
var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// Validation.
var (
	ErrInvalidTodo    = errors.New("invalid todo")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidAvatar  = errors.New("invalid avatar")
	ErrInvalidProfile = errors.New("invalid profile")
)

// ErrMissingOwner is returned whenever a todo read or write is attempted
// without an owner scope. Callers must never retry without one.
var ErrMissingOwner = errors.New("missing owner scope")

// Backend failures surfaced to clients with a generic message.
var (
	ErrTodosUnavailable         = errors.New("failed to load todos")
	ErrNotificationsUnavailable = errors.New("failed to load notifications")
)
