package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  validationResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login signs in with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  ports.AuthResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  validationResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Google signs in with a Google ID token, creating the profile on first use.
//
// @Summary      Login with Google
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google ID token"
// @Success      200   {object}  ports.AuthResult
// @Failure      401   {object}  errorResponse
// @Failure      501   {object}  errorResponse
// @Router       /auth/google [post]
func (h *AuthHandler) Google(c echo.Context) error {
	var req googleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Logout revokes the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), *claims); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestReset sends a password reset link. The response never reveals
// whether the email is registered.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Param        body  body  resetRequest  true  "Account email"
// @Success      202
// @Failure      422   {object}  validationResponse
// @Router       /auth/password/reset [post]
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req resetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// UpdatePassword sets a new password using a reset token.
//
// @Summary      Update password with a reset token
// @Tags         auth
// @Accept       json
// @Param        body  body  updatePasswordRequest  true  "Reset token and new password"
// @Success      204
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  validationResponse
// @Router       /auth/password/update [post]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
