package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

const avatarField = "avatar"

type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get handles GET /v1/me.
//
// @Summary      Current profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Router       /v1/me [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Update handles PUT /v1/me.
//
// @Summary      Update display name
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "New name"
// @Success      200   {object}  userResponse
// @Failure      422   {object}  validationResponse
// @Router       /v1/me [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateName(c.Request().Context(), id.UserID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UploadAvatar handles POST /v1/me/avatar (multipart field "avatar").
//
// @Summary      Upload profile picture
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Image file"
// @Success      200     {object}  userResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/me/avatar [post]
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile(avatarField)
	if err != nil {
		return domain.ErrInvalidAvatar
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	user, err := h.service.UploadAvatar(c.Request().Context(), ports.AvatarUpload{
		UserID:      id.UserID,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}
