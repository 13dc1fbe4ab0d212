package api

import (
	"net/http"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/inhausmakers/avatar-manager/internal/auth"
	"github.com/inhausmakers/avatar-manager/internal/database"
	"github.com/inhausmakers/avatar-manager/internal/models"
)

// UserHandler exposes the authenticated user's profile. Avatar fields on the
// profile are read-only here; the avatar endpoints own mutation.
type UserHandler struct {
	users database.UserRepository
}

func NewUserHandler(users database.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// GetMe handles GET /api/v1/users/@me.
func (h *UserHandler) GetMe(c echo.Context) error {
	user, err := h.self(c)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	return successJSON(c, http.StatusOK, user)
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
}

// UpdateMe handles PATCH /api/v1/users/@me.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := h.self(c)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if req.DisplayName != nil {
		n := utf8.RuneCountInString(*req.DisplayName)
		if n < 1 || n > 32 {
			return errorJSON(c, http.StatusBadRequest, "INVALID_DISPLAY_NAME", "display name must be 1-32 characters")
		}
		user.DisplayName = *req.DisplayName
	}

	if err := h.users.Update(c.Request().Context(), user); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	return successJSON(c, http.StatusOK, user)
}

// self loads the authenticated user, writing the error response itself. A
// (nil, nil) return means the response is already committed.
func (h *UserHandler) self(c echo.Context) (*models.User, error) {
	user, err := h.users.GetByID(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return nil, errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if user == nil {
		return nil, errorJSON(c, http.StatusNotFound, "NOT_FOUND", "user not found")
	}
	return user, nil
}
