package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/inhausmakers/avatar-manager/internal/auth"
	"github.com/inhausmakers/avatar-manager/internal/avatar"
	"github.com/inhausmakers/avatar-manager/internal/models"
	"github.com/inhausmakers/avatar-manager/internal/redis"
	"github.com/inhausmakers/avatar-manager/internal/service"
)

// AvatarHandler handles the public render endpoint and the authenticated
// avatar management endpoints.
type AvatarHandler struct {
	service     *service.AvatarService
	resolver    *avatar.Resolver
	redis       *redis.Client
	defaultSize int
}

// NewAvatarHandler creates an AvatarHandler.
func NewAvatarHandler(svc *service.AvatarService, resolver *avatar.Resolver, redisClient *redis.Client, defaultSize int) *AvatarHandler {
	return &AvatarHandler{
		service:     svc,
		resolver:    resolver,
		redis:       redisClient,
		defaultSize: defaultSize,
	}
}

type renderedAvatar struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Alt    string `json:"alt,omitempty"`
}

// Render handles GET /avatar. It accepts either ?user=<id> or ?email=<addr>,
// plus the gravatar-compatible s, d, and alt parameters. The response is a
// 302 redirect to the resolved image, or the image reference as JSON when
// ?format=json is set.
func (h *AvatarHandler) Render(c echo.Context) error {
	ctx := c.Request().Context()
	rawSize := c.QueryParam("s")
	fallback := c.QueryParam("d")
	alt := c.QueryParam("alt")

	var ref *models.ImageRef

	switch {
	case c.QueryParam("user") != "":
		userID, err := strconv.ParseInt(c.QueryParam("user"), 10, 64)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user ID")
		}

		size := avatar.NormalizeSize(rawSize, h.defaultSize)
		if alt == "" && fallback == "" {
			if url, err := h.redis.GetResolvedAvatar(ctx, userID, size); err == nil && url != "" {
				return h.respond(c, &models.ImageRef{URL: url, Width: size, Height: size})
			}
		}

		ref = h.resolver.Resolve(ctx, avatar.ByID(userID), rawSize, fallback, alt)
		if ref != nil && alt == "" && fallback == "" {
			_ = h.redis.StoreResolvedAvatar(ctx, userID, size, ref.URL)
		}

	case c.QueryParam("email") != "":
		email := c.QueryParam("email")
		ref = h.resolver.Resolve(ctx, avatar.ByEmail(email), rawSize, fallback, alt)
		if ref == nil {
			// Unknown address: render it as a guest.
			ref = h.resolver.Resolve(ctx, avatar.ByGuestEmail(email), rawSize, fallback, alt)
		}

	default:
		return errorJSON(c, http.StatusBadRequest, "MISSING_IDENTITY", "user or email parameter is required")
	}

	if ref == nil {
		return errorJSON(c, http.StatusNotFound, "NO_AVATAR", "no avatar available")
	}
	return h.respond(c, ref)
}

func (h *AvatarHandler) respond(c echo.Context, ref *models.ImageRef) error {
	if c.QueryParam("format") == "json" {
		return successJSON(c, http.StatusOK, renderedAvatar{
			URL:    ref.URL,
			Width:  ref.Width,
			Height: ref.Height,
			Alt:    ref.Alt,
		})
	}
	return c.Redirect(http.StatusFound, ref.URL)
}

// GetMine handles GET /api/v1/users/@me/avatar.
func (h *AvatarHandler) GetMine(c echo.Context) error {
	userID := auth.GetUserID(c)

	custom, err := h.service.GetCustomAvatar(c.Request().Context(), userID,
		c.QueryParam("s"), c.QueryParam("d"), c.QueryParam("alt"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return successJSON(c, http.StatusOK, custom)
}

// Upload handles POST /api/v1/users/@me/avatar.
func (h *AvatarHandler) Upload(c echo.Context) error {
	userID := auth.GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
	}

	src, err := file.Open()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	defer src.Close()

	attachment, err := h.service.UploadCustomAvatar(c.Request().Context(), userID,
		file.Filename, file.Header.Get("Content-Type"), file.Size, src)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, attachment)
}

// DeleteMine handles DELETE /api/v1/users/@me/avatar.
func (h *AvatarHandler) DeleteMine(c echo.Context) error {
	userID := auth.GetUserID(c)

	if err := h.service.DeleteCustomAvatar(c.Request().Context(), userID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type avatarTypeRequest struct {
	Type string `json:"type"`
}

// GetType handles GET /api/v1/users/@me/avatar/type.
func (h *AvatarHandler) GetType(c echo.Context) error {
	userID := auth.GetUserID(c)

	avatarType, err := h.service.GetAvatarType(c.Request().Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return successJSON(c, http.StatusOK, map[string]string{"type": avatarType})
}

// SetType handles PUT /api/v1/users/@me/avatar/type.
func (h *AvatarHandler) SetType(c echo.Context) error {
	userID := auth.GetUserID(c)

	var req avatarTypeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := h.service.SetAvatarType(c.Request().Context(), userID, req.Type); err != nil {
		return mapServiceError(c, err)
	}

	return successJSON(c, http.StatusOK, map[string]string{"type": req.Type})
}

type avatarRatingRequest struct {
	Rating string `json:"rating"`
}

// SetRating handles PUT /api/v1/users/@me/avatar/rating.
func (h *AvatarHandler) SetRating(c echo.Context) error {
	userID := auth.GetUserID(c)

	var req avatarRatingRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := h.service.SetRating(c.Request().Context(), userID, req.Rating); err != nil {
		return mapServiceError(c, err)
	}

	return successJSON(c, http.StatusOK, map[string]string{"rating": req.Rating})
}

// DestroyAttachment handles DELETE /api/v1/attachments/:id.
func (h *AvatarHandler) DestroyAttachment(c echo.Context) error {
	attachmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid attachment ID")
	}

	userID := auth.GetUserID(c)

	if err := h.service.DestroyAttachment(c.Request().Context(), userID, attachmentID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
