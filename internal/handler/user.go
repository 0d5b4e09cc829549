package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/cache"
	"github.com/iliyamo/contacts-api/internal/middleware"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/storage"
)

// UserHandler bundles dependencies for the user profile endpoints.
type UserHandler struct {
	Users    *repository.UserRepo
	Cache    *cache.UserCache
	Uploader storage.Uploader
}

func NewUserHandler(users *repository.UserRepo, userCache *cache.UserCache, uploader storage.Uploader) *UserHandler {
	return &UserHandler{Users: users, Cache: userCache, Uploader: uploader}
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateAvatar accepts a multipart image upload, forwards it to the image
// host and stores only the resulting URL. Unlike signup's Gravatar lookup,
// an upload failure here fails the request.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Uploader == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "avatar uploads not configured"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
	}
	defer src.Close()

	ctx, cancel := reqContext(c)
	defer cancel()

	url, err := h.Uploader.UploadAvatar(ctx, u.Email, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "avatar upload failed"})
	}

	updated, err := h.Users.UpdateAvatar(ctx, u.Email, url)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "avatar update failed"})
	}
	h.Cache.Set(ctx, updated)
	return c.JSON(http.StatusOK, updated)
}
