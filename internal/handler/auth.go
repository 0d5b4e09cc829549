// Package handler implements the HTTP endpoints of the contacts service.
// Handlers bind and validate request DTOs, call into the repositories with
// a bounded context, and translate sentinel errors into HTTP statuses.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/avatar"
	"github.com/iliyamo/contacts-api/internal/cache"
	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/queue"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Cache   *cache.UserCache
	Avatars avatar.Provider
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, userCache *cache.UserCache, avatars avatar.Provider) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Cache: userCache, Avatars: avatars}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
type requestEmailReq struct {
	Email string `json:"email" validate:"required,email"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Signup creates a user and queues the confirmation email. The avatar is
// derived from Gravatar on a best-effort basis: a lookup failure leaves it
// null and never fails the signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var avatarURL *string
	if url, err := h.Avatars.Lookup(ctx, req.Email); err == nil {
		avatarURL = &url
	} else {
		log.Printf("avatar lookup for %s failed: %v", req.Email, err)
	}

	u, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost, avatarURL)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	// Best-effort: the user can re-request the confirmation mail later.
	_ = queue.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		BaseURL:  h.Cfg.BaseURL,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"user":   u,
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

// Login verifies credentials and returns an access/refresh token pair. The
// refresh token is stored on the user row and must match on refresh.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.Confirmed {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "email not confirmed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issueTokens(c, ctx, u)
}

// Refresh exchanges a valid refresh token for a new pair. A token that
// decodes but does not match the stored value clears the stored token so a
// stolen stale token cannot be retried forever.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)

	email, err := utils.ParseToken(h.Cfg.JWTSecret, raw, utils.ScopeRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.RefreshToken == nil || *u.RefreshToken != raw {
		if err := h.Users.UpdateRefreshToken(ctx, u.ID, nil); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update token failed"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	return h.issueTokens(c, ctx, u)
}

// issueTokens mints a fresh pair, persists the refresh token and writes the
// response.
func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, u *model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, u.Email, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Users.UpdateRefreshToken(ctx, u.ID, &refresh.Value); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		TokenType:    "bearer",
	})
}

// ConfirmEmail flips confirmed to true for the email embedded in the token.
// Confirming twice is harmless and reported as such.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	email, err := utils.ParseToken(h.Cfg.JWTSecret, c.Param("token"), utils.ScopeEmail)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Confirmed {
		return c.JSON(http.StatusOK, echo.Map{"message": "your email is already confirmed"})
	}
	if err := h.Users.ConfirmEmail(ctx, email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	h.Cache.Invalidate(ctx, email)
	return c.JSON(http.StatusOK, echo.Map{"message": "email confirmed"})
}

// RequestEmail re-queues the confirmation mail for an unconfirmed account.
// The response does not reveal whether the address is registered.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	var req requestEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusOK, echo.Map{"message": "check your email for confirmation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Confirmed {
		return c.JSON(http.StatusOK, echo.Map{"message": "your email is already confirmed"})
	}

	_ = queue.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		BaseURL:  h.Cfg.BaseURL,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "check your email for confirmation"})
}
