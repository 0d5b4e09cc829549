// Package middleware contains reusable HTTP middleware.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/cache"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/utils"
)

// userContextKey is where the resolved user is stored on the echo context.
const userContextKey = "current_user"

// JWTAuth returns an echo middleware that validates a Bearer access token,
// resolves the full user record (cache first, then database) and injects it
// into the request context. Handlers read it back with CurrentUser.
func JWTAuth(secret string, users *repository.UserRepo, userCache *cache.UserCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			email, err := utils.ParseToken(secret, raw, utils.ScopeAccess)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, ok := userCache.Get(ctx, email)
			if !ok {
				u, err = users.GetByEmail(ctx, email)
				if err != nil {
					if errors.Is(err, sql.ErrNoRows) {
						return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
					}
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
				}
				userCache.Set(ctx, u)
			}

			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// CurrentUser extracts the authenticated user placed on the context by
// JWTAuth. The boolean is false when the middleware did not run.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(userContextKey).(*model.User)
	return u, ok
}
