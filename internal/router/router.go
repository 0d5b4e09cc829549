// Package router wires HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/cache"
	"github.com/iliyamo/contacts-api/internal/handler"
	"github.com/iliyamo/contacts-api/internal/middleware"
	"github.com/iliyamo/contacts-api/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints under /auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.GET("/confirmed_email/:token", a.ConfirmEmail)
	g.POST("/request_email", a.RequestEmail)
}

// RegisterProtected registers the contact and user endpoints, all guarded
// by the JWT middleware which resolves the current user.
func RegisterProtected(e *echo.Echo, ch *handler.ContactHandler, uh *handler.UserHandler,
	jwtSecret string, users *repository.UserRepo, userCache *cache.UserCache) {

	auth := middleware.JWTAuth(jwtSecret, users, userCache)

	contacts := e.Group("/contacts", auth)
	contacts.GET("/", ch.List)
	contacts.POST("/", ch.Create)
	contacts.GET("/birthdays/", ch.Birthdays)
	contacts.GET("/:id", ch.Get)
	contacts.PUT("/:id", ch.Update)
	contacts.DELETE("/:id", ch.Delete)

	usersGroup := e.Group("/users", auth)
	usersGroup.GET("/me/", uh.Me)
	usersGroup.PATCH("/avatar", uh.UpdateAvatar)
}
