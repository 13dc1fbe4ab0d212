package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inhausmakers/avatar-manager/internal/auth"
	"github.com/inhausmakers/avatar-manager/internal/gateway"
	"github.com/inhausmakers/avatar-manager/internal/redis"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Avatars *AvatarHandler
	Gateway *gateway.Manager

	TokenService *auth.TokenService
	Redis        *redis.Client
}

// SetupRouter registers all API routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// WebSocket gateway
	e.GET("/gateway", deps.Gateway.HandleWebSocket)

	// Public avatar rendering, gravatar-style
	e.GET("/avatar", deps.Avatars.Render)

	v1 := e.Group("/api/v1")

	// Auth routes — no auth middleware, stricter rate limit
	authGroup := v1.Group("/auth",
		RateLimitMiddleware(deps.Redis, 5, time.Minute),
	)
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", deps.Auth.Login)
	authGroup.POST("/refresh", deps.Auth.Refresh)

	// Protected routes — require JWT auth + general rate limit
	authMw := deps.TokenService.Middleware()
	protected := v1.Group("", authMw,
		RateLimitMiddleware(deps.Redis, 50, time.Minute),
	)

	// Auth (protected)
	protected.POST("/auth/logout", deps.Auth.Logout)

	// Users
	protected.GET("/users/@me", deps.Users.GetMe)
	protected.PATCH("/users/@me", deps.Users.UpdateMe)

	// Avatars
	protected.GET("/users/@me/avatar", deps.Avatars.GetMine)
	protected.POST("/users/@me/avatar", deps.Avatars.Upload)
	protected.DELETE("/users/@me/avatar", deps.Avatars.DeleteMine)
	protected.GET("/users/@me/avatar/type", deps.Avatars.GetType)
	protected.PUT("/users/@me/avatar/type", deps.Avatars.SetType)
	protected.PUT("/users/@me/avatar/rating", deps.Avatars.SetRating)

	// Attachments (media library)
	protected.DELETE("/attachments/:id", deps.Avatars.DestroyAttachment)
}
