package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"            // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // built-in CORS middleware
	"github.com/redis/go-redis/v9"           // Redis client for cache/rate limiting

	"github.com/jitendraK4121/letter-monitoring-system/internal/config"     // sub-configs for cache and rate limiting
	"github.com/jitendraK4121/letter-monitoring-system/internal/handler"    // handlers that implement business logic
	"github.com/jitendraK4121/letter-monitoring-system/internal/middleware" // JWT authentication and role enforcement
	"github.com/jitendraK4121/letter-monitoring-system/internal/model"      // role constants for the allow-lists
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check and CORS policy.
func RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.GET("/healthz", handler.Health)
	e.GET("/api/status", handler.Health)
}

// RegisterAuth registers authentication routes under /api/auth.  Login,
// register and init-users are public; the password-change and admin
// account endpoints require a valid token.  Login additionally sits
// behind the Redis token bucket to slow down credential stuffing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, cfg config.Config, rdb *redis.Client) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.POST("/register", a.Register)
	g.POST("/init-users", a.InitUsers)

	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.POST("/change-password", a.ChangePassword)
	auth.POST("/change-user-password", a.ChangeUserPassword, middleware.RequireRole(model.RoleGM, model.RoleSSM))
	// Legacy admin aliases kept for the SPA's older screens; same
	// handlers as /api/users.
	auth.GET("/users", u.List, middleware.RequireRole(model.RoleGM, model.RoleSSM))
	auth.POST("/users", u.Create, middleware.RequireRole(model.RoleGM, model.RoleSSM))
}

// RegisterUsers registers account management routes under /api/users.
// Profile endpoints are self-service; list/create/delete are gated to
// the administrative roles.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, cfg config.Config) {
	g := e.Group("/api/users")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))

	g.GET("/profile", u.GetProfile)
	g.PATCH("/profile", u.UpdateProfile)

	admin := middleware.RequireRole(model.RoleGM, model.RoleSSM)
	g.GET("", u.List, admin)
	g.POST("", u.Create, admin)
	g.DELETE("/:id", u.Delete, admin)
}

// RegisterLetters registers letter routes under /api/letters.  Creation
// is restricted to ssm; routing, closing and remarking to gm; reading
// endpoints are scoped inside the handlers by role.  Stats and recent
// are cached in Redis because every dashboard polls them on a fixed
// interval with an identical payload.
func RegisterLetters(e *echo.Echo, l *handler.LetterHandler, cfg config.Config, rdb *redis.Client) {
	g := e.Group("/api/letters")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	g.GET("", l.List)
	g.POST("", l.Create, middleware.RequireRole(model.RoleSSM))
	g.GET("/stats", l.Stats, cache)
	g.GET("/recent", l.Recent, cache)
	g.GET("/unread/count", l.UnreadCount)
	g.PATCH("/:letterId/read", l.MarkRead)
	g.PATCH("/:letterId/close", l.Close, middleware.RequireRole(model.RoleGM))
	g.POST("/:letterId/remark", l.Remark, middleware.RequireRole(model.RoleGM))
	g.POST("/:letterId/mark-to", l.MarkTo, middleware.RequireRole(model.RoleGM))
}
