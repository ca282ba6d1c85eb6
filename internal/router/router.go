package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/swahilipot/room-booking/internal/handler"    // handlers that implement business logic
	"github.com/swahilipot/room-booking/internal/middleware" // middleware for JWT authentication and role enforcement
	"github.com/swahilipot/room-booking/internal/model"      // role constants
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Unauthenticated
// operations (register, login, refresh, logout) live under /v1/auth;
// /v1/me is the canary protected endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a bearer token (revoke all sessions) or a
	// refresh_token in the body (revoke one session); it deliberately
	// skips the JWT middleware so an expired access token can still log
	// out with its refresh token.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleUser))
	auth.GET("/me", a.Me)
}

// RegisterRooms registers the room catalog.  Reading the catalog is
// public so anyone can browse rooms before signing in; mutations are
// admin only.
func RegisterRooms(e *echo.Echo, r *handler.RoomHandler, jwtSecret string) {
	e.GET("/v1/rooms", r.List)
	e.GET("/v1/rooms/:id", r.Get)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/rooms", r.Create)
	admin.PATCH("/rooms/:id/status", r.UpdateStatus)
	admin.DELETE("/rooms/:id", r.Delete)
}

// RegisterUsers registers the admin-only user directory.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", u.List)
	admin.GET("/users/:id", u.Get)
}

// RegisterBookings registers the scheduling endpoints.  Any
// authenticated user can request a booking and read their own; the
// full booking list is admin only.  Status decisions go through one
// PATCH endpoint; the handler enforces who may confirm or cancel.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleUser))
	auth.POST("/bookings", b.Create)
	auth.PATCH("/bookings/:id/status", b.SetStatus)
	auth.GET("/bookings/user/:userId", b.ListForUser)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/bookings", b.List)
}
