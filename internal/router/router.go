package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/identity"
	"github.com/iliyamo/room-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication and
// are never cached.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterPublic registers the catalog browse endpoints.  cache wraps each
// of them; pass a pass-through middleware to disable caching.
func RegisterPublic(e *echo.Echo, rooms *handler.RoomHandler, cats *handler.CategoryHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/rooms", rooms.ListPublic)
	g.GET("/rooms/:id", rooms.GetPublic)
	g.GET("/categories", cats.List)
}

// RegisterReservations registers the guest reservation endpoints.  All of
// them require a valid JWT; writes additionally pass through limit.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/reservations", middleware.JWTAuth(jwtSecret))
	g.POST("", h.Create, limit)
	g.GET("/mine", h.ListMine)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.UpdateDates, limit)
	g.POST("/:id/cancel", h.Cancel, limit)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, rooms *handler.RoomHandler, cats *handler.CategoryHandler, res *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(identity.RoleAdmin),
	)

	// ---- Rooms ----
	g.GET("/rooms", rooms.AdminList)
	g.POST("/rooms", rooms.Create)
	g.PUT("/rooms/:id", rooms.Update)
	g.PATCH("/rooms/:id", rooms.Update)
	g.DELETE("/rooms/:id", rooms.Delete)

	// ---- Categories ----
	g.POST("/categories", cats.Create)
	g.PUT("/categories/:id", cats.Update)
	g.DELETE("/categories/:id", cats.Delete)

	// ---- Reservations ----
	g.GET("/reservations", res.AdminList)
	g.POST("/reservations/:id/approve", res.Approve)
	g.POST("/reservations/:id/decline", res.Decline)
	g.POST("/reservations/:id/check-in", res.CheckIn)
	g.POST("/reservations/:id/check-out", res.CheckOut)
}
