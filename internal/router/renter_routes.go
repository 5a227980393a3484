package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/gearup/rental/internal/handler"    // renter handlers
	"github.com/gearup/rental/internal/middleware" // JWT + role middlewares
)

// RegisterRenter registers RENTER-scoped endpoints under /v1.
// All routes require a valid JWT and RENTER role.  Renters manage
// their equipment catalog and the bookings placed against it.
func RegisterRenter(e *echo.Echo, listing *handler.ListingHandler, booking *handler.BookingHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("RENTER"),
	)

	// ---- Listings ----
	g.POST("/listings", listing.Create)
	// NOTE: GET /v1/listings and GET /v1/listings/:id are handled by
	// the public browse API; the renter's own-catalog views (archived
	// included) live under /v1/renter to avoid route conflicts.
	g.PUT("/listings/:id", listing.Update)
	g.PATCH("/listings/:id", listing.Update) // allow partial/semantic updates via PATCH as well
	g.DELETE("/listings/:id", listing.Archive)
	g.GET("/renter/listings", listing.List)
	g.GET("/renter/listings/:id", listing.Get)

	// ---- Bookings ----
	g.GET("/renter/bookings", booking.ListIncoming)
	g.POST("/bookings/:id/complete", booking.Complete)
}
