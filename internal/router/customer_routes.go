package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gearup/rental/internal/handler"
	"github.com/gearup/rental/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers manage
// their cart hold, finalize it into a booking and view or cancel their
// bookings.
func RegisterCustomer(e *echo.Echo, cart *handler.CartHandler, booking *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	// ---- Cart ----
	g.GET("/cart", cart.GetCart)
	g.POST("/cart", cart.CreateCart)
	g.PATCH("/cart/items/:id", cart.UpdateItem)
	g.DELETE("/cart/items/:id", cart.RemoveItem)

	// ---- Bookings ----
	g.POST("/bookings", booking.Finalize)
	g.GET("/bookings", booking.ListMine)
	g.GET("/bookings/:id", booking.GetMine)

	// Cancellation is shared: either party of a booking may cancel a
	// CONFIRMED booking, so the route admits both roles and the
	// repository checks the caller against the booking itself.
	shared := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", "RENTER"),
	)
	shared.POST("/bookings/:id/cancel", booking.Cancel)
}
