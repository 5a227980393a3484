package router

// This file registers the payment gateway correlation routes.  They
// are called by the gateway rather than by logged-in users, so they
// carry no JWT middleware; the order ref acts as the shared secret
// correlating a callback to exactly one cart/booking cycle.

import (
	"github.com/labstack/echo/v4"

	"github.com/gearup/rental/internal/handler"
)

// RegisterPayments registers the gateway-facing endpoints under
// /v1/payments.  Confirm and cancel accept explicit callbacks, the
// webhook accepts the gateway's own status payloads, and the status
// endpoint lets clients poll after a gateway redirect.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler) {
	g := e.Group("/v1/payments")
	g.POST("/confirm", h.Confirm)
	g.POST("/cancel", h.Cancel)
	g.POST("/webhook", h.Webhook)
	g.GET("/:orderRef", h.Status)
}
