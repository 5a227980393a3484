package handler

import (
    "net/http" // HTTP status codes
    "strings"  // trimming path parameters

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/gearup/rental/internal/service" // payment correlation rules
)

// PaymentHandler exposes the gateway correlation endpoints.  Confirm
// and cancel accept the order ref issued at cart creation; the webhook
// accepts raw gateway callbacks and demultiplexes them by status.
// Gateways redeliver, so every endpoint here is idempotent.
type PaymentHandler struct {
    Payments *service.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.  The service must be
// non-nil.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
    if payments == nil {
        panic("nil service passed to NewPaymentHandler")
    }
    return &PaymentHandler{Payments: payments}
}

type paymentCallbackReq struct {
    OrderRef     string `json:"order_ref"`
    GatewayTxnID string `json:"gateway_txn_id"`
    Status       string `json:"status"`
    Reason       string `json:"reason"`
}

// Confirm handles POST /v1/payments/confirm.  It records the gateway
// payment for the booking behind order_ref.  A repeat delivery returns
// the already-recorded payment with 200 instead of creating another.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    var body paymentCallbackReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    p, err := h.Payments.Confirm(c.Request().Context(), body.OrderRef, body.GatewayTxnID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "payment_id":     p.ID,
        "booking_id":     p.BookingID,
        "amount_cents":   p.AmountCents,
        "status":         p.Status,
        "gateway_txn_id": p.GatewayTxnID,
    })
}

// Cancel handles POST /v1/payments/cancel.  A failed or aborted
// payment rolls the booking back: reservations are released and the
// cart reopens with a fresh hold window.  Repeats are no-ops; an order
// ref from a previous, already-reset cycle fails with 404 and cannot
// touch the reopened cart.
func (h *PaymentHandler) Cancel(c echo.Context) error {
    var body paymentCallbackReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := h.Payments.Cancel(c.Request().Context(), body.OrderRef, body.Reason); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"order_ref": body.OrderRef, "status": "CANCELLED"})
}

// Webhook handles POST /v1/payments/webhook.  It accepts the gateway's
// own callback shape and routes it to the confirm or cancel path based
// on the reported status.  Unknown statuses are acknowledged with 200
// so the gateway stops retrying them.
func (h *PaymentHandler) Webhook(c echo.Context) error {
    var body paymentCallbackReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := h.Payments.HandleWebhook(c.Request().Context(), body.OrderRef, body.GatewayTxnID, body.Status); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// Status handles GET /v1/payments/:orderRef.  It reports the booking
// and payment state behind an order ref so clients can poll after a
// gateway redirect.
func (h *PaymentHandler) Status(c echo.Context) error {
    orderRef := strings.TrimSpace(c.Param("orderRef"))
    if orderRef == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order ref"})
    }
    st, err := h.Payments.Status(c.Request().Context(), orderRef)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, st)
}
