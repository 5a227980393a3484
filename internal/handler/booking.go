package handler

import (
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/gearup/rental/internal/service" // booking business rules
)

// BookingHandler exposes booking endpoints for both sides of a rental:
// customers finalize carts and view or cancel their bookings, renters
// list incoming bookings and mark them completed.  Role enforcement
// happens in middleware; ownership is enforced in the repository.
type BookingHandler struct {
    Bookings *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.  The service must be
// non-nil.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
    if bookings == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: bookings}
}

// Finalize handles POST /v1/bookings.  It converts the customer's
// active cart into a CONFIRMED booking atomically and returns 201 with
// the booking and the advance amount due through the gateway.  An
// expired cart fails with 409; an empty or missing one with 404.
func (h *BookingHandler) Finalize(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    b, err := h.Bookings.Finalize(c.Request().Context(), userID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id":           b.ID,
        "status":               b.Status,
        "total_amount_cents":   b.TotalAmountCents,
        "advance_amount_cents": b.AdvanceAmountCents,
    })
}

// ListMine handles GET /v1/bookings.  It returns the customer's
// booking history with items, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.Bookings.ListForCustomer(c.Request().Context(), userID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// GetMine handles GET /v1/bookings/:id.  It returns one booking with
// items when it belongs to the customer; 404 otherwise.
func (h *BookingHandler) GetMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    detail, err := h.Bookings.GetForCustomer(c.Request().Context(), bookingID, userID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Cancel handles POST /v1/bookings/:id/cancel for either party.  The
// booking flips to CANCELLED, its reservations are released and the
// cart behind it reopens with a fresh hold window.  The caller's role
// is recorded as the modifier; the repository verifies the caller is
// actually the booking's customer or renter.  Completed bookings
// cannot be cancelled and fail with 409.  Returns 204 on success.
func (h *BookingHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    modifiedBy := "CUSTOMER"
    if role, ok := c.Get("role").(string); ok && role == "RENTER" {
        modifiedBy = "RENTER"
    }
    if err := h.Bookings.Cancel(c.Request().Context(), bookingID, userID, modifiedBy); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListIncoming handles GET /v1/renter/bookings.  It returns bookings
// placed against the renter's listings.
func (h *BookingHandler) ListIncoming(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.Bookings.ListForRenter(c.Request().Context(), userID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// Complete handles POST /v1/bookings/:id/complete.  Only the renter
// behind the booking may call it, and only while the booking is
// CONFIRMED.  Completion returns the reserved stock to the listing
// pool and emits a notification.
func (h *BookingHandler) Complete(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    if err := h.Bookings.Complete(c.Request().Context(), bookingID, userID); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "booking_id": bookingID,
        "status":     "COMPLETED",
    })
}
