// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines the public browsing API. These routes let
// unauthenticated users browse active equipment listings without an
// account. Sensitive fields (renter IDs, timestamps) are filtered from
// responses, and the reported availability is advisory only: every
// reservation attempt re-validates it inside a transaction.

package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/gearup/rental/internal/repository"
)

// PublicHandler serves the unauthenticated catalog.
type PublicHandler struct {
    Listings *repository.EquipmentRepo // provides access to listing data
}

// PublicListing is a listing exposed via the public API. It contains
// only safe fields plus a point-in-time availability count.
type PublicListing struct {
    ID               uint64  `json:"id"`
    Name             string  `json:"name"`
    Description      *string `json:"description,omitempty"`
    PricePerDayCents uint32  `json:"price_per_day_cents"`
    Available        int64   `json:"available"`
}

// GetListings returns all ACTIVE listings with their current
// availability. Response JSON contains an "items" array of
// PublicListing.
func (h *PublicHandler) GetListings(c echo.Context) error {
    ctx := c.Request().Context()
    listings, err := h.Listings.ListActive(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]PublicListing, 0, len(listings))
    for i := range listings {
        l := &listings[i]
        avail, err := h.Listings.Available(ctx, l.ID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
        out = append(out, PublicListing{
            ID:               l.ID,
            Name:             l.Name,
            Description:      l.Description,
            PricePerDayCents: l.PricePerDayCents,
            Available:        avail,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetListing returns one ACTIVE listing with availability. Archived and
// unknown listings both answer 404.
func (h *PublicHandler) GetListing(c echo.Context) error {
    ctx := c.Request().Context()
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    l, err := h.Listings.GetByID(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    if l.Status != "ACTIVE" {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
    }
    avail, err := h.Listings.Available(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, PublicListing{
        ID:               l.ID,
        Name:             l.Name,
        Description:      l.Description,
        PricePerDayCents: l.PricePerDayCents,
        Available:        avail,
    })
}
