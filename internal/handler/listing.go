package handler

import (
    "net/http" // HTTP status codes
    "strings"  // input normalization

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/gearup/rental/internal/model"      // persistence models
    "github.com/gearup/rental/internal/repository" // listing persistence
)

// ListingHandler exposes the renter's catalog management endpoints.
// Ownership is enforced per request; a renter can only read and modify
// their own listings.
type ListingHandler struct {
    Listings *repository.EquipmentRepo
}

// NewListingHandler constructs a ListingHandler.  The repository must
// be non-nil.
func NewListingHandler(listings *repository.EquipmentRepo) *ListingHandler {
    if listings == nil {
        panic("nil repository passed to NewListingHandler")
    }
    return &ListingHandler{Listings: listings}
}

type listingReq struct {
    Name             string  `json:"name"`
    Description      *string `json:"description"`
    PricePerDayCents uint32  `json:"price_per_day_cents"`
    TotalStock       uint32  `json:"total_stock"`
}

type listingResp struct {
    ID               uint64  `json:"id"`
    Name             string  `json:"name"`
    Description      *string `json:"description,omitempty"`
    PricePerDayCents uint32  `json:"price_per_day_cents"`
    TotalStock       uint32  `json:"total_stock"`
    Status           string  `json:"status"`
}

func toListingResp(l *model.EquipmentListing) listingResp {
    return listingResp{
        ID:               l.ID,
        Name:             l.Name,
        Description:      l.Description,
        PricePerDayCents: l.PricePerDayCents,
        TotalStock:       l.TotalStock,
        Status:           l.Status,
    }
}

// Create handles POST /v1/listings.  It creates an ACTIVE
// listing owned by the authenticated renter and returns it with 201.
func (h *ListingHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body listingReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    body.Name = strings.TrimSpace(body.Name)
    if body.Name == "" || body.PricePerDayCents == 0 || body.TotalStock == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, price_per_day_cents and total_stock are required"})
    }
    l := &model.EquipmentListing{
        RenterID:         userID,
        Name:             body.Name,
        Description:      body.Description,
        PricePerDayCents: body.PricePerDayCents,
        TotalStock:       body.TotalStock,
    }
    if err := h.Listings.Create(c.Request().Context(), l); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, toListingResp(l))
}

// List handles GET /v1/renter/listings.  It returns all of the
// renter's listings, archived ones included.
func (h *ListingHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listings, err := h.Listings.ListByRenter(c.Request().Context(), userID)
    if err != nil {
        return fail(c, err)
    }
    out := make([]listingResp, 0, len(listings))
    for i := range listings {
        out = append(out, toListingResp(&listings[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/renter/listings/:id.  It returns one listing
// when owned by the renter, 403 when owned by someone else.
func (h *ListingHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    l, err := h.Listings.GetByIDAndRenter(c.Request().Context(), id, userID)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, toListingResp(l))
}

// Update handles PUT /v1/listings/:id.  Total stock cannot be
// shrunk below the quantity currently consumed by holds and booked
// reservations; such an edit fails with 409.
func (h *ListingHandler) Update(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    var body listingReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    body.Name = strings.TrimSpace(body.Name)
    if body.Name == "" || body.PricePerDayCents == 0 || body.TotalStock == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, price_per_day_cents and total_stock are required"})
    }
    l := &model.EquipmentListing{
        ID:               id,
        RenterID:         userID,
        Name:             body.Name,
        Description:      body.Description,
        PricePerDayCents: body.PricePerDayCents,
        TotalStock:       body.TotalStock,
    }
    if err := h.Listings.Update(c.Request().Context(), l); err != nil {
        return fail(c, err)
    }
    updated, err := h.Listings.GetByID(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, toListingResp(updated))
}

// Archive handles DELETE /v1/listings/:id.  The listing
// disappears from browse and stops accepting holds; existing carts and
// bookings are untouched.  Returns 204 on success.
func (h *ListingHandler) Archive(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    if err := h.Listings.Archive(c.Request().Context(), id, userID); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
