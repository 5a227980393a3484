package handler

import (
    "errors"   // sentinel matching for the empty-cart case
    "net/http" // HTTP status codes
    "time"     // formatting hold expiry timestamps

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/gearup/rental/internal/model"      // persistence models
    "github.com/gearup/rental/internal/repository" // sentinel errors
    "github.com/gearup/rental/internal/service"    // cart business rules
)

// CartHandler exposes the customer's temporary-hold endpoints.  All
// methods assume JWT authentication and the CUSTOMER role have been
// validated by middleware; they return 401 only when the user ID is
// missing from the context.
type CartHandler struct {
    Carts *service.CartService
}

// NewCartHandler constructs a CartHandler.  The service must be non-nil.
func NewCartHandler(carts *service.CartService) *CartHandler {
    if carts == nil {
        panic("nil service passed to NewCartHandler")
    }
    return &CartHandler{Carts: carts}
}

type cartItemResp struct {
    ID             uint64 `json:"id"`
    EquipmentID    uint64 `json:"equipment_id"`
    Quantity       uint32 `json:"quantity"`
    UnitPriceCents uint32 `json:"unit_price_cents"`
}

type cartResp struct {
    ID        uint64         `json:"id"`
    OrderRef  string         `json:"order_ref"`
    RenterID  uint64         `json:"renter_id"`
    StartDate string         `json:"start_date"`
    EndDate   string         `json:"end_date"`
    Status    string         `json:"status"`
    ExpiresAt string         `json:"expires_at"`
    Items     []cartItemResp `json:"items"`
}

func toCartResp(cart *model.Cart, items []model.CartItem) cartResp {
    out := cartResp{
        ID:        cart.ID,
        OrderRef:  cart.OrderRef,
        RenterID:  cart.RenterID,
        StartDate: cart.StartDate.Format("2006-01-02"),
        EndDate:   cart.EndDate.Format("2006-01-02"),
        Status:    cart.Status,
        ExpiresAt: cart.ExpiresAt.UTC().Format(time.RFC3339),
        Items:     make([]cartItemResp, 0, len(items)),
    }
    for _, it := range items {
        out.Items = append(out.Items, cartItemResp{
            ID:             it.ID,
            EquipmentID:    it.EquipmentID,
            Quantity:       it.Quantity,
            UnitPriceCents: it.UnitPriceCents,
        })
    }
    return out
}

// GetCart handles GET /v1/cart.  It returns the customer's active,
// unexpired cart with its items.  Holding no cart is a normal state,
// not an error: the response is then 200 with a null cart.
func (h *CartHandler) GetCart(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    cart, items, err := h.Carts.ActiveCart(c.Request().Context(), userID)
    if errors.Is(err, repository.ErrCartNotFound) {
        return c.JSON(http.StatusOK, echo.Map{"cart": nil})
    }
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"cart": toCartResp(cart, items)})
}

// CreateCart handles POST /v1/cart.  The body names the renter, the
// rental window and the requested items.  On success the new hold is
// returned with 201 and its expiry timestamp; any previously active
// cart of the customer is superseded.  Requests exceeding current
// availability fail with 409.
func (h *CartHandler) CreateCart(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body service.CreateCartInput
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    cart, items, err := h.Carts.CreateCart(c.Request().Context(), userID, body)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, toCartResp(cart, items))
}

// UpdateItem handles PATCH /v1/cart/items/:id.  The body carries the
// new quantity; raising it beyond availability fails with 409 and
// leaves the previous hold intact.
func (h *CartHandler) UpdateItem(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    itemID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }
    var body struct {
        Quantity uint32 `json:"quantity"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := h.Carts.UpdateItemQuantity(c.Request().Context(), userID, itemID, body.Quantity); err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "item_id":  itemID,
        "quantity": body.Quantity,
    })
}

// RemoveItem handles DELETE /v1/cart/items/:id.  Removing the last
// item closes the cart.  Returns 204 on success.
func (h *CartHandler) RemoveItem(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    itemID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }
    if err := h.Carts.RemoveItem(c.Request().Context(), userID, itemID); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
