package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/repository"
    "github.com/gearup/rental/internal/service"
)

// stubCartStore satisfies service.CartStore with a fixed ActiveCart
// result; the other methods are unused by the handler under test.
type stubCartStore struct {
    cart  *model.Cart
    items []model.CartItem
    err   error
}

func (s *stubCartStore) SweepExpired(context.Context) (int64, error) { return 0, nil }

func (s *stubCartStore) ActiveCart(context.Context, uint64) (*model.Cart, []model.CartItem, error) {
    return s.cart, s.items, s.err
}

func (s *stubCartStore) CreateCart(context.Context, uint64, uint64, string, time.Time, time.Time, []repository.NewCartItem, time.Duration) (*model.Cart, []model.CartItem, error) {
    return nil, nil, nil
}

func (s *stubCartStore) UpdateItemQuantity(context.Context, uint64, uint64, uint32) error {
    return nil
}

func (s *stubCartStore) RemoveItem(context.Context, uint64, uint64) error { return nil }

func getCartRequest(t *testing.T, store *stubCartStore) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
    t.Helper()
    h := NewCartHandler(service.NewCartService(store, 30*time.Minute))
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uint64(1))
    if err := h.GetCart(c); err != nil {
        t.Fatalf("GetCart: %v", err)
    }
    var body map[string]json.RawMessage
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decoding response: %v", err)
    }
    return rec, body
}

func TestGetCart_NoActiveCartIsEmptyNotError(t *testing.T) {
    rec, body := getCartRequest(t, &stubCartStore{err: repository.ErrCartNotFound})
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
    }
    if string(body["cart"]) != "null" {
        t.Errorf("cart = %s, want null", body["cart"])
    }
}

func TestGetCart_ReturnsActiveCart(t *testing.T) {
    now := time.Now().UTC()
    store := &stubCartStore{
        cart: &model.Cart{
            ID:        4,
            OrderRef:  "ref-1234",
            RenterID:  2,
            StartDate: now,
            EndDate:   now.Add(48 * time.Hour),
            Status:    "ACTIVE",
            ExpiresAt: now.Add(30 * time.Minute),
        },
        items: []model.CartItem{{ID: 9, CartID: 4, EquipmentID: 7, Quantity: 2, UnitPriceCents: 1500}},
    }
    rec, body := getCartRequest(t, store)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
    }
    var cart cartResp
    if err := json.Unmarshal(body["cart"], &cart); err != nil {
        t.Fatalf("decoding cart: %v", err)
    }
    if cart.ID != 4 || cart.OrderRef != "ref-1234" {
        t.Errorf("cart = %+v, want id 4 with order ref ref-1234", cart)
    }
    if len(cart.Items) != 1 || cart.Items[0].EquipmentID != 7 {
        t.Errorf("items = %+v, want one line for equipment 7", cart.Items)
    }
}
