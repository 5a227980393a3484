// Package service contains the business rules sitting between the HTTP
// handlers and the repositories: input validation, the cart hold
// lifecycle, booking finalization amounts and payment correlation.
// Services talk to persistence through narrow store interfaces so the
// rules can be tested without a database; the stores own the
// transactions and the row locking.
package service

import (
    "context"
    "errors"
    "sort"
    "time"

    "github.com/google/uuid"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/repository"
)

// ErrInvalidInput marks caller-correctable validation failures:
// missing fields, malformed dates, non-positive quantities.  Handlers
// translate it to HTTP 400.  No state changes when it is returned.
var ErrInvalidInput = errors.New("invalid input")

const dateLayout = "2006-01-02"

// CartStore is the persistence surface the cart service depends on.
// Implementations run each mutation in one transaction that sweeps
// expired carts first and validates availability with the listing rows
// locked.
type CartStore interface {
    SweepExpired(ctx context.Context) (int64, error)
    ActiveCart(ctx context.Context, customerID uint64) (*model.Cart, []model.CartItem, error)
    CreateCart(ctx context.Context, customerID, renterID uint64, orderRef string, startDate, endDate time.Time, items []repository.NewCartItem, ttl time.Duration) (*model.Cart, []model.CartItem, error)
    UpdateItemQuantity(ctx context.Context, customerID, itemID uint64, quantity uint32) error
    RemoveItem(ctx context.Context, customerID, itemID uint64) error
}

// CartItemInput is one requested (listing, quantity) pair.
type CartItemInput struct {
    EquipmentID uint64 `json:"equipment_id"`
    Quantity    uint32 `json:"quantity"`
}

// CreateCartInput carries everything needed to open a new hold.
type CreateCartInput struct {
    RenterID  uint64          `json:"renter_id"`
    StartDate string          `json:"start_date"`
    EndDate   string          `json:"end_date"`
    Items     []CartItemInput `json:"items"`
}

// CartService owns the temporary-hold rules on top of a CartStore.
type CartService struct {
    store CartStore
    ttl   time.Duration
}

// NewCartService builds a CartService.  ttl is the hold window applied
// to every new cart.
func NewCartService(store CartStore, ttl time.Duration) *CartService {
    return &CartService{store: store, ttl: ttl}
}

// TTL returns the configured hold window.
func (s *CartService) TTL() time.Duration { return s.ttl }

// ActiveCart sweeps expired holds and returns the customer's current
// cart, or repository.ErrCartNotFound when none is live.
func (s *CartService) ActiveCart(ctx context.Context, customerID uint64) (*model.Cart, []model.CartItem, error) {
    if _, err := s.store.SweepExpired(ctx); err != nil {
        return nil, nil, err
    }
    return s.store.ActiveCart(ctx, customerID)
}

// CreateCart validates the request and opens a new hold, superseding
// any prior active cart of the customer.  A fresh order correlation
// ref is generated per cart; an order ref therefore identifies exactly
// one cart/booking cycle and is never reused after a cancellation
// resets the cart.
func (s *CartService) CreateCart(ctx context.Context, customerID uint64, in CreateCartInput) (*model.Cart, []model.CartItem, error) {
    if in.RenterID == 0 || in.RenterID == customerID {
        return nil, nil, ErrInvalidInput
    }
    start, err := time.Parse(dateLayout, in.StartDate)
    if err != nil {
        return nil, nil, ErrInvalidInput
    }
    end, err := time.Parse(dateLayout, in.EndDate)
    if err != nil {
        return nil, nil, ErrInvalidInput
    }
    if end.Before(start) {
        return nil, nil, ErrInvalidInput
    }
    items, err := mergeItems(in.Items)
    if err != nil {
        return nil, nil, err
    }
    orderRef := uuid.NewString()
    return s.store.CreateCart(ctx, customerID, in.RenterID, orderRef, start, end, items, s.ttl)
}

// UpdateItemQuantity changes the held quantity of one cart item after
// basic validation; ownership, liveness and availability are enforced
// by the store inside its transaction.
func (s *CartService) UpdateItemQuantity(ctx context.Context, customerID, itemID uint64, quantity uint32) error {
    if itemID == 0 || quantity == 0 {
        return ErrInvalidInput
    }
    return s.store.UpdateItemQuantity(ctx, customerID, itemID, quantity)
}

// RemoveItem deletes one item from the customer's cart.
func (s *CartService) RemoveItem(ctx context.Context, customerID, itemID uint64) error {
    if itemID == 0 {
        return ErrInvalidInput
    }
    return s.store.RemoveItem(ctx, customerID, itemID)
}

// mergeItems validates quantities and merges duplicate listing ids so
// the store sees at most one line per listing.  The result is ordered
// by listing id: the store locks listing rows line by line, and a
// global lock order keeps two carts naming the same listings from
// deadlocking each other.
func mergeItems(in []CartItemInput) ([]repository.NewCartItem, error) {
    if len(in) == 0 {
        return nil, ErrInvalidInput
    }
    merged := make([]repository.NewCartItem, 0, len(in))
    index := make(map[uint64]int, len(in))
    for _, it := range in {
        if it.EquipmentID == 0 || it.Quantity == 0 {
            return nil, ErrInvalidInput
        }
        if i, ok := index[it.EquipmentID]; ok {
            merged[i].Quantity += it.Quantity
            continue
        }
        index[it.EquipmentID] = len(merged)
        merged = append(merged, repository.NewCartItem{EquipmentID: it.EquipmentID, Quantity: it.Quantity})
    }
    sort.Slice(merged, func(i, j int) bool { return merged[i].EquipmentID < merged[j].EquipmentID })
    return merged, nil
}
