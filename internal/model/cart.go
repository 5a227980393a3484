package model

import "time"

// Cart is a customer's temporary, TTL-bound hold on equipment
// quantities for a single renter.  A customer has at most one ACTIVE,
// unexpired cart at a time; creating a new cart supersedes any prior
// one.  While a cart is ACTIVE its items count against listing
// availability.  Once the cart expires or is converted to a booking,
// no further item mutation is permitted.
//
// Fields:
//  ID         – primary key identifier.
//  CustomerID – user ID of the shopping customer.
//  RenterID   – user ID of the renter whose equipment is held.
//  OrderRef   – correlation id handed to the payment gateway.
//  StartDate  – first rental day (inclusive).
//  EndDate    – last rental day (inclusive).
//  Status     – ACTIVE, BOOKED or EXPIRED.
//  ExpiresAt  – when the hold lapses and stock is reclaimed.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Cart struct {
    ID         uint64    // carts.id
    CustomerID uint64    // carts.customer_id
    RenterID   uint64    // carts.renter_id
    OrderRef   string    // carts.order_ref
    StartDate  time.Time // carts.start_date
    EndDate    time.Time // carts.end_date
    Status     string    // carts.status
    ExpiresAt  time.Time // carts.expires_at
    CreatedAt  time.Time // carts.created_at
    UpdatedAt  time.Time // carts.updated_at
}

// CartItem holds a quantity of one equipment listing inside a cart.
// The unit price is snapshotted at the time the item is added so a
// later listing price change does not alter an in-flight checkout.
//
// Fields:
//  ID             – primary key identifier.
//  CartID         – owning cart.
//  EquipmentID    – equipment listing being held.
//  Quantity       – number of units held.
//  UnitPriceCents – per-day unit price at the time of reservation.
//  CreatedAt      – creation timestamp.
type CartItem struct {
    ID             uint64    // cart_items.id
    CartID         uint64    // cart_items.cart_id
    EquipmentID    uint64    // cart_items.equipment_id
    Quantity       uint32    // cart_items.quantity
    UnitPriceCents uint32    // cart_items.unit_price_cents
    CreatedAt      time.Time // cart_items.created_at
}
