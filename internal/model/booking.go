package model

import "time"

// Booking is the permanent record of a confirmed rental agreement.
// It is produced atomically from an active cart together with its
// items and per-item reservations.  A booking is created CONFIRMED
// and terminates either COMPLETED (renter marks the rental finished)
// or CANCELLED (payment failure or explicit cancellation).
//
// Fields:
//  ID                 – primary key identifier.
//  CartID             – cart this booking was finalized from.
//  CustomerID         – customer who booked.
//  RenterID           – renter providing the equipment.
//  StartDate          – first rental day (inclusive).
//  EndDate            – last rental day (inclusive).
//  TotalAmountCents   – full rental price.
//  AdvanceAmountCents – up-front amount collected via the gateway.
//  Status             – CONFIRMED, CANCELLED or COMPLETED.
//  ModifiedBy         – tag of the party who last changed the status.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Booking struct {
    ID                 uint64    // bookings.id
    CartID             uint64    // bookings.cart_id
    CustomerID         uint64    // bookings.customer_id
    RenterID           uint64    // bookings.renter_id
    StartDate          time.Time // bookings.start_date
    EndDate            time.Time // bookings.end_date
    TotalAmountCents   uint32    // bookings.total_amount_cents
    AdvanceAmountCents uint32    // bookings.advance_amount_cents
    Status             string    // bookings.status
    ModifiedBy         string    // bookings.modified_by
    CreatedAt          time.Time // bookings.created_at
    UpdatedAt          time.Time // bookings.updated_at
}

// BookingItem is an immutable historical line item of a booking.
type BookingItem struct {
    ID             uint64    // booking_items.id
    BookingID      uint64    // booking_items.booking_id
    EquipmentID    uint64    // booking_items.equipment_id
    Quantity       uint32    // booking_items.quantity
    UnitPriceCents uint32    // booking_items.unit_price_cents
    CreatedAt      time.Time // booking_items.created_at
}

// EquipmentReservation is the permanent per-item hold backing a
// booking.  BOOKED reservations on CONFIRMED bookings count against
// listing availability; cancelling a booking flips its reservations to
// CANCELLED, releasing the stock.  Reservations on COMPLETED bookings
// stay BOOKED for history but no longer consume stock.
type EquipmentReservation struct {
    ID          uint64    // equipment_reservations.id
    EquipmentID uint64    // equipment_reservations.equipment_id
    BookingID   uint64    // equipment_reservations.booking_id
    CustomerID  uint64    // equipment_reservations.customer_id
    Quantity    uint32    // equipment_reservations.quantity
    Status      string    // equipment_reservations.status
    CreatedAt   time.Time // equipment_reservations.created_at
    UpdatedAt   time.Time // equipment_reservations.updated_at
}
