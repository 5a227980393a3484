package model

import "time"

// Payment records a gateway transaction for a booking.  At most one
// SUCCESSFUL payment exists per booking; the correlator enforces this
// with an existence check inside the confirmation transaction.
type Payment struct {
    ID           uint64    // payments.id
    BookingID    uint64    // payments.booking_id
    GatewayTxnID string    // payments.gateway_txn_id
    AmountCents  uint32    // payments.amount_cents
    Status       string    // payments.status (SUCCESSFUL, FAILED)
    CreatedAt    time.Time // payments.created_at
}
