// Package queue defines message payloads exchanged over the message
// broker and the publisher/consumer pair that moves them.  Publishing
// is fire-and-forget: a broker failure is logged and must never roll
// back or block the transaction that triggered the event.
package queue

// PaymentConfirmedEvent is published when a gateway payment is
// recorded for a booking.  It carries enough for downstream consumers
// to notify or log without querying the primary database.
type PaymentConfirmedEvent struct {
    BookingID    uint64 `json:"booking_id"`
    OrderRef     string `json:"order_ref"`
    AmountCents  uint32 `json:"amount_cents"`
    GatewayTxnID string `json:"gateway_txn_id"`
    ConfirmedAt  string `json:"confirmed_at"`
}

// BookingCompletedEvent is published when a renter marks a booking
// finished and its stock returns to the listing pool.
type BookingCompletedEvent struct {
    BookingID   uint64 `json:"booking_id"`
    RenterID    uint64 `json:"renter_id"`
    CompletedAt string `json:"completed_at"`
}
