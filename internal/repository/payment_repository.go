package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/gearup/rental/internal/model"
)

// PaymentRepo correlates gateway confirmations and cancellations with
// bookings through the originating cart's order ref.  Confirmation is
// idempotent: the booking row is locked, an existence check guards the
// insert, and re-invocation with the same order ref returns the
// payment already on file.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// PaymentStatus is the read shape for the payment/booking status
// lookup by order ref.
type PaymentStatus struct {
    OrderRef      string `json:"order_ref"`
    BookingID     uint64 `json:"booking_id"`
    BookingStatus string `json:"booking_status"`
    PaymentStatus string `json:"payment_status,omitempty"`
    GatewayTxnID  string `json:"gateway_txn_id,omitempty"`
    AmountCents   uint32 `json:"amount_cents,omitempty"`
}

// bookingByOrderRefTx resolves an order ref to its booking inside the
// caller's transaction, locking the booking row so concurrent gateway
// redeliveries serialize.
func bookingByOrderRefTx(ctx context.Context, tx *sql.Tx, orderRef string) (bookingID uint64, advanceCents uint32, status string, err error) {
    const q = `SELECT b.id, b.advance_amount_cents, b.status
               FROM bookings b
               JOIN carts c ON c.id = b.cart_id
               WHERE c.order_ref = ?
               ORDER BY b.created_at DESC LIMIT 1
               FOR UPDATE`
    err = tx.QueryRowContext(ctx, q, orderRef).Scan(&bookingID, &advanceCents, &status)
    if err == sql.ErrNoRows {
        err = ErrOrderRefNotFound
    }
    return
}

// Confirm records a successful gateway payment for the booking behind
// orderRef.  If no SUCCESSFUL payment exists for the booking yet, one
// is inserted for the booking's advance amount; a repeated call with
// the same order ref is a no-op on the payments table and returns the
// existing row with created=false.  A cancelled booking cannot be
// paid.
func (r *PaymentRepo) Confirm(ctx context.Context, orderRef, gatewayTxnID string) (*model.Payment, bool, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    bookingID, advanceCents, status, err := bookingByOrderRefTx(ctx, tx, orderRef)
    if err != nil {
        return nil, false, err
    }
    if status == "CANCELLED" {
        return nil, false, ErrConflict
    }
    // Idempotency guard: at most one SUCCESSFUL payment per booking.
    var existing model.Payment
    err = tx.QueryRowContext(ctx,
        `SELECT id, booking_id, gateway_txn_id, amount_cents, status, created_at
         FROM payments WHERE booking_id = ? AND status = 'SUCCESSFUL' LIMIT 1`,
        bookingID,
    ).Scan(&existing.ID, &existing.BookingID, &existing.GatewayTxnID, &existing.AmountCents, &existing.Status, &existing.CreatedAt)
    if err == nil {
        if err := tx.Commit(); err != nil {
            return nil, false, err
        }
        committed = true
        return &existing, false, nil
    }
    if err != sql.ErrNoRows {
        return nil, false, err
    }
    res, err := tx.ExecContext(ctx,
        `INSERT INTO payments (booking_id, gateway_txn_id, amount_cents, status)
         VALUES (?, ?, ?, 'SUCCESSFUL')`,
        bookingID, gatewayTxnID, advanceCents)
    if err != nil {
        return nil, false, err
    }
    payID, err := res.LastInsertId()
    if err != nil {
        return nil, false, err
    }
    // The booking-status update may safely repeat; CONFIRMED stays
    // CONFIRMED and records the gateway as last modifier.
    if _, err := tx.ExecContext(ctx,
        `UPDATE bookings SET modified_by = 'GATEWAY' WHERE id = ? AND status = 'CONFIRMED'`,
        bookingID); err != nil {
        return nil, false, err
    }
    p := &model.Payment{}
    err = tx.QueryRowContext(ctx,
        `SELECT id, booking_id, gateway_txn_id, amount_cents, status, created_at FROM payments WHERE id = ?`,
        payID,
    ).Scan(&p.ID, &p.BookingID, &p.GatewayTxnID, &p.AmountCents, &p.Status, &p.CreatedAt)
    if err != nil {
        return nil, false, err
    }
    if err := tx.Commit(); err != nil {
        return nil, false, err
    }
    committed = true
    return p, true, nil
}

// Cancel drives the payment-failure rollback for the booking behind
// orderRef: booking → CANCELLED, reservations → CANCELLED, cart items
// cleared and the cart reset to ACTIVE with a fresh expiry.  Gateways
// may redeliver cancellations, so an already cancelled booking is a
// no-op rather than an error.
func (r *PaymentRepo) Cancel(ctx context.Context, orderRef string, cartTTL time.Duration) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    bookingID, _, status, err := bookingByOrderRefTx(ctx, tx, orderRef)
    if err != nil {
        return err
    }
    switch status {
    case "CANCELLED":
        // Redelivered cancellation; nothing left to reverse.
    case "CONFIRMED":
        if err := cancelBookingTx(ctx, tx, bookingID, "GATEWAY", cartTTL); err != nil {
            return err
        }
    default:
        return ErrConflict
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// StatusByOrderRef returns the booking and payment state for an order
// ref without taking locks.
func (r *PaymentRepo) StatusByOrderRef(ctx context.Context, orderRef string) (*PaymentStatus, error) {
    const q = `SELECT b.id, b.status FROM bookings b
               JOIN carts c ON c.id = b.cart_id
               WHERE c.order_ref = ?
               ORDER BY b.created_at DESC LIMIT 1`
    st := &PaymentStatus{OrderRef: orderRef}
    err := r.db.QueryRowContext(ctx, q, orderRef).Scan(&st.BookingID, &st.BookingStatus)
    if err == sql.ErrNoRows {
        return nil, ErrOrderRefNotFound
    }
    if err != nil {
        return nil, err
    }
    var p model.Payment
    err = r.db.QueryRowContext(ctx,
        `SELECT gateway_txn_id, amount_cents, status FROM payments
         WHERE booking_id = ? ORDER BY created_at DESC LIMIT 1`,
        st.BookingID,
    ).Scan(&p.GatewayTxnID, &p.AmountCents, &p.Status)
    if err == nil {
        st.PaymentStatus = p.Status
        st.GatewayTxnID = p.GatewayTxnID
        st.AmountCents = p.AmountCents
    } else if err != sql.ErrNoRows {
        return nil, err
    }
    return st, nil
}
