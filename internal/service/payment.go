package service

import (
    "context"
    "log"
    "strings"
    "time"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/queue"
    "github.com/gearup/rental/internal/repository"
)

// PaymentStore is the persistence surface the payment correlator
// depends on.  Confirm reports whether a new payment row was created
// so the service can notify exactly once per booking.
type PaymentStore interface {
    Confirm(ctx context.Context, orderRef, gatewayTxnID string) (*model.Payment, bool, error)
    Cancel(ctx context.Context, orderRef string, cartTTL time.Duration) error
    StatusByOrderRef(ctx context.Context, orderRef string) (*repository.PaymentStatus, error)
}

// PaymentService matches gateway confirmations and cancellations to
// bookings.  Both paths are safe to execute more than once: at most
// one payment row is ever created per booking and repeated
// cancellations are no-ops.
type PaymentService struct {
    store    PaymentStore
    notifier Notifier
    cartTTL  time.Duration
}

// NewPaymentService builds a PaymentService.  notifier may be nil.
func NewPaymentService(store PaymentStore, notifier Notifier, cartTTL time.Duration) *PaymentService {
    return &PaymentService{store: store, notifier: notifier, cartTTL: cartTTL}
}

// Confirm records a successful gateway payment for the booking behind
// orderRef.  Re-invocation with the same orderRef returns the existing
// payment without side effects; the confirmation notification is only
// emitted when a payment row was actually created.
func (s *PaymentService) Confirm(ctx context.Context, orderRef, gatewayTxnID string) (*model.Payment, error) {
    orderRef = strings.TrimSpace(orderRef)
    if orderRef == "" {
        return nil, ErrInvalidInput
    }
    p, created, err := s.store.Confirm(ctx, orderRef, strings.TrimSpace(gatewayTxnID))
    if err != nil {
        return nil, err
    }
    if created && s.notifier != nil {
        ev := queue.PaymentConfirmedEvent{
            BookingID:    p.BookingID,
            OrderRef:     orderRef,
            AmountCents:  p.AmountCents,
            GatewayTxnID: p.GatewayTxnID,
            ConfirmedAt:  time.Now().UTC().Format(time.RFC3339),
        }
        if err := s.notifier.PaymentConfirmed(ctx, ev); err != nil {
            log.Printf("payment: confirmation notification failed: %v", err)
        }
    }
    return p, nil
}

// Cancel rolls back the booking behind orderRef after a failed or
// aborted payment.  The reason is recorded in the server log; the
// reversal itself is idempotent.
func (s *PaymentService) Cancel(ctx context.Context, orderRef, reason string) error {
    orderRef = strings.TrimSpace(orderRef)
    if orderRef == "" {
        return ErrInvalidInput
    }
    if reason != "" {
        log.Printf("payment: cancelling order_ref=%s reason=%q", orderRef, reason)
    }
    return s.store.Cancel(ctx, orderRef, s.cartTTL)
}

// HandleWebhook demultiplexes an inbound gateway status code into the
// confirm or cancel path.  Gateways redeliver, so both paths tolerate
// repetition.  Unrecognized status codes are acknowledged and ignored
// so the gateway stops retrying them.
func (s *PaymentService) HandleWebhook(ctx context.Context, orderRef, gatewayTxnID, status string) error {
    switch strings.ToUpper(strings.TrimSpace(status)) {
    case "PAID", "SUCCESS", "SUCCESSFUL", "COMPLETED":
        _, err := s.Confirm(ctx, orderRef, gatewayTxnID)
        return err
    case "FAILED", "EXPIRED", "CANCELLED", "USER_CANCELED":
        return s.Cancel(ctx, orderRef, "gateway status "+status)
    default:
        return nil
    }
}

// Status returns the booking and payment state for an order ref.
func (s *PaymentService) Status(ctx context.Context, orderRef string) (*repository.PaymentStatus, error) {
    orderRef = strings.TrimSpace(orderRef)
    if orderRef == "" {
        return nil, ErrInvalidInput
    }
    return s.store.StatusByOrderRef(ctx, orderRef)
}
