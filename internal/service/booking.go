package service

import (
    "context"
    "log"
    "math"
    "time"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/queue"
    "github.com/gearup/rental/internal/repository"
)

// advancePercent is the share of the total collected up front through
// the payment gateway when a booking is finalized.
const advancePercent = 20

// BookingStore is the persistence surface the booking service depends
// on.  FinalizeCart is the all-or-nothing conversion; Cancel performs
// the full two-way undo.
type BookingStore interface {
    FinalizeCart(ctx context.Context, cartID, customerID uint64, totalCents, advanceCents uint32) (*model.Booking, error)
    Complete(ctx context.Context, bookingID, renterID uint64) error
    Cancel(ctx context.Context, bookingID, actorID uint64, modifiedBy string, cartTTL time.Duration) error
    GetByIDForCustomer(ctx context.Context, bookingID, customerID uint64) (*repository.BookingDetail, error)
    ListByCustomer(ctx context.Context, customerID uint64) ([]repository.BookingDetail, error)
    ListByRenter(ctx context.Context, renterID uint64) ([]repository.BookingDetail, error)
}

// Notifier is the fire-and-forget notification collaborator.  Failures
// are logged by the service and never surface to the caller.
type Notifier interface {
    PaymentConfirmed(ctx context.Context, ev queue.PaymentConfirmedEvent) error
    BookingCompleted(ctx context.Context, ev queue.BookingCompletedEvent) error
}

// BookingService finalizes carts into bookings and drives the booking
// state machine.
type BookingService struct {
    carts    CartStore
    store    BookingStore
    notifier Notifier
    cartTTL  time.Duration
}

// NewBookingService builds a BookingService.  notifier may be nil when
// no broker is configured.
func NewBookingService(carts CartStore, store BookingStore, notifier Notifier, cartTTL time.Duration) *BookingService {
    return &BookingService{carts: carts, store: store, notifier: notifier, cartTTL: cartTTL}
}

// Finalize converts the customer's active cart into a CONFIRMED
// booking.  The total is the sum over items of quantity x unit price x
// rental days (inclusive); the advance is the gateway share of it.
// The store re-validates the cart inside the finalization transaction,
// so a cart that expired between the read and the write still fails
// cleanly with ErrCartExpired.
func (s *BookingService) Finalize(ctx context.Context, customerID uint64) (*model.Booking, error) {
    cart, items, err := s.carts.ActiveCart(ctx, customerID)
    if err != nil {
        return nil, err
    }
    if len(items) == 0 {
        return nil, repository.ErrCartNotFound
    }
    days := rentalDays(cart.StartDate, cart.EndDate)
    var total uint64
    for _, it := range items {
        total += uint64(it.Quantity) * uint64(it.UnitPriceCents) * uint64(days)
    }
    // Amounts are stored as 32-bit cents; a window long or priced
    // enough to overflow is rejected instead of silently truncated.
    if total > math.MaxUint32 {
        return nil, ErrInvalidInput
    }
    advance := total * advancePercent / 100
    return s.store.FinalizeCart(ctx, cart.ID, customerID, uint32(total), uint32(advance))
}

// Complete marks a booking finished on behalf of its renter and emits
// a completion notification.  A broker failure is logged only; the
// state change has already committed.
func (s *BookingService) Complete(ctx context.Context, bookingID, renterID uint64) error {
    if err := s.store.Complete(ctx, bookingID, renterID); err != nil {
        return err
    }
    if s.notifier != nil {
        ev := queue.BookingCompletedEvent{
            BookingID:   bookingID,
            RenterID:    renterID,
            CompletedAt: time.Now().UTC().Format(time.RFC3339),
        }
        if err := s.notifier.BookingCompleted(ctx, ev); err != nil {
            log.Printf("booking: completion notification failed: %v", err)
        }
    }
    return nil
}

// Cancel cancels a CONFIRMED booking for the given actor.  modifiedBy
// tags who drove the change (CUSTOMER or RENTER); the cart behind the
// booking is cleared and reopened with a fresh hold window.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uint64, modifiedBy string) error {
    return s.store.Cancel(ctx, bookingID, actorID, modifiedBy, s.cartTTL)
}

// GetForCustomer returns one booking with items, enforcing ownership.
func (s *BookingService) GetForCustomer(ctx context.Context, bookingID, customerID uint64) (*repository.BookingDetail, error) {
    return s.store.GetByIDForCustomer(ctx, bookingID, customerID)
}

// ListForCustomer returns the customer's booking history.
func (s *BookingService) ListForCustomer(ctx context.Context, customerID uint64) ([]repository.BookingDetail, error) {
    return s.store.ListByCustomer(ctx, customerID)
}

// ListForRenter returns bookings placed against the renter's listings.
func (s *BookingService) ListForRenter(ctx context.Context, renterID uint64) ([]repository.BookingDetail, error) {
    return s.store.ListByRenter(ctx, renterID)
}

// rentalDays counts the rental window in days, both endpoints
// inclusive; a same-day rental is one day.
func rentalDays(start, end time.Time) int {
    d := int(end.Sub(start).Hours()/24) + 1
    if d < 1 {
        return 1
    }
    return d
}
