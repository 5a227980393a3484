package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/queue"
    "github.com/gearup/rental/internal/repository"
)

type mockBookingStore struct {
    finalizeFn func(ctx context.Context, cartID, customerID uint64, totalCents, advanceCents uint32) (*model.Booking, error)
    completeFn func(ctx context.Context, bookingID, renterID uint64) error
    cancelFn   func(ctx context.Context, bookingID, actorID uint64, modifiedBy string, cartTTL time.Duration) error
    getFn      func(ctx context.Context, bookingID, customerID uint64) (*repository.BookingDetail, error)
}

func (m *mockBookingStore) FinalizeCart(ctx context.Context, cartID, customerID uint64, totalCents, advanceCents uint32) (*model.Booking, error) {
    return m.finalizeFn(ctx, cartID, customerID, totalCents, advanceCents)
}

func (m *mockBookingStore) Complete(ctx context.Context, bookingID, renterID uint64) error {
    return m.completeFn(ctx, bookingID, renterID)
}

func (m *mockBookingStore) Cancel(ctx context.Context, bookingID, actorID uint64, modifiedBy string, cartTTL time.Duration) error {
    return m.cancelFn(ctx, bookingID, actorID, modifiedBy, cartTTL)
}

func (m *mockBookingStore) GetByIDForCustomer(ctx context.Context, bookingID, customerID uint64) (*repository.BookingDetail, error) {
    return m.getFn(ctx, bookingID, customerID)
}

func (m *mockBookingStore) ListByCustomer(ctx context.Context, customerID uint64) ([]repository.BookingDetail, error) {
    return nil, nil
}

func (m *mockBookingStore) ListByRenter(ctx context.Context, renterID uint64) ([]repository.BookingDetail, error) {
    return nil, nil
}

// mockNotifier records every published event; err, when set, is
// returned from both methods.
type mockNotifier struct {
    payments    []queue.PaymentConfirmedEvent
    completions []queue.BookingCompletedEvent
    err         error
}

func (m *mockNotifier) PaymentConfirmed(_ context.Context, ev queue.PaymentConfirmedEvent) error {
    m.payments = append(m.payments, ev)
    return m.err
}

func (m *mockNotifier) BookingCompleted(_ context.Context, ev queue.BookingCompletedEvent) error {
    m.completions = append(m.completions, ev)
    return m.err
}

func date(s string) time.Time {
    t, err := time.Parse(dateLayout, s)
    if err != nil {
        panic(err)
    }
    return t
}

// cartStoreWith returns a CartStore whose active cart is fixed.
func cartStoreWith(cart *model.Cart, items []model.CartItem) *mockCartStore {
    return &mockCartStore{
        activeFn: func(context.Context, uint64) (*model.Cart, []model.CartItem, error) {
            return cart, items, nil
        },
    }
}

func TestFinalize_ComputesTotalAndAdvance(t *testing.T) {
    // Three rental days, 2 x 1500 + 1 x 8000 per day:
    // total = (2*1500 + 8000) * 3 = 33000, advance = 20% = 6600.
    cart := &model.Cart{ID: 11, CustomerID: 1, StartDate: date("2026-09-01"), EndDate: date("2026-09-03")}
    items := []model.CartItem{
        {EquipmentID: 7, Quantity: 2, UnitPriceCents: 1500},
        {EquipmentID: 9, Quantity: 1, UnitPriceCents: 8000},
    }
    var gotTotal, gotAdvance uint32
    store := &mockBookingStore{
        finalizeFn: func(_ context.Context, cartID, customerID uint64, totalCents, advanceCents uint32) (*model.Booking, error) {
            if cartID != 11 || customerID != 1 {
                t.Errorf("FinalizeCart(cart=%d, customer=%d), want (11, 1)", cartID, customerID)
            }
            gotTotal, gotAdvance = totalCents, advanceCents
            return &model.Booking{ID: 42, CartID: cartID, Status: "CONFIRMED"}, nil
        },
    }
    svc := NewBookingService(cartStoreWith(cart, items), store, nil, 30*time.Minute)

    b, err := svc.Finalize(context.Background(), 1)
    if err != nil {
        t.Fatalf("Finalize: %v", err)
    }
    if b.ID != 42 {
        t.Errorf("booking.ID = %d, want 42", b.ID)
    }
    if gotTotal != 33000 {
        t.Errorf("total = %d cents, want 33000", gotTotal)
    }
    if gotAdvance != 6600 {
        t.Errorf("advance = %d cents, want 6600", gotAdvance)
    }
}

func TestFinalize_SameDayRentalIsOneDay(t *testing.T) {
    cart := &model.Cart{ID: 3, CustomerID: 1, StartDate: date("2026-09-01"), EndDate: date("2026-09-01")}
    items := []model.CartItem{{EquipmentID: 7, Quantity: 1, UnitPriceCents: 2500}}
    store := &mockBookingStore{
        finalizeFn: func(_ context.Context, _, _ uint64, totalCents, advanceCents uint32) (*model.Booking, error) {
            if totalCents != 2500 {
                t.Errorf("total = %d cents, want 2500", totalCents)
            }
            if advanceCents != 500 {
                t.Errorf("advance = %d cents, want 500", advanceCents)
            }
            return &model.Booking{ID: 1}, nil
        },
    }
    svc := NewBookingService(cartStoreWith(cart, items), store, nil, 30*time.Minute)
    if _, err := svc.Finalize(context.Background(), 1); err != nil {
        t.Fatalf("Finalize: %v", err)
    }
}

func TestFinalize_NoActiveCart(t *testing.T) {
    carts := &mockCartStore{
        activeFn: func(context.Context, uint64) (*model.Cart, []model.CartItem, error) {
            return nil, nil, repository.ErrCartNotFound
        },
    }
    svc := NewBookingService(carts, &mockBookingStore{}, nil, 30*time.Minute)
    if _, err := svc.Finalize(context.Background(), 1); !errors.Is(err, repository.ErrCartNotFound) {
        t.Errorf("err = %v, want ErrCartNotFound", err)
    }
}

func TestFinalize_EmptyCart(t *testing.T) {
    cart := &model.Cart{ID: 5, CustomerID: 1, StartDate: date("2026-09-01"), EndDate: date("2026-09-02")}
    svc := NewBookingService(cartStoreWith(cart, nil), &mockBookingStore{}, nil, 30*time.Minute)
    if _, err := svc.Finalize(context.Background(), 1); !errors.Is(err, repository.ErrCartNotFound) {
        t.Errorf("err = %v, want ErrCartNotFound", err)
    }
}

func TestFinalize_RejectsAmountOverflow(t *testing.T) {
    // Amounts travel as 32-bit cents; a cart whose total exceeds that
    // range must fail outright rather than book a truncated amount.
    cart := &model.Cart{ID: 3, StartDate: date("2026-09-01"), EndDate: date("2026-09-03")}
    items := []model.CartItem{{ID: 1, Quantity: 400, UnitPriceCents: 4_000_000_000}}
    store := &mockBookingStore{
        finalizeFn: func(context.Context, uint64, uint64, uint32, uint32) (*model.Booking, error) {
            t.Fatal("store must not be reached when the total overflows")
            return nil, nil
        },
    }
    svc := NewBookingService(cartStoreWith(cart, items), store, nil, 30*time.Minute)
    if _, err := svc.Finalize(context.Background(), 1); !errors.Is(err, ErrInvalidInput) {
        t.Errorf("err = %v, want ErrInvalidInput", err)
    }
}

func TestComplete_PublishesNotification(t *testing.T) {
    store := &mockBookingStore{
        completeFn: func(_ context.Context, bookingID, renterID uint64) error {
            if bookingID != 42 || renterID != 2 {
                t.Errorf("Complete(%d, %d), want (42, 2)", bookingID, renterID)
            }
            return nil
        },
    }
    notifier := &mockNotifier{}
    svc := NewBookingService(&mockCartStore{}, store, notifier, 30*time.Minute)

    if err := svc.Complete(context.Background(), 42, 2); err != nil {
        t.Fatalf("Complete: %v", err)
    }
    if len(notifier.completions) != 1 {
        t.Fatalf("expected 1 completion event, got %d", len(notifier.completions))
    }
    ev := notifier.completions[0]
    if ev.BookingID != 42 || ev.RenterID != 2 {
        t.Errorf("event = %+v, want booking 42 renter 2", ev)
    }
}

func TestComplete_NotifierFailureIsSwallowed(t *testing.T) {
    store := &mockBookingStore{
        completeFn: func(context.Context, uint64, uint64) error { return nil },
    }
    notifier := &mockNotifier{err: errors.New("broker down")}
    svc := NewBookingService(&mockCartStore{}, store, notifier, 30*time.Minute)

    if err := svc.Complete(context.Background(), 42, 2); err != nil {
        t.Fatalf("Complete must not propagate notifier errors, got %v", err)
    }
}

func TestComplete_StoreFailureSkipsNotification(t *testing.T) {
    store := &mockBookingStore{
        completeFn: func(context.Context, uint64, uint64) error { return repository.ErrForbidden },
    }
    notifier := &mockNotifier{}
    svc := NewBookingService(&mockCartStore{}, store, notifier, 30*time.Minute)

    if err := svc.Complete(context.Background(), 42, 9); !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("err = %v, want ErrForbidden", err)
    }
    if len(notifier.completions) != 0 {
        t.Errorf("no event must be published when the state change fails")
    }
}

func TestCancel_ForwardsActorAndTTL(t *testing.T) {
    const ttl = 20 * time.Minute
    store := &mockBookingStore{
        cancelFn: func(_ context.Context, bookingID, actorID uint64, modifiedBy string, cartTTL time.Duration) error {
            if bookingID != 42 || actorID != 1 {
                t.Errorf("Cancel(%d, %d), want (42, 1)", bookingID, actorID)
            }
            if modifiedBy != "CUSTOMER" {
                t.Errorf("modifiedBy = %q, want CUSTOMER", modifiedBy)
            }
            if cartTTL != ttl {
                t.Errorf("cartTTL = %s, want %s", cartTTL, ttl)
            }
            return nil
        },
    }
    svc := NewBookingService(&mockCartStore{}, store, nil, ttl)
    if err := svc.Cancel(context.Background(), 42, 1, "CUSTOMER"); err != nil {
        t.Fatalf("Cancel: %v", err)
    }
}

func TestRentalDays(t *testing.T) {
    cases := []struct {
        start, end string
        want       int
    }{
        {"2026-09-01", "2026-09-01", 1},
        {"2026-09-01", "2026-09-02", 2},
        {"2026-09-01", "2026-09-07", 7},
        {"2026-08-30", "2026-09-02", 4},
    }
    for _, tc := range cases {
        if got := rentalDays(date(tc.start), date(tc.end)); got != tc.want {
            t.Errorf("rentalDays(%s, %s) = %d, want %d", tc.start, tc.end, got, tc.want)
        }
    }
}
