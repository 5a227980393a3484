package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/repository"
)

type mockPaymentStore struct {
    confirmFn func(ctx context.Context, orderRef, gatewayTxnID string) (*model.Payment, bool, error)
    cancelFn  func(ctx context.Context, orderRef string, cartTTL time.Duration) error
    statusFn  func(ctx context.Context, orderRef string) (*repository.PaymentStatus, error)
}

func (m *mockPaymentStore) Confirm(ctx context.Context, orderRef, gatewayTxnID string) (*model.Payment, bool, error) {
    return m.confirmFn(ctx, orderRef, gatewayTxnID)
}

func (m *mockPaymentStore) Cancel(ctx context.Context, orderRef string, cartTTL time.Duration) error {
    return m.cancelFn(ctx, orderRef, cartTTL)
}

func (m *mockPaymentStore) StatusByOrderRef(ctx context.Context, orderRef string) (*repository.PaymentStatus, error) {
    return m.statusFn(ctx, orderRef)
}

func TestConfirmPayment_NotifiesOnlyOnCreation(t *testing.T) {
    payment := &model.Payment{ID: 1, BookingID: 42, GatewayTxnID: "txn-1", AmountCents: 6600, Status: "SUCCESSFUL"}
    created := true
    store := &mockPaymentStore{
        confirmFn: func(_ context.Context, orderRef, gatewayTxnID string) (*model.Payment, bool, error) {
            if orderRef != "ref-1" || gatewayTxnID != "txn-1" {
                t.Errorf("Confirm(%q, %q), want (ref-1, txn-1)", orderRef, gatewayTxnID)
            }
            return payment, created, nil
        },
    }
    notifier := &mockNotifier{}
    svc := NewPaymentService(store, notifier, 30*time.Minute)

    // First delivery creates the payment row and notifies.
    p, err := svc.Confirm(context.Background(), "ref-1", "txn-1")
    if err != nil {
        t.Fatalf("Confirm: %v", err)
    }
    if p.BookingID != 42 {
        t.Errorf("payment.BookingID = %d, want 42", p.BookingID)
    }
    if len(notifier.payments) != 1 {
        t.Fatalf("expected 1 payment event, got %d", len(notifier.payments))
    }
    ev := notifier.payments[0]
    if ev.BookingID != 42 || ev.OrderRef != "ref-1" || ev.AmountCents != 6600 || ev.GatewayTxnID != "txn-1" {
        t.Errorf("event = %+v", ev)
    }

    // Redelivery returns the same payment without a second event.
    created = false
    if _, err := svc.Confirm(context.Background(), "ref-1", "txn-1"); err != nil {
        t.Fatalf("Confirm (redelivery): %v", err)
    }
    if len(notifier.payments) != 1 {
        t.Errorf("redelivery must not publish again, got %d events", len(notifier.payments))
    }
}

func TestConfirmPayment_EmptyOrderRef(t *testing.T) {
    svc := NewPaymentService(&mockPaymentStore{}, nil, 30*time.Minute)
    if _, err := svc.Confirm(context.Background(), "  ", "txn"); !errors.Is(err, ErrInvalidInput) {
        t.Errorf("err = %v, want ErrInvalidInput", err)
    }
}

func TestConfirmPayment_NotifierFailureIsSwallowed(t *testing.T) {
    store := &mockPaymentStore{
        confirmFn: func(context.Context, string, string) (*model.Payment, bool, error) {
            return &model.Payment{ID: 1, BookingID: 42}, true, nil
        },
    }
    notifier := &mockNotifier{err: errors.New("broker down")}
    svc := NewPaymentService(store, notifier, 30*time.Minute)
    if _, err := svc.Confirm(context.Background(), "ref-1", "txn-1"); err != nil {
        t.Fatalf("Confirm must not propagate notifier errors, got %v", err)
    }
}

func TestCancelPayment_ForwardsTTL(t *testing.T) {
    const ttl = 15 * time.Minute
    store := &mockPaymentStore{
        cancelFn: func(_ context.Context, orderRef string, cartTTL time.Duration) error {
            if orderRef != "ref-1" {
                t.Errorf("orderRef = %q, want ref-1", orderRef)
            }
            if cartTTL != ttl {
                t.Errorf("cartTTL = %s, want %s", cartTTL, ttl)
            }
            return nil
        },
    }
    svc := NewPaymentService(store, nil, ttl)
    if err := svc.Cancel(context.Background(), "ref-1", "user aborted"); err != nil {
        t.Fatalf("Cancel: %v", err)
    }
}

// A gateway callback carrying the order ref of an already-cancelled
// cycle must not touch the reopened cart: the store reports the ref as
// unknown among live bookings and the error surfaces unchanged.
func TestCancelPayment_StaleOrderRef(t *testing.T) {
    store := &mockPaymentStore{
        cancelFn: func(context.Context, string, time.Duration) error {
            return repository.ErrOrderRefNotFound
        },
    }
    svc := NewPaymentService(store, nil, 30*time.Minute)
    if err := svc.Cancel(context.Background(), "stale-ref", ""); !errors.Is(err, repository.ErrOrderRefNotFound) {
        t.Errorf("err = %v, want ErrOrderRefNotFound", err)
    }
}

func TestHandleWebhook_Demux(t *testing.T) {
    var confirms, cancels int
    store := &mockPaymentStore{
        confirmFn: func(context.Context, string, string) (*model.Payment, bool, error) {
            confirms++
            return &model.Payment{ID: 1, BookingID: 42}, false, nil
        },
        cancelFn: func(context.Context, string, time.Duration) error {
            cancels++
            return nil
        },
    }
    svc := NewPaymentService(store, nil, 30*time.Minute)

    for _, status := range []string{"PAID", "success", "Successful", "COMPLETED"} {
        if err := svc.HandleWebhook(context.Background(), "ref-1", "txn-1", status); err != nil {
            t.Fatalf("HandleWebhook(%q): %v", status, err)
        }
    }
    if confirms != 4 {
        t.Errorf("confirms = %d, want 4", confirms)
    }

    for _, status := range []string{"FAILED", "expired", "CANCELLED", "USER_CANCELED"} {
        if err := svc.HandleWebhook(context.Background(), "ref-1", "txn-1", status); err != nil {
            t.Fatalf("HandleWebhook(%q): %v", status, err)
        }
    }
    if cancels != 4 {
        t.Errorf("cancels = %d, want 4", cancels)
    }

    // Unknown statuses are acknowledged and ignored.
    if err := svc.HandleWebhook(context.Background(), "ref-1", "txn-1", "PENDING"); err != nil {
        t.Fatalf("HandleWebhook(PENDING): %v", err)
    }
    if confirms != 4 || cancels != 4 {
        t.Errorf("unknown status must not reach the store (confirms=%d cancels=%d)", confirms, cancels)
    }
}

func TestPaymentStatus(t *testing.T) {
    store := &mockPaymentStore{
        statusFn: func(_ context.Context, orderRef string) (*repository.PaymentStatus, error) {
            return &repository.PaymentStatus{OrderRef: orderRef, BookingID: 42, BookingStatus: "CONFIRMED", PaymentStatus: "SUCCESSFUL"}, nil
        },
    }
    svc := NewPaymentService(store, nil, 30*time.Minute)

    st, err := svc.Status(context.Background(), "ref-1")
    if err != nil {
        t.Fatalf("Status: %v", err)
    }
    if st.BookingID != 42 || st.PaymentStatus != "SUCCESSFUL" {
        t.Errorf("status = %+v", st)
    }

    if _, err := svc.Status(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
        t.Errorf("empty ref: err = %v, want ErrInvalidInput", err)
    }
}
