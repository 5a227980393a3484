package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/repository"
)

// mockCartStore implements CartStore with swappable function fields so
// each test wires only what it needs.
type mockCartStore struct {
    sweepFn  func(ctx context.Context) (int64, error)
    activeFn func(ctx context.Context, customerID uint64) (*model.Cart, []model.CartItem, error)
    createFn func(ctx context.Context, customerID, renterID uint64, orderRef string, startDate, endDate time.Time, items []repository.NewCartItem, ttl time.Duration) (*model.Cart, []model.CartItem, error)
    updateFn func(ctx context.Context, customerID, itemID uint64, quantity uint32) error
    removeFn func(ctx context.Context, customerID, itemID uint64) error
}

func (m *mockCartStore) SweepExpired(ctx context.Context) (int64, error) {
    if m.sweepFn != nil {
        return m.sweepFn(ctx)
    }
    return 0, nil
}

func (m *mockCartStore) ActiveCart(ctx context.Context, customerID uint64) (*model.Cart, []model.CartItem, error) {
    return m.activeFn(ctx, customerID)
}

func (m *mockCartStore) CreateCart(ctx context.Context, customerID, renterID uint64, orderRef string, startDate, endDate time.Time, items []repository.NewCartItem, ttl time.Duration) (*model.Cart, []model.CartItem, error) {
    return m.createFn(ctx, customerID, renterID, orderRef, startDate, endDate, items, ttl)
}

func (m *mockCartStore) UpdateItemQuantity(ctx context.Context, customerID, itemID uint64, quantity uint32) error {
    return m.updateFn(ctx, customerID, itemID, quantity)
}

func (m *mockCartStore) RemoveItem(ctx context.Context, customerID, itemID uint64) error {
    return m.removeFn(ctx, customerID, itemID)
}

func validCartInput() CreateCartInput {
    return CreateCartInput{
        RenterID:  2,
        StartDate: "2026-09-01",
        EndDate:   "2026-09-03",
        Items:     []CartItemInput{{EquipmentID: 7, Quantity: 2}},
    }
}

func TestCreateCart_GeneratesFreshOrderRef(t *testing.T) {
    refs := make(map[string]bool)
    store := &mockCartStore{
        createFn: func(_ context.Context, _, _ uint64, orderRef string, _, _ time.Time, _ []repository.NewCartItem, _ time.Duration) (*model.Cart, []model.CartItem, error) {
            if orderRef == "" {
                t.Fatal("expected a generated order ref, got empty string")
            }
            if refs[orderRef] {
                t.Fatalf("order ref %q reused across carts", orderRef)
            }
            refs[orderRef] = true
            return &model.Cart{ID: 1, OrderRef: orderRef}, nil, nil
        },
    }
    svc := NewCartService(store, 30*time.Minute)

    for i := 0; i < 3; i++ {
        if _, _, err := svc.CreateCart(context.Background(), 1, validCartInput()); err != nil {
            t.Fatalf("CreateCart: %v", err)
        }
    }
    if len(refs) != 3 {
        t.Errorf("expected 3 distinct order refs, got %d", len(refs))
    }
}

func TestCreateCart_PassesConfiguredTTL(t *testing.T) {
    const want = 45 * time.Minute
    var got time.Duration
    store := &mockCartStore{
        createFn: func(_ context.Context, _, _ uint64, _ string, _, _ time.Time, _ []repository.NewCartItem, ttl time.Duration) (*model.Cart, []model.CartItem, error) {
            got = ttl
            return &model.Cart{ID: 1}, nil, nil
        },
    }
    svc := NewCartService(store, want)
    if _, _, err := svc.CreateCart(context.Background(), 1, validCartInput()); err != nil {
        t.Fatalf("CreateCart: %v", err)
    }
    if got != want {
        t.Errorf("ttl = %s, want %s", got, want)
    }
}

func TestCreateCart_Validation(t *testing.T) {
    cases := []struct {
        name   string
        mutate func(*CreateCartInput)
    }{
        {"missing renter", func(in *CreateCartInput) { in.RenterID = 0 }},
        {"self rental", func(in *CreateCartInput) { in.RenterID = 1 }},
        {"bad start date", func(in *CreateCartInput) { in.StartDate = "01/09/2026" }},
        {"bad end date", func(in *CreateCartInput) { in.EndDate = "soon" }},
        {"end before start", func(in *CreateCartInput) { in.EndDate = "2026-08-30" }},
        {"no items", func(in *CreateCartInput) { in.Items = nil }},
        {"zero quantity", func(in *CreateCartInput) { in.Items[0].Quantity = 0 }},
        {"zero equipment id", func(in *CreateCartInput) { in.Items[0].EquipmentID = 0 }},
    }
    store := &mockCartStore{
        createFn: func(_ context.Context, _, _ uint64, _ string, _, _ time.Time, _ []repository.NewCartItem, _ time.Duration) (*model.Cart, []model.CartItem, error) {
            t.Fatal("store must not be reached on invalid input")
            return nil, nil, nil
        },
    }
    svc := NewCartService(store, 30*time.Minute)

    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            in := validCartInput()
            tc.mutate(&in)
            if _, _, err := svc.CreateCart(context.Background(), 1, in); !errors.Is(err, ErrInvalidInput) {
                t.Errorf("err = %v, want ErrInvalidInput", err)
            }
        })
    }
}

func TestCreateCart_MergesDuplicateListings(t *testing.T) {
    var got []repository.NewCartItem
    store := &mockCartStore{
        createFn: func(_ context.Context, _, _ uint64, _ string, _, _ time.Time, items []repository.NewCartItem, _ time.Duration) (*model.Cart, []model.CartItem, error) {
            got = items
            return &model.Cart{ID: 1}, nil, nil
        },
    }
    svc := NewCartService(store, 30*time.Minute)

    in := validCartInput()
    in.Items = []CartItemInput{
        {EquipmentID: 7, Quantity: 2},
        {EquipmentID: 9, Quantity: 1},
        {EquipmentID: 7, Quantity: 3},
    }
    if _, _, err := svc.CreateCart(context.Background(), 1, in); err != nil {
        t.Fatalf("CreateCart: %v", err)
    }
    if len(got) != 2 {
        t.Fatalf("expected 2 merged lines, got %d", len(got))
    }
    if got[0].EquipmentID != 7 || got[0].Quantity != 5 {
        t.Errorf("line 0 = %+v, want equipment 7 quantity 5", got[0])
    }
    if got[1].EquipmentID != 9 || got[1].Quantity != 1 {
        t.Errorf("line 1 = %+v, want equipment 9 quantity 1", got[1])
    }
}

func TestCreateCart_OrdersLinesByListing(t *testing.T) {
    var got []repository.NewCartItem
    store := &mockCartStore{
        createFn: func(_ context.Context, _, _ uint64, _ string, _, _ time.Time, items []repository.NewCartItem, _ time.Duration) (*model.Cart, []model.CartItem, error) {
            got = items
            return &model.Cart{ID: 1}, nil, nil
        },
    }
    svc := NewCartService(store, 30*time.Minute)

    // Two requests naming the same listings in opposite order must
    // reach the store in one canonical order, so the per-line row
    // locks can never form a cycle.
    in := validCartInput()
    in.Items = []CartItemInput{
        {EquipmentID: 9, Quantity: 1},
        {EquipmentID: 3, Quantity: 2},
        {EquipmentID: 7, Quantity: 4},
    }
    if _, _, err := svc.CreateCart(context.Background(), 1, in); err != nil {
        t.Fatalf("CreateCart: %v", err)
    }
    want := []uint64{3, 7, 9}
    if len(got) != len(want) {
        t.Fatalf("expected %d lines, got %d", len(want), len(got))
    }
    for i, id := range want {
        if got[i].EquipmentID != id {
            t.Errorf("line %d equipment = %d, want %d", i, got[i].EquipmentID, id)
        }
    }
}

func TestCreateCart_InsufficientStockPassesThrough(t *testing.T) {
    store := &mockCartStore{
        createFn: func(_ context.Context, _, _ uint64, _ string, _, _ time.Time, _ []repository.NewCartItem, _ time.Duration) (*model.Cart, []model.CartItem, error) {
            return nil, nil, repository.ErrInsufficientStock
        },
    }
    svc := NewCartService(store, 30*time.Minute)
    if _, _, err := svc.CreateCart(context.Background(), 1, validCartInput()); !errors.Is(err, repository.ErrInsufficientStock) {
        t.Errorf("err = %v, want ErrInsufficientStock", err)
    }
}

func TestActiveCart_SweepsBeforeReading(t *testing.T) {
    var order []string
    store := &mockCartStore{
        sweepFn: func(context.Context) (int64, error) {
            order = append(order, "sweep")
            return 1, nil
        },
        activeFn: func(_ context.Context, customerID uint64) (*model.Cart, []model.CartItem, error) {
            order = append(order, "read")
            return &model.Cart{ID: 4, CustomerID: customerID}, nil, nil
        },
    }
    svc := NewCartService(store, 30*time.Minute)

    cart, _, err := svc.ActiveCart(context.Background(), 1)
    if err != nil {
        t.Fatalf("ActiveCart: %v", err)
    }
    if cart.ID != 4 {
        t.Errorf("cart.ID = %d, want 4", cart.ID)
    }
    if len(order) != 2 || order[0] != "sweep" || order[1] != "read" {
        t.Errorf("call order = %v, want [sweep read]", order)
    }
}

func TestUpdateItemQuantity_Validation(t *testing.T) {
    svc := NewCartService(&mockCartStore{}, 30*time.Minute)
    if err := svc.UpdateItemQuantity(context.Background(), 1, 0, 2); !errors.Is(err, ErrInvalidInput) {
        t.Errorf("zero item id: err = %v, want ErrInvalidInput", err)
    }
    if err := svc.UpdateItemQuantity(context.Background(), 1, 5, 0); !errors.Is(err, ErrInvalidInput) {
        t.Errorf("zero quantity: err = %v, want ErrInvalidInput", err)
    }
}

func TestRemoveItem_PassesThrough(t *testing.T) {
    called := false
    store := &mockCartStore{
        removeFn: func(_ context.Context, customerID, itemID uint64) error {
            called = true
            if customerID != 1 || itemID != 9 {
                t.Errorf("RemoveItem(%d, %d), want (1, 9)", customerID, itemID)
            }
            return nil
        },
    }
    svc := NewCartService(store, 30*time.Minute)
    if err := svc.RemoveItem(context.Background(), 1, 9); err != nil {
        t.Fatalf("RemoveItem: %v", err)
    }
    if !called {
        t.Error("store.RemoveItem was not called")
    }
}
