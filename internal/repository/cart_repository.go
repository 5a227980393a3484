package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/gearup/rental/internal/model"
)

// CartRepo owns the lifecycle of customer carts and their items.  A
// cart is a temporary hold: its items count against listing
// availability only while the cart is ACTIVE and unexpired.  Every
// mutating method runs inside one transaction that first sweeps
// expired carts, then locks the affected listing rows, then
// re-validates availability, so stale holds can never block another
// customer's reservation and two concurrent requests serialize on the
// listing row.  All timestamps are UTC.
type CartRepo struct {
    db *sql.DB
}

// NewCartRepo returns a new CartRepo bound to the given database.
func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// NewCartItem is the input shape for cart creation: the listing to
// hold and the requested quantity.  Unit prices are snapshotted from
// the listing inside the creation transaction.
type NewCartItem struct {
    EquipmentID uint64
    Quantity    uint32
}

// sweepExpiredTx reclaims stock from all ACTIVE carts whose hold has
// timed out: their items are deleted and the carts flipped to EXPIRED.
// It is invoked at the start of every stock-touching transaction in
// place of a background scheduler.  Returns the number of carts
// expired.
func sweepExpiredTx(ctx context.Context, tx *sql.Tx) (int64, error) {
    _, err := tx.ExecContext(ctx,
        `DELETE ci FROM cart_items ci
         JOIN carts c ON c.id = ci.cart_id
         WHERE c.status = 'ACTIVE' AND c.expires_at <= UTC_TIMESTAMP()`)
    if err != nil {
        return 0, err
    }
    res, err := tx.ExecContext(ctx,
        `UPDATE carts SET status = 'EXPIRED'
         WHERE status = 'ACTIVE' AND expires_at <= UTC_TIMESTAMP()`)
    if err != nil {
        return 0, err
    }
    n, _ := res.RowsAffected()
    return n, nil
}

// SweepExpired runs the lazy expiry sweep in its own transaction.  It
// is called by read paths (availability display, active-cart lookup)
// that do not otherwise open a write transaction.
func (r *CartRepo) SweepExpired(ctx context.Context) (int64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    n, err := sweepExpiredTx(ctx, tx)
    if err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return n, nil
}

// ActiveCart returns the customer's ACTIVE, unexpired cart along with
// its items, or ErrCartNotFound.  An expired cart is never returned
// even if the sweep has not yet flipped its status.
func (r *CartRepo) ActiveCart(ctx context.Context, customerID uint64) (*model.Cart, []model.CartItem, error) {
    const q = `SELECT id, customer_id, renter_id, order_ref, start_date, end_date, status, expires_at, created_at, updated_at
               FROM carts
               WHERE customer_id = ? AND status = 'ACTIVE' AND expires_at > UTC_TIMESTAMP()
               ORDER BY created_at DESC LIMIT 1`
    var cart model.Cart
    err := r.db.QueryRowContext(ctx, q, customerID).Scan(
        &cart.ID, &cart.CustomerID, &cart.RenterID, &cart.OrderRef,
        &cart.StartDate, &cart.EndDate, &cart.Status, &cart.ExpiresAt,
        &cart.CreatedAt, &cart.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, nil, ErrCartNotFound
    }
    if err != nil {
        return nil, nil, err
    }
    items, err := r.itemsByCart(ctx, cart.ID)
    if err != nil {
        return nil, nil, err
    }
    return &cart, items, nil
}

func (r *CartRepo) itemsByCart(ctx context.Context, cartID uint64) ([]model.CartItem, error) {
    const q = `SELECT id, cart_id, equipment_id, quantity, unit_price_cents, created_at
               FROM cart_items WHERE cart_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, cartID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    items := make([]model.CartItem, 0)
    for rows.Next() {
        var it model.CartItem
        if err := rows.Scan(&it.ID, &it.CartID, &it.EquipmentID, &it.Quantity, &it.UnitPriceCents, &it.CreatedAt); err != nil {
            return nil, err
        }
        items = append(items, it)
    }
    return items, rows.Err()
}

// CreateCart builds a new cart for the customer in one transaction:
// sweep expired carts, supersede any prior ACTIVE cart of the
// customer, validate every requested item against availability with
// the listing rows locked, then insert the cart and its items.  The
// expiry is set to now + ttl.  ErrInsufficientStock is returned as
// soon as one item's requested quantity exceeds what is left.
func (r *CartRepo) CreateCart(ctx context.Context, customerID, renterID uint64, orderRef string, startDate, endDate time.Time, items []NewCartItem, ttl time.Duration) (*model.Cart, []model.CartItem, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if _, err := sweepExpiredTx(ctx, tx); err != nil {
        return nil, nil, err
    }
    // Supersede: a customer holds at most one active cart at a time.
    // Clearing the old cart releases its holds before the new ones are
    // validated, so swapping carts never double-counts the customer's
    // own quantities.
    if _, err := tx.ExecContext(ctx,
        `DELETE ci FROM cart_items ci
         JOIN carts c ON c.id = ci.cart_id
         WHERE c.customer_id = ? AND c.status = 'ACTIVE'`, customerID); err != nil {
        return nil, nil, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE carts SET status = 'EXPIRED' WHERE customer_id = ? AND status = 'ACTIVE'`,
        customerID); err != nil {
        return nil, nil, err
    }
    // Validate each item with the listing row locked; snapshot prices.
    // A cart binds one customer to one renter, so a listing owned by
    // anyone else is not reservable through it.
    prices := make(map[uint64]uint32, len(items))
    for _, it := range items {
        avail, price, owner, err := availableTx(ctx, tx, it.EquipmentID, 0)
        if err != nil {
            return nil, nil, err
        }
        if owner != renterID {
            return nil, nil, ErrListingNotFound
        }
        if int64(it.Quantity) > avail {
            return nil, nil, ErrInsufficientStock
        }
        prices[it.EquipmentID] = price
    }
    expiresAt := time.Now().UTC().Add(ttl)
    res, err := tx.ExecContext(ctx,
        `INSERT INTO carts (customer_id, renter_id, order_ref, start_date, end_date, status, expires_at)
         VALUES (?, ?, ?, ?, ?, 'ACTIVE', ?)`,
        customerID, renterID, orderRef,
        startDate.Format("2006-01-02"), endDate.Format("2006-01-02"),
        expiresAt.Format("2006-01-02 15:04:05"))
    if err != nil {
        return nil, nil, err
    }
    cartID, err := res.LastInsertId()
    if err != nil {
        return nil, nil, err
    }
    query := `INSERT INTO cart_items (cart_id, equipment_id, quantity, unit_price_cents) VALUES `
    args := make([]interface{}, 0, len(items)*4)
    for i, it := range items {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, cartID, it.EquipmentID, it.Quantity, prices[it.EquipmentID])
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return nil, nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, nil, err
    }
    committed = true
    cart, cartItems, err := r.ActiveCart(ctx, customerID)
    if err != nil {
        return nil, nil, err
    }
    return cart, cartItems, nil
}

// UpdateItemQuantity changes the quantity of one cart item.  Ownership
// and cart liveness are re-validated inside the transaction, and the
// availability check excludes the item being updated so the customer
// can shrink or regrow their own hold freely within stock limits.
func (r *CartRepo) UpdateItemQuantity(ctx context.Context, customerID, itemID uint64, quantity uint32) error {
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
    if _, err := sweepExpiredTx(ctx, tx); err != nil {
        return err
    }
    equipmentID, _, err := lockItemTx(ctx, tx, customerID, itemID)
    if err != nil {
        return err
    }
    avail, _, _, err := availableTx(ctx, tx, equipmentID, itemID)
    if err != nil {
        return err
    }
    if int64(quantity) > avail {
        return ErrInsufficientStock
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE cart_items SET quantity = ? WHERE id = ?`, quantity, itemID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// RemoveItem deletes a cart item.  When the cart becomes empty it is
// flipped to EXPIRED immediately; an empty hold has no value and would
// only shadow the customer's next cart.
func (r *CartRepo) RemoveItem(ctx context.Context, customerID, itemID uint64) error {
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
    if _, err := sweepExpiredTx(ctx, tx); err != nil {
        return err
    }
    _, cartID, err := lockItemTx(ctx, tx, customerID, itemID)
    if err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID); err != nil {
        return err
    }
    var remaining int64
    if err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM cart_items WHERE cart_id = ?`, cartID).Scan(&remaining); err != nil {
        return err
    }
    if remaining == 0 {
        if _, err := tx.ExecContext(ctx,
            `UPDATE carts SET status = 'EXPIRED' WHERE id = ?`, cartID); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// lockItemTx loads a cart item together with its cart, locking the
// cart row, and validates that the cart belongs to the customer and is
// still ACTIVE and unexpired.  It returns the item's listing and cart
// ids.  ErrCartItemNotFound covers both a missing item and one owned
// by another customer; ErrCartExpired covers a lapsed or already
// booked cart.
func lockItemTx(ctx context.Context, tx *sql.Tx, customerID, itemID uint64) (equipmentID, cartID uint64, err error) {
    const q = `SELECT ci.equipment_id, c.id, c.customer_id, c.status, c.expires_at
               FROM cart_items ci
               JOIN carts c ON c.id = ci.cart_id
               WHERE ci.id = ?
               FOR UPDATE`
    var owner uint64
    var status string
    var expiresAt time.Time
    err = tx.QueryRowContext(ctx, q, itemID).Scan(&equipmentID, &cartID, &owner, &status, &expiresAt)
    if err == sql.ErrNoRows {
        return 0, 0, ErrCartItemNotFound
    }
    if err != nil {
        return 0, 0, err
    }
    if owner != customerID {
        return 0, 0, ErrCartItemNotFound
    }
    if status != "ACTIVE" || !expiresAt.After(time.Now().UTC()) {
        return 0, 0, ErrCartExpired
    }
    return equipmentID, cartID, nil
}
