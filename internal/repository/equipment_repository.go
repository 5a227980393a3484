package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/gearup/rental/internal/model"
    "github.com/gearup/rental/internal/stock"
)

// EquipmentRepo provides CRUD operations for equipment listings and
// the in-transaction stock accounting every reservation change depends
// on.  The availability of a listing is always computed against the
// same transactional snapshot as the write that relies on it: callers
// lock the listing row first and then read the hold and reservation
// sums inside the same transaction.
type EquipmentRepo struct {
    db *sql.DB
}

// NewEquipmentRepo returns a new EquipmentRepo bound to the given database.
func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

// DB exposes the underlying handle so handlers and services can open
// transactions spanning multiple repositories.
func (r *EquipmentRepo) DB() *sql.DB { return r.db }

// Create inserts a listing and populates its generated ID and timestamps.
func (r *EquipmentRepo) Create(ctx context.Context, l *model.EquipmentListing) error {
    const q = `INSERT INTO equipment_listings (renter_id, name, description, price_per_day_cents, total_stock, status)
               VALUES (?, ?, ?, ?, ?, 'ACTIVE')`
    var desc sql.NullString
    if l.Description != nil && strings.TrimSpace(*l.Description) != "" {
        desc = sql.NullString{String: strings.TrimSpace(*l.Description), Valid: true}
    }
    res, err := r.db.ExecContext(ctx, q, l.RenterID, l.Name, desc, l.PricePerDayCents, l.TotalStock)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    l.ID = uint64(id)
    l.Status = "ACTIVE"
    return r.db.QueryRowContext(ctx,
        `SELECT created_at, updated_at FROM equipment_listings WHERE id = ?`, l.ID,
    ).Scan(&l.CreatedAt, &l.UpdatedAt)
}

// GetByID returns a listing regardless of owner.  ErrListingNotFound is
// returned when no row exists.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (*model.EquipmentListing, error) {
    const q = `SELECT id, renter_id, name, description, price_per_day_cents, total_stock, status, created_at, updated_at
               FROM equipment_listings WHERE id = ?`
    var l model.EquipmentListing
    var desc sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &l.ID, &l.RenterID, &l.Name, &desc, &l.PricePerDayCents, &l.TotalStock, &l.Status, &l.CreatedAt, &l.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrListingNotFound
    }
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        l.Description = &d
    }
    return &l, nil
}

// GetByIDAndRenter returns a listing only when it belongs to the given
// renter.  It is used by renter-facing mutation endpoints to enforce
// ownership before any change.
func (r *EquipmentRepo) GetByIDAndRenter(ctx context.Context, id, renterID uint64) (*model.EquipmentListing, error) {
    l, err := r.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if l.RenterID != renterID {
        return nil, ErrForbidden
    }
    return l, nil
}

// ListActive returns all ACTIVE listings ordered by creation time
// descending.  Availability is computed per listing outside any
// transaction; browse results are advisory and re-validated on every
// reservation attempt.
func (r *EquipmentRepo) ListActive(ctx context.Context) ([]model.EquipmentListing, error) {
    const q = `SELECT id, renter_id, name, description, price_per_day_cents, total_stock, status, created_at, updated_at
               FROM equipment_listings WHERE status = 'ACTIVE' ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.EquipmentListing, 0)
    for rows.Next() {
        var l model.EquipmentListing
        var desc sql.NullString
        if err := rows.Scan(&l.ID, &l.RenterID, &l.Name, &desc, &l.PricePerDayCents, &l.TotalStock, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
            return nil, err
        }
        if desc.Valid {
            d := desc.String
            l.Description = &d
        }
        out = append(out, l)
    }
    return out, rows.Err()
}

// ListByRenter returns all listings of one renter, archived included,
// newest first.
func (r *EquipmentRepo) ListByRenter(ctx context.Context, renterID uint64) ([]model.EquipmentListing, error) {
    const q = `SELECT id, renter_id, name, description, price_per_day_cents, total_stock, status, created_at, updated_at
               FROM equipment_listings WHERE renter_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, renterID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.EquipmentListing, 0)
    for rows.Next() {
        var l model.EquipmentListing
        var desc sql.NullString
        if err := rows.Scan(&l.ID, &l.RenterID, &l.Name, &desc, &l.PricePerDayCents, &l.TotalStock, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
            return nil, err
        }
        if desc.Valid {
            d := desc.String
            l.Description = &d
        }
        out = append(out, l)
    }
    return out, rows.Err()
}

// Update changes name, description, daily price and total stock of a
// renter's listing.  Shrinking total stock below the quantity currently
// consumed by holds and booked reservations would break the stock
// invariant, so the check and the write run in one transaction with the
// listing row locked.
func (r *EquipmentRepo) Update(ctx context.Context, l *model.EquipmentListing) error {
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
    var renterID uint64
    err = tx.QueryRowContext(ctx,
        `SELECT renter_id FROM equipment_listings WHERE id = ? FOR UPDATE`, l.ID,
    ).Scan(&renterID)
    if err == sql.ErrNoRows {
        return ErrListingNotFound
    }
    if err != nil {
        return err
    }
    if renterID != l.RenterID {
        return ErrForbidden
    }
    held, err := heldQuantityTx(ctx, tx, l.ID, 0)
    if err != nil {
        return err
    }
    booked, err := bookedQuantityTx(ctx, tx, l.ID)
    if err != nil {
        return err
    }
    if int64(l.TotalStock) < held+booked {
        return ErrConflict
    }
    var desc sql.NullString
    if l.Description != nil && strings.TrimSpace(*l.Description) != "" {
        desc = sql.NullString{String: strings.TrimSpace(*l.Description), Valid: true}
    }
    _, err = tx.ExecContext(ctx,
        `UPDATE equipment_listings SET name = ?, description = ?, price_per_day_cents = ?, total_stock = ? WHERE id = ?`,
        l.Name, desc, l.PricePerDayCents, l.TotalStock, l.ID)
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Archive flips a listing to ARCHIVED so it disappears from browse and
// cannot receive new holds.  Existing carts and bookings are untouched.
func (r *EquipmentRepo) Archive(ctx context.Context, id, renterID uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE equipment_listings SET status = 'ARCHIVED' WHERE id = ? AND renter_id = ?`,
        id, renterID)
    if err != nil {
        return err
    }
    aff, _ := res.RowsAffected()
    if aff == 0 {
        // Distinguish missing listing from wrong owner for the handler.
        var exists bool
        if err := r.db.QueryRowContext(ctx,
            `SELECT EXISTS(SELECT 1 FROM equipment_listings WHERE id = ?)`, id,
        ).Scan(&exists); err != nil {
            return err
        }
        if !exists {
            return ErrListingNotFound
        }
        // Row exists but renter does not own it, or it is already archived.
        var status string
        var owner uint64
        if err := r.db.QueryRowContext(ctx,
            `SELECT renter_id, status FROM equipment_listings WHERE id = ?`, id,
        ).Scan(&owner, &status); err != nil {
            return err
        }
        if owner != renterID {
            return ErrForbidden
        }
    }
    return nil
}

// lockListingTx takes a row lock on the listing and returns its owner,
// total stock, unit price and status.  Every reservation-adjusting
// operation calls this before reading the hold and reservation sums so
// that two concurrent requests serialize on the listing row instead of
// both observing the same stale availability.
func lockListingTx(ctx context.Context, tx *sql.Tx, equipmentID uint64) (renterID uint64, totalStock uint32, priceCents uint32, status string, err error) {
    const q = `SELECT renter_id, total_stock, price_per_day_cents, status FROM equipment_listings WHERE id = ? FOR UPDATE`
    err = tx.QueryRowContext(ctx, q, equipmentID).Scan(&renterID, &totalStock, &priceCents, &status)
    if err == sql.ErrNoRows {
        err = ErrListingNotFound
    }
    return
}

// heldQuantityTx sums the quantities held by items of ACTIVE,
// non-expired carts for one listing.  excludeItemID, when non-zero,
// leaves one cart item out of the sum so a quantity update does not
// count the hold it is about to replace.
func heldQuantityTx(ctx context.Context, tx *sql.Tx, equipmentID, excludeItemID uint64) (int64, error) {
    q := `SELECT COALESCE(SUM(ci.quantity), 0)
          FROM cart_items ci
          JOIN carts c ON c.id = ci.cart_id
          WHERE ci.equipment_id = ? AND c.status = 'ACTIVE' AND c.expires_at > UTC_TIMESTAMP()`
    args := []interface{}{equipmentID}
    if excludeItemID != 0 {
        q += ` AND ci.id <> ?`
        args = append(args, excludeItemID)
    }
    var held int64
    err := tx.QueryRowContext(ctx, q, args...).Scan(&held)
    return held, err
}

// bookedQuantityTx sums BOOKED reservation quantities on CONFIRMED
// bookings for one listing.  Completed and cancelled bookings do not
// consume stock.
func bookedQuantityTx(ctx context.Context, tx *sql.Tx, equipmentID uint64) (int64, error) {
    const q = `SELECT COALESCE(SUM(r.quantity), 0)
               FROM equipment_reservations r
               JOIN bookings b ON b.id = r.booking_id
               WHERE r.equipment_id = ? AND r.status = 'BOOKED' AND b.status = 'CONFIRMED'`
    var booked int64
    err := tx.QueryRowContext(ctx, q, equipmentID).Scan(&booked)
    return booked, err
}

// availableTx locks the listing row and computes its remaining
// availability inside the caller's transaction.  It returns the unit
// price and the owning renter alongside so cart creation can snapshot
// the price and verify the listing sits in the cart's renter catalog
// without a second read.  Archived listings report ErrListingNotFound
// to reservation paths.
func availableTx(ctx context.Context, tx *sql.Tx, equipmentID, excludeItemID uint64) (avail int64, priceCents uint32, renterID uint64, err error) {
    owner, total, price, status, err := lockListingTx(ctx, tx, equipmentID)
    if err != nil {
        return 0, 0, 0, err
    }
    if status != "ACTIVE" {
        return 0, 0, 0, ErrListingNotFound
    }
    held, err := heldQuantityTx(ctx, tx, equipmentID, excludeItemID)
    if err != nil {
        return 0, 0, 0, err
    }
    booked, err := bookedQuantityTx(ctx, tx, equipmentID)
    if err != nil {
        return 0, 0, 0, err
    }
    return stock.Available(int64(total), held, booked), price, owner, nil
}

// Available reports a listing's current availability for display.  It
// opens a short transaction so the three reads observe one snapshot,
// but takes no lock; reservation paths re-validate with availableTx.
func (r *EquipmentRepo) Available(ctx context.Context, equipmentID uint64) (int64, error) {
    tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
    if err != nil {
        return 0, err
    }
    defer func() { _ = tx.Rollback() }()
    const q = `SELECT total_stock, status FROM equipment_listings WHERE id = ?`
    var total uint32
    var status string
    if err := tx.QueryRowContext(ctx, q, equipmentID).Scan(&total, &status); err != nil {
        if err == sql.ErrNoRows {
            return 0, ErrListingNotFound
        }
        return 0, err
    }
    if status != "ACTIVE" {
        return 0, ErrListingNotFound
    }
    held, err := heldQuantityTx(ctx, tx, equipmentID, 0)
    if err != nil {
        return 0, err
    }
    booked, err := bookedQuantityTx(ctx, tx, equipmentID)
    if err != nil {
        return 0, err
    }
    return stock.Available(int64(total), held, booked), nil
}
