package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/gearup/rental/internal/model"
)

// BookingRepo converts carts into permanent bookings and drives the
// booking state machine.  Creation is all-or-nothing: the booking row,
// its items, its reservations and the cart's flip to BOOKED commit
// together or not at all.  Cancellation is the deliberate two-way
// undo: reservations go to CANCELLED, the cart's items are cleared and
// the cart returns to ACTIVE so the customer can retry.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingDetail is the read shape returned to customers and renters: a
// booking plus its line items.
type BookingDetail struct {
    ID                 uint64        `json:"id"`
    OrderRef           string        `json:"order_ref"`
    CustomerID         uint64        `json:"customer_id"`
    RenterID           uint64        `json:"renter_id"`
    StartDate          string        `json:"start_date"`
    EndDate            string        `json:"end_date"`
    TotalAmountCents   uint32        `json:"total_amount_cents"`
    AdvanceAmountCents uint32        `json:"advance_amount_cents"`
    Status             string        `json:"status"`
    Items              []BookingLine `json:"items"`
}

// BookingLine is one equipment position inside a BookingDetail.
type BookingLine struct {
    EquipmentID    uint64 `json:"equipment_id"`
    EquipmentName  string `json:"equipment_name"`
    Quantity       uint32 `json:"quantity"`
    UnitPriceCents uint32 `json:"unit_price_cents"`
}

// FinalizeCart converts the given ACTIVE cart into a booking inside a
// single transaction: (a) the cart row is locked and re-validated, (b)
// a CONFIRMED booking is inserted, (c) one booking item and one BOOKED
// equipment reservation per cart item, (d) the cart flips to BOOKED.
// Amounts are computed by the service layer and passed in.  Any error
// rolls back everything; no partial booking can persist.
func (r *BookingRepo) FinalizeCart(ctx context.Context, cartID, customerID uint64, totalCents, advanceCents uint32) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if _, err := sweepExpiredTx(ctx, tx); err != nil {
        return nil, err
    }
    const cartQ = `SELECT customer_id, renter_id, start_date, end_date, status, expires_at
                   FROM carts WHERE id = ? FOR UPDATE`
    var owner, renterID uint64
    var startDate, endDate, expiresAt time.Time
    var status string
    err = tx.QueryRowContext(ctx, cartQ, cartID).Scan(&owner, &renterID, &startDate, &endDate, &status, &expiresAt)
    if err == sql.ErrNoRows {
        return nil, ErrCartNotFound
    }
    if err != nil {
        return nil, err
    }
    if owner != customerID {
        return nil, ErrForbidden
    }
    if status != "ACTIVE" || !expiresAt.After(time.Now().UTC()) {
        return nil, ErrCartExpired
    }
    rows, err := tx.QueryContext(ctx,
        `SELECT equipment_id, quantity, unit_price_cents FROM cart_items WHERE cart_id = ?`, cartID)
    if err != nil {
        return nil, err
    }
    type line struct {
        equipmentID uint64
        quantity    uint32
        priceCents  uint32
    }
    var lines []line
    for rows.Next() {
        var l line
        if scanErr := rows.Scan(&l.equipmentID, &l.quantity, &l.priceCents); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        lines = append(lines, l)
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    if len(lines) == 0 {
        return nil, ErrCartNotFound
    }
    res, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (cart_id, customer_id, renter_id, start_date, end_date, total_amount_cents, advance_amount_cents, status, modified_by)
         VALUES (?, ?, ?, ?, ?, ?, ?, 'CONFIRMED', 'CUSTOMER')`,
        cartID, customerID, renterID,
        startDate.Format("2006-01-02"), endDate.Format("2006-01-02"),
        totalCents, advanceCents)
    if err != nil {
        return nil, err
    }
    bookingID, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    itemQ := `INSERT INTO booking_items (booking_id, equipment_id, quantity, unit_price_cents) VALUES `
    itemArgs := make([]interface{}, 0, len(lines)*4)
    resvQ := `INSERT INTO equipment_reservations (equipment_id, booking_id, customer_id, quantity, status) VALUES `
    resvArgs := make([]interface{}, 0, len(lines)*5)
    for i, l := range lines {
        if i > 0 {
            itemQ += ","
            resvQ += ","
        }
        itemQ += "(?, ?, ?, ?)"
        itemArgs = append(itemArgs, bookingID, l.equipmentID, l.quantity, l.priceCents)
        resvQ += "(?, ?, ?, ?, 'BOOKED')"
        resvArgs = append(resvArgs, l.equipmentID, bookingID, customerID, l.quantity)
    }
    if _, err := tx.ExecContext(ctx, itemQ, itemArgs...); err != nil {
        return nil, err
    }
    if _, err := tx.ExecContext(ctx, resvQ, resvArgs...); err != nil {
        return nil, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE carts SET status = 'BOOKED' WHERE id = ?`, cartID); err != nil {
        return nil, err
    }
    booking := &model.Booking{}
    const sel = `SELECT id, cart_id, customer_id, renter_id, start_date, end_date,
                        total_amount_cents, advance_amount_cents, status, modified_by, created_at, updated_at
                 FROM bookings WHERE id = ?`
    err = tx.QueryRowContext(ctx, sel, bookingID).Scan(
        &booking.ID, &booking.CartID, &booking.CustomerID, &booking.RenterID,
        &booking.StartDate, &booking.EndDate,
        &booking.TotalAmountCents, &booking.AdvanceAmountCents,
        &booking.Status, &booking.ModifiedBy, &booking.CreatedAt, &booking.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return booking, nil
}

// Complete marks a CONFIRMED booking as finished by its renter.  The
// reservations stay BOOKED for history, but the availability sum only
// counts reservations on CONFIRMED bookings, so completing implicitly
// returns the stock to the listing.
func (r *BookingRepo) Complete(ctx context.Context, bookingID, renterID uint64) error {
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
    var owner uint64
    var status string
    err = tx.QueryRowContext(ctx,
        `SELECT renter_id, status FROM bookings WHERE id = ? FOR UPDATE`, bookingID,
    ).Scan(&owner, &status)
    if err == sql.ErrNoRows {
        return ErrBookingNotFound
    }
    if err != nil {
        return err
    }
    if owner != renterID {
        return ErrForbidden
    }
    if status != "CONFIRMED" {
        return ErrConflict
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = 'COMPLETED', modified_by = 'RENTER' WHERE id = ?`,
        bookingID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Cancel cancels a CONFIRMED booking on behalf of its customer or its
// renter.  The full reversal (reservations, cart items, cart status)
// runs in one transaction.  Cancelling an already cancelled booking is
// a no-op; a completed booking cannot be cancelled.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, actorID uint64, modifiedBy string, cartTTL time.Duration) error {
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
    var customerID, renterID uint64
    var status string
    err = tx.QueryRowContext(ctx,
        `SELECT customer_id, renter_id, status FROM bookings WHERE id = ? FOR UPDATE`, bookingID,
    ).Scan(&customerID, &renterID, &status)
    if err == sql.ErrNoRows {
        return ErrBookingNotFound
    }
    if err != nil {
        return err
    }
    if actorID != customerID && actorID != renterID {
        return ErrForbidden
    }
    if status == "CANCELLED" {
        if err := tx.Commit(); err != nil {
            return err
        }
        committed = true
        return nil
    }
    if status != "CONFIRMED" {
        return ErrConflict
    }
    if err := cancelBookingTx(ctx, tx, bookingID, modifiedBy, cartTTL); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// cancelBookingTx performs the cancellation side effects inside an
// existing transaction with the booking row already locked: booking →
// CANCELLED, its reservations → CANCELLED, the originating cart's
// items deleted and the cart reset to ACTIVE with a fresh expiry so
// the customer can start over.  Shared by explicit cancellation and
// the payment-failure path.
func cancelBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64, modifiedBy string, cartTTL time.Duration) error {
    if _, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = 'CANCELLED', modified_by = ? WHERE id = ?`,
        modifiedBy, bookingID); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE equipment_reservations SET status = 'CANCELLED' WHERE booking_id = ?`,
        bookingID); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        `DELETE ci FROM cart_items ci
         JOIN bookings b ON b.cart_id = ci.cart_id
         WHERE b.id = ?`, bookingID); err != nil {
        return err
    }
    expiresAt := time.Now().UTC().Add(cartTTL)
    _, err := tx.ExecContext(ctx,
        `UPDATE carts c
         JOIN bookings b ON b.cart_id = c.id
         SET c.status = 'ACTIVE', c.expires_at = ?
         WHERE b.id = ?`,
        expiresAt.Format("2006-01-02 15:04:05"), bookingID)
    return err
}

// GetByIDForCustomer returns one booking with its items, enforcing
// ownership.  ErrBookingNotFound is returned both when the booking is
// missing and when it belongs to another customer.
func (r *BookingRepo) GetByIDForCustomer(ctx context.Context, bookingID, customerID uint64) (*BookingDetail, error) {
    const q = `SELECT b.id, c.order_ref, b.customer_id, b.renter_id, b.start_date, b.end_date,
                      b.total_amount_cents, b.advance_amount_cents, b.status
               FROM bookings b
               JOIN carts c ON c.id = b.cart_id
               WHERE b.id = ? AND b.customer_id = ?`
    return r.scanDetail(ctx, q, bookingID, customerID)
}

// ListByCustomer returns the customer's bookings, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]BookingDetail, error) {
    const q = `SELECT b.id, c.order_ref, b.customer_id, b.renter_id, b.start_date, b.end_date,
                      b.total_amount_cents, b.advance_amount_cents, b.status
               FROM bookings b
               JOIN carts c ON c.id = b.cart_id
               WHERE b.customer_id = ?
               ORDER BY b.created_at DESC`
    return r.listDetails(ctx, q, customerID)
}

// ListByRenter returns all bookings placed against a renter's
// listings, newest first.
func (r *BookingRepo) ListByRenter(ctx context.Context, renterID uint64) ([]BookingDetail, error) {
    const q = `SELECT b.id, c.order_ref, b.customer_id, b.renter_id, b.start_date, b.end_date,
                      b.total_amount_cents, b.advance_amount_cents, b.status
               FROM bookings b
               JOIN carts c ON c.id = b.cart_id
               WHERE b.renter_id = ?
               ORDER BY b.created_at DESC`
    return r.listDetails(ctx, q, renterID)
}

func (r *BookingRepo) scanDetail(ctx context.Context, q string, args ...interface{}) (*BookingDetail, error) {
    var d BookingDetail
    var start, end time.Time
    err := r.db.QueryRowContext(ctx, q, args...).Scan(
        &d.ID, &d.OrderRef, &d.CustomerID, &d.RenterID, &start, &end,
        &d.TotalAmountCents, &d.AdvanceAmountCents, &d.Status,
    )
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    d.StartDate = start.Format("2006-01-02")
    d.EndDate = end.Format("2006-01-02")
    items, err := r.itemsByBookings(ctx, []uint64{d.ID})
    if err != nil {
        return nil, err
    }
    d.Items = items[d.ID]
    if d.Items == nil {
        d.Items = []BookingLine{}
    }
    return &d, nil
}

func (r *BookingRepo) listDetails(ctx context.Context, q string, args ...interface{}) ([]BookingDetail, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]BookingDetail, 0)
    ids := make([]uint64, 0)
    for rows.Next() {
        var d BookingDetail
        var start, end time.Time
        if err := rows.Scan(
            &d.ID, &d.OrderRef, &d.CustomerID, &d.RenterID, &start, &end,
            &d.TotalAmountCents, &d.AdvanceAmountCents, &d.Status,
        ); err != nil {
            return nil, err
        }
        d.StartDate = start.Format("2006-01-02")
        d.EndDate = end.Format("2006-01-02")
        d.Items = []BookingLine{}
        details = append(details, d)
        ids = append(ids, d.ID)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    itemsByID, err := r.itemsByBookings(ctx, ids)
    if err != nil {
        return nil, err
    }
    for i := range details {
        if items, ok := itemsByID[details[i].ID]; ok {
            details[i].Items = items
        }
    }
    return details, nil
}

// itemsByBookings loads line items for a set of bookings in one query.
func (r *BookingRepo) itemsByBookings(ctx context.Context, bookingIDs []uint64) (map[uint64][]BookingLine, error) {
    if len(bookingIDs) == 0 {
        return map[uint64][]BookingLine{}, nil
    }
    q := `SELECT bi.booking_id, bi.equipment_id, el.name, bi.quantity, bi.unit_price_cents
          FROM booking_items bi
          JOIN equipment_listings el ON el.id = bi.equipment_id
          WHERE bi.booking_id IN (`
    args := make([]interface{}, 0, len(bookingIDs))
    for i, id := range bookingIDs {
        if i > 0 {
            q += ","
        }
        q += "?"
        args = append(args, id)
    }
    q += `) ORDER BY bi.booking_id, bi.id`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64][]BookingLine)
    for rows.Next() {
        var bid uint64
        var line BookingLine
        if err := rows.Scan(&bid, &line.EquipmentID, &line.EquipmentName, &line.Quantity, &line.UnitPriceCents); err != nil {
            return nil, err
        }
        out[bid] = append(out[bid], line)
    }
    return out, rows.Err()
}
