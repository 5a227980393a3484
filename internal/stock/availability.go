// Package stock holds the pure availability arithmetic shared by the
// repository layer and the services.  Keeping it free of database
// types lets the invariant be tested in isolation.
package stock

// Available returns the number of units of a listing that remain after
// subtracting active (non-expired) cart holds and booked reservations
// on confirmed bookings.  The result is floored at zero so that an
// oversubscribed listing never reports negative availability.
func Available(totalStock, cartHeld, booked int64) int64 {
    avail := totalStock - cartHeld - booked
    if avail < 0 {
        return 0
    }
    return avail
}
