// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to act on a resource owned by someone else, while
// ErrInsufficientStock signals that a requested quantity exceeds what
// is left of a listing after active holds and booked reservations.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as cancelling a booking that has already
// been completed. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrListingNotFound is returned when an equipment listing does not
// exist or is not visible to the caller.
var ErrListingNotFound = errors.New("listing not found")

// ErrCartNotFound is returned when a customer has no active,
// unexpired cart.
var ErrCartNotFound = errors.New("cart not found")

// ErrCartItemNotFound is returned when a cart item does not exist or
// belongs to another customer's cart.
var ErrCartItemNotFound = errors.New("cart item not found")

// ErrCartExpired is returned when a cart's hold window has lapsed or
// the cart is no longer ACTIVE; no further item mutation is permitted.
var ErrCartExpired = errors.New("cart expired")

// ErrInsufficientStock is returned when a requested quantity exceeds a
// listing's availability inside the reservation transaction.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrBookingNotFound is returned when a booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrOrderRefNotFound is returned when no cart/booking pair matches a
// payment correlation id.
var ErrOrderRefNotFound = errors.New("order ref not found")
