package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel comparison via errors.Is
    "net/http" // net/http provides status codes
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/gearup/rental/internal/repository" // repository holds data access sentinels
    "github.com/gearup/rental/internal/service"    // service holds validation sentinels
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive uint64 path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// fail translates service and repository sentinel errors into JSON
// error responses.  Unknown errors become 500 without leaking details.
func fail(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrInvalidInput):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input"})
    case errors.Is(err, repository.ErrListingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
    case errors.Is(err, repository.ErrCartNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active cart"})
    case errors.Is(err, repository.ErrCartItemNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "cart item not found"})
    case errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, repository.ErrOrderRefNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "order ref not found"})
    case errors.Is(err, repository.ErrCartExpired):
        return c.JSON(http.StatusConflict, echo.Map{"error": "cart expired"})
    case errors.Is(err, repository.ErrInsufficientStock):
        return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
