package stock

import "testing"

func TestAvailable(t *testing.T) {
    cases := []struct {
        name   string
        total  int64
        held   int64
        booked int64
        want   int64
    }{
        {"nothing reserved", 10, 0, 0, 10},
        {"holds only", 10, 3, 0, 7},
        {"bookings only", 10, 0, 4, 6},
        {"holds and bookings", 10, 3, 4, 3},
        {"fully reserved", 5, 2, 3, 0},
        {"over-reserved floors at zero", 5, 4, 4, 0},
        {"zero stock", 0, 0, 0, 0},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := Available(tc.total, tc.held, tc.booked); got != tc.want {
                t.Errorf("Available(%d, %d, %d) = %d, want %d", tc.total, tc.held, tc.booked, got, tc.want)
            }
        })
    }
}
