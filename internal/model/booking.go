package model

import "time"

// Booking statuses.  Cancelled and completed bookings no longer hold room
// capacity.
const (
    BookingPending   = "قيد الانتظار"
    BookingConfirmed = "مؤكد"
    BookingCancelled = "ملغى"
    BookingCompleted = "منتهي"
)

// BookingStatuses lists every accepted booking status.
var BookingStatuses = []string{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted}

// InactiveBookingStatuses are excluded from the remaining-capacity sum.
var InactiveBookingStatuses = []string{BookingCancelled, BookingCompleted}

// Booking reserves guests in a room.
type Booking struct {
    ID           uint64     `json:"id"`
    RoomID       uint64     `json:"room_id"`
    CustomerName string     `json:"customer_name"`
    Phone        *string    `json:"phone"`
    Guests       uint32     `json:"guests"`
    Status       string     `json:"status"`
    StartsAt     *time.Time `json:"starts_at"`
    CreatedAt    time.Time  `json:"created_at"`
    UpdatedAt    time.Time  `json:"updated_at"`
}

// Active reports whether the booking still counts against room capacity.
func (b Booking) Active() bool {
    for _, s := range InactiveBookingStatuses {
        if b.Status == s {
            return false
        }
    }
    return true
}
