package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Room categories and availability labels as shown in the admin panel.
const (
    RoomPrivate     = "غرف خاصة"
    RoomPublic      = "غرف عامة"
    RoomEventHall   = "صالات المناسبات"
    RoomPlayStation = "غرف البلايستيشن"
    RoomBilliards   = "صالات البلياردو"

    RoomAvailable = "متاح"
    RoomReserved  = "محجوز"
)

// RoomCategories lists every accepted room category.
var RoomCategories = []string{RoomPrivate, RoomPublic, RoomEventHall, RoomPlayStation, RoomBilliards}

// RoomStatuses lists every accepted room availability label.
var RoomStatuses = []string{RoomAvailable, RoomReserved}

// Room is a bookable space.  RemainingCapacity is computed on read from the
// guests of bookings that are neither cancelled nor completed; it is never
// stored.
//
// Fields:
//  ID                – rooms.id
//  Category          – one of RoomCategories
//  Price             – rooms.price, DECIMAL(10,2)
//  Status            – one of RoomStatuses
//  Capacity          – maximum number of guests
//  ImagePath         – relative path on the public disk (nullable)
type Room struct {
    ID                uint64          `json:"id"`
    Category          string          `json:"category"`
    Name              string          `json:"name"`
    Price             decimal.Decimal `json:"price"`
    Status            string          `json:"status"`
    Capacity          uint32          `json:"capacity"`
    Description       *string         `json:"description"`
    Features          *string         `json:"features"`
    ImagePath         *string         `json:"image_path"`
    BookedGuests      uint32          `json:"bookings_sum_guests"`
    RemainingCapacity uint32          `json:"remaining_capacity"`
    CreatedAt         time.Time       `json:"created_at"`
    UpdatedAt         time.Time       `json:"updated_at"`
}

// SetBookedGuests records the active guest total and derives the remaining
// capacity, floored at zero.
func (r *Room) SetBookedGuests(n uint32) {
    r.BookedGuests = n
    if n >= r.Capacity {
        r.RemainingCapacity = 0
        return
    }
    r.RemainingCapacity = r.Capacity - n
}
