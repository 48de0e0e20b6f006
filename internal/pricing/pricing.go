// Package pricing turns a stay and a room rate into a total price. It is the only
// writer of Booking.TotalPrice.
package pricing

import (
	"fmt"
	"time"

	"hotel_booking/internal/domain"
)

const day = 24 * time.Hour

// NightsBetween returns the whole days between checkIn and checkOut, rounded up.
// Zero means the range is invalid (checkOut <= checkIn) and must not be charged.
func NightsBetween(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	return int((d + day - 1) / day)
}

// ComputeTotalPrice charges roomPrice per night plus breakfastPrice per night when
// breakfast is included. Guests do not change the price.
func ComputeTotalPrice(room domain.Room, nights, guests int, breakfastIncluded bool) (int64, error) {
	_ = guests // flat per-room pricing
	if nights <= 0 {
		return 0, &domain.InvalidStayError{Nights: nights, Reason: "check-out must be after check-in"}
	}
	if !room.Available {
		return 0, &domain.InvalidStayError{Nights: nights, Reason: fmt.Sprintf("room %d is not available", room.ID)}
	}
	total := room.RoomPrice * int64(nights)
	if breakfastIncluded {
		total += room.BreakfastPrice * int64(nights)
	}
	return total, nil
}

type Quote struct {
	Nights         int   `json:"nights"`
	RoomTotal      int64 `json:"roomTotal"`
	BreakfastTotal int64 `json:"breakfastTotal"`
	Total          int64 `json:"total"`
}

// QuoteStay prices a stay with its breakdown.
func QuoteStay(room domain.Room, checkIn, checkOut time.Time, guests int, breakfastIncluded bool) (Quote, error) {
	n := NightsBetween(checkIn, checkOut)
	total, err := ComputeTotalPrice(room, n, guests, breakfastIncluded)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{Nights: n, RoomTotal: room.RoomPrice * int64(n), Total: total}
	q.BreakfastTotal = total - q.RoomTotal
	return q, nil
}

// Verify re-derives a stored booking's total from room and reports a mismatch.
// Availability is not rechecked: a room may be withdrawn after it was booked.
func Verify(b domain.Booking, room domain.Room) error {
	if b.CheckIn == nil || b.CheckOut == nil {
		return &domain.InvalidStayError{Reason: "booking has no stay dates"}
	}
	room.Available = true
	q, err := QuoteStay(room, *b.CheckIn, *b.CheckOut, 0, b.BreakfastIncluded)
	if err != nil {
		return err
	}
	if q.Total != b.TotalPrice {
		return fmt.Errorf("booking %s: total %d does not match %d nights at %d: expected %d",
			b.ID, b.TotalPrice, q.Nights, room.RoomPrice, q.Total)
	}
	return nil
}
