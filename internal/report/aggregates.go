// Package report derives dashboard statistics and export files from an already filtered
// booking collection, so figures always match what the screen shows.
package report

import "hotel_booking/internal/domain"

type Aggregates struct {
	Total   int   `json:"total"`
	Paid    int   `json:"paid"`
	Active  int   `json:"active"`
	Revenue int64 `json:"revenue"`
}

func (a *Aggregates) add(b domain.Booking) {
	a.Total++
	if b.PaymentStatus {
		a.Paid++
	}
	if b.Active() {
		a.Active++
	}
	a.Revenue += b.TotalPrice
}

func ComputeAggregates(bookings []domain.Booking) Aggregates {
	var a Aggregates
	for _, b := range bookings {
		a.add(b)
	}
	return a
}

// ComputeHotelAggregates groups by hotel. Orphaned bookings are left out.
func ComputeHotelAggregates(bookings []domain.Booking) map[int64]Aggregates {
	out := make(map[int64]Aggregates)
	for _, b := range bookings {
		if b.Orphaned() {
			continue
		}
		a := out[*b.HotelID]
		a.add(b)
		out[*b.HotelID] = a
	}
	return out
}
