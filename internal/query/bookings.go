package query

import (
	"fmt"
	"strings"

	"hotel_booking/internal/domain"
)

// Booking sort keys.
const (
	BookingSortDate      = "date"
	BookingSortPriceHigh = "price-high"
	BookingSortPriceLow  = "price-low"
	BookingSortGuestName = "guest-name"
)

// BookingSchema serves "my bookings" and the management dashboard.
var BookingSchema = Schema[domain.Booking]{
	Name: "booking",
	ID:   func(b domain.Booking) any { return b.ID },
	Fields: map[string]Field[domain.Booking]{
		"id":                func(b domain.Booking) any { return b.ID },
		"userName":          func(b domain.Booking) any { return NonEmpty(b.UserName) },
		"userEmail":         func(b domain.Booking) any { return NonEmpty(b.UserEmail) },
		"userId":            func(b domain.Booking) any { return NonEmpty(b.UserID) },
		"hotelOwnerId":      func(b domain.Booking) any { return NonEmpty(b.HotelOwnerID) },
		"status":            func(b domain.Booking) any { return NonEmpty(string(b.Status)) },
		"paymentStatus":     func(b domain.Booking) any { return b.PaymentStatus },
		"breakfastIncluded": func(b domain.Booking) any { return b.BreakfastIncluded },
		"currency":          func(b domain.Booking) any { return NonEmpty(b.Currency) },
		"totalPrice":        func(b domain.Booking) any { return b.TotalPrice },
		"checkIn":           func(b domain.Booking) any { return OptTime(b.CheckIn) },
		"checkOut":          func(b domain.Booking) any { return OptTime(b.CheckOut) },
		"bookedAt":          func(b domain.Booking) any { return b.BookedAt },
		"hotelId":           func(b domain.Booking) any { return OptInt(b.HotelID) },
		"roomId":            func(b domain.Booking) any { return OptInt(b.RoomID) },
		"hotelTitle": func(b domain.Booking) any {
			if b.Hotel == nil {
				return nil
			}
			return NonEmpty(b.Hotel.Title)
		},
		"roomTitle": func(b domain.Booking) any {
			if t, ok := b.RoomTitle(); ok {
				return NonEmpty(t)
			}
			return nil
		},
	},
	SearchFields: []string{"userName", "userEmail", "id"},
	DateStart:    "checkIn",
	DateEnd:      "checkOut",
	NumericField: "totalPrice",
	SortKeys: map[string]SortKey{
		BookingSortDate:      {Field: "checkIn", Direction: Asc},
		BookingSortPriceHigh: {Field: "totalPrice", Direction: Desc},
		BookingSortPriceLow:  {Field: "totalPrice", Direction: Asc},
		BookingSortGuestName: {Field: "userName", Direction: Asc},
	},
	Params: map[string]Param{
		"status":  {Field: "status", Op: Equals, Normalize: normalizeStatus},
		"payment": {Field: "paymentStatus", Op: Equals, Normalize: normalizePayment},
		"hotel":   {Field: "hotelId", Op: Equals},
		"room":    {Field: "roomId", Op: Equals},
		"guest":   {Field: "userId", Op: Equals},
	},
}

func normalizeStatus(raw string) (string, bool, error) {
	if strings.EqualFold(raw, "all") {
		return "", false, nil
	}
	s, err := domain.ParseStatus(raw)
	if err != nil {
		return "", false, fmt.Errorf("unknown status %q", raw)
	}
	return string(s), true, nil
}

// normalizePayment maps the dashboard's paid/unpaid/all selector onto paymentStatus.
func normalizePayment(raw string) (string, bool, error) {
	switch strings.ToLower(raw) {
	case "all":
		return "", false, nil
	case "paid", "true":
		return "true", true, nil
	case "unpaid", "false":
		return "false", true, nil
	}
	return "", false, fmt.Errorf("payment must be paid, unpaid or all")
}

// PaymentFilter is the Config filter for the paid/unpaid selector.
func PaymentFilter(paid bool) FieldFilter {
	v := "false"
	if paid {
		v = "true"
	}
	return FieldFilter{Field: "paymentStatus", Op: Equals, Values: []string{v}}
}

// StatusFilter keeps bookings in any of the given statuses.
func StatusFilter(statuses ...domain.Status) FieldFilter {
	vals := make([]string, len(statuses))
	for i, s := range statuses {
		vals[i] = string(s)
	}
	return FieldFilter{Field: "status", Op: Equals, Values: vals}
}
