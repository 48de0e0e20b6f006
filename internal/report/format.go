package report

import (
	"slices"
	"strconv"
	"time"

	"hotel_booking/internal/domain"
)

// NotAvailable is shown for absent values on screen and in exports.
const NotAvailable = "N/A"

const DisplayDateLayout = "Jan 02, 2006"

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format(DisplayDateLayout)
}

func FormatText(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func FormatPayment(paid bool) string {
	if paid {
		return "Paid"
	}
	return "Unpaid"
}

func FormatPrice(amount int64) string {
	return strconv.FormatInt(amount, 10)
}

// Column is one export column: a header and the display rendering of a booking.
type Column struct {
	Key    string
	Header string
	Render func(domain.Booking) string
}

var (
	ColGuestName = Column{"guest", "Guest Name", func(b domain.Booking) string { return FormatText(b.UserName) }}
	ColEmail     = Column{"email", "Email", func(b domain.Booking) string { return FormatText(b.UserEmail) }}
	ColCheckIn   = Column{"checkIn", "Check-in", func(b domain.Booking) string { return FormatDate(b.CheckIn) }}
	ColCheckOut  = Column{"checkOut", "Check-out", func(b domain.Booking) string { return FormatDate(b.CheckOut) }}
	ColRoom      = Column{"room", "Room", func(b domain.Booking) string {
		t, _ := b.RoomTitle()
		return FormatText(t)
	}}
	ColTotal   = Column{"total", "Total Price", func(b domain.Booking) string { return FormatPrice(b.TotalPrice) }}
	ColStatus  = Column{"status", "Status", func(b domain.Booking) string { return FormatText(string(b.Status)) }}
	ColPayment = Column{"payment", "Payment Status", func(b domain.Booking) string { return FormatPayment(b.PaymentStatus) }}
)

// DefaultColumns is the fixed export column order.
var DefaultColumns = []Column{ColGuestName, ColEmail, ColCheckIn, ColCheckOut, ColRoom, ColTotal, ColStatus, ColPayment}

// ColumnsByKey selects columns by key, keeping DefaultColumns order. No keys means all.
func ColumnsByKey(keys []string) ([]Column, error) {
	if len(keys) == 0 {
		return DefaultColumns, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !slices.ContainsFunc(DefaultColumns, func(c Column) bool { return c.Key == k }) {
			return nil, domain.ValidationErrors{{Field: "columns", Reason: "unknown column " + strconv.Quote(k)}}
		}
		want[k] = true
	}
	var out []Column
	for _, c := range DefaultColumns {
		if want[c.Key] {
			out = append(out, c)
		}
	}
	return out, nil
}

func headers(cols []Column) []string {
	h := make([]string, len(cols))
	for i, c := range cols {
		h[i] = c.Header
	}
	return h
}

func row(b domain.Booking, cols []Column) []string {
	r := make([]string, len(cols))
	for i, c := range cols {
		r[i] = c.Render(b)
	}
	return r
}
