package domain

import (
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every known lifecycle status.
var Statuses = []Status{
	StatusPending, StatusConfirmed, StatusCheckedIn,
	StatusCheckedOut, StatusCompleted, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, k := range Statuses {
		if s == k {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts only the known statuses (case-insensitive, surrounding space ignored).
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ValidationErrors{{Field: "status", Reason: "unknown status " + strconv.Quote(raw)}}
	}
	return s, nil
}

type Booking struct {
	ID                string        `json:"id" validate:"required"`
	UserName          string        `json:"userName" validate:"required"`
	UserEmail         string        `json:"userEmail" validate:"omitempty,email"`
	UserID            string        `json:"userId" validate:"required"`
	HotelOwnerID      string        `json:"hotelOwnerId"`
	CheckIn           *time.Time    `json:"checkIn,omitempty"`
	CheckOut          *time.Time    `json:"checkOut,omitempty"`
	BreakfastIncluded bool          `json:"breakfastIncluded"`
	Currency          string        `json:"currency" validate:"required,len=3,alpha"`
	TotalPrice        int64         `json:"totalPrice" validate:"min=0"`
	PaymentStatus     bool          `json:"paymentStatus"`
	PaymentIntent     string        `json:"paymentIntent"`
	BookedAt          time.Time     `json:"bookedAt"`
	Status            Status        `json:"status" validate:"booking_status"`
	HotelID           *int64        `json:"hotelId,omitempty"`
	RoomID            *int64        `json:"roomId,omitempty"`
	Hotel             *HotelSummary `json:"hotel,omitempty"`
	Room              *RoomSummary  `json:"room,omitempty"`
}

// Orphaned reports whether the booking no longer references a hotel.
func (b Booking) Orphaned() bool { return b.HotelID == nil }

// Active reports whether both stay dates are present.
func (b Booking) Active() bool { return b.CheckIn != nil && b.CheckOut != nil }

// RoomTitle is the joined room title, if loaded.
func (b Booking) RoomTitle() (string, bool) {
	if b.Room == nil {
		return "", false
	}
	return b.Room.Title, true
}
