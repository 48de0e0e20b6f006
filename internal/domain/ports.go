package domain

import "context"

type HotelRepository interface {
	CreateHotel(ctx context.Context, h Hotel) (int64, error)
	UpdateHotel(ctx context.Context, h Hotel) error
	DeleteHotel(ctx context.Context, id int64) error
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context, s HotelScope) ([]HotelListing, error)

	CreateRoom(ctx context.Context, r Room) (int64, error)
	UpdateRoom(ctx context.Context, r Room) error
	DeleteRoom(ctx context.Context, id int64) error
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context, hotelID int64) ([]Room, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) error
	// SaveBooking replaces the stored record with b.
	SaveBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	GetBookingByPaymentIntent(ctx context.Context, intent string) (Booking, error)
	ListBookings(ctx context.Context, s BookingScope) ([]Booking, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// PaymentGateway is the external payment provider. Only intent state is modeled.
type PaymentGateway interface {
	GetIntent(ctx context.Context, id string) (PaymentIntent, error)
	RequestRefund(ctx context.Context, id string) error
}

type PaymentIntentStatus string

const (
	IntentSucceeded       PaymentIntentStatus = "succeeded"
	IntentProcessing      PaymentIntentStatus = "processing"
	IntentRequiresPayment PaymentIntentStatus = "requires_payment"
	IntentCanceled        PaymentIntentStatus = "canceled"
)

type PaymentIntent struct {
	ID     string
	Status PaymentIntentStatus
	Amount *int64
}

// HotelScope narrows ListHotels; zero value means every hotel.
type HotelScope struct {
	OwnerID string
}

// BookingScope narrows ListBookings; empty fields are not applied.
type BookingScope struct {
	GuestID  string
	OwnerID  string
	HotelID  *int64
	RoomID   *int64
	Statuses []Status
}
