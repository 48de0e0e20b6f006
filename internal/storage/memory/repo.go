// Package memory keeps hotels, rooms and bookings in process memory. It backs
// STORAGE=memory and the service tests, with the same relation rules as the MySQL schema:
// deleting a hotel or room nulls the references to it.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"hotel_booking/internal/domain"
)

type Repo struct {
	mu        sync.RWMutex
	now       func() time.Time
	nextHotel int64
	nextRoom  int64
	hotels    map[int64]domain.Hotel
	rooms     map[int64]domain.Room
	bookings  map[string]domain.Booking
}

func New() *Repo {
	return &Repo{
		now:      func() time.Time { return time.Now().UTC() },
		hotels:   make(map[int64]domain.Hotel),
		rooms:    make(map[int64]domain.Room),
		bookings: make(map[string]domain.Booking),
	}
}

// ---- hotels ----

func (r *Repo) CreateHotel(_ context.Context, h domain.Hotel) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextHotel++
	h.ID = r.nextHotel
	h.CreatedAt = r.now()
	h.UpdatedAt = h.CreatedAt
	r.hotels[h.ID] = h
	return h.ID, nil
}

func (r *Repo) UpdateHotel(_ context.Context, h domain.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.hotels[h.ID]
	if !ok {
		return domain.NotFound("hotel", h.ID)
	}
	h.UserID = old.UserID
	h.CreatedAt = old.CreatedAt
	h.UpdatedAt = r.now()
	r.hotels[h.ID] = h
	return nil
}

func (r *Repo) DeleteHotel(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hotels[id]; !ok {
		return domain.NotFound("hotel", id)
	}
	delete(r.hotels, id)
	for rid, room := range r.rooms {
		if room.HotelID != nil && *room.HotelID == id {
			room.HotelID = nil
			r.rooms[rid] = room
		}
	}
	for bid, b := range r.bookings {
		if b.HotelID != nil && *b.HotelID == id {
			b.HotelID = nil
			r.bookings[bid] = b
		}
	}
	return nil
}

func (r *Repo) GetHotel(_ context.Context, id int64) (domain.Hotel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.NotFound("hotel", id)
	}
	return h, nil
}

func (r *Repo) ListHotels(_ context.Context, s domain.HotelScope) ([]domain.HotelListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.HotelListing, 0, len(r.hotels))
	for _, id := range slices.Sorted(maps.Keys(r.hotels)) {
		h := r.hotels[id]
		if s.OwnerID != "" && h.UserID != s.OwnerID {
			continue
		}
		l := domain.HotelListing{Hotel: h}
		for _, room := range r.rooms {
			if room.HotelID == nil || *room.HotelID != id {
				continue
			}
			l.RoomCount++
			if l.MinRoomPrice == nil || room.RoomPrice < *l.MinRoomPrice {
				p := room.RoomPrice
				l.MinRoomPrice = &p
			}
		}
		out = append(out, l)
	}
	return out, nil
}

// ---- rooms ----

func (r *Repo) CreateRoom(_ context.Context, room domain.Room) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.HotelID != nil {
		if _, ok := r.hotels[*room.HotelID]; !ok {
			return 0, domain.NotFound("hotel", *room.HotelID)
		}
	}
	r.nextRoom++
	room.ID = r.nextRoom
	r.rooms[room.ID] = room
	return room.ID, nil
}

func (r *Repo) UpdateRoom(_ context.Context, room domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rooms[room.ID]
	if !ok {
		return domain.NotFound("room", room.ID)
	}
	room.HotelID = old.HotelID
	r.rooms[room.ID] = room
	return nil
}

func (r *Repo) DeleteRoom(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		return domain.NotFound("room", id)
	}
	delete(r.rooms, id)
	for bid, b := range r.bookings {
		if b.RoomID != nil && *b.RoomID == id {
			b.RoomID = nil
			r.bookings[bid] = b
		}
	}
	return nil
}

func (r *Repo) GetRoom(_ context.Context, id int64) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, domain.NotFound("room", id)
	}
	return room, nil
}

func (r *Repo) ListRooms(_ context.Context, hotelID int64) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Room
	for _, room := range r.rooms {
		if room.HotelID != nil && *room.HotelID == hotelID {
			out = append(out, room)
		}
	}
	slices.SortFunc(out, func(a, b domain.Room) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ---- bookings ----

func (r *Repo) CreateBooking(_ context.Context, b domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; ok {
		return fmt.Errorf("booking %s: %w", b.ID, domain.ErrConflict)
	}
	if err := r.intentFree(b); err != nil {
		return err
	}
	r.bookings[b.ID] = stripJoins(b)
	return nil
}

func (r *Repo) SaveBooking(_ context.Context, b domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return domain.NotFound("booking", b.ID)
	}
	if err := r.intentFree(b); err != nil {
		return err
	}
	r.bookings[b.ID] = stripJoins(b)
	return nil
}

func (r *Repo) intentFree(b domain.Booking) error {
	if b.PaymentIntent == "" {
		return nil
	}
	for id, other := range r.bookings {
		if id != b.ID && other.PaymentIntent == b.PaymentIntent {
			return fmt.Errorf("payment intent %s already used: %w", b.PaymentIntent, domain.ErrConflict)
		}
	}
	return nil
}

func (r *Repo) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.Booking{}, domain.NotFound("booking", id)
	}
	return r.join(b), nil
}

func (r *Repo) GetBookingByPaymentIntent(_ context.Context, intent string) (domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if intent != "" {
		for _, b := range r.bookings {
			if b.PaymentIntent == intent {
				return r.join(b), nil
			}
		}
	}
	return domain.Booking{}, domain.NotFound("booking with payment intent", intent)
}

func (r *Repo) ListBookings(_ context.Context, s domain.BookingScope) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Booking
	for _, id := range slices.Sorted(maps.Keys(r.bookings)) {
		b := r.bookings[id]
		if !inScope(b, s) {
			continue
		}
		out = append(out, r.join(b))
	}
	return out, nil
}

func inScope(b domain.Booking, s domain.BookingScope) bool {
	if s.GuestID != "" && b.UserID != s.GuestID {
		return false
	}
	if s.OwnerID != "" && b.HotelOwnerID != s.OwnerID {
		return false
	}
	if s.HotelID != nil && (b.HotelID == nil || *b.HotelID != *s.HotelID) {
		return false
	}
	if s.RoomID != nil && (b.RoomID == nil || *b.RoomID != *s.RoomID) {
		return false
	}
	if len(s.Statuses) > 0 && !slices.Contains(s.Statuses, b.Status) {
		return false
	}
	return true
}

// join attaches hotel and room summaries for the references that still resolve.
func (r *Repo) join(b domain.Booking) domain.Booking {
	if b.HotelID != nil {
		if h, ok := r.hotels[*b.HotelID]; ok {
			s := h.Summary()
			b.Hotel = &s
		}
	}
	if b.RoomID != nil {
		if room, ok := r.rooms[*b.RoomID]; ok {
			s := room.Summary()
			b.Room = &s
		}
	}
	return b
}

func stripJoins(b domain.Booking) domain.Booking {
	b.Hotel, b.Room = nil, nil
	return b
}
