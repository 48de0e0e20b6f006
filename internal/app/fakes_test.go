package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
)

// ---- fakes ----

type fakePayments struct {
	mu        sync.Mutex
	intents   map[string]domain.PaymentIntent
	refunds   []string
	refundErr error
	getErr    error
}

func (f *fakePayments) GetIntent(ctx context.Context, id string) (domain.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.PaymentIntent{}, f.getErr
	}
	pi, ok := f.intents[id]
	if !ok {
		return domain.PaymentIntent{}, domain.NotFound("payment intent", id)
	}
	return pi, nil
}

// succeed records id as paid in full for amount.
func (f *fakePayments) succeed(id string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id] = domain.PaymentIntent{ID: id, Status: domain.IntentSucceeded, Amount: &amount}
}

func (f *fakePayments) RequestRefund(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunds = append(f.refunds, id)
	return nil
}

type countingCache struct {
	*memory.Cache
	hits, dels int
}

func (c *countingCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	ok, err := c.Cache.Get(ctx, key, dst)
	if ok {
		c.hits++
	}
	return ok, err
}

func (c *countingCache) Del(ctx context.Context, key string) error {
	c.dels++
	return c.Cache.Del(ctx, key)
}

// ---- fixture ----

var (
	owner    = domain.Identity{UserID: "owner_1", Name: "Olga", Role: domain.RoleOwner}
	other    = domain.Identity{UserID: "owner_2", Name: "Omar", Role: domain.RoleOwner}
	guest    = domain.Identity{UserID: "guest_1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleGuest}
	stranger = domain.Identity{UserID: "guest_2", Name: "Bo", Role: domain.RoleGuest}
	staff    = domain.Identity{UserID: "staff_1", Role: domain.RoleStaff}
	nobody   = domain.Identity{}
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

type fixture struct {
	repo     *memory.Repo
	cache    *countingCache
	payments *fakePayments
	hotels   *HotelService
	bookings *BookingService
	hotelID  int64
	roomID   int64
	ids      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     memory.New(),
		cache:    &countingCache{Cache: memory.NewCache()},
		payments: &fakePayments{intents: map[string]domain.PaymentIntent{}},
	}
	f.hotels = NewHotelService(f.repo, f.cache, time.Minute)
	f.bookings = NewBookingService(f.repo, f.repo, f.payments)
	f.bookings.now = func() time.Time { return date(2024, 6, 2) }
	f.bookings.newID = func() string {
		f.ids++
		return fmt.Sprintf("bk_%d", f.ids)
	}

	ctx := context.Background()
	h, err := f.hotels.CreateHotel(ctx, owner, domain.Hotel{Title: "Sea Breeze", Spa: true})
	require.NoError(t, err)
	f.hotelID = h.ID
	r, err := f.hotels.AddRoom(ctx, owner, h.ID, domain.Room{Title: "Deluxe", RoomPrice: 150, BreakfastPrice: 20, Available: true})
	require.NoError(t, err)
	f.roomID = r.ID
	return f
}

func (f *fixture) book(t *testing.T, who domain.Identity, intent string) domain.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), who, BookingRequest{
		StayRequest:   StayRequest{RoomID: f.roomID, CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4), Guests: 2},
		PaymentIntent: intent,
	})
	require.NoError(t, err)
	return b
}

// confirm pays the booking holding intent through the provider path.
func (f *fixture) confirm(t *testing.T, intent string) domain.Booking {
	t.Helper()
	f.payments.succeed(intent, 450)
	b, outcome, err := f.bookings.ConfirmPayment(context.Background(), domain.PaymentIntent{ID: intent})
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome)
	return b
}

var errBoom = errors.New("boom")
