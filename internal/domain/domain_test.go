package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func validHotel() domain.Hotel {
	return domain.Hotel{UserID: "user_1", Title: "Sea Breeze"}
}

func TestValidateHotel(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *domain.Hotel)
		field  string
	}{
		{name: "valid", mutate: func(h *domain.Hotel) {}},
		{name: "title too short", mutate: func(h *domain.Hotel) { h.Title = "ab" }, field: "title"},
		{name: "title too long", mutate: func(h *domain.Hotel) { h.Title = strings.Repeat("x", 101) }, field: "title"},
		{name: "title at bounds", mutate: func(h *domain.Hotel) { h.Title = strings.Repeat("x", 100) }},
		{name: "description too long", mutate: func(h *domain.Hotel) { h.Description = ptr(strings.Repeat("d", 501)) }, field: "description"},
		{name: "description at bound", mutate: func(h *domain.Hotel) { h.Description = ptr(strings.Repeat("d", 500)) }},
		{name: "bad image url", mutate: func(h *domain.Hotel) { h.Image = ptr("not a url") }, field: "image"},
		{name: "missing owner", mutate: func(h *domain.Hotel) { h.UserID = "" }, field: "userId"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := validHotel()
			tc.mutate(&h)
			err := domain.ValidateHotel(h)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve domain.ValidationErrors
			require.True(t, errors.As(err, &ve), "expected ValidationErrors, got %v", err)
			assert.True(t, ve.Has(tc.field), "expected violation on %s, got %v", tc.field, ve)
		})
	}
}

func TestValidateRoom(t *testing.T) {
	r := domain.Room{Title: "Deluxe", RoomPrice: 150}
	assert.NoError(t, domain.ValidateRoom(r))

	r.RoomPrice = 0
	r.BedCount = -1
	var ve domain.ValidationErrors
	require.ErrorAs(t, domain.ValidateRoom(r), &ve)
	assert.True(t, ve.Has("roomPrice"))
	assert.True(t, ve.Has("bedCount"))
}

func TestValidateBooking(t *testing.T) {
	in := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := in.AddDate(0, 0, 3)
	b := domain.Booking{
		ID: "b1", UserName: "Ana", UserID: "u1", Currency: "usd",
		CheckIn: &in, CheckOut: &out, Status: domain.StatusPending,
	}
	assert.NoError(t, domain.ValidateBooking(b))

	t.Run("checkout not after checkin", func(t *testing.T) {
		bb := b
		bb.CheckOut = &in
		var ve domain.ValidationErrors
		require.ErrorAs(t, domain.ValidateBooking(bb), &ve)
		assert.True(t, ve.Has("checkOut"))
	})

	t.Run("missing dates are allowed", func(t *testing.T) {
		bb := b
		bb.CheckIn, bb.CheckOut = nil, nil
		assert.NoError(t, domain.ValidateBooking(bb))
	})

	t.Run("unknown status", func(t *testing.T) {
		bb := b
		bb.Status = "archived"
		var ve domain.ValidationErrors
		require.ErrorAs(t, domain.ValidateBooking(bb), &ve)
		assert.True(t, ve.Has("status"))
	})
}

func TestParseStatus(t *testing.T) {
	s, err := domain.ParseStatus(" Checked-In ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedIn, s)

	_, err = domain.ParseStatus("refunded")
	var ve domain.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve[0].Field)
}

func TestAmenityListOrder(t *testing.T) {
	h := domain.Hotel{CoffeeShop: true, Gym: true, FreeWifi: true}
	assert.Equal(t, []string{"gym", "freeWifi", "coffeeShop"}, h.AmenityList())
	assert.True(t, h.HasAmenity("freeWifi"))
	assert.False(t, h.HasAmenity("spa"))
	assert.False(t, h.HasAmenity("helipad"))

	assert.Empty(t, domain.Hotel{}.AmenityList())
}

func TestRoomFeatureListOrder(t *testing.T) {
	r := domain.Room{SoundProofed: true, TV: true, OceanView: true}
	assert.Equal(t, []string{"TV", "oceanView", "soundProofed"}, r.FeatureList())
}

func TestHotelLocation(t *testing.T) {
	h := domain.Hotel{Country: ptr("PT"), City: ptr("Lisbon")}
	assert.Equal(t, "PT, Lisbon", h.Location())
	assert.Equal(t, "", domain.Hotel{}.Location())
}

func TestNotFoundError_Is(t *testing.T) {
	err := domain.NotFound("booking", "abc")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, "booking abc not found", err.Error())
}
