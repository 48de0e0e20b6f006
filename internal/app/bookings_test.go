package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

func TestQuote(t *testing.T) {
	f := newFixture(t)
	q, err := f.bookings.Quote(context.Background(), StayRequest{
		RoomID: f.roomID, CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4), Guests: 2, BreakfastIncluded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(510), q.Total)
	assert.Equal(t, int64(60), q.BreakfastTotal)

	_, err = f.bookings.Quote(context.Background(), StayRequest{RoomID: 404, CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 2)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBooking_PendingUnpaidAndPriced(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, guest, "pi_1")

	assert.Equal(t, "bk_1", b.ID)
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.False(t, b.PaymentStatus)
	assert.Equal(t, int64(450), b.TotalPrice)
	assert.Equal(t, "Ana", b.UserName)
	assert.Equal(t, "ana@example.com", b.UserEmail)
	assert.Equal(t, guest.UserID, b.UserID)
	assert.Equal(t, owner.UserID, b.HotelOwnerID)
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, date(2024, 6, 2), b.BookedAt)
	require.NotNil(t, b.Hotel)
	require.NotNil(t, b.Room)
	assert.Equal(t, "Deluxe", b.Room.Title)
}

func TestCreateBooking_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.bookings.CreateBooking(ctx, nobody, BookingRequest{StayRequest: StayRequest{RoomID: f.roomID}})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.bookings.CreateBooking(ctx, guest, BookingRequest{StayRequest: StayRequest{
		RoomID: f.roomID, CheckIn: date(2024, 6, 4), CheckOut: date(2024, 6, 4),
	}})
	var stay *domain.InvalidStayError
	require.ErrorAs(t, err, &stay)
	assert.Equal(t, 0, stay.Nights)

	_, err = f.hotels.UpdateRoom(ctx, owner, domain.Room{ID: f.roomID, Title: "Deluxe", RoomPrice: 150, Available: false})
	require.NoError(t, err)
	_, err = f.bookings.CreateBooking(ctx, guest, BookingRequest{StayRequest: StayRequest{
		RoomID: f.roomID, CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 3),
	}})
	require.ErrorAs(t, err, &stay)

	bookings, _ := f.repo.ListBookings(ctx, domain.BookingScope{})
	assert.Empty(t, bookings, "rejected bookings must not be stored")
}

func TestCreateBooking_DuplicateIntent(t *testing.T) {
	f := newFixture(t)
	f.book(t, guest, "pi_dup")
	_, err := f.bookings.CreateBooking(context.Background(), guest, BookingRequest{
		StayRequest:   StayRequest{RoomID: f.roomID, CheckIn: date(2024, 7, 1), CheckOut: date(2024, 7, 2)},
		PaymentIntent: "pi_dup",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetBooking_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, guest, "")

	for _, who := range []domain.Identity{guest, owner, staff} {
		_, err := f.bookings.GetBooking(ctx, who, b.ID)
		assert.NoError(t, err, who.UserID)
	}
	_, err := f.bookings.GetBooking(ctx, stranger, b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.bookings.GetBooking(ctx, other, b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.bookings.GetBooking(ctx, guest, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// pending -> (payment) confirmed -> checked-in -> checked-out
func TestLifecycleThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, guest, "pi_1")

	_, err := f.bookings.Transition(ctx, owner, b.ID, domain.StatusConfirmed)
	var inv *domain.InvalidTransitionError
	require.ErrorAs(t, err, &inv, "unpaid booking cannot be confirmed")

	_, err = f.bookings.Transition(ctx, guest, b.ID, domain.StatusCheckedIn)
	assert.ErrorIs(t, err, domain.ErrForbidden, "guests may only cancel")

	paid := f.confirm(t, "pi_1")
	assert.True(t, paid.PaymentStatus)
	assert.Equal(t, domain.StatusConfirmed, paid.Status)

	again, outcome, err := f.bookings.ApplyPaymentStatus(ctx, domain.PaymentIntent{ID: "pi_1", Status: domain.IntentSucceeded})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, domain.StatusConfirmed, again.Status)

	res, err := f.bookings.Transition(ctx, owner, b.ID, domain.StatusCheckedIn)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, res.From)
	assert.Equal(t, domain.StatusCheckedIn, res.To)
	assert.Equal(t, []domain.Status{domain.StatusCheckedOut, domain.StatusCompleted, domain.StatusCancelled}, res.Next)

	// check-out on 2024-06-04 is after "now" (2024-06-02)
	_, err = f.bookings.Transition(ctx, staff, b.ID, domain.StatusCheckedOut)
	require.ErrorAs(t, err, &inv)

	f.bookings.now = func() time.Time { return date(2024, 6, 4) }
	res, err = f.bookings.Transition(ctx, staff, b.ID, domain.StatusCheckedOut)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedOut, res.Booking.Status)
	assert.Empty(t, res.Next)

	_, err = f.bookings.Transition(ctx, staff, b.ID, domain.StatusCancelled)
	require.ErrorAs(t, err, &inv, "checked-out is terminal")

	stored, _ := f.repo.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.StatusCheckedOut, stored.Status)
	assert.True(t, stored.PaymentStatus)
	assert.Equal(t, int64(450), stored.TotalPrice)
}

func TestCancelPaidConfirmed_RequestsRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, guest, "pi_9")
	f.confirm(t, "pi_9")

	res, err := f.bookings.Transition(ctx, guest, b.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, res.RefundRequired)
	assert.True(t, res.RefundRequested)
	assert.Equal(t, []string{"pi_9"}, f.payments.refunds)
}

func TestCancel_RefundFailureKeepsCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payments.refundErr = errBoom
	b := f.book(t, guest, "pi_9")
	f.confirm(t, "pi_9")

	res, err := f.bookings.Transition(ctx, owner, b.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, res.RefundRequired)
	assert.False(t, res.RefundRequested)

	stored, _ := f.repo.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestCancelUnpaidPending_NoRefund(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, guest, "pi_3")
	res, err := f.bookings.Transition(context.Background(), guest, b.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, res.RefundRequired)
	assert.Empty(t, f.payments.refunds)
}

func TestApplyPaymentStatus_CanceledIntentCancelsPending(t *testing.T) {
	f := newFixture(t)
	f.book(t, guest, "pi_4")
	b, outcome, err := f.bookings.ApplyPaymentStatus(context.Background(), domain.PaymentIntent{ID: "pi_4", Status: domain.IntentCanceled})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, domain.StatusCancelled, b.Status)

	_, _, err = f.bookings.ApplyPaymentStatus(context.Background(), domain.PaymentIntent{ID: "pi_unknown", Status: domain.IntentSucceeded})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmPayment_ProviderRecordWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, guest, "pi_self")

	// the event claims success, the provider still waits for the money
	f.payments.intents["pi_self"] = domain.PaymentIntent{ID: "pi_self", Status: domain.IntentProcessing}
	_, outcome, err := f.bookings.ApplyPaymentStatus(ctx, domain.PaymentIntent{ID: "pi_self", Status: domain.IntentSucceeded, Amount: amount(450)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)

	// paid, but not in full
	f.payments.succeed("pi_self", 1)
	_, _, err = f.bookings.ApplyPaymentStatus(ctx, domain.PaymentIntent{ID: "pi_self", Status: domain.IntentSucceeded})
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.False(t, stored.PaymentStatus)
}

func TestConfirmPayment_WithoutGatewayChecksAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bookings.payments = nil
	b := f.book(t, guest, "pi_7")

	_, _, err := f.bookings.ConfirmPayment(ctx, domain.PaymentIntent{ID: "pi_7", Status: domain.IntentSucceeded, Amount: amount(1)})
	require.ErrorIs(t, err, domain.ErrConflict)
	stored, _ := f.repo.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.False(t, stored.PaymentStatus)

	paid, outcome, err := f.bookings.ConfirmPayment(ctx, domain.PaymentIntent{ID: "pi_7", Status: domain.IntentSucceeded, Amount: amount(450)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome)
	assert.True(t, paid.PaymentStatus)
}

func TestListBookings_ScopesAndAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, guest, "pi_a")
	f.book(t, stranger, "pi_b")
	f.confirm(t, "pi_a")

	mine, err := f.bookings.ListMyBookings(ctx, guest, query.Config{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)

	managed, err := f.bookings.ListManagedBookings(ctx, owner, nil, query.Config{})
	require.NoError(t, err)
	assert.Equal(t, 2, managed.Aggregates.Total)
	assert.Equal(t, 1, managed.Aggregates.Paid)
	assert.Equal(t, 2, managed.Aggregates.Active)
	assert.Equal(t, int64(900), managed.Aggregates.Revenue)
	require.Contains(t, managed.ByHotel, f.hotelID)
	assert.Equal(t, managed.Aggregates, managed.ByHotel[f.hotelID])

	paidOnly, err := f.bookings.ListManagedBookings(ctx, owner, nil, query.Config{Filters: []query.FieldFilter{query.PaymentFilter(true)}})
	require.NoError(t, err)
	assert.Equal(t, len(paidOnly.Items), paidOnly.Aggregates.Total)
	assert.Equal(t, 1, paidOnly.Aggregates.Paid)

	none, err := f.bookings.ListManagedBookings(ctx, other, nil, query.Config{})
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	_, err = f.bookings.ListManagedBookings(ctx, other, &f.hotelID, query.Config{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := f.bookings.ListManagedBookings(ctx, staff, &f.hotelID, query.Config{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, f.bookings.Export(ctx, owner, nil, query.Config{}, FormatCSV, nil, &buf))
	assert.Equal(t, "Guest Name,Email,Check-in,Check-out,Room,Total Price,Status,Payment Status\n", buf.String())

	f.book(t, guest, "")
	buf.Reset()
	require.NoError(t, f.bookings.Export(ctx, owner, nil, query.Config{}, FormatCSV, nil, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `Ana,ana@example.com,"Jun 01, 2024","Jun 04, 2024",Deluxe,450,pending,Unpaid`, lines[1])

	buf.Reset()
	require.NoError(t, f.bookings.Export(ctx, owner, nil, query.Config{}, FormatXLSX, nil, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")), "xlsx is a zip container")

	_, err := ParseExportFormat("pdf")
	var ve domain.ValidationErrors
	require.ErrorAs(t, err, &ve)
}
