package app

import (
	"context"
	"errors"
	"fmt"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/pricing"
	"hotel_booking/internal/query"
)

// ReconcileService catches up with payment events that never arrived and audits stored
// totals against the pricing rules. It runs from the reconciler binary.
type ReconcileService struct {
	bookings domain.BookingRepository
	hotels   domain.HotelRepository
	payments domain.PaymentGateway
	svc      *BookingService
}

func NewReconcileService(h domain.HotelRepository, b domain.BookingRepository, p domain.PaymentGateway, svc *BookingService) *ReconcileService {
	return &ReconcileService{bookings: b, hotels: h, payments: p, svc: svc}
}

// PendingPayments lists pending, unpaid bookings that carry a payment intent.
func (s *ReconcileService) PendingPayments(ctx context.Context) ([]domain.Booking, error) {
	all, err := s.bookings.ListBookings(ctx, domain.BookingScope{Statuses: []domain.Status{domain.StatusPending}})
	if err != nil {
		return nil, err
	}
	unpaid := query.Apply(all, query.BookingSchema, query.Config{
		Filters: []query.FieldFilter{query.StatusFilter(domain.StatusPending), query.PaymentFilter(false)},
	})
	out := unpaid[:0]
	for _, b := range unpaid {
		if b.PaymentIntent != "" {
			out = append(out, b)
		}
	}
	return out, nil
}

// ReconcileBooking asks the provider for the booking's intent and applies its status.
// An intent the provider no longer knows leaves the booking untouched.
func (s *ReconcileService) ReconcileBooking(ctx context.Context, b domain.Booking) (PaymentOutcome, error) {
	pi, err := s.payments.GetIntent(ctx, b.PaymentIntent)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			observability.ObserveReconcile(string(OutcomeUnchanged))
			return OutcomeUnchanged, nil
		}
		observability.ObserveReconcile("error")
		return OutcomeUnchanged, fmt.Errorf("intent %s: %w", b.PaymentIntent, err)
	}
	// pi comes from the provider, no second lookup
	_, outcome, err := s.svc.applyPaymentStatus(ctx, pi)
	if err != nil {
		observability.ObserveReconcile("error")
		return OutcomeUnchanged, err
	}
	observability.ObserveReconcile(string(outcome))
	return outcome, nil
}

// Finding is one booking that fails the audit.
type Finding struct {
	BookingID string `json:"bookingId"`
	Problem   string `json:"problem"`
}

// Audit re-derives every stored total from the booked room's current rate and rechecks
// the stay dates. Bookings whose room was deleted cannot be priced and are skipped.
func (s *ReconcileService) Audit(ctx context.Context, scope domain.BookingScope) ([]Finding, error) {
	all, err := s.bookings.ListBookings(ctx, scope)
	if err != nil {
		return nil, err
	}
	rooms := map[int64]domain.Room{}
	var out []Finding
	for _, b := range all {
		if err := domain.ValidateBooking(b); err != nil {
			out = append(out, Finding{BookingID: b.ID, Problem: err.Error()})
			continue
		}
		if b.RoomID == nil || b.CheckIn == nil || b.CheckOut == nil {
			continue
		}
		room, ok := rooms[*b.RoomID]
		if !ok {
			room, err = s.hotels.GetRoom(ctx, *b.RoomID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			rooms[room.ID] = room
		}
		if err := pricing.Verify(b, room); err != nil {
			out = append(out, Finding{BookingID: b.ID, Problem: err.Error()})
		}
	}
	return out, nil
}
