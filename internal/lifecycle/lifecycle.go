// Package lifecycle validates booking status transitions. It never schedules anything:
// callers propose a transition and the current time, and get back the updated booking.
package lifecycle

import (
	"time"

	"hotel_booking/internal/domain"
)

var transitions = map[domain.Status][]domain.Status{
	domain.StatusPending:   {domain.StatusConfirmed, domain.StatusCancelled},
	domain.StatusConfirmed: {domain.StatusCheckedIn, domain.StatusCancelled},
	domain.StatusCheckedIn: {domain.StatusCheckedOut, domain.StatusCompleted, domain.StatusCancelled},
}

// Allowed returns the statuses reachable from s in one step.
func Allowed(s domain.Status) []domain.Status {
	return append([]domain.Status(nil), transitions[s]...)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s domain.Status) bool {
	return len(transitions[s]) == 0
}

func CanTransition(from, to domain.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Change is the result of an accepted transition.
type Change struct {
	Booking domain.Booking
	From    domain.Status
	To      domain.Status
	// RefundRequired is set when a paid, confirmed booking is cancelled.
	RefundRequired bool
}

// Apply validates moving b to status to at time now and returns the updated copy.
func Apply(b domain.Booking, to domain.Status, now time.Time) (Change, error) {
	from := b.Status
	if !from.Valid() {
		return Change{}, &domain.InvalidTransitionError{From: from, To: to, Reason: "unknown current status"}
	}
	if !to.Valid() {
		return Change{}, &domain.InvalidTransitionError{From: from, To: to, Reason: "unknown target status"}
	}
	if !CanTransition(from, to) {
		return Change{}, &domain.InvalidTransitionError{From: from, To: to}
	}
	if reason := guard(b, to, now); reason != "" {
		return Change{}, &domain.InvalidTransitionError{From: from, To: to, Reason: reason}
	}

	b.Status = to
	return Change{
		Booking:        b,
		From:           from,
		To:             to,
		RefundRequired: to == domain.StatusCancelled && from == domain.StatusConfirmed && b.PaymentStatus,
	}, nil
}

func guard(b domain.Booking, to domain.Status, now time.Time) string {
	switch to {
	case domain.StatusConfirmed:
		if !b.PaymentStatus {
			return "payment not captured"
		}
	case domain.StatusCheckedIn:
		if b.CheckIn == nil {
			return "booking has no check-in date"
		}
		if dayOf(*b.CheckIn).After(dayOf(now)) {
			return "check-in date is in the future"
		}
	case domain.StatusCheckedOut, domain.StatusCompleted:
		if b.CheckOut == nil {
			return "booking has no check-out date"
		}
		if dayOf(*b.CheckOut).After(dayOf(now)) {
			return "check-out date is in the future"
		}
	}
	return ""
}

// dayOf truncates t to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
