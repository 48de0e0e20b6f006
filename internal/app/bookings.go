package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/lifecycle"
	"hotel_booking/internal/pricing"
	"hotel_booking/internal/query"
	"hotel_booking/internal/report"
)

const defaultCurrency = "USD"

type BookingService struct {
	hotels   domain.HotelRepository
	bookings domain.BookingRepository
	payments domain.PaymentGateway
	now      func() time.Time
	newID    func() string
}

// NewBookingService wires the booking use cases. payments may be nil, in which case
// refunds are logged but not requested.
func NewBookingService(h domain.HotelRepository, b domain.BookingRepository, p domain.PaymentGateway) *BookingService {
	return &BookingService{
		hotels:   h,
		bookings: b,
		payments: p,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

type StayRequest struct {
	RoomID            int64     `json:"roomId"`
	CheckIn           time.Time `json:"checkIn"`
	CheckOut          time.Time `json:"checkOut"`
	Guests            int       `json:"guests"`
	BreakfastIncluded bool      `json:"breakfastIncluded"`
}

type BookingRequest struct {
	StayRequest
	UserName      string `json:"userName"`
	UserEmail     string `json:"userEmail"`
	Currency      string `json:"currency"`
	PaymentIntent string `json:"paymentIntent"`
}

// BookingPage is a filtered, sorted booking list with the statistics of exactly that list.
type BookingPage struct {
	Items      []domain.Booking            `json:"items"`
	Aggregates report.Aggregates           `json:"aggregates"`
	ByHotel    map[int64]report.Aggregates `json:"byHotel,omitempty"`
}

// TransitionResult reports an applied status change. Next lists the statuses reachable
// from To and is empty when To is terminal.
type TransitionResult struct {
	Booking         domain.Booking  `json:"booking"`
	From            domain.Status   `json:"from"`
	To              domain.Status   `json:"to"`
	RefundRequired  bool            `json:"refundRequired"`
	RefundRequested bool            `json:"refundRequested"`
	Next            []domain.Status `json:"next"`
}

// Quote prices a prospective stay without booking it.
func (s *BookingService) Quote(ctx context.Context, req StayRequest) (pricing.Quote, error) {
	room, err := s.hotels.GetRoom(ctx, req.RoomID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.QuoteStay(room, req.CheckIn, req.CheckOut, req.Guests, req.BreakfastIncluded)
}

// CreateBooking prices the stay and records a pending, unpaid booking for the caller.
func (s *BookingService) CreateBooking(ctx context.Context, id domain.Identity, req BookingRequest) (domain.Booking, error) {
	if err := requireAuth(id); err != nil {
		return domain.Booking{}, err
	}
	room, err := s.hotels.GetRoom(ctx, req.RoomID)
	if err != nil {
		return domain.Booking{}, err
	}
	if room.HotelID == nil {
		return domain.Booking{}, domain.ValidationErrors{{Field: "roomId", Reason: "room does not belong to a hotel"}}
	}
	hotel, err := s.hotels.GetHotel(ctx, *room.HotelID)
	if err != nil {
		return domain.Booking{}, err
	}
	q, err := pricing.QuoteStay(room, req.CheckIn, req.CheckOut, req.Guests, req.BreakfastIncluded)
	if err != nil {
		return domain.Booking{}, err
	}

	checkIn, checkOut := req.CheckIn.UTC(), req.CheckOut.UTC()
	b := domain.Booking{
		ID:                s.newID(),
		UserName:          firstNonEmpty(req.UserName, id.Name),
		UserEmail:         firstNonEmpty(req.UserEmail, id.Email),
		UserID:            id.UserID,
		HotelOwnerID:      hotel.UserID,
		CheckIn:           &checkIn,
		CheckOut:          &checkOut,
		BreakfastIncluded: req.BreakfastIncluded,
		Currency:          strings.ToUpper(firstNonEmpty(req.Currency, defaultCurrency)),
		TotalPrice:        q.Total,
		PaymentIntent:     strings.TrimSpace(req.PaymentIntent),
		BookedAt:          s.now(),
		Status:            domain.StatusPending,
		HotelID:           &hotel.ID,
		RoomID:            &room.ID,
	}
	if err := domain.ValidateBooking(b); err != nil {
		return domain.Booking{}, err
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	observability.ObserveBookingCreated()
	zerolog.Ctx(ctx).Info().Str("booking", b.ID).Int64("room", room.ID).Int64("total", b.TotalPrice).Msg("booking created")
	return s.bookings.GetBooking(ctx, b.ID)
}

func (s *BookingService) GetBooking(ctx context.Context, id domain.Identity, bookingID string) (domain.Booking, error) {
	if err := requireAuth(id); err != nil {
		return domain.Booking{}, err
	}
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !canViewBooking(id, b) {
		return domain.Booking{}, domain.ErrForbidden
	}
	return b, nil
}

// ListMyBookings lists the caller's own bookings as a guest.
func (s *BookingService) ListMyBookings(ctx context.Context, id domain.Identity, cfg query.Config) (BookingPage, error) {
	if err := requireAuth(id); err != nil {
		return BookingPage{}, err
	}
	return s.page(ctx, domain.BookingScope{GuestID: id.UserID}, cfg)
}

// ListManagedBookings lists bookings at the caller's hotels; staff see every hotel.
// hotelID narrows to one hotel.
func (s *BookingService) ListManagedBookings(ctx context.Context, id domain.Identity, hotelID *int64, cfg query.Config) (BookingPage, error) {
	scope, err := s.managedScope(ctx, id, hotelID)
	if err != nil {
		return BookingPage{}, err
	}
	p, err := s.page(ctx, scope, cfg)
	if err != nil {
		return BookingPage{}, err
	}
	p.ByHotel = report.ComputeHotelAggregates(p.Items)
	return p, nil
}

func (s *BookingService) managedScope(ctx context.Context, id domain.Identity, hotelID *int64) (domain.BookingScope, error) {
	if err := requireAuth(id); err != nil {
		return domain.BookingScope{}, err
	}
	scope := domain.BookingScope{HotelID: hotelID}
	if id.Staff() {
		return scope, nil
	}
	if hotelID != nil {
		h, err := s.hotels.GetHotel(ctx, *hotelID)
		if err != nil {
			return domain.BookingScope{}, err
		}
		if !canManageHotel(id, h.UserID) {
			return domain.BookingScope{}, domain.ErrForbidden
		}
	}
	scope.OwnerID = id.UserID
	return scope, nil
}

func (s *BookingService) page(ctx context.Context, scope domain.BookingScope, cfg query.Config) (BookingPage, error) {
	all, err := s.bookings.ListBookings(ctx, scope)
	if err != nil {
		return BookingPage{}, err
	}
	items := query.Apply(all, query.BookingSchema, cfg)
	return BookingPage{Items: items, Aggregates: report.ComputeAggregates(items)}, nil
}

// Transition moves a booking to status to. Cancelling a paid, confirmed booking asks the
// payment provider for a refund; a failed refund request is logged and reported in the
// result, the status change itself stands.
func (s *BookingService) Transition(ctx context.Context, id domain.Identity, bookingID string, to domain.Status) (TransitionResult, error) {
	if err := requireAuth(id); err != nil {
		return TransitionResult{}, err
	}
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return TransitionResult{}, err
	}
	if !canViewBooking(id, b) || !canTransition(id, b, to) {
		return TransitionResult{}, domain.ErrForbidden
	}
	return s.apply(ctx, b, to)
}

func (s *BookingService) apply(ctx context.Context, b domain.Booking, to domain.Status) (TransitionResult, error) {
	ch, err := lifecycle.Apply(b, to, s.now())
	if err != nil {
		return TransitionResult{}, err
	}
	if err := s.bookings.SaveBooking(ctx, ch.Booking); err != nil {
		return TransitionResult{}, fmt.Errorf("save booking %s: %w", b.ID, err)
	}
	observability.ObserveTransition(string(ch.From), string(ch.To))
	l := zerolog.Ctx(ctx)
	l.Info().Str("booking", b.ID).Str("from", string(ch.From)).Str("to", string(ch.To)).Msg("booking transition")

	res := TransitionResult{Booking: ch.Booking, From: ch.From, To: ch.To, RefundRequired: ch.RefundRequired, Next: []domain.Status{}}
	if !lifecycle.IsTerminal(ch.To) {
		res.Next = lifecycle.Allowed(ch.To)
	}
	if ch.RefundRequired {
		res.RefundRequested = s.requestRefund(ctx, ch.Booking)
	}
	return res, nil
}

func (s *BookingService) requestRefund(ctx context.Context, b domain.Booking) bool {
	l := zerolog.Ctx(ctx)
	if s.payments == nil || b.PaymentIntent == "" {
		l.Warn().Str("booking", b.ID).Msg("refund required but no payment intent to refund")
		return false
	}
	if err := s.payments.RequestRefund(ctx, b.PaymentIntent); err != nil {
		l.Error().Err(err).Str("booking", b.ID).Str("intent", b.PaymentIntent).Msg("refund request failed")
		return false
	}
	return true
}

// PaymentOutcome is what a payment status update did to its booking.
type PaymentOutcome string

const (
	OutcomeConfirmed PaymentOutcome = "confirmed"
	OutcomeCancelled PaymentOutcome = "cancelled"
	OutcomeUnchanged PaymentOutcome = "unchanged"
)

// ApplyPaymentStatus records the payment provider's view of the booking's intent.
// A succeeded intent marks the booking paid and confirms it if pending; a canceled intent
// cancels a pending booking. Repeated updates are no-ops.
func (s *BookingService) ApplyPaymentStatus(ctx context.Context, pi domain.PaymentIntent) (domain.Booking, PaymentOutcome, error) {
	if pi.Status == domain.IntentSucceeded {
		return s.ConfirmPayment(ctx, pi)
	}
	return s.applyPaymentStatus(ctx, pi)
}

// ConfirmPayment marks the booking holding pi as paid. With a payment gateway configured
// the provider's own record of the intent replaces pi before anything is stored; the
// paid amount must equal the booking total.
func (s *BookingService) ConfirmPayment(ctx context.Context, pi domain.PaymentIntent) (domain.Booking, PaymentOutcome, error) {
	if s.payments != nil {
		got, err := s.payments.GetIntent(ctx, pi.ID)
		if err != nil {
			return domain.Booking{}, OutcomeUnchanged, fmt.Errorf("verify intent %s: %w", pi.ID, err)
		}
		pi = got
	}
	return s.applyPaymentStatus(ctx, pi)
}

// applyPaymentStatus trusts pi as given.
func (s *BookingService) applyPaymentStatus(ctx context.Context, pi domain.PaymentIntent) (domain.Booking, PaymentOutcome, error) {
	b, err := s.bookings.GetBookingByPaymentIntent(ctx, pi.ID)
	if err != nil {
		return domain.Booking{}, OutcomeUnchanged, err
	}
	switch pi.Status {
	case domain.IntentSucceeded:
		if pi.Amount != nil && *pi.Amount != b.TotalPrice {
			zerolog.Ctx(ctx).Warn().Str("booking", b.ID).Str("intent", pi.ID).Int64("amount", *pi.Amount).
				Int64("total", b.TotalPrice).Msg("payment amount does not match booking total")
			return b, OutcomeUnchanged, fmt.Errorf("%w: intent %s paid %d, booking %s totals %d",
				domain.ErrConflict, pi.ID, *pi.Amount, b.ID, b.TotalPrice)
		}
		return s.confirmPayment(ctx, b)
	case domain.IntentCanceled:
		if b.Status != domain.StatusPending || b.PaymentStatus {
			return b, OutcomeUnchanged, nil
		}
		res, err := s.apply(ctx, b, domain.StatusCancelled)
		if err != nil {
			return b, OutcomeUnchanged, err
		}
		return res.Booking, OutcomeCancelled, nil
	}
	return b, OutcomeUnchanged, nil
}

func (s *BookingService) confirmPayment(ctx context.Context, b domain.Booking) (domain.Booking, PaymentOutcome, error) {
	if b.PaymentStatus && b.Status != domain.StatusPending {
		return b, OutcomeUnchanged, nil
	}
	b.PaymentStatus = true
	if b.Status != domain.StatusPending {
		// paid late, e.g. after a cancellation: record the payment only
		if err := s.bookings.SaveBooking(ctx, b); err != nil {
			return domain.Booking{}, OutcomeUnchanged, fmt.Errorf("save booking %s: %w", b.ID, err)
		}
		return b, OutcomeUnchanged, nil
	}
	res, err := s.apply(ctx, b, domain.StatusConfirmed)
	if err != nil {
		return domain.Booking{}, OutcomeUnchanged, err
	}
	return res.Booking, OutcomeConfirmed, nil
}

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", domain.ValidationErrors{{Field: "format", Reason: "format must be csv or xlsx"}}
	}
}

// Export writes the managed bookings view, filtered and sorted by cfg, in format.
func (s *BookingService) Export(ctx context.Context, id domain.Identity, hotelID *int64, cfg query.Config, format ExportFormat, cols []report.Column, w io.Writer) error {
	p, err := s.ListManagedBookings(ctx, id, hotelID, cfg)
	if err != nil {
		return err
	}
	switch format {
	case FormatXLSX:
		return report.ToWorkbook(w, p.Items, cols)
	default:
		return report.ToDelimitedText(w, p.Items, cols)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
