package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/payments"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
	"hotel_booking/internal/report"
)

const maxBody = 1 << 20

// Handlers serves the v1 API. Payment events are refused unless WebhookSecret is set.
type Handlers struct {
	Hotels        *app.HotelService
	Bookings      *app.BookingService
	WebhookSecret []byte
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/hotels", h.searchHotels)
		r.Post("/hotels", h.createHotel)
		r.Get("/hotels/{id}", h.getHotel)
		r.Put("/hotels/{id}", h.updateHotel)
		r.Delete("/hotels/{id}", h.deleteHotel)
		r.Post("/hotels/{id}/rooms", h.addRoom)
		r.Put("/rooms/{id}", h.updateRoom)
		r.Delete("/rooms/{id}", h.deleteRoom)
		r.Get("/me/hotels", h.myHotels)

		r.Post("/quotes", h.quote)
		r.Post("/bookings", h.createBooking)
		r.Get("/bookings/{id}", h.getBooking)
		r.Post("/bookings/{id}/transitions", h.transition)
		r.Get("/me/bookings", h.myBookings)
		r.Get("/manage/bookings", h.managedBookings)
		r.Get("/manage/bookings/export", h.exportBookings)

		r.Post("/payments/events", h.paymentEvent)
	})
}

// ---- helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ValidationErrors{{Field: "body", Reason: "malformed JSON: " + err.Error()}}
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

// ---- hotels ----

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	cfg, err := query.ParseValues(query.HotelSchema, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Hotels.SearchHotels(r.Context(), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(out))
}

func (h *Handlers) myHotels(w http.ResponseWriter, r *http.Request) {
	cfg, err := query.ParseValues(query.HotelSchema, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Hotels.ListOwnerHotels(r.Context(), identityFrom(r.Context()), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(out))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.Hotels.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	etag, body := calcETagAndBody(resp)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in domain.Hotel
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Hotels.CreateHotel(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/hotels/%d", out.ID))
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.Hotel
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = id
	out, err := h.Hotels.UpdateHotel(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Hotels.DeleteHotel(r.Context(), identityFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) addRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.Room
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Hotels.AddRoom(r.Context(), identityFrom(r.Context()), hotelID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.Room
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = id
	out, err := h.Hotels.UpdateRoom(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Hotels.DeleteRoom(r.Context(), identityFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- bookings ----

// stayBody accepts dates as RFC 3339 timestamps or plain YYYY-MM-DD.
type stayBody struct {
	RoomID            int64  `json:"roomId"`
	CheckIn           string `json:"checkIn"`
	CheckOut          string `json:"checkOut"`
	Guests            int    `json:"guests"`
	BreakfastIncluded bool   `json:"breakfastIncluded"`
}

func (b stayBody) toRequest() (app.StayRequest, error) {
	var errs domain.ValidationErrors
	if b.RoomID <= 0 {
		errs = append(errs, domain.ValidationError{Field: "roomId", Reason: "roomId is required"})
	}
	if b.Guests < 0 {
		errs = append(errs, domain.ValidationError{Field: "guests", Reason: "guests must be >= 0"})
	}
	in, err := query.ParseDate(strings.TrimSpace(b.CheckIn))
	if err != nil {
		errs = append(errs, domain.ValidationError{Field: "checkIn", Reason: err.Error()})
	}
	out, err := query.ParseDate(strings.TrimSpace(b.CheckOut))
	if err != nil {
		errs = append(errs, domain.ValidationError{Field: "checkOut", Reason: err.Error()})
	}
	if len(errs) > 0 {
		return app.StayRequest{}, errs
	}
	return app.StayRequest{RoomID: b.RoomID, CheckIn: in, CheckOut: out, Guests: b.Guests, BreakfastIncluded: b.BreakfastIncluded}, nil
}

type bookingBody struct {
	stayBody
	UserName      string `json:"userName"`
	UserEmail     string `json:"userEmail"`
	Currency      string `json:"currency"`
	PaymentIntent string `json:"paymentIntent"`
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	var in stayBody
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := in.toRequest()
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.Bookings.Quote(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var in bookingBody
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	stay, err := in.toRequest()
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.CreateBooking(r.Context(), identityFrom(r.Context()), app.BookingRequest{
		StayRequest:   stay,
		UserName:      in.UserName,
		UserEmail:     in.UserEmail,
		Currency:      in.Currency,
		PaymentIntent: in.PaymentIntent,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.GetBooking(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	to, err := domain.ParseStatus(in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Bookings.Transition(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"), to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	cfg, err := query.ParseValues(query.BookingSchema, r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Bookings.ListMyBookings(r.Context(), identityFrom(r.Context()), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page(p))
}

// managedScope reads the query plus an optional single ?hotel= that also narrows the
// access check to that hotel.
func managedScope(r *http.Request) (query.Config, *int64, error) {
	v := r.URL.Query()
	cfg, err := query.ParseValues(query.BookingSchema, v)
	if err != nil {
		return query.Config{}, nil, err
	}
	if hs := v["hotel"]; len(hs) == 1 && !strings.Contains(hs[0], ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(hs[0]), 10, 64)
		if err != nil {
			return query.Config{}, nil, domain.ValidationErrors{{Field: "hotel", Reason: "hotel must be a number"}}
		}
		return cfg, &id, nil
	}
	return cfg, nil, nil
}

func (h *Handlers) managedBookings(w http.ResponseWriter, r *http.Request) {
	cfg, hotelID, err := managedScope(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Bookings.ListManagedBookings(r.Context(), identityFrom(r.Context()), hotelID, cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page(p))
}

type bookingPage struct {
	Items      []domain.Booking            `json:"items"`
	Count      int                         `json:"count"`
	Aggregates report.Aggregates           `json:"aggregates"`
	ByHotel    map[int64]report.Aggregates `json:"byHotel,omitempty"`
}

func page(p app.BookingPage) bookingPage {
	items := p.Items
	if items == nil {
		items = []domain.Booking{}
	}
	return bookingPage{Items: items, Count: len(items), Aggregates: p.Aggregates, ByHotel: p.ByHotel}
}

var exportTypes = map[app.ExportFormat]string{
	app.FormatCSV:  "text/csv; charset=utf-8",
	app.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (h *Handlers) exportBookings(w http.ResponseWriter, r *http.Request) {
	format, err := app.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var keys []string
	for _, c := range strings.Split(r.URL.Query().Get("columns"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			keys = append(keys, c)
		}
	}
	cols, err := report.ColumnsByKey(keys)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cfg, hotelID, err := managedScope(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// buffered so a failure can still become a problem response
	var buf bytes.Buffer
	if err := h.Bookings.Export(r.Context(), identityFrom(r.Context()), hotelID, cfg, format, cols, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", exportTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings.%s"`, format))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("failed to write export body")
	}
}

// ---- payments ----

func (h *Handlers) paymentEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error())
		return
	}
	if err := payments.VerifySignature(h.WebhookSecret, body, r.Header.Get(payments.SignatureHeader)); err != nil {
		log.Ctx(r.Context()).Warn().Msg("payment event rejected: bad signature")
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	ev, err := payments.ParseEvent(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var (
		b       domain.Booking
		outcome app.PaymentOutcome
	)
	if ev.Succeeded() {
		b, outcome, err = h.Bookings.ConfirmPayment(r.Context(), ev.Intent)
	} else {
		b, outcome, err = h.Bookings.ApplyPaymentStatus(r.Context(), ev.Intent)
	}
	if errors.Is(err, domain.ErrNotFound) {
		// unknown intents are acknowledged so the provider stops retrying
		writeJSON(w, http.StatusOK, map[string]string{"outcome": string(app.OutcomeUnchanged)})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcome, "bookingId": b.ID, "status": b.Status})
}
