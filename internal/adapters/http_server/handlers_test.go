package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/adapters/payments"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
)

var webhookSecret = []byte("whsec_test")

type api struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T, o Options) *api {
	t.Helper()
	repo := memory.New()
	s := New(o)
	s.MountHandlers(&Handlers{
		Hotels:        app.NewHotelService(repo, memory.NewCache(), time.Minute),
		Bookings:      app.NewBookingService(repo, repo, nil),
		WebhookSecret: webhookSecret,
	})
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return &api{t: t, srv: ts}
}

func (a *api) do(method, path, user, role string, body any, hdr ...string) *http.Response {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(a.t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
		req.Header.Set(HeaderUserRole, role)
		req.Header.Set(HeaderUserName, strings.ToUpper(user[:1])+user[1:])
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// event posts a payment event signed with webhookSecret.
func (a *api) event(body string) *http.Response {
	a.t.Helper()
	return a.do("POST", "/v1/payments/events", "", "", body, payments.SignatureHeader, payments.Sign(webhookSecret, []byte(body)))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (a *api) seed() (hotelID, roomID int64) {
	a.t.Helper()
	resp := a.do("POST", "/v1/hotels", "olga", "owner", map[string]any{"title": "Sea Breeze", "city": "Lagos", "spa": true})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	h := decode[domain.HotelDetail](a.t, resp)

	resp = a.do("POST", "/v1/hotels/"+itoa(h.ID)+"/rooms", "olga", "owner",
		map[string]any{"title": "Deluxe", "roomPrice": 150, "breakfastPrice": 20, "available": true})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	r := decode[domain.Room](a.t, resp)
	return h.ID, r.ID
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestHealthz(t *testing.T) {
	a := newAPI(t, Options{Logger: zerolog.Nop()})
	resp := a.do("GET", "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHotels_CreateGetETagAndSearch(t *testing.T) {
	a := newAPI(t, Options{Logger: zerolog.Nop()})
	hid, _ := a.seed()

	resp := a.do("GET", "/v1/hotels/"+itoa(hid), "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	h := decode[domain.HotelDetail](t, resp)
	assert.Equal(t, []string{"spa"}, h.Amenities)
	require.Len(t, h.Rooms, 1)

	resp = a.do("GET", "/v1/hotels/"+itoa(hid), "", "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = a.do("GET", "/v1/hotels?amenity=spa&maxPrice=200&sort=name", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[listResponse[domain.HotelListing]](t, resp)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, 1, page.Items[0].RoomCount)

	resp = a.do("GET", "/v1/hotels?sort=stars", "", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	resp = a.do("GET", "/v1/hotels/abc", "", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = a.do("GET", "/v1/hotels/999", "", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHotels_AuthAndValidation(t *testing.T) {
	a := newAPI(t, Options{Logger: zerolog.Nop()})
	hid, rid := a.seed()

	resp := a.do("POST", "/v1/hotels", "", "", map[string]any{"title": "Anonymous"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do("POST", "/v1/hotels", "olga", "owner", map[string]any{"title": "ab"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	p := decode[problem](t, resp)
	require.NotEmpty(t, p.Errors)
	assert.Equal(t, "title", p.Errors[0].Field)

	resp = a.do("POST", "/v1/hotels", "olga", "owner", `{"title":"Sea","unknown":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = a.do("PUT", "/v1/hotels/"+itoa(hid), "omar", "owner", map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do("PUT", "/v1/rooms/"+itoa(rid), "olga", "owner", map[string]any{"title": "Deluxe", "roomPrice": 175, "available": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(175), decode[domain.Room](t, resp).RoomPrice)

	resp = a.do("GET", "/v1/me/hotels", "olga", "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[listResponse[domain.HotelListing]](t, resp).Count)

	resp = a.do("DELETE", "/v1/rooms/"+itoa(rid), "olga", "owner", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = a.do("DELETE", "/v1/hotels/"+itoa(hid), "olga", "owner", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBookings_FlowOverHTTP(t *testing.T) {
	a := newAPI(t, Options{Logger: zerolog.Nop()})
	_, rid := a.seed()

	resp := a.do("POST", "/v1/quotes", "", "", map[string]any{
		"roomId": rid, "checkIn": "2030-06-01", "checkOut": "2030-06-04", "guests": 2, "breakfastIncluded": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	q := decode[map[string]int64](t, resp)
	assert.Equal(t, int64(510), q["total"])

	resp = a.do("POST", "/v1/quotes", "", "", map[string]any{"roomId": rid, "checkIn": "2030-06-04", "checkOut": "2030-06-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = a.do("POST", "/v1/bookings", "ana", "guest", map[string]any{
		"roomId": rid, "checkIn": "2030-06-01", "checkOut": "2030-06-04", "paymentIntent": "pi_1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	b := decode[domain.Booking](t, resp)
	assert.Equal(t, int64(450), b.TotalPrice)
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.Equal(t, "Ana", b.UserName)

	resp = a.do("GET", "/v1/bookings/"+b.ID, "bo", "guest", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do("POST", "/v1/bookings/"+b.ID+"/transitions", "olga", "owner", map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "unpaid booking cannot be confirmed")

	resp = a.do("POST", "/v1/bookings/"+b.ID+"/transitions", "olga", "owner", map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = a.event(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded","amount":450}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ev := decode[map[string]string](t, resp)
	assert.Equal(t, "confirmed", ev["outcome"])

	resp = a.event(`{"type":"payment_intent.succeeded","payment_intent":"pi_unknown"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do("GET", "/v1/me/bookings?status=confirmed", "ana", "guest", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decode[bookingPage](t, resp)
	require.Equal(t, 1, mine.Count)
	assert.True(t, mine.Items[0].PaymentStatus)

	resp = a.do("GET", "/v1/manage/bookings?payment=paid&sort=price-high", "olga", "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	managed := decode[bookingPage](t, resp)
	assert.Equal(t, 1, managed.Aggregates.Paid)
	assert.Equal(t, int64(450), managed.Aggregates.Revenue)

	resp = a.do("GET", "/v1/manage/bookings?hotel=1", "omar", "owner", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do("POST", "/v1/bookings/"+b.ID+"/transitions", "ana", "guest", map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[app.TransitionResult](t, resp)
	assert.True(t, res.RefundRequired)
	assert.False(t, res.RefundRequested, "no payment gateway configured")
}

func TestPaymentEvents_RequireSignatureAndFullAmount(t *testing.T) {
	a := newAPI(t, Options{Logger: zerolog.Nop()})
	_, rid := a.seed()
	resp := a.do("POST", "/v1/bookings", "gus", "guest", map[string]any{
		"roomId": rid, "checkIn": "2030-06-01", "checkOut": "2030-06-04", "paymentIntent": "pi_self",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	b := decode[domain.Booking](t, resp)
	require.Equal(t, int64(450), b.TotalPrice)

	forged := `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_self","status":"succeeded","amount":1}}}`
	resp = a.do("POST", "/v1/payments/events", "", "", forged)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "unsigned")
	resp = a.do("POST", "/v1/payments/events", "", "", forged, payments.SignatureHeader, payments.Sign([]byte("guessed"), []byte(forged)))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "signed with the wrong secret")

	resp = a.event(forged)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "signed, but short of the total")

	resp = a.do("GET", "/v1/bookings/"+b.ID, "gus", "guest", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[domain.Booking](t, resp)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.False(t, got.PaymentStatus)
}

func TestPaymentEvents_RejectedWithoutSecret(t *testing.T) {
	repo := memory.New()
	s := New(Options{Logger: zerolog.Nop()})
	s.MountHandlers(&Handlers{
		Hotels:   app.NewHotelService(repo, memory.NewCache(), time.Minute),
		Bookings: app.NewBookingService(repo, repo, nil),
	})
	body := `{"type":"payment_intent.succeeded","payment_intent":"pi_1"}`
	req := httptest.NewRequest("POST", "/v1/payments/events", strings.NewReader(body))
	req.Header.Set(payments.SignatureHeader, payments.Sign(nil, []byte(body)))
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExport(t *testing.T) {
	a := newAPI(t, Options{Logger: zerolog.Nop()})
	_, rid := a.seed()
	a.do("POST", "/v1/bookings", "ana", "guest", map[string]any{"roomId": rid, "checkIn": "2030-06-01", "checkOut": "2030-06-04", "userName": "Smith, Ana"})

	resp := a.do("GET", "/v1/manage/bookings/export?format=csv&columns=guest,total", "olga", "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "bookings.csv")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Guest Name,Total Price\n\"Smith, Ana\",450\n", string(body))

	resp = a.do("GET", "/v1/manage/bookings/export?format=xlsx", "olga", "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))

	resp = a.do("GET", "/v1/manage/bookings/export?format=pdf", "olga", "owner", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = a.do("GET", "/v1/manage/bookings/export", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	a := newAPI(t, Options{Logger: zerolog.Nop(), RateRPS: 0.001, RateBurst: 2})
	assert.Equal(t, http.StatusOK, a.do("GET", "/healthz", "", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, a.do("GET", "/healthz", "", "", nil).StatusCode)
	resp := a.do("GET", "/healthz", "", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}
