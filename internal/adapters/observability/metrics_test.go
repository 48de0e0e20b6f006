package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hotel_booking/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveTransition("pending", "confirmed")
	observability.ObserveReconcile("unchanged")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"hotel_booking_http_requests_total",
		`hotel_booking_booking_transitions_total{from="pending",to="confirmed"}`,
		"hotel_booking_reconcile_outcomes_total",
		"hotel_booking_bookings_created_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	if l := observability.NewLogger("prod", "debug"); l.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("level: %v", l.GetLevel())
	}
	if l := observability.NewLogger("dev", "bogus"); l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("fallback level: %v", l.GetLevel())
	}
}

func TestServeDisabledWithoutAddr(t *testing.T) {
	if srv := observability.Serve("", observability.InitRegistry()); srv != nil {
		t.Fatalf("expected nil server")
	}
}
