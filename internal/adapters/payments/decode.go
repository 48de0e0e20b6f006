package payments

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"hotel_booking/internal/domain"
)

// Providers disagree on field names; each logical field lists the paths tried in order.
var intentAliases = map[string][]string{
	"id":     {"id", "payment_intent", "intent_id", "intent.id"},
	"status": {"status", "state", "intent.status", "payment_status"},
	"amount": {"amount", "amount_received", "intent.amount", "amount_total"},
}

var eventAliases = map[string][]string{
	"id":     {"id", "event_id"},
	"type":   {"type", "event", "event_type"},
	"object": {"data.object", "data", "intent", "payment_intent"},
}

var statusAliases = map[string]domain.PaymentIntentStatus{
	"succeeded":               domain.IntentSucceeded,
	"success":                 domain.IntentSucceeded,
	"paid":                    domain.IntentSucceeded,
	"complete":                domain.IntentSucceeded,
	"completed":               domain.IntentSucceeded,
	"processing":              domain.IntentProcessing,
	"pending":                 domain.IntentProcessing,
	"requires_payment":        domain.IntentRequiresPayment,
	"requires_payment_method": domain.IntentRequiresPayment,
	"requires_confirmation":   domain.IntentRequiresPayment,
	"requires_action":         domain.IntentRequiresPayment,
	"unpaid":                  domain.IntentRequiresPayment,
	"canceled":                domain.IntentCanceled,
	"cancelled":               domain.IntentCanceled,
	"failed":                  domain.IntentCanceled,
	"expired":                 domain.IntentCanceled,
}

// NormalizeStatus maps a provider status to one of the four modeled states.
// Unknown values report ok=false.
func NormalizeStatus(raw string) (domain.PaymentIntentStatus, bool) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// ParseIntent reads an intent from a loosely shaped provider payload.
func ParseIntent(m map[string]any) domain.PaymentIntent {
	var pi domain.PaymentIntent
	pi.ID = firstAlias(m, intentAliases, "id")
	if s, ok := NormalizeStatus(firstAlias(m, intentAliases, "status")); ok {
		pi.Status = s
	}
	for _, p := range intentAliases["amount"] {
		if n, ok := asInt64(lookupAny(m, p)); ok {
			pi.Amount = &n
			break
		}
	}
	return pi
}

// Event is a provider webhook notification about one intent.
type Event struct {
	ID     string
	Type   string
	Intent domain.PaymentIntent
}

// Succeeded reports whether the event says the intent was paid.
func (e Event) Succeeded() bool { return e.Intent.Status == domain.IntentSucceeded }

// ParseEvent decodes a webhook body. The intent may be nested under data.object, data
// or intent, or be the body itself; its status falls back to the event type suffix
// (payment_intent.succeeded).
func ParseEvent(body []byte) (Event, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return Event{}, domain.ValidationErrors{{Field: "body", Reason: "malformed JSON"}}
	}
	ev := Event{
		ID:   firstAlias(m, eventAliases, "id"),
		Type: firstAlias(m, eventAliases, "type"),
	}
	obj, nested := m, false
	for _, p := range eventAliases["object"] {
		if o, ok := lookupAny(m, p).(map[string]any); ok {
			obj, nested = o, true
			break
		}
	}
	ev.Intent = ParseIntent(obj)
	if !nested {
		// flat body: the top-level id is the event's, the intent id sits beside it
		ev.Intent.ID = ""
		for _, p := range []string{"payment_intent", "intent_id"} {
			if s, ok := lookupAny(m, p).(string); ok && s != "" {
				ev.Intent.ID = s
				break
			}
		}
	}
	if ev.Intent.Status == "" && ev.Type != "" {
		if i := strings.LastIndexAny(ev.Type, "._"); i >= 0 {
			if s, ok := NormalizeStatus(ev.Type[i+1:]); ok {
				ev.Intent.Status = s
			}
		}
	}
	if ev.Intent.ID == "" {
		return Event{}, domain.ValidationErrors{{Field: "payment_intent", Reason: "missing payment intent id"}}
	}
	if ev.Intent.Status == "" {
		return Event{}, domain.ValidationErrors{{Field: "status", Reason: fmt.Sprintf("unrecognised event %q", ev.Type)}}
	}
	return ev, nil
}

// lookupAny is a nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func firstAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s, ok := lookupAny(m, p).(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
