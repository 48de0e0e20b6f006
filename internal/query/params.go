package query

import (
	"errors"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"hotel_booking/internal/domain"
)

// Param binds a query-string key to a field filter. Normalize may rewrite or reject each
// raw value; returning ok=false drops the value (e.g. "all").
type Param struct {
	Field     string
	Op        Op
	Normalize func(raw string) (value string, ok bool, err error)
}

// Reserved query-string keys understood by every schema.
const (
	KeySearch = "q"
	KeySort   = "sort"
	KeyDir    = "dir"
	KeyFrom   = "from"
	KeyTo     = "to"
	KeyMin    = "minPrice"
	KeyMax    = "maxPrice"
)

// ParseValues builds a Config from URL query values. Multiple values for one key may be
// repeated or comma-separated. Unknown keys are ignored; malformed values, unknown sort
// keys and directions are reported together as ValidationErrors.
func ParseValues[T any](s Schema[T], v url.Values) (Config, error) {
	var (
		cfg  Config
		errs domain.ValidationErrors
	)

	cfg.SearchText = strings.TrimSpace(v.Get(KeySearch))

	if key := strings.TrimSpace(v.Get(KeySort)); key != "" {
		if _, ok := s.SortKeys[key]; !ok {
			errs = append(errs, domain.ValidationError{Field: KeySort, Reason: "unknown sort key " + strconv.Quote(key)})
		} else {
			cfg.SortKey = key
		}
	}
	switch d := strings.ToLower(strings.TrimSpace(v.Get(KeyDir))); d {
	case "":
	case "asc":
		cfg.SortDirection = Asc
	case "desc":
		cfg.SortDirection = Desc
	default:
		errs = append(errs, domain.ValidationError{Field: KeyDir, Reason: "dir must be asc or desc"})
	}

	var dr DateRange
	if raw := strings.TrimSpace(v.Get(KeyFrom)); raw != "" {
		if t, err := ParseDate(raw); err != nil {
			errs = append(errs, domain.ValidationError{Field: KeyFrom, Reason: err.Error()})
		} else {
			dr.From = &t
		}
	}
	if raw := strings.TrimSpace(v.Get(KeyTo)); raw != "" {
		if t, err := parseUntil(raw); err != nil {
			errs = append(errs, domain.ValidationError{Field: KeyTo, Reason: err.Error()})
		} else {
			dr.To = &t
		}
	}
	if dr.From != nil || dr.To != nil {
		cfg.DateRange = &dr
	}

	var nr NumericRange
	for _, b := range []struct {
		key string
		dst **int64
	}{{KeyMin, &nr.Min}, {KeyMax, &nr.Max}} {
		raw := strings.TrimSpace(v.Get(b.key))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			errs = append(errs, domain.ValidationError{Field: b.key, Reason: b.key + " must be a non-negative integer"})
			continue
		}
		*b.dst = &n
	}
	if nr.Min != nil || nr.Max != nil {
		cfg.NumericRange = &nr
	}

	for _, key := range slices.Sorted(maps.Keys(s.Params)) {
		p := s.Params[key]
		var values []string
		for _, raw := range splitValues(v[key]) {
			val, ok := raw, true
			if p.Normalize != nil {
				var err error
				val, ok, err = p.Normalize(raw)
				if err != nil {
					errs = append(errs, domain.ValidationError{Field: key, Reason: err.Error()})
					continue
				}
			}
			if ok {
				values = append(values, val)
			}
		}
		if len(values) > 0 {
			cfg.Filters = append(cfg.Filters, FieldFilter{Field: p.Field, Op: p.Op, Values: values})
		}
	}

	if len(errs) > 0 {
		return Config{}, errs
	}
	return cfg, nil
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

// parseUntil is ParseDate for upper bounds: a plain date covers that whole day.
func parseUntil(raw string) (time.Time, error) {
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if _, err := time.Parse(time.DateOnly, raw); err == nil {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

var errInvalidDate = errors.New("must be an ISO-8601 date")

func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
