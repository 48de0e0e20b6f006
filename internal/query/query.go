// Package query is the filter and sort pipeline shared by every list screen. A Schema
// binds field names to accessors for one entity type; a Config says what to keep and
// how to order it.
package query

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

type Direction int

const (
	DirDefault Direction = iota // the sort key's natural direction
	Asc
	Desc
)

type Op int

const (
	// Equals matches when the field equals any of the values, ignoring case.
	Equals Op = iota
	// Contains matches when the field contains any of the values, ignoring case.
	Contains
)

type FieldFilter struct {
	Field  string
	Op     Op
	Values []string
}

// DateRange keeps records whose start field is >= From and whose end field is <= To.
// Both bounds are inclusive; a nil bound is not applied.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// NumericRange bounds the schema's numeric field, inclusive.
type NumericRange struct {
	Min *int64
	Max *int64
}

type Config struct {
	SearchText string
	// SearchFields overrides Schema.SearchFields when set.
	SearchFields  []string
	Filters       []FieldFilter
	DateRange     *DateRange
	NumericRange  *NumericRange
	SortKey       string
	SortDirection Direction
}

// Field reads one value from a record. It returns string, bool, int64, time.Time,
// []string or nil when the value is absent.
type Field[T any] func(T) any

type SortKey struct {
	Field     string
	Direction Direction
}

type Schema[T any] struct {
	Name         string
	ID           Field[T]
	Fields       map[string]Field[T]
	SearchFields []string
	DateStart    string
	DateEnd      string
	NumericField string
	SortKeys     map[string]SortKey
	// Params maps query-string keys to field filters, see ParseValues.
	Params map[string]Param
}

// Apply filters and sorts items according to cfg. The input slice is not modified.
// Records tie on the sort key are ordered by ID, and records with no sort value come
// last whatever the direction. Unknown sort keys fall back to ID order.
func Apply[T any](items []T, s Schema[T], cfg Config) []T {
	out := make([]T, 0, len(items))
	needle := strings.ToLower(strings.TrimSpace(cfg.SearchText))
	searchFields := s.SearchFields
	if len(cfg.SearchFields) > 0 {
		searchFields = cfg.SearchFields
	}
	for _, it := range items {
		if needle != "" && !s.search(it, searchFields, needle) {
			continue
		}
		if !s.matchFilters(it, cfg.Filters) {
			continue
		}
		if cfg.DateRange != nil && !s.inDateRange(it, *cfg.DateRange) {
			continue
		}
		if cfg.NumericRange != nil && !s.inNumericRange(it, *cfg.NumericRange) {
			continue
		}
		out = append(out, it)
	}
	slices.SortStableFunc(out, s.comparator(cfg))
	return out
}

func (s Schema[T]) value(it T, field string) any {
	f, ok := s.Fields[field]
	if !ok {
		return nil
	}
	return f(it)
}

func (s Schema[T]) search(it T, fields []string, needle string) bool {
	for _, f := range fields {
		for _, c := range candidates(s.value(it, f)) {
			if strings.Contains(strings.ToLower(c), needle) {
				return true
			}
		}
	}
	return false
}

func (s Schema[T]) matchFilters(it T, filters []FieldFilter) bool {
	for _, ff := range filters {
		if len(ff.Values) == 0 {
			continue
		}
		if !match(s.value(it, ff.Field), ff.Op, ff.Values) {
			return false
		}
	}
	return true
}

func match(v any, op Op, values []string) bool {
	for _, c := range candidates(v) {
		lc := strings.ToLower(c)
		for _, want := range values {
			lw := strings.ToLower(want)
			switch op {
			case Equals:
				if lc == lw {
					return true
				}
			case Contains:
				if strings.Contains(lc, lw) {
					return true
				}
			}
		}
	}
	return false
}

func (s Schema[T]) inDateRange(it T, r DateRange) bool {
	if r.From != nil {
		start, ok := s.value(it, s.DateStart).(time.Time)
		if !ok || start.Before(*r.From) {
			return false
		}
	}
	if r.To != nil {
		endField := s.DateEnd
		if endField == "" {
			endField = s.DateStart
		}
		end, ok := s.value(it, endField).(time.Time)
		if !ok || end.After(*r.To) {
			return false
		}
	}
	return true
}

func (s Schema[T]) inNumericRange(it T, r NumericRange) bool {
	if r.Min == nil && r.Max == nil {
		return true
	}
	n, ok := asInt(s.value(it, s.NumericField))
	if !ok {
		return false
	}
	if r.Min != nil && n < *r.Min {
		return false
	}
	if r.Max != nil && n > *r.Max {
		return false
	}
	return true
}

func (s Schema[T]) comparator(cfg Config) func(a, b T) int {
	key, hasKey := s.SortKeys[cfg.SortKey]
	dir := key.Direction
	if cfg.SortDirection != DirDefault {
		dir = cfg.SortDirection
	}
	field := s.Fields[key.Field]
	if field == nil {
		hasKey = false
	}
	return func(a, b T) int {
		if hasKey {
			va, vb := field(a), field(b)
			switch {
			case va == nil && vb == nil:
			case va == nil:
				return 1
			case vb == nil:
				return -1
			default:
				c := compare(va, vb)
				if dir == Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
		}
		if s.ID == nil {
			return 0
		}
		return compare(s.ID(a), s.ID(b))
	}
}

// compare orders two values of the same dynamic type; mismatched types compare equal.
func compare(a, b any) int {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0
		}
		if c := strings.Compare(strings.ToLower(x), strings.ToLower(y)); c != 0 {
			return c
		}
		return strings.Compare(x, y)
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0
		}
		return x.Compare(y)
	case bool:
		y, ok := b.(bool)
		if !ok || x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	}
	x, okA := asInt(a)
	y, okB := asInt(b)
	if !okA || !okB {
		return 0
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// candidates renders a field value as the strings filters and search compare against.
func candidates(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return []string{x}
	case []string:
		return x
	case bool:
		return []string{strconv.FormatBool(x)}
	case int64:
		return []string{strconv.FormatInt(x, 10)}
	case int:
		return []string{strconv.Itoa(x)}
	case time.Time:
		return []string{x.Format(time.RFC3339)}
	}
	return nil
}

// Accessor helpers that keep absent values as untyped nil.

func OptString(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

func OptTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func OptInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func NonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
