package query

import (
	"fmt"
	"slices"
	"strings"

	"hotel_booking/internal/domain"
)

// Hotel sort keys.
const (
	HotelSortName      = "name"
	HotelSortDateAdded = "date-added"
	HotelSortRoomCount = "room-count"
	HotelSortLocation  = "location"
)

// HotelSchema serves the guest search and the owner's hotel list.
var HotelSchema = Schema[domain.HotelListing]{
	Name: "hotel",
	ID:   func(h domain.HotelListing) any { return h.ID },
	Fields: map[string]Field[domain.HotelListing]{
		"id":                  func(h domain.HotelListing) any { return h.ID },
		"userId":              func(h domain.HotelListing) any { return NonEmpty(h.UserID) },
		"title":               func(h domain.HotelListing) any { return NonEmpty(h.Title) },
		"description":         func(h domain.HotelListing) any { return OptString(h.Description) },
		"locationDescription": func(h domain.HotelListing) any { return OptString(h.LocationDescription) },
		"country":             func(h domain.HotelListing) any { return OptString(h.Country) },
		"state":               func(h domain.HotelListing) any { return OptString(h.State) },
		"city":                func(h domain.HotelListing) any { return OptString(h.City) },
		"location":            func(h domain.HotelListing) any { return NonEmpty(h.Location()) },
		"amenities":           func(h domain.HotelListing) any { return h.AmenityList() },
		"createdAt":           func(h domain.HotelListing) any { return h.CreatedAt },
		"roomCount":           func(h domain.HotelListing) any { return int64(h.RoomCount) },
		"minRoomPrice":        func(h domain.HotelListing) any { return OptInt(h.MinRoomPrice) },
	},
	SearchFields: []string{"title", "description", "locationDescription"},
	DateStart:    "createdAt",
	NumericField: "minRoomPrice",
	SortKeys: map[string]SortKey{
		HotelSortName:      {Field: "title", Direction: Asc},
		HotelSortDateAdded: {Field: "createdAt", Direction: Desc},
		HotelSortRoomCount: {Field: "roomCount", Direction: Desc},
		HotelSortLocation:  {Field: "location", Direction: Asc},
	},
	Params: map[string]Param{
		"country": {Field: "country", Op: Equals},
		"state":   {Field: "state", Op: Equals},
		"city":    {Field: "city", Op: Equals},
		"owner":   {Field: "userId", Op: Equals},
		"amenity": {Field: "amenities", Op: Equals, Normalize: normalizeAmenity},
	},
}

func normalizeAmenity(raw string) (string, bool, error) {
	if i := slices.IndexFunc(domain.Amenities, func(a string) bool { return strings.EqualFold(a, raw) }); i >= 0 {
		return domain.Amenities[i], true, nil
	}
	return "", false, fmt.Errorf("unknown amenity %q", raw)
}
