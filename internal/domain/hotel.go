package domain

import "time"

type Hotel struct {
	ID                  int64     `json:"id"`
	UserID              string    `json:"userId" validate:"required"`
	Title               string    `json:"title" validate:"required,min=3,max=100"`
	Description         *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Image               *string   `json:"image,omitempty" validate:"omitempty,url"`
	Country             *string   `json:"country,omitempty"`
	State               *string   `json:"state,omitempty"`
	City                *string   `json:"city,omitempty"`
	LocationDescription *string   `json:"locationDescription,omitempty"`
	Gym                 bool      `json:"gym"`
	Spa                 bool      `json:"spa"`
	Bar                 bool      `json:"bar"`
	Laundry             bool      `json:"laundry"`
	Restaurant          bool      `json:"restaurant"`
	Shopping            bool      `json:"shopping"`
	FreeParking         bool      `json:"freeParking"`
	BikeRental          bool      `json:"bikeRental"`
	FreeWifi            bool      `json:"freeWifi"`
	MovieNights         bool      `json:"movieNights"`
	SwimmingPool        bool      `json:"swimmingPool"`
	CoffeeShop          bool      `json:"coffeeShop"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Amenity names in display order.
var Amenities = []string{
	"gym", "spa", "bar", "laundry", "restaurant", "shopping",
	"freeParking", "bikeRental", "freeWifi", "movieNights", "swimmingPool", "coffeeShop",
}

func (h Hotel) amenityFlags() []bool {
	return []bool{
		h.Gym, h.Spa, h.Bar, h.Laundry, h.Restaurant, h.Shopping,
		h.FreeParking, h.BikeRental, h.FreeWifi, h.MovieNights, h.SwimmingPool, h.CoffeeShop,
	}
}

// AmenityList returns the enabled amenities in the order of Amenities.
func (h Hotel) AmenityList() []string {
	return pickFlags(Amenities, h.amenityFlags())
}

// HasAmenity reports whether the named amenity is enabled. Unknown names are false.
func (h Hotel) HasAmenity(name string) bool {
	flags := h.amenityFlags()
	for i, a := range Amenities {
		if a == name {
			return flags[i]
		}
	}
	return false
}

// Location joins country, state and city; empty when none is set.
func (h Hotel) Location() string {
	return joinNonEmpty(", ", deref(h.Country), deref(h.State), deref(h.City))
}

// HotelListing is a hotel with the room summary the list screens sort and filter on.
type HotelListing struct {
	Hotel
	RoomCount    int    `json:"roomCount"`
	MinRoomPrice *int64 `json:"minRoomPrice,omitempty"`
}

// HotelDetail is a hotel together with its rooms.
type HotelDetail struct {
	Hotel
	Amenities []string `json:"amenities"`
	Rooms     []Room   `json:"rooms"`
}

type HotelSummary struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	City   *string `json:"city,omitempty"`
	UserID string  `json:"userId"`
}

func (h Hotel) Summary() HotelSummary {
	return HotelSummary{ID: h.ID, Title: h.Title, City: h.City, UserID: h.UserID}
}

func pickFlags(names []string, flags []bool) []string {
	out := make([]string, 0, len(names))
	for i, on := range flags {
		if on {
			out = append(out, names[i])
		}
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
