package domain

type Room struct {
	ID             int64   `json:"id"`
	HotelID        *int64  `json:"hotelId,omitempty"` // nil when the hotel was deleted
	Title          string  `json:"title" validate:"required"`
	Description    *string `json:"description,omitempty"`
	BedCount       int     `json:"bedCount" validate:"min=0"`
	GuestCount     int     `json:"guestCount" validate:"min=0"`
	BathroomCount  int     `json:"bathroomCount" validate:"min=0"`
	KingBed        int     `json:"kingBed" validate:"min=0"`
	QueenBed       int     `json:"queenBed" validate:"min=0"`
	BreakfastPrice int64   `json:"breakfastPrice" validate:"min=0"`
	RoomPrice      int64   `json:"roomPrice" validate:"required,gt=0"`
	RoomService    bool    `json:"roomService"`
	TV             bool    `json:"TV"`
	Balcony        bool    `json:"balcony"`
	FreeWifi       bool    `json:"freeWifi"`
	OceanView      bool    `json:"oceanView"`
	ForestView     bool    `json:"forestView"`
	MountainView   bool    `json:"mountainView"`
	AirCondition   bool    `json:"airCondition"`
	SoundProofed   bool    `json:"soundProofed"`
	Image          *string `json:"image,omitempty" validate:"omitempty,url"`
	Available      bool    `json:"available"`
}

// Room feature names in display order.
var RoomFeatures = []string{
	"roomService", "TV", "balcony", "freeWifi", "oceanView",
	"forestView", "mountainView", "airCondition", "soundProofed",
}

// FeatureList returns the enabled features in the order of RoomFeatures.
func (r Room) FeatureList() []string {
	return pickFlags(RoomFeatures, []bool{
		r.RoomService, r.TV, r.Balcony, r.FreeWifi, r.OceanView,
		r.ForestView, r.MountainView, r.AirCondition, r.SoundProofed,
	})
}

type RoomSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	RoomPrice int64  `json:"roomPrice"`
}

func (r Room) Summary() RoomSummary {
	return RoomSummary{ID: r.ID, Title: r.Title, RoomPrice: r.RoomPrice}
}
