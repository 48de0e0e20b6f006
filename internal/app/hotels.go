package app

import (
	"context"
	"fmt"
	"time"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/query"
)

const listingKey = "hotels:all"

func hotelKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }

// HotelService manages hotels and their rooms and serves the public catalogue.
// Hotel detail and the public listing are cached; every write evicts both.
type HotelService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewHotelService(r domain.HotelRepository, c domain.Cache, ttl time.Duration) *HotelService {
	return &HotelService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *HotelService) GetHotel(ctx context.Context, id int64) (domain.HotelDetail, error) {
	key := hotelKey(id)
	var hd domain.HotelDetail
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &hd); ok {
			return hd, nil
		}
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.HotelDetail{}, err
	}
	rooms, err := s.repo.ListRooms(ctx, id)
	if err != nil {
		return domain.HotelDetail{}, fmt.Errorf("list rooms of hotel %d: %w", id, err)
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	hd = domain.HotelDetail{Hotel: h, Amenities: h.AmenityList(), Rooms: rooms}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, hd, int(s.cacheTTL.Seconds()))
	}
	return hd, nil
}

// SearchHotels filters and sorts the public listing.
func (s *HotelService) SearchHotels(ctx context.Context, cfg query.Config) ([]domain.HotelListing, error) {
	var all []domain.HotelListing
	cached := false
	if s.cache != nil {
		cached, _ = s.cache.Get(ctx, listingKey, &all)
	}
	if !cached {
		var err error
		all, err = s.repo.ListHotels(ctx, domain.HotelScope{})
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			_ = s.cache.Set(ctx, listingKey, all, int(s.cacheTTL.Seconds()))
		}
	}
	return query.Apply(all, query.HotelSchema, cfg), nil
}

// ListOwnerHotels is the "my hotels" screen. It reads through to the store.
func (s *HotelService) ListOwnerHotels(ctx context.Context, id domain.Identity, cfg query.Config) ([]domain.HotelListing, error) {
	if err := requireAuth(id); err != nil {
		return nil, err
	}
	mine, err := s.repo.ListHotels(ctx, domain.HotelScope{OwnerID: id.UserID})
	if err != nil {
		return nil, err
	}
	return query.Apply(mine, query.HotelSchema, cfg), nil
}

func (s *HotelService) CreateHotel(ctx context.Context, id domain.Identity, h domain.Hotel) (domain.HotelDetail, error) {
	if err := requireAuth(id); err != nil {
		return domain.HotelDetail{}, err
	}
	h.ID = 0
	h.UserID = id.UserID
	if err := domain.ValidateHotel(h); err != nil {
		return domain.HotelDetail{}, err
	}
	hid, err := s.repo.CreateHotel(ctx, h)
	if err != nil {
		return domain.HotelDetail{}, fmt.Errorf("create hotel: %w", err)
	}
	s.invalidate(ctx, hid)
	return s.GetHotel(ctx, hid)
}

func (s *HotelService) UpdateHotel(ctx context.Context, id domain.Identity, h domain.Hotel) (domain.HotelDetail, error) {
	cur, err := s.ownedHotel(ctx, id, h.ID)
	if err != nil {
		return domain.HotelDetail{}, err
	}
	h.UserID = cur.UserID
	if err := domain.ValidateHotel(h); err != nil {
		return domain.HotelDetail{}, err
	}
	if err := s.repo.UpdateHotel(ctx, h); err != nil {
		return domain.HotelDetail{}, fmt.Errorf("update hotel %d: %w", h.ID, err)
	}
	s.invalidate(ctx, h.ID)
	return s.GetHotel(ctx, h.ID)
}

// DeleteHotel removes the hotel. Its rooms and bookings stay, orphaned.
func (s *HotelService) DeleteHotel(ctx context.Context, id domain.Identity, hotelID int64) error {
	if _, err := s.ownedHotel(ctx, id, hotelID); err != nil {
		return err
	}
	if err := s.repo.DeleteHotel(ctx, hotelID); err != nil {
		return fmt.Errorf("delete hotel %d: %w", hotelID, err)
	}
	s.invalidate(ctx, hotelID)
	return nil
}

func (s *HotelService) AddRoom(ctx context.Context, id domain.Identity, hotelID int64, r domain.Room) (domain.Room, error) {
	if _, err := s.ownedHotel(ctx, id, hotelID); err != nil {
		return domain.Room{}, err
	}
	r.ID = 0
	r.HotelID = &hotelID
	if err := domain.ValidateRoom(r); err != nil {
		return domain.Room{}, err
	}
	rid, err := s.repo.CreateRoom(ctx, r)
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	s.invalidate(ctx, hotelID)
	return s.repo.GetRoom(ctx, rid)
}

func (s *HotelService) UpdateRoom(ctx context.Context, id domain.Identity, r domain.Room) (domain.Room, error) {
	cur, err := s.ownedRoom(ctx, id, r.ID)
	if err != nil {
		return domain.Room{}, err
	}
	r.HotelID = cur.HotelID
	if err := domain.ValidateRoom(r); err != nil {
		return domain.Room{}, err
	}
	if err := s.repo.UpdateRoom(ctx, r); err != nil {
		return domain.Room{}, fmt.Errorf("update room %d: %w", r.ID, err)
	}
	if r.HotelID != nil {
		s.invalidate(ctx, *r.HotelID)
	}
	return s.repo.GetRoom(ctx, r.ID)
}

func (s *HotelService) DeleteRoom(ctx context.Context, id domain.Identity, roomID int64) error {
	cur, err := s.ownedRoom(ctx, id, roomID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete room %d: %w", roomID, err)
	}
	if cur.HotelID != nil {
		s.invalidate(ctx, *cur.HotelID)
	}
	return nil
}

func (s *HotelService) ownedHotel(ctx context.Context, id domain.Identity, hotelID int64) (domain.Hotel, error) {
	if err := requireAuth(id); err != nil {
		return domain.Hotel{}, err
	}
	h, err := s.repo.GetHotel(ctx, hotelID)
	if err != nil {
		return domain.Hotel{}, err
	}
	if !canManageHotel(id, h.UserID) {
		return domain.Hotel{}, domain.ErrForbidden
	}
	return h, nil
}

// ownedRoom loads a room the caller may edit. Orphaned rooms are admin-only.
func (s *HotelService) ownedRoom(ctx context.Context, id domain.Identity, roomID int64) (domain.Room, error) {
	if err := requireAuth(id); err != nil {
		return domain.Room{}, err
	}
	r, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if r.HotelID == nil {
		if id.Role != domain.RoleAdmin {
			return domain.Room{}, domain.ErrForbidden
		}
		return r, nil
	}
	if _, err := s.ownedHotel(ctx, id, *r.HotelID); err != nil {
		return domain.Room{}, err
	}
	return r, nil
}

func (s *HotelService) invalidate(ctx context.Context, hotelID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, hotelKey(hotelID))
	_ = s.cache.Del(ctx, listingKey)
}
