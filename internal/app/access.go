package app

import "hotel_booking/internal/domain"

// Authorization is decided here from the caller's identity; authentication itself
// happens upstream.

func requireAuth(id domain.Identity) error {
	if !id.Authenticated() {
		return domain.ErrUnauthorized
	}
	return nil
}

// canManageHotel: the hotel's owner, or an admin.
func canManageHotel(id domain.Identity, ownerID string) bool {
	return id.Role == domain.RoleAdmin || (ownerID != "" && id.UserID == ownerID)
}

// canViewBooking: the guest, the hotel owner, or staff.
func canViewBooking(id domain.Identity, b domain.Booking) bool {
	return id.Staff() || id.UserID == b.UserID || (b.HotelOwnerID != "" && id.UserID == b.HotelOwnerID)
}

// canTransition: staff and the hotel owner may move a booking anywhere the lifecycle
// allows; the guest may only cancel their own booking.
func canTransition(id domain.Identity, b domain.Booking, to domain.Status) bool {
	if id.Staff() || (b.HotelOwnerID != "" && id.UserID == b.HotelOwnerID) {
		return true
	}
	return id.UserID == b.UserID && to == domain.StatusCancelled
}
