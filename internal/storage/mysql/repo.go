// Package mysql stores hotels, rooms and bookings in MySQL. Deleting a hotel or room
// nulls the references to it (ON DELETE SET NULL), so bookings survive as orphans.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"hotel_booking/internal/domain"
)

const (
	errDupEntry   = 1062
	errNoParentFK = 1452
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
func valNonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func optInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}
func optTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

type scanner interface {
	Scan(dest ...any) error
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- hotels ----

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertHotelSQL, append([]any{h.UserID}, hotelArgs(h)...)...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) error {
	res, err := r.db.ExecContext(ctx, updateHotelSQL, append(hotelArgs(h), h.ID)...)
	if err != nil {
		return err
	}
	return r.affected(ctx, res, "hotels", "hotel", h.ID)
}

func hotelArgs(h domain.Hotel) []any {
	return []any{
		h.Title,
		valStr(h.Description),
		valStr(h.Image),
		valStr(h.Country),
		valStr(h.State),
		valStr(h.City),
		valStr(h.LocationDescription),
		h.Gym, h.Spa, h.Bar, h.Laundry, h.Restaurant, h.Shopping,
		h.FreeParking, h.BikeRental, h.FreeWifi, h.MovieNights, h.SwimmingPool, h.CoffeeShop,
	}
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) error {
	return r.delete(ctx, deleteHotelSQL, "hotel", id)
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.NotFound("hotel", id)
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context, s domain.HotelScope) ([]domain.HotelListing, error) {
	q := listHotelsSQL
	var args []any
	if s.OwnerID != "" {
		q += "WHERE h.user_id = ?\n"
		args = append(args, s.OwnerID)
	}
	rows, err := r.db.QueryContext(ctx, q+listHotelsTail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HotelListing{}
	for rows.Next() {
		var (
			l        domain.HotelListing
			minPrice sql.NullInt64
		)
		h, err := scanHotel(rows, &l.RoomCount, &minPrice)
		if err != nil {
			return nil, err
		}
		l.Hotel = h
		l.MinRoomPrice = optInt64(minPrice)
		out = append(out, l)
	}
	return out, rows.Err()
}

// scanHotel reads hotelColumns followed by any extra destinations.
func scanHotel(row scanner, extra ...any) (domain.Hotel, error) {
	var h domain.Hotel
	var desc, image, country, state, city, ld sql.NullString
	dest := []any{
		&h.ID, &h.UserID, &h.Title, &desc, &image,
		&country, &state, &city, &ld,
		&h.Gym, &h.Spa, &h.Bar, &h.Laundry, &h.Restaurant, &h.Shopping,
		&h.FreeParking, &h.BikeRental, &h.FreeWifi, &h.MovieNights, &h.SwimmingPool, &h.CoffeeShop,
		&h.CreatedAt, &h.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Hotel{}, err
	}
	h.Description = optStr(desc)
	h.Image = optStr(image)
	h.Country = optStr(country)
	h.State = optStr(state)
	h.City = optStr(city)
	h.LocationDescription = optStr(ld)
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	return h, nil
}

// ---- rooms ----

func (r *Repo) CreateRoom(ctx context.Context, room domain.Room) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertRoomSQL, append([]any{valInt64(room.HotelID)}, roomArgs(room)...)...)
	if err != nil {
		var me *mysqldrv.MySQLError
		if errors.As(err, &me) && me.Number == errNoParentFK && room.HotelID != nil {
			return 0, domain.NotFound("hotel", *room.HotelID)
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateRoom(ctx context.Context, room domain.Room) error {
	res, err := r.db.ExecContext(ctx, updateRoomSQL, append(roomArgs(room), room.ID)...)
	if err != nil {
		return err
	}
	return r.affected(ctx, res, "rooms", "room", room.ID)
}

func roomArgs(room domain.Room) []any {
	return []any{
		room.Title,
		valStr(room.Description),
		room.BedCount, room.GuestCount, room.BathroomCount, room.KingBed, room.QueenBed,
		room.BreakfastPrice, room.RoomPrice,
		room.RoomService, room.TV, room.Balcony, room.FreeWifi, room.OceanView,
		room.ForestView, room.MountainView, room.AirCondition, room.SoundProofed,
		valStr(room.Image),
		room.Available,
	}
}

func (r *Repo) DeleteRoom(ctx context.Context, id int64) error {
	return r.delete(ctx, deleteRoomSQL, "room", id)
}

func (r *Repo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, domain.NotFound("room", id)
	}
	return room, err
}

func (r *Repo) ListRooms(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, listRoomsSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func scanRoom(row scanner) (domain.Room, error) {
	var (
		room        domain.Room
		hotelID     sql.NullInt64
		desc, image sql.NullString
	)
	if err := row.Scan(
		&room.ID, &hotelID, &room.Title, &desc,
		&room.BedCount, &room.GuestCount, &room.BathroomCount, &room.KingBed, &room.QueenBed,
		&room.BreakfastPrice, &room.RoomPrice,
		&room.RoomService, &room.TV, &room.Balcony, &room.FreeWifi, &room.OceanView,
		&room.ForestView, &room.MountainView, &room.AirCondition, &room.SoundProofed,
		&image, &room.Available,
	); err != nil {
		return domain.Room{}, err
	}
	room.HotelID = optInt64(hotelID)
	room.Description = optStr(desc)
	room.Image = optStr(image)
	return room, nil
}

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) error {
	_, err := r.db.ExecContext(ctx, insertBookingSQL, append([]any{b.ID}, bookingArgs(b)...)...)
	return conflict(err, b)
}

func (r *Repo) SaveBooking(ctx context.Context, b domain.Booking) error {
	res, err := r.db.ExecContext(ctx, updateBookingSQL, append(bookingArgs(b), b.ID)...)
	if err != nil {
		return conflict(err, b)
	}
	return r.affected(ctx, res, "bookings", "booking", b.ID)
}

func bookingArgs(b domain.Booking) []any {
	return []any{
		b.UserName,
		b.UserEmail,
		b.UserID,
		b.HotelOwnerID,
		valTime(b.CheckIn),
		valTime(b.CheckOut),
		b.BreakfastIncluded,
		b.Currency,
		b.TotalPrice,
		b.PaymentStatus,
		valNonEmpty(b.PaymentIntent), // NULL keeps the UNIQUE index open for unpaid bookings
		b.BookedAt.UTC(),
		string(b.Status),
		valInt64(b.HotelID),
		valInt64(b.RoomID),
	}
}

func conflict(err error, b domain.Booking) error {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return fmt.Errorf("booking %s: %s: %w", b.ID, me.Message, domain.ErrConflict)
	}
	return err
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, selectBookingsSQL+"WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.NotFound("booking", id)
	}
	return b, err
}

func (r *Repo) GetBookingByPaymentIntent(ctx context.Context, intent string) (domain.Booking, error) {
	if intent == "" {
		return domain.Booking{}, domain.NotFound("booking with payment intent", intent)
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx, selectBookingsSQL+"WHERE b.payment_intent = ?", intent))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.NotFound("booking with payment intent", intent)
	}
	return b, err
}

func (r *Repo) ListBookings(ctx context.Context, s domain.BookingScope) ([]domain.Booking, error) {
	where, args := bookingWhere(s)
	rows, err := r.db.QueryContext(ctx, selectBookingsSQL+where+"ORDER BY b.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func bookingWhere(s domain.BookingScope) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if s.GuestID != "" {
		conds = append(conds, "b.user_id = ?")
		args = append(args, s.GuestID)
	}
	if s.OwnerID != "" {
		conds = append(conds, "b.hotel_owner_id = ?")
		args = append(args, s.OwnerID)
	}
	if s.HotelID != nil {
		conds = append(conds, "b.hotel_id = ?")
		args = append(args, *s.HotelID)
	}
	if s.RoomID != nil {
		conds = append(conds, "b.room_id = ?")
		args = append(args, *s.RoomID)
	}
	if len(s.Statuses) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(s.Statuses)), ",")
		conds = append(conds, "b.status IN ("+marks+")")
		for _, st := range s.Statuses {
			args = append(args, string(st))
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND ") + "\n", args
}

func scanBooking(row scanner) (domain.Booking, error) {
	var (
		b                     domain.Booking
		checkIn, checkOut     sql.NullTime
		intent, status        sql.NullString
		hotelID, roomID       sql.NullInt64
		hTitle, hCity, hOwner sql.NullString
		rTitle                sql.NullString
		rPrice                sql.NullInt64
	)
	if err := row.Scan(
		&b.ID, &b.UserName, &b.UserEmail, &b.UserID, &b.HotelOwnerID,
		&checkIn, &checkOut, &b.BreakfastIncluded, &b.Currency, &b.TotalPrice,
		&b.PaymentStatus, &intent, &b.BookedAt, &status, &hotelID, &roomID,
		&hTitle, &hCity, &hOwner,
		&rTitle, &rPrice,
	); err != nil {
		return domain.Booking{}, err
	}
	b.CheckIn = optTime(checkIn)
	b.CheckOut = optTime(checkOut)
	b.PaymentIntent = intent.String
	b.BookedAt = b.BookedAt.UTC()
	b.Status = domain.Status(status.String)
	b.HotelID = optInt64(hotelID)
	b.RoomID = optInt64(roomID)
	if b.HotelID != nil && hTitle.Valid {
		b.Hotel = &domain.HotelSummary{ID: *b.HotelID, Title: hTitle.String, City: optStr(hCity), UserID: hOwner.String}
	}
	if b.RoomID != nil && rTitle.Valid {
		b.Room = &domain.RoomSummary{ID: *b.RoomID, Title: rTitle.String, RoomPrice: rPrice.Int64}
	}
	return b, nil
}

// ---- shared ----

func (r *Repo) delete(ctx context.Context, q, entity string, id int64) error {
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(entity, id)
	}
	return nil
}

// affected maps an UPDATE that touched no row to NotFound. MySQL reports rows changed,
// not rows matched, so a zero count is confirmed with a lookup.
func (r *Repo) affected(ctx context.Context, res sql.Result, table, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, fmt.Sprintf(existsSQL, table), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return err
}
