package mysql

const hotelColumns = `
  h.id, h.user_id, h.title, h.description, h.image,
  h.country, h.state, h.city, h.location_description,
  h.gym, h.spa, h.bar, h.laundry, h.restaurant, h.shopping,
  h.free_parking, h.bike_rental, h.free_wifi, h.movie_nights, h.swimming_pool, h.coffee_shop,
  h.created_at, h.updated_at`

const insertHotelSQL = `
INSERT INTO hotels
  (user_id, title, description, image, country, state, city, location_description,
   gym, spa, bar, laundry, restaurant, shopping,
   free_parking, bike_rental, free_wifi, movie_nights, swimming_pool, coffee_shop)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Owner and created_at are fixed at insert time.
const updateHotelSQL = `
UPDATE hotels SET
  title                = ?,
  description          = ?,
  image                = ?,
  country              = ?,
  state                = ?,
  city                 = ?,
  location_description = ?,
  gym                  = ?,
  spa                  = ?,
  bar                  = ?,
  laundry              = ?,
  restaurant           = ?,
  shopping             = ?,
  free_parking         = ?,
  bike_rental          = ?,
  free_wifi            = ?,
  movie_nights         = ?,
  swimming_pool        = ?,
  coffee_shop          = ?,
  updated_at           = CURRENT_TIMESTAMP(3)
WHERE id = ?
`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const getHotelSQL = `SELECT` + hotelColumns + `
FROM hotels h
WHERE h.id = ?
`

// Room count and cheapest room price per hotel; GROUP BY the primary key keeps
// the h.* columns functionally dependent.
const listHotelsSQL = `SELECT` + hotelColumns + `,
  COUNT(r.id),
  MIN(r.room_price)
FROM hotels h
LEFT JOIN rooms r ON r.hotel_id = h.id
`

const listHotelsTail = `
GROUP BY h.id
ORDER BY h.id
`

const roomColumns = `
  id, hotel_id, title, description,
  bed_count, guest_count, bathroom_count, king_bed, queen_bed,
  breakfast_price, room_price,
  room_service, tv, balcony, free_wifi, ocean_view,
  forest_view, mountain_view, air_condition, sound_proofed,
  image, available`

const insertRoomSQL = `
INSERT INTO rooms
  (hotel_id, title, description,
   bed_count, guest_count, bathroom_count, king_bed, queen_bed,
   breakfast_price, room_price,
   room_service, tv, balcony, free_wifi, ocean_view,
   forest_view, mountain_view, air_condition, sound_proofed,
   image, available)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// hotel_id is fixed at insert time.
const updateRoomSQL = `
UPDATE rooms SET
  title           = ?,
  description     = ?,
  bed_count       = ?,
  guest_count     = ?,
  bathroom_count  = ?,
  king_bed        = ?,
  queen_bed       = ?,
  breakfast_price = ?,
  room_price      = ?,
  room_service    = ?,
  tv              = ?,
  balcony         = ?,
  free_wifi       = ?,
  ocean_view      = ?,
  forest_view     = ?,
  mountain_view   = ?,
  air_condition   = ?,
  sound_proofed   = ?,
  image           = ?,
  available       = ?
WHERE id = ?
`

const deleteRoomSQL = `DELETE FROM rooms WHERE id = ?`

const getRoomSQL = `SELECT` + roomColumns + `
FROM rooms
WHERE id = ?
`

const listRoomsSQL = `SELECT` + roomColumns + `
FROM rooms
WHERE hotel_id = ?
ORDER BY id
`

const insertBookingSQL = `
INSERT INTO bookings
  (id, user_name, user_email, user_id, hotel_owner_id,
   check_in, check_out, breakfast_included, currency, total_price,
   payment_status, payment_intent, booked_at, status, hotel_id, room_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateBookingSQL = `
UPDATE bookings SET
  user_name          = ?,
  user_email         = ?,
  user_id            = ?,
  hotel_owner_id     = ?,
  check_in           = ?,
  check_out          = ?,
  breakfast_included = ?,
  currency           = ?,
  total_price        = ?,
  payment_status     = ?,
  payment_intent     = ?,
  booked_at          = ?,
  status             = ?,
  hotel_id           = ?,
  room_id            = ?
WHERE id = ?
`

// Bookings with the hotel and room summaries; the joins come back NULL for
// references that were nulled by a delete.
const selectBookingsSQL = `
SELECT
  b.id, b.user_name, b.user_email, b.user_id, b.hotel_owner_id,
  b.check_in, b.check_out, b.breakfast_included, b.currency, b.total_price,
  b.payment_status, b.payment_intent, b.booked_at, b.status, b.hotel_id, b.room_id,
  h.title, h.city, h.user_id,
  r.title, r.room_price
FROM bookings b
LEFT JOIN hotels h ON h.id = b.hotel_id
LEFT JOIN rooms r ON r.id = b.room_id
`

const existsSQL = `SELECT 1 FROM %s WHERE id = ?`
