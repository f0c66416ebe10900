package mysql

const hotelColumns = "id, name, location, total_rooms, star_rating, created_at"

const insertHotelSQL = `
INSERT INTO hotels (name, location, total_rooms, star_rating, created_at)
VALUES (?, ?, ?, ?, ?)
`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

const getHotelByNameSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE name = ?`

const listHotelsSQL = `SELECT ` + hotelColumns + ` FROM hotels ORDER BY id LIMIT ? OFFSET ?`

// Rooms, bookings and metrics go with the hotel via ON DELETE CASCADE.
const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const roomColumns = "id, hotel_id, room_number, room_type, base_price, max_occupancy, is_available"

const insertRoomSQL = `
INSERT INTO rooms (hotel_id, room_number, room_type, base_price, max_occupancy, is_available)
VALUES (?, ?, ?, ?, ?, ?)
`

const getRoomSQL = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`

const bookingColumns = `id, hotel_id, room_id, check_in_date, check_out_date, guest_name, guest_email,
  num_guests, booking_price, base_price, booking_date, booking_source, status`

const insertBookingSQL = `
INSERT INTO bookings
  (hotel_id, room_id, check_in_date, check_out_date, guest_name, guest_email,
   num_guests, booking_price, base_price, booking_date, booking_source, status)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getBookingSQL = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

const updateBookingStatusSQL = `UPDATE bookings SET status = ? WHERE id = ?`

const bookingExistsSQL = `
SELECT 1 FROM bookings
WHERE hotel_id = ? AND room_id = ? AND check_in_date = ?
LIMIT 1
`

// Active on a night: check_in <= day < check_out, occupying statuses only.
const activeBookingsSQL = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE hotel_id = ?
  AND check_in_date <= ?
  AND check_out_date > ?
  AND status IN ('confirmed', 'completed')
ORDER BY id
`

const countArrivalsSQL = `
SELECT COUNT(*), COALESCE(SUM(status = 'cancelled'), 0)
FROM bookings
WHERE hotel_id = ? AND check_in_date = ?
`

const bookingSpanSQL = `SELECT MIN(check_in_date), MAX(check_out_date) FROM bookings`

// LAST_INSERT_ID(id) makes LastInsertId report the existing row on update.
const upsertDailyMetricsSQL = `
INSERT INTO daily_metrics
  (hotel_id, date, occupancy_rate, rooms_occupied, rooms_available, total_revenue,
   average_daily_rate, revenue_per_available_room, booking_count, cancellation_count, calculated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id                         = LAST_INSERT_ID(id),
  occupancy_rate             = VALUES(occupancy_rate),
  rooms_occupied             = VALUES(rooms_occupied),
  rooms_available            = VALUES(rooms_available),
  total_revenue              = VALUES(total_revenue),
  average_daily_rate         = VALUES(average_daily_rate),
  revenue_per_available_room = VALUES(revenue_per_available_room),
  booking_count              = VALUES(booking_count),
  cancellation_count         = VALUES(cancellation_count),
  calculated_at              = VALUES(calculated_at)
`

const listDailyMetricsSQL = `
SELECT id, hotel_id, date, occupancy_rate, rooms_occupied, rooms_available, total_revenue,
       average_daily_rate, revenue_per_available_room, booking_count, cancellation_count, calculated_at
FROM daily_metrics
WHERE hotel_id = ? AND date BETWEEN ? AND ?
ORDER BY date
`

const countsSQL = `
SELECT
  (SELECT COUNT(*) FROM hotels),
  (SELECT COUNT(*) FROM rooms),
  (SELECT COUNT(*) FROM bookings),
  (SELECT COUNT(*) FROM bookings WHERE status = 'confirmed')
`

const sumTotalRoomsSQL = `SELECT COALESCE(SUM(total_rooms), 0) FROM hotels`

// MySQL needs a LIMIT to use OFFSET.
const noLimit = uint64(18446744073709551615)
