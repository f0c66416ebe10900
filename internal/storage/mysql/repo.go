package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"hoteliq/internal/domain"
)

const (
	errDuplicateKey = 1062
	errNoParentRow  = 1452
)

// mapErr translates driver errors into the domain taxonomy.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDuplicateKey:
			return fmt.Errorf("%s: %w", me.Message, domain.ErrConflict)
		case errNoParentRow:
			return fmt.Errorf("%s: %w", me.Message, domain.ErrNotFound)
		}
	}
	return err
}

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func limitOf(pg domain.PageQuery) any {
	if pg.Limit <= 0 {
		return noLimit
	}
	return pg.Limit
}

type scanner interface {
	Scan(dest ...any) error
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

/********** hotels **********/

func scanHotel(s scanner) (domain.Hotel, error) {
	var h domain.Hotel
	var stars sql.NullFloat64
	if err := s.Scan(&h.ID, &h.Name, &h.Location, &h.TotalRooms, &stars, &h.CreatedAt); err != nil {
		return domain.Hotel{}, err
	}
	if stars.Valid {
		f := stars.Float64
		h.StarRating = &f
	}
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, insertHotelSQL, h.Name, h.Location, h.TotalRooms, valF64(h.StarRating), h.CreatedAt)
	if err != nil {
		return domain.Hotel{}, mapErr(err)
	}
	if h.ID, err = res.LastInsertId(); err != nil {
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	return h, mapErr(err)
}

func (r *Repo) GetHotelByName(ctx context.Context, name string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelByNameSQL, name))
	return h, mapErr(err)
}

func (r *Repo) ListHotels(ctx context.Context, pg domain.PageQuery) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL, limitOf(pg), pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

/********** rooms **********/

func scanRoom(s scanner) (domain.Room, error) {
	var rm domain.Room
	err := s.Scan(&rm.ID, &rm.HotelID, &rm.RoomNumber, &rm.RoomType, &rm.BasePrice, &rm.MaxOccupancy, &rm.IsAvailable)
	return rm, err
}

func (r *Repo) CreateRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	res, err := r.db.ExecContext(ctx, insertRoomSQL, rm.HotelID, rm.RoomNumber, rm.RoomType, rm.BasePrice, rm.MaxOccupancy, rm.IsAvailable)
	if err != nil {
		return domain.Room{}, mapErr(err)
	}
	if rm.ID, err = res.LastInsertId(); err != nil {
		return domain.Room{}, err
	}
	return rm, nil
}

func (r *Repo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, id))
	return rm, mapErr(err)
}

func (r *Repo) ListRooms(ctx context.Context, q domain.RoomsQuery) ([]domain.Room, error) {
	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT " + roomColumns + " FROM rooms")
	if q.HotelID != nil {
		sb.WriteString(" WHERE hotel_id = ?")
		args = append(args, *q.HotelID)
	}
	sb.WriteString(" ORDER BY id LIMIT ? OFFSET ?")
	args = append(args, limitOf(q.PageQuery), q.Offset)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

/********** bookings **********/

func scanBooking(s scanner) (domain.Booking, error) {
	var b domain.Booking
	var email sql.NullString
	var status string
	if err := s.Scan(
		&b.ID, &b.HotelID, &b.RoomID,
		&b.CheckInDate, &b.CheckOutDate,
		&b.GuestName, &email,
		&b.NumGuests, &b.BookingPrice, &b.BasePrice,
		&b.BookingDate, &b.BookingSource, &status,
	); err != nil {
		return domain.Booking{}, err
	}
	b.GuestEmail = email.String
	b.Status = domain.BookingStatus(status)
	b.CheckInDate, b.CheckOutDate = domain.Day(b.CheckInDate), domain.Day(b.CheckOutDate)
	b.BookingDate = b.BookingDate.UTC()
	return b, nil
}

func bookingArgs(b domain.Booking) []any {
	return []any{
		b.HotelID, b.RoomID,
		domain.Day(b.CheckInDate), domain.Day(b.CheckOutDate),
		b.GuestName, valStr(b.GuestEmail),
		b.NumGuests, b.BookingPrice, b.BasePrice,
		b.BookingDate.UTC(), b.BookingSource, string(b.Status),
	}
}

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	res, err := r.db.ExecContext(ctx, insertBookingSQL, bookingArgs(b)...)
	if err != nil {
		return domain.Booking{}, mapErr(err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return domain.Booking{}, err
	}
	b.CheckInDate, b.CheckOutDate = domain.Day(b.CheckInDate), domain.Day(b.CheckOutDate)
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
	return b, mapErr(err)
}

func (r *Repo) ListBookings(ctx context.Context, q domain.BookingsQuery) ([]domain.Booking, error) {
	var where []string
	var args []any
	if q.HotelID != nil {
		where = append(where, "hotel_id = ?")
		args = append(args, *q.HotelID)
	}
	if len(q.Statuses) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(q.Statuses)), ",")
		where = append(where, "status IN ("+ph+")")
		for _, s := range q.Statuses {
			args = append(args, string(s))
		}
	}
	if q.CheckInFrom != nil {
		where = append(where, "check_in_date >= ?")
		args = append(args, domain.Day(*q.CheckInFrom))
	}
	if q.CheckOutTo != nil {
		where = append(where, "check_out_date <= ?")
		args = append(args, domain.Day(*q.CheckOutTo))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + bookingColumns + " FROM bookings")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY check_in_date DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limitOf(q.PageQuery), q.Offset)

	return r.queryBookings(ctx, sb.String(), args...)
}

func (r *Repo) queryBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateBookingStatus(ctx context.Context, id int64, s domain.BookingStatus) (domain.Booking, error) {
	if _, err := r.db.ExecContext(ctx, updateBookingStatusSQL, string(s), id); err != nil {
		return domain.Booking{}, err
	}
	// RowsAffected is 0 when the status was already s, so read back instead.
	return r.GetBooking(ctx, id)
}

func (r *Repo) ActiveBookings(ctx context.Context, hotelID int64, day time.Time) ([]domain.Booking, error) {
	d := domain.Day(day)
	return r.queryBookings(ctx, activeBookingsSQL, hotelID, d, d)
}

func (r *Repo) CountArrivals(ctx context.Context, hotelID int64, day time.Time) (domain.ArrivalCounts, error) {
	var c domain.ArrivalCounts
	err := r.db.QueryRowContext(ctx, countArrivalsSQL, hotelID, domain.Day(day)).Scan(&c.Total, &c.Cancelled)
	return c, err
}

func (r *Repo) BookingSpan(ctx context.Context) (first, last time.Time, ok bool, err error) {
	var lo, hi sql.NullTime
	if err = r.db.QueryRowContext(ctx, bookingSpanSQL).Scan(&lo, &hi); err != nil {
		return first, last, false, err
	}
	if !lo.Valid || !hi.Valid {
		return first, last, false, nil
	}
	return domain.Day(lo.Time), domain.Day(hi.Time), true, nil
}

/********** load transactions **********/

type loadTx struct{ tx *sql.Tx }

func (r *Repo) BeginLoad(ctx context.Context) (domain.LoadTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &loadTx{tx: tx}, nil
}

func (l *loadTx) Exists(ctx context.Context, k domain.BookingKey) (bool, error) {
	var one int
	err := l.tx.QueryRowContext(ctx, bookingExistsSQL, k.HotelID, k.RoomID, domain.Day(k.CheckIn)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (l *loadTx) Insert(ctx context.Context, b domain.Booking) error {
	_, err := l.tx.ExecContext(ctx, insertBookingSQL, bookingArgs(b)...)
	return mapErr(err)
}

func (l *loadTx) Commit() error { return l.tx.Commit() }

func (l *loadTx) Rollback() error {
	if err := l.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

/********** metrics **********/

func (r *Repo) UpsertDailyMetrics(ctx context.Context, m domain.DailyMetrics) (domain.DailyMetrics, error) {
	m.Date = domain.Day(m.Date)
	res, err := r.db.ExecContext(ctx, upsertDailyMetricsSQL,
		m.HotelID, m.Date,
		m.OccupancyRate, m.RoomsOccupied, m.RoomsAvailable, m.TotalRevenue,
		m.AverageDailyRate, m.RevenuePerAvailableRoom,
		m.BookingCount, m.CancellationCount, m.CalculatedAt.UTC(),
	)
	if err != nil {
		return domain.DailyMetrics{}, mapErr(err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return domain.DailyMetrics{}, err
	}
	return m, nil
}

func (r *Repo) ListDailyMetrics(ctx context.Context, hotelID int64, from, to time.Time) ([]domain.DailyMetrics, error) {
	rows, err := r.db.QueryContext(ctx, listDailyMetricsSQL, hotelID, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DailyMetrics{}
	for rows.Next() {
		var m domain.DailyMetrics
		if err := rows.Scan(
			&m.ID, &m.HotelID, &m.Date,
			&m.OccupancyRate, &m.RoomsOccupied, &m.RoomsAvailable, &m.TotalRevenue,
			&m.AverageDailyRate, &m.RevenuePerAvailableRoom,
			&m.BookingCount, &m.CancellationCount, &m.CalculatedAt,
		); err != nil {
			return nil, err
		}
		m.Date = domain.Day(m.Date)
		out = append(out, m)
	}
	return out, rows.Err()
}

/********** stats **********/

func (r *Repo) Counts(ctx context.Context) (domain.StoreCounts, error) {
	var c domain.StoreCounts
	err := r.db.QueryRowContext(ctx, countsSQL).Scan(&c.Hotels, &c.Rooms, &c.Bookings, &c.ActiveBookings)
	return c, err
}

func (r *Repo) SumTotalRooms(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, sumTotalRoomsSQL).Scan(&n)
	return n, err
}

var _ domain.Store = (*Repo)(nil)
