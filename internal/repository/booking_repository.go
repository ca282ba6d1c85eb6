package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/swahilipot/room-booking/internal/model"
)

// ErrBookingNotFound is returned when a booking lookup fails.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateWindow is returned when an insert violates the unique
// index on (room_id, booking_date, start_time, end_time).  The index is
// a backstop behind the scheduler's conflict detector: the detector
// rejects any overlap, the index rejects only exact duplicates that
// slipped past it.
var ErrDuplicateWindow = errors.New("duplicate booking window")

// BookingRepo provides data access to the bookings table.  All
// timestamp columns are stored in UTC; booking_date is a DATE column
// and start_time/end_time are TIME columns handled as "15:04" strings
// at this layer.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingFilter narrows List results.  A nil UserID selects every
// booking.
type BookingFilter struct {
	UserID *uint64
}

const bookingColumns = `id, user_id, room_id, booking_date, start_time, end_time, kind, status, reminder_sent_at, created_at, updated_at`

func scanBooking(scan func(dest ...any) error) (*model.Booking, error) {
	var b model.Booking
	var date time.Time
	var start, end []byte
	var kind, status string
	var remindedAt sql.NullTime
	if err := scan(&b.ID, &b.UserID, &b.RoomID, &date, &start, &end, &kind, &status, &remindedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Date = date.UTC().Format("2006-01-02")
	b.StartTime = trimTimeOfDay(string(start))
	b.EndTime = trimTimeOfDay(string(end))
	b.Kind = model.BookingKind(kind)
	b.Status = model.BookingStatus(status)
	if remindedAt.Valid {
		at := remindedAt.Time.UTC()
		b.ReminderSentAt = &at
	}
	return &b, nil
}

// trimTimeOfDay normalizes a MySQL TIME value ("09:00:00") to "15:04"
// form ("09:00").
func trimTimeOfDay(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

// Create inserts a pending booking and reads the row back to populate
// the generated ID, timestamps and defaults.  A unique-index violation
// maps to ErrDuplicateWindow.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (user_id, room_id, booking_date, start_time, end_time, kind, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.RoomID, b.Date, b.StartTime+":00", b.EndTime+":00", string(b.Kind), string(b.Status))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateWindow
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	got, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// GetByID retrieves a booking by its ID.  It returns ErrBookingNotFound
// when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// UpdateStatus moves a booking from one lifecycle status to another as
// a compare-and-swap: the row is only touched while it still holds the
// expected `from` status.  It returns the current row and whether the
// swap happened; a false result with a nil error means the booking has
// already left `from` (the scheduler turns that into an
// invalid-transition error).
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (*model.Booking, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return b, n > 0, nil
}

// ListActiveByRoomDate returns all pending and confirmed bookings for a
// room on one date, ordered by insertion.  Cancelled bookings never
// participate in conflict checks and are excluded here.
func (r *BookingRepo) ListActiveByRoomDate(ctx context.Context, roomID uint64, date string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE room_id = ? AND booking_date = ? AND status IN ('pending', 'confirmed')
		 ORDER BY id`,
		roomID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// List returns bookings matching the filter, ordered by booking_date
// descending, then start_time descending, with insertion order breaking
// ties.
func (r *BookingRepo) List(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	args := make([]any, 0, 1)
	if filter.UserID != nil {
		q += ` WHERE user_id = ?`
		args = append(args, *filter.UserID)
	}
	q += ` ORDER BY booking_date DESC, start_time DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// DueForReminder selects confirmed bookings on the given date whose
// start time lies in the half-open lookahead window (after, until] and
// which have not been reminded yet.
func (r *BookingRepo) DueForReminder(ctx context.Context, date, after, until string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE booking_date = ? AND status = 'confirmed'
		   AND start_time > ? AND start_time <= ?
		   AND reminder_sent_at IS NULL
		 ORDER BY start_time, id`,
		date, after+":00", until+":00")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// MarkReminded records that the reminder for a booking was emitted.
// The guard on reminder_sent_at keeps the update idempotent when two
// sweeps race.
func (r *BookingRepo) MarkReminded(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET reminder_sent_at = ? WHERE id = ? AND reminder_sent_at IS NULL`,
		at.UTC(), id)
	return err
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
