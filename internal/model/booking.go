package model

import "time"

// BookingStatus is the lifecycle state of a booking.  A booking is
// created pending and moves exactly once to confirmed or cancelled;
// both of those are terminal.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

// BookingKind distinguishes a regular room booking from a longer-term
// reservation.  The scheduler treats both identically; the kind is
// carried for reporting.
type BookingKind string

const (
	BookingKindBooking     BookingKind = "booking"
	BookingKindReservation BookingKind = "reservation"
)

// Booking records a user's claim on a room for a time window on one
// calendar date.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who requested the booking.
//  RoomID         – room being booked.
//  Date           – calendar date in "2006-01-02" form.
//  StartTime      – start of the window, "15:04".
//  EndTime        – end of the window, "15:04", strictly after StartTime.
//  Kind           – booking or reservation.
//  Status         – lifecycle state (pending, confirmed, cancelled).
//  ReminderSentAt – when the pre-start reminder was emitted (nil if never).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Booking struct {
	ID             uint64        // bookings.id
	UserID         uint64        // bookings.user_id
	RoomID         uint64        // bookings.room_id
	Date           string        // bookings.booking_date
	StartTime      string        // bookings.start_time
	EndTime        string        // bookings.end_time
	Kind           BookingKind   // bookings.kind
	Status         BookingStatus // bookings.status
	ReminderSentAt *time.Time    // bookings.reminder_sent_at (nullable)
	CreatedAt      time.Time     // bookings.created_at
	UpdatedAt      time.Time     // bookings.updated_at
}

// Window returns the booking's time window.  Bookings are only ever
// stored with a valid window, so errors here indicate corrupt data.
func (b Booking) Window() (TimeWindow, error) {
	return NewTimeWindow(b.Date, b.StartTime, b.EndTime)
}
