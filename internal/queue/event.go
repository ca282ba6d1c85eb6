// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published on the booking.notifications queue.  Downstream
// consumers (mailer, logger) decide how to render each kind.
const (
	EventBookingRequested = "booking.requested"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingReminder  = "booking.reminder"
)

// BookingEvent is published on every booking lifecycle change and for
// each pre-start reminder.  It carries enough information for consumers
// to notify the user without querying the primary database.  EventID is
// a UUID assigned at publish time so consumers can de-duplicate
// redeliveries.
type BookingEvent struct {
	EventID    string `json:"event_id"`
	Kind       string `json:"kind"`
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	RoomID     uint64 `json:"room_id"`
	RoomName   string `json:"room_name"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurred_at"`
}
