// Package scheduler is the booking core: it decides whether a requested
// time window may be accepted, drives the pending → confirmed/cancelled
// lifecycle, and is the only place bookings are created or mutated.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/swahilipot/room-booking/internal/model"
)

// ErrRoomUnavailable is returned when the requested room exists but is
// under maintenance and cannot accept bookings.
var ErrRoomUnavailable = errors.New("room is not available for booking")

// ValidationError reports a missing or malformed request field.  The
// field name is carried so callers can react programmatically instead
// of parsing a message string.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SlotUnavailableError reports that a requested window overlaps an
// existing pending or confirmed booking.  ConflictID identifies the
// blocking booking so the caller can show why the slot is taken.
type SlotUnavailableError struct {
	ConflictID uint64
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable: conflicts with booking %d", e.ConflictID)
}

// InvalidTransitionError reports an attempt to move a booking out of a
// terminal status.
type InvalidTransitionError struct {
	From model.BookingStatus
	To   model.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: booking is already %s, cannot set %s", e.From, e.To)
}
