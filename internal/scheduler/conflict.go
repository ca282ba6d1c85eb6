package scheduler

import (
	"context"

	"github.com/swahilipot/room-booking/internal/model"
)

// ConflictDetector decides whether a requested window collides with an
// existing booking.  Pending bookings block just like confirmed ones:
// admitting two requests for overlapping slots would let both be
// approved later, so admission control happens at submit time, not only
// at confirmation.
type ConflictDetector struct {
	bookings BookingStore
}

// NewConflictDetector returns a detector reading from the given store.
func NewConflictDetector(bookings BookingStore) *ConflictDetector {
	return &ConflictDetector{bookings: bookings}
}

// FindConflict returns the first pending or confirmed booking for the
// room on the window's date whose window overlaps the requested one,
// or nil when the slot is free.  excludeID skips the booking being
// transitioned so a confirm call does not collide with itself; pass 0
// for submissions.  Cancelled bookings never conflict.
func (d *ConflictDetector) FindConflict(ctx context.Context, roomID uint64, window model.TimeWindow, excludeID uint64) (*model.Booking, error) {
	existing, err := d.bookings.ListActiveByRoomDate(ctx, roomID, window.Date)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		b := &existing[i]
		if b.ID == excludeID {
			continue
		}
		w, err := b.Window()
		if err != nil {
			return nil, err
		}
		if w.Overlaps(window) {
			return b, nil
		}
	}
	return nil, nil
}
