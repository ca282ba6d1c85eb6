// Package reminder runs the periodic pre-start reminder sweep.  On each
// tick it selects confirmed bookings starting within the lead window,
// publishes a reminder event for each and stamps reminder_sent_at so a
// booking is reminded at most once.
package reminder

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/swahilipot/room-booking/internal/model"
	"github.com/swahilipot/room-booking/internal/queue"
)

// Store is the slice of booking storage the sweeper needs.
type Store interface {
	DueForReminder(ctx context.Context, date, after, until string) ([]model.Booking, error)
	MarkReminded(ctx context.Context, id uint64, at time.Time) error
}

// Notifier publishes reminder events to the message broker.
type Notifier interface {
	Notify(ctx context.Context, evt queue.BookingEvent) error
}

// Sweeper scans for bookings that start soon and emits one reminder per
// booking.  The reminder_sent_at stamp makes repeated or overlapping
// sweeps idempotent.
type Sweeper struct {
	store    Store
	notifier Notifier
	clock    Clock
	lead     time.Duration
}

// NewSweeper builds a sweeper with the given lookahead lead.  A nil
// clock falls back to the system clock.
func NewSweeper(store Store, notifier Notifier, clock Clock, lead time.Duration) *Sweeper {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Sweeper{store: store, notifier: notifier, clock: clock, lead: lead}
}

// Run ticks the sweep every interval until the context is cancelled.
// The first sweep happens immediately so a restart does not wait a full
// interval before catching up.
func (s *Sweeper) Run(ctx context.Context, every time.Duration) {
	if err := s.Tick(ctx); err != nil {
		log.Printf("reminder: sweep failed: %v", err)
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				log.Printf("reminder: sweep failed: %v", err)
			}
		}
	}
}

// Tick performs one sweep.  Bookings whose reminder could not be
// published keep a NULL reminder_sent_at and are retried on the next
// tick, so transient broker failures delay a reminder rather than drop
// it.
func (s *Sweeper) Tick(ctx context.Context) error {
	now := s.clock.Now().UTC()
	date := now.Format("2006-01-02")
	after := now.Format("15:04")
	horizon := now.Add(s.lead)
	until := horizon.Format("15:04")
	if horizon.Format("2006-01-02") != date {
		// The window crosses midnight; clamp to the end of today.
		// Tomorrow's early bookings are picked up by the first sweep
		// after midnight.
		until = "23:59"
	}

	due, err := s.store.DueForReminder(ctx, date, after, until)
	if err != nil {
		return err
	}
	for i := range due {
		b := &due[i]
		evt := queue.BookingEvent{
			EventID:    uuid.NewString(),
			Kind:       queue.EventBookingReminder,
			BookingID:  b.ID,
			UserID:     b.UserID,
			RoomID:     b.RoomID,
			Date:       b.Date,
			StartTime:  b.StartTime,
			EndTime:    b.EndTime,
			Status:     string(b.Status),
			OccurredAt: now.Format(time.RFC3339),
		}
		if err := s.notifier.Notify(ctx, evt); err != nil {
			log.Printf("reminder: publish for booking %d failed: %v", b.ID, err)
			continue
		}
		if err := s.store.MarkReminded(ctx, b.ID, now); err != nil {
			log.Printf("reminder: mark booking %d failed: %v", b.ID, err)
		}
	}
	return nil
}
