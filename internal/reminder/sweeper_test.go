package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swahilipot/room-booking/internal/model"
	"github.com/swahilipot/room-booking/internal/queue"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// fakeStore mimics the reminder queries of the booking repository over
// an in-memory slice.
type fakeStore struct {
	mu       sync.Mutex
	bookings []model.Booking
}

func (s *fakeStore) DueForReminder(_ context.Context, date, after, until string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.Date != date || b.Status != model.BookingStatusConfirmed || b.ReminderSentAt != nil {
			continue
		}
		if b.StartTime > after && b.StartTime <= until {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkReminded(_ context.Context, id uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].ID == id && s.bookings[i].ReminderSentAt == nil {
			s.bookings[i].ReminderSentAt = &at
		}
	}
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	fail   bool
}

func (n *fakeNotifier) Notify(_ context.Context, evt queue.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker down")
	}
	n.events = append(n.events, evt)
	return nil
}

func confirmedAt(id uint64, date, start, end string) model.Booking {
	return model.Booking{
		ID: id, UserID: 7, RoomID: 1, Date: date, StartTime: start, EndTime: end,
		Kind: model.BookingKindBooking, Status: model.BookingStatusConfirmed,
	}
}

func TestTickRemindsOnceWithinLead(t *testing.T) {
	store := &fakeStore{bookings: []model.Booking{
		confirmedAt(1, "2026-08-29", "09:45", "10:45"), // inside the lead window
		confirmedAt(2, "2026-08-29", "11:00", "12:00"), // too far out
		confirmedAt(3, "2026-08-29", "09:00", "10:00"), // already started
		confirmedAt(4, "2026-08-30", "09:30", "10:30"), // other date
	}}
	notifier := &fakeNotifier{}
	clock := &fakeClock{now: time.Date(2026, 8, 29, 9, 10, 0, 0, time.UTC)}
	s := NewSweeper(store, notifier, clock, time.Hour)

	require.NoError(t, s.Tick(context.Background()))
	require.Len(t, notifier.events, 1)
	evt := notifier.events[0]
	assert.Equal(t, queue.EventBookingReminder, evt.Kind)
	assert.Equal(t, uint64(1), evt.BookingID)
	assert.Equal(t, "09:45", evt.StartTime)
	assert.NotEmpty(t, evt.EventID)
	require.NotNil(t, store.bookings[0].ReminderSentAt)

	// A later sweep over the same window emits nothing new.
	clock.now = time.Date(2026, 8, 29, 9, 20, 0, 0, time.UTC)
	require.NoError(t, s.Tick(context.Background()))
	assert.Len(t, notifier.events, 1)
}

func TestTickSkipsPendingAndCancelled(t *testing.T) {
	pending := confirmedAt(1, "2026-08-29", "09:45", "10:45")
	pending.Status = model.BookingStatusPending
	cancelled := confirmedAt(2, "2026-08-29", "09:50", "10:50")
	cancelled.Status = model.BookingStatusCancelled

	store := &fakeStore{bookings: []model.Booking{pending, cancelled}}
	notifier := &fakeNotifier{}
	clock := &fakeClock{now: time.Date(2026, 8, 29, 9, 10, 0, 0, time.UTC)}
	s := NewSweeper(store, notifier, clock, time.Hour)

	require.NoError(t, s.Tick(context.Background()))
	assert.Empty(t, notifier.events)
}

func TestTickRetriesAfterPublishFailure(t *testing.T) {
	store := &fakeStore{bookings: []model.Booking{
		confirmedAt(1, "2026-08-29", "09:45", "10:45"),
	}}
	notifier := &fakeNotifier{fail: true}
	clock := &fakeClock{now: time.Date(2026, 8, 29, 9, 10, 0, 0, time.UTC)}
	s := NewSweeper(store, notifier, clock, time.Hour)

	// Publish fails: the booking keeps its NULL stamp.
	require.NoError(t, s.Tick(context.Background()))
	assert.Nil(t, store.bookings[0].ReminderSentAt)

	// The broker recovers and the next tick delivers the reminder.
	notifier.fail = false
	require.NoError(t, s.Tick(context.Background()))
	require.Len(t, notifier.events, 1)
	assert.NotNil(t, store.bookings[0].ReminderSentAt)
}

func TestTickClampsAtMidnight(t *testing.T) {
	store := &fakeStore{bookings: []model.Booking{
		confirmedAt(1, "2026-08-29", "23:45", "23:59"),
		confirmedAt(2, "2026-08-30", "00:15", "01:00"), // next day, out of scope
	}}
	notifier := &fakeNotifier{}
	clock := &fakeClock{now: time.Date(2026, 8, 29, 23, 30, 0, 0, time.UTC)}
	s := NewSweeper(store, notifier, clock, time.Hour)

	require.NoError(t, s.Tick(context.Background()))
	require.Len(t, notifier.events, 1)
	assert.Equal(t, uint64(1), notifier.events[0].BookingID)
}
