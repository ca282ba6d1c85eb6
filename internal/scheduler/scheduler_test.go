package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swahilipot/room-booking/internal/model"
	"github.com/swahilipot/room-booking/internal/queue"
	"github.com/swahilipot/room-booking/internal/repository"
)

// memBookings is an in-memory BookingStore with the same observable
// behavior as the MySQL repository.
type memBookings struct {
	mu    sync.Mutex
	seq   uint64
	items map[uint64]*model.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{items: make(map[uint64]*model.Booking)}
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	b.ID = m.seq
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id uint64, from, to model.BookingStatus) (*model.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return nil, false, repository.ErrBookingNotFound
	}
	if b.Status != from {
		cp := *b
		return &cp, false, nil
	}
	b.Status = to
	cp := *b
	return &cp, true, nil
}

func (m *memBookings) ListActiveByRoomDate(_ context.Context, roomID uint64, date string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.items {
		if b.RoomID != roomID || b.Date != date {
			continue
		}
		if b.Status == model.BookingStatusPending || b.Status == model.BookingStatusConfirmed {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memBookings) List(_ context.Context, filter repository.BookingFilter) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.items {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime > out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// memRooms is an in-memory RoomStore.
type memRooms struct {
	mu    sync.Mutex
	items map[uint64]*model.Room
}

func newMemRooms(rooms ...*model.Room) *memRooms {
	m := &memRooms{items: make(map[uint64]*model.Room)}
	for _, r := range rooms {
		m.items[r.ID] = r
	}
	return m
}

func (m *memRooms) GetByID(_ context.Context, id uint64) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRooms) setStatus(id uint64, status model.RoomStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].Status = status
}

// recordingNotifier captures published events; fail makes every Notify
// return an error.
type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	fail   bool
}

func (n *recordingNotifier) Notify(_ context.Context, evt queue.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("broker down")
	}
	n.events = append(n.events, evt)
	return nil
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Kind
	}
	return out
}

func newTestService() (*Service, *memBookings, *memRooms, *recordingNotifier) {
	bookings := newMemBookings()
	rooms := newMemRooms(
		&model.Room{ID: 1, Name: "Boardroom", Capacity: 10, Status: model.RoomStatusAvailable},
		&model.Room{ID: 2, Name: "Lab", Capacity: 4, Status: model.RoomStatusMaintenance},
	)
	notifier := &recordingNotifier{}
	return NewService(bookings, rooms, notifier), bookings, rooms, notifier
}

func request(userID, roomID uint64, date, start, end string) RequestBookingInput {
	return RequestBookingInput{UserID: userID, RoomID: roomID, Date: date, StartTime: start, EndTime: end}
}

func TestRequestBookingValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		in    RequestBookingInput
		field string
	}{
		{"missing user", request(0, 1, "2026-09-01", "09:00", "10:00"), "user_id"},
		{"missing room", request(7, 0, "2026-09-01", "09:00", "10:00"), "room_id"},
		{"missing date", request(7, 1, "", "09:00", "10:00"), "booking_date"},
		{"missing start", request(7, 1, "2026-09-01", "", "10:00"), "start_time"},
		{"missing end", request(7, 1, "2026-09-01", "09:00", ""), "end_time"},
		{"end before start", request(7, 1, "2026-09-01", "10:00", "09:00"), "time_window"},
		{"zero length", request(7, 1, "2026-09-01", "09:00", "09:00"), "time_window"},
		{"bad time", request(7, 1, "2026-09-01", "morning", "10:00"), "time_window"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RequestBooking(ctx, tc.in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestRequestBookingBadKind(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := request(7, 1, "2026-09-01", "09:00", "10:00")
	in.Kind = "meeting"
	_, err := svc.RequestBooking(context.Background(), in)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "kind", vErr.Field)
}

func TestRequestBookingRoomChecks(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RequestBooking(ctx, request(7, 99, "2026-09-01", "09:00", "10:00"))
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)

	_, err = svc.RequestBooking(ctx, request(7, 2, "2026-09-01", "09:00", "10:00"))
	assert.ErrorIs(t, err, ErrRoomUnavailable)
}

func TestSchedulingScenario(t *testing.T) {
	svc, _, _, notifier := newTestService()
	ctx := context.Background()

	// A: 09:00-10:00 admitted pending.
	a, err := svc.RequestBooking(ctx, request(7, 1, "2026-09-01", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, a.Status)
	assert.Equal(t, model.BookingKindBooking, a.Kind)

	// B: 09:30-10:30 overlaps A and is rejected citing A.
	_, err = svc.RequestBooking(ctx, request(8, 1, "2026-09-01", "09:30", "10:30"))
	var slotErr *SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, a.ID, slotErr.ConflictID)

	// C: 10:00-11:00 touches A and is admitted.
	c, err := svc.RequestBooking(ctx, request(8, 1, "2026-09-01", "10:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, c.Status)

	// The same window on another date is independent.
	_, err = svc.RequestBooking(ctx, request(9, 1, "2026-09-02", "09:30", "10:30"))
	require.NoError(t, err)

	// Confirm A.
	a, err = svc.SetStatus(ctx, a.ID, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, a.Status)

	// A is terminal: cancelling it now is an invalid transition.
	_, err = svc.SetStatus(ctx, a.ID, model.BookingStatusCancelled)
	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, model.BookingStatusConfirmed, trErr.From)

	// So is re-confirming it.
	_, err = svc.SetStatus(ctx, a.ID, model.BookingStatusConfirmed)
	require.ErrorAs(t, err, &trErr)

	assert.Equal(t, []string{
		queue.EventBookingRequested,
		queue.EventBookingRequested,
		queue.EventBookingRequested,
		queue.EventBookingConfirmed,
	}, notifier.kinds())
}

func TestCancelFreesSlot(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.RequestBooking(ctx, request(7, 1, "2026-09-01", "09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.RequestBooking(ctx, request(8, 1, "2026-09-01", "09:00", "10:00"))
	var slotErr *SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)

	_, err = svc.SetStatus(ctx, a.ID, model.BookingStatusCancelled)
	require.NoError(t, err)

	// The cancelled booking no longer blocks the slot.
	b, err := svc.RequestBooking(ctx, request(8, 1, "2026-09-01", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, b.Status)
}

func TestConfirmRechecksConflicts(t *testing.T) {
	svc, bookings, _, _ := newTestService()
	ctx := context.Background()

	// Seed two overlapping pendings directly, as if both were admitted
	// before conflict detection saw the other.
	a := &model.Booking{UserID: 7, RoomID: 1, Date: "2026-09-01", StartTime: "09:00", EndTime: "10:00",
		Kind: model.BookingKindBooking, Status: model.BookingStatusPending}
	require.NoError(t, bookings.Create(ctx, a))
	b := &model.Booking{UserID: 8, RoomID: 1, Date: "2026-09-01", StartTime: "09:30", EndTime: "10:30",
		Kind: model.BookingKindBooking, Status: model.BookingStatusPending}
	require.NoError(t, bookings.Create(ctx, b))

	// The first confirmation wins; the exclusion of the booking's own id
	// keeps it from conflicting with itself.
	_, err := svc.SetStatus(ctx, a.ID, model.BookingStatusConfirmed)
	require.NoError(t, err)

	// The second confirmation collides with the first.
	_, err = svc.SetStatus(ctx, b.ID, model.BookingStatusConfirmed)
	var slotErr *SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, a.ID, slotErr.ConflictID)

	// The loser stays pending and can still be cancelled.
	updated, err := svc.SetStatus(ctx, b.ID, model.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, updated.Status)
}

func TestConfirmRechecksRoom(t *testing.T) {
	svc, _, rooms, _ := newTestService()
	ctx := context.Background()

	a, err := svc.RequestBooking(ctx, request(7, 1, "2026-09-01", "09:00", "10:00"))
	require.NoError(t, err)

	rooms.setStatus(1, model.RoomStatusMaintenance)

	_, err = svc.SetStatus(ctx, a.ID, model.BookingStatusConfirmed)
	assert.ErrorIs(t, err, ErrRoomUnavailable)

	// Cancelling needs no usable room.
	_, err = svc.SetStatus(ctx, a.ID, model.BookingStatusCancelled)
	assert.NoError(t, err)
}

func TestSetStatusValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, 1, model.BookingStatusPending)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)

	_, err = svc.SetStatus(ctx, 42, model.BookingStatusConfirmed)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestNotifierFailureDoesNotBlockScheduling(t *testing.T) {
	svc, _, _, notifier := newTestService()
	notifier.fail = true
	ctx := context.Background()

	a, err := svc.RequestBooking(ctx, request(7, 1, "2026-09-01", "09:00", "10:00"))
	require.NoError(t, err)

	a, err = svc.SetStatus(ctx, a.ID, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, a.Status)
}

func TestListOrdering(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	mk := func(userID uint64, date, start, end string) *model.Booking {
		b, err := svc.RequestBooking(ctx, request(userID, 1, date, start, end))
		require.NoError(t, err)
		return b
	}

	early := mk(7, "2026-09-01", "08:00", "09:00")
	late := mk(7, "2026-09-01", "14:00", "15:00")
	nextDay := mk(8, "2026-09-02", "08:00", "09:00")

	all, err := svc.ListBookings(ctx, repository.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest date first, then latest start time.
	assert.Equal(t, []uint64{nextDay.ID, late.ID, early.ID}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	mine, err := svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, late.ID, mine[0].ID)
	assert.Equal(t, early.ID, mine[1].ID)
}

func TestConcurrentSameSlotAdmitsOne(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			_, err := svc.RequestBooking(ctx, request(userID, 1, "2026-09-01", "09:00", "10:00"))
			results <- err
		}(uint64(i + 1))
	}
	wg.Wait()
	close(results)

	admitted, rejected := 0, 0
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		var slotErr *SlotUnavailableError
		require.ErrorAs(t, err, &slotErr)
		rejected++
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, workers-1, rejected)
}

func TestKeyedLocksReleaseCleansUp(t *testing.T) {
	locks := newKeyedLocks()
	release := locks.acquire(slotKey(1, "2026-09-01"))
	releaseOther := locks.acquire(slotKey(2, "2026-09-01"))
	release()
	releaseOther()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}
