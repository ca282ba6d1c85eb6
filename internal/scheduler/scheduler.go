package scheduler

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swahilipot/room-booking/internal/model"
	"github.com/swahilipot/room-booking/internal/queue"
	"github.com/swahilipot/room-booking/internal/repository"
)

// BookingStore is the persistence contract the scheduler requires for
// bookings.  *repository.BookingRepo satisfies it; tests substitute an
// in-memory implementation.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (*model.Booking, bool, error)
	ListActiveByRoomDate(ctx context.Context, roomID uint64, date string) ([]model.Booking, error)
	List(ctx context.Context, filter repository.BookingFilter) ([]model.Booking, error)
}

// RoomStore is the read-only room catalog lookup the scheduler needs.
type RoomStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
}

// Notifier delivers booking events to the notification collaborator.
// Delivery is fire-and-forget: a failed Notify is logged and never
// rolls back the lifecycle transition that already committed.
type Notifier interface {
	Notify(ctx context.Context, event queue.BookingEvent) error
}

// Service orchestrates the conflict detector and the booking lifecycle.
// It is the only mutation entry point for bookings; handlers, the
// sweeper and everything else go through it or stay read-only.
type Service struct {
	bookings BookingStore
	rooms    RoomStore
	detector *ConflictDetector
	notifier Notifier
	locks    *keyedLocks
}

// NewService wires a scheduler service.  notifier may be nil, in which
// case lifecycle events are silently skipped (useful in tests).
func NewService(bookings BookingStore, rooms RoomStore, notifier Notifier) *Service {
	return &Service{
		bookings: bookings,
		rooms:    rooms,
		detector: NewConflictDetector(bookings),
		notifier: notifier,
		locks:    newKeyedLocks(),
	}
}

// RequestBookingInput carries a booking submission.  Kind defaults to
// "booking" when empty.
type RequestBookingInput struct {
	UserID    uint64
	RoomID    uint64
	Date      string // "2006-01-02"
	StartTime string // "15:04"
	EndTime   string // "15:04"
	Kind      model.BookingKind
}

func (in *RequestBookingInput) validate() (model.TimeWindow, error) {
	switch {
	case in.UserID == 0:
		return model.TimeWindow{}, &ValidationError{Field: "user_id", Reason: "is required"}
	case in.RoomID == 0:
		return model.TimeWindow{}, &ValidationError{Field: "room_id", Reason: "is required"}
	case strings.TrimSpace(in.Date) == "":
		return model.TimeWindow{}, &ValidationError{Field: "booking_date", Reason: "is required"}
	case strings.TrimSpace(in.StartTime) == "":
		return model.TimeWindow{}, &ValidationError{Field: "start_time", Reason: "is required"}
	case strings.TrimSpace(in.EndTime) == "":
		return model.TimeWindow{}, &ValidationError{Field: "end_time", Reason: "is required"}
	}
	if in.Kind == "" {
		in.Kind = model.BookingKindBooking
	}
	if in.Kind != model.BookingKindBooking && in.Kind != model.BookingKindReservation {
		return model.TimeWindow{}, &ValidationError{Field: "kind", Reason: "must be booking or reservation"}
	}
	window, err := model.NewTimeWindow(in.Date, in.StartTime, in.EndTime)
	if err != nil {
		return model.TimeWindow{}, &ValidationError{Field: "time_window", Reason: err.Error()}
	}
	return window, nil
}

// RequestBooking validates the input, checks the requested window for
// conflicts under the per-(room, date) lock and creates the booking in
// pending status.  It returns the created booking, or a
// ValidationError, repository.ErrRoomNotFound, ErrRoomUnavailable or
// SlotUnavailableError.
func (s *Service) RequestBooking(ctx context.Context, in RequestBookingInput) (*model.Booking, error) {
	window, err := in.validate()
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Usable() {
		return nil, ErrRoomUnavailable
	}

	booking, err := s.submit(ctx, in, window)
	if err != nil {
		return nil, err
	}

	// Outside the lock: a slow or broken broker must not stall scheduling.
	s.notify(ctx, queue.EventBookingRequested, booking, room)
	return booking, nil
}

func (s *Service) submit(ctx context.Context, in RequestBookingInput, window model.TimeWindow) (*model.Booking, error) {
	release := s.locks.acquire(slotKey(in.RoomID, window.Date))
	defer release()

	conflict, err := s.detector.FindConflict(ctx, in.RoomID, window, 0)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &SlotUnavailableError{ConflictID: conflict.ID}
	}

	booking := &model.Booking{
		UserID:    in.UserID,
		RoomID:    in.RoomID,
		Date:      window.Date,
		StartTime: window.StartTime(),
		EndTime:   window.EndTime(),
		Kind:      in.Kind,
		Status:    model.BookingStatusPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateWindow) {
			// The unique index caught a same-window race the detector
			// missed; cite the winner when it is still visible.
			if c, cerr := s.detector.FindConflict(ctx, in.RoomID, window, 0); cerr == nil && c != nil {
				return nil, &SlotUnavailableError{ConflictID: c.ID}
			}
			return nil, &SlotUnavailableError{}
		}
		return nil, err
	}
	return booking, nil
}

// SetStatus decides a pending booking: confirmed or cancelled.  Both
// target statuses are terminal, so a second decision fails with
// InvalidTransitionError.  Confirmation re-runs the conflict check
// under the per-(room, date) lock because pending bookings are admitted
// optimistically: another booking may have been confirmed for an
// overlapping window since submission.
func (s *Service) SetStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) (*model.Booking, error) {
	if status != model.BookingStatusConfirmed && status != model.BookingStatusCancelled {
		return nil, &ValidationError{Field: "status", Reason: "must be confirmed or cancelled"}
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, &InvalidTransitionError{From: booking.Status, To: status}
	}

	var updated *model.Booking
	if status == model.BookingStatusConfirmed {
		updated, err = s.confirm(ctx, booking)
	} else {
		updated, err = s.cancel(ctx, booking)
	}
	if err != nil {
		return nil, err
	}

	kind := queue.EventBookingConfirmed
	if status == model.BookingStatusCancelled {
		kind = queue.EventBookingCancelled
	}
	s.notify(ctx, kind, updated, nil)
	return updated, nil
}

func (s *Service) confirm(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	window, err := booking.Window()
	if err != nil {
		return nil, err
	}

	release := s.locks.acquire(slotKey(booking.RoomID, booking.Date))
	defer release()

	// The room may have gone into maintenance since submission; a
	// confirmation must not revive a booking on an unusable room.
	room, err := s.rooms.GetByID(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Usable() {
		return nil, ErrRoomUnavailable
	}

	conflict, err := s.detector.FindConflict(ctx, booking.RoomID, window, booking.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &SlotUnavailableError{ConflictID: conflict.ID}
	}

	updated, changed, err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingStatusPending, model.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, &InvalidTransitionError{From: updated.Status, To: model.BookingStatusConfirmed}
	}
	return updated, nil
}

func (s *Service) cancel(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	// Cancelling conflicts with nothing and needs no lock; the
	// compare-and-swap in the store still protects terminal statuses.
	updated, changed, err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingStatusPending, model.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, &InvalidTransitionError{From: updated.Status, To: model.BookingStatusCancelled}
	}
	return updated, nil
}

// GetBooking loads a single booking.  Read-only.
func (s *Service) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// ListBookings returns bookings matching the filter, newest date first,
// then latest start time; insertion order breaks ties.  Read-only.
func (s *Service) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]model.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// ListForUser returns one user's bookings in the same order as
// ListBookings.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.List(ctx, repository.BookingFilter{UserID: &userID})
}

// notify emits a lifecycle event.  room may be nil; it is looked up
// best-effort just to enrich the payload.  Failures are logged and
// swallowed: the state transition already committed.
func (s *Service) notify(ctx context.Context, kind string, booking *model.Booking, room *model.Room) {
	if s.notifier == nil {
		return
	}
	roomName := ""
	if room == nil {
		if r, err := s.rooms.GetByID(ctx, booking.RoomID); err == nil {
			room = r
		}
	}
	if room != nil {
		roomName = room.Name
	}
	event := queue.BookingEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		RoomID:     booking.RoomID,
		RoomName:   roomName,
		Date:       booking.Date,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		Status:     string(booking.Status),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		log.Printf("scheduler: notify %s for booking %d failed: %v", kind, booking.ID, err)
	}
}
