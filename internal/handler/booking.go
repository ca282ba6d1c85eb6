package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swahilipot/room-booking/internal/model"
	"github.com/swahilipot/room-booking/internal/repository"
	"github.com/swahilipot/room-booking/internal/scheduler"
)

// BookingHandler exposes the scheduler over HTTP.  All mutations go
// through the scheduler service; the handler only translates requests
// and errors.
type BookingHandler struct {
	Scheduler *scheduler.Service
}

func NewBookingHandler(s *scheduler.Service) *BookingHandler {
	return &BookingHandler{Scheduler: s}
}

type bookingReq struct {
	RoomID    uint64 `json:"room_id"`
	Date      string `json:"booking_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Kind      string `json:"type"`
}

type statusReq struct {
	Status string `json:"status"`
}

type bookingResp struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"user_id"`
	RoomID    uint64 `json:"room_id"`
	Date      string `json:"booking_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Kind      string `json:"type"`
	Status    string `json:"status"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:        b.ID,
		UserID:    b.UserID,
		RoomID:    b.RoomID,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Kind:      string(b.Kind),
		Status:    string(b.Status),
	}
}

// writeSchedulerError maps scheduler and repository errors onto HTTP
// responses.  Unknown errors become opaque 500s.
func writeSchedulerError(c echo.Context, err error) error {
	var vErr *scheduler.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Error(), "field": vErr.Field})
	}
	var slotErr *scheduler.SlotUnavailableError
	if errors.As(err, &slotErr) {
		resp := echo.Map{"error": slotErr.Error()}
		if slotErr.ConflictID != 0 {
			resp["conflicting_booking_id"] = slotErr.ConflictID
		}
		return c.JSON(http.StatusConflict, resp)
	}
	var trErr *scheduler.InvalidTransitionError
	if errors.As(err, &trErr) {
		return c.JSON(http.StatusConflict, echo.Map{"error": trErr.Error()})
	}
	switch {
	case errors.Is(err, scheduler.ErrRoomUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is not available for booking"})
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// Create submits a booking request for the authenticated user.  The
// booking starts pending; confirmation is a separate admin decision.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Scheduler.RequestBooking(ctx, scheduler.RequestBookingInput{
		UserID:    uid,
		RoomID:    req.RoomID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Kind:      model.BookingKind(req.Kind),
	})
	if err != nil {
		return writeSchedulerError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(booking))
}

// SetStatus decides a pending booking.  Confirming is admin only;
// cancelling is allowed to admins and to the booking's owner.
func (h *BookingHandler) SetStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.BookingStatus(req.Status)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !isAdmin(c) {
		// Owners may cancel their own pending booking but never confirm.
		if status != model.BookingStatusCancelled {
			return writeSchedulerError(c, repository.ErrForbidden)
		}
		existing, err := h.Scheduler.GetBooking(ctx, id)
		if err != nil {
			return writeSchedulerError(c, err)
		}
		if existing.UserID != uid {
			return writeSchedulerError(c, repository.ErrForbidden)
		}
	}

	booking, err := h.Scheduler.SetStatus(ctx, id, status)
	if err != nil {
		return writeSchedulerError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(booking))
}

// List returns all bookings, newest first (admin only via routing).
func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Scheduler.ListBookings(ctx, repository.BookingFilter{})
	if err != nil {
		return writeSchedulerError(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ListForUser returns one user's bookings.  Admins can read anyone;
// a regular user only their own.
func (h *BookingHandler) ListForUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target, ok := idParam(c, "userId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if target != uid && !isAdmin(c) {
		return writeSchedulerError(c, repository.ErrForbidden)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Scheduler.ListForUser(ctx, target)
	if err != nil {
		return writeSchedulerError(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}
