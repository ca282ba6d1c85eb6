package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swahilipot/room-booking/internal/model"
	"github.com/swahilipot/room-booking/internal/repository"
)

// RoomHandler serves the room catalog: admins manage rooms, every
// authenticated user can browse them.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(r *repository.RoomRepo) *RoomHandler {
	return &RoomHandler{Rooms: r}
}

type roomReq struct {
	Name      string   `json:"name"`
	Space     string   `json:"space"`
	Capacity  uint32   `json:"capacity"`
	Amenities []string `json:"amenities"`
	Status    string   `json:"status"`
}

type roomResp struct {
	ID        uint64   `json:"id"`
	Name      string   `json:"name"`
	Space     string   `json:"space"`
	Capacity  uint32   `json:"capacity"`
	Amenities []string `json:"amenities"`
	Status    string   `json:"status"`
}

func toRoomResp(r *model.Room) roomResp {
	amenities := r.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return roomResp{
		ID:        r.ID,
		Name:      r.Name,
		Space:     r.Space,
		Capacity:  r.Capacity,
		Amenities: amenities,
		Status:    string(r.Status),
	}
}

func parseRoomStatus(s string) (model.RoomStatus, bool) {
	switch model.RoomStatus(strings.TrimSpace(s)) {
	case model.RoomStatusAvailable:
		return model.RoomStatusAvailable, true
	case model.RoomStatusReserved:
		return model.RoomStatusReserved, true
	case model.RoomStatusBooked:
		return model.RoomStatusBooked, true
	case model.RoomStatusMaintenance:
		return model.RoomStatusMaintenance, true
	}
	return "", false
}

// Create adds a room to the catalog (admin only).
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be at least 1"})
	}
	status := model.RoomStatusAvailable
	if req.Status != "" {
		s, ok := parseRoomStatus(req.Status)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		status = s
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room := &model.Room{
		Name:      req.Name,
		Space:     strings.TrimSpace(req.Space),
		Capacity:  req.Capacity,
		Amenities: req.Amenities,
		Status:    status,
	}
	if err := h.Rooms.Create(ctx, room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, toRoomResp(room))
}

// List returns the whole room catalog.
func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, err := h.Rooms.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	out := make([]roomResp, 0, len(rooms))
	for i := range rooms {
		out = append(out, toRoomResp(&rooms[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// Get returns a single room by id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
	}
	return c.JSON(http.StatusOK, toRoomResp(room))
}

// UpdateStatus changes a room's catalog status (admin only). Putting a
// room into Maintenance stops new bookings; existing bookings are kept.
func (h *RoomHandler) UpdateStatus(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, okStatus := parseRoomStatus(req.Status)
	if !okStatus {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.UpdateStatus(ctx, id, status); err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": string(status)})
}

// Delete removes a room from the catalog (admin only).
func (h *RoomHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.Delete(ctx, id); err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
