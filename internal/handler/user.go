package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swahilipot/room-booking/internal/model"
	"github.com/swahilipot/room-booking/internal/repository"
)

// UserHandler exposes the user directory to admins.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: u}
}

type userDirEntry struct {
	ID         uint64  `json:"id"`
	Email      string  `json:"email"`
	FullName   string  `json:"full_name"`
	Department *string `json:"department"`
	Role       string  `json:"role"`
	IsActive   bool    `json:"is_active"`
}

func toUserDirEntry(u *model.User) userDirEntry {
	return userDirEntry{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Department: u.Department,
		Role:       u.Role,
		IsActive:   u.IsActive,
	}
}

// List returns every registered user (admin only via routing).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]userDirEntry, 0, len(users))
	for i := range users {
		out = append(out, toUserDirEntry(&users[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Get returns a single user (admin only via routing).
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserDirEntry(&u))
}
