package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/swahilipot/room-booking/internal/model"
)

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepo provides access to the rooms catalog.  The scheduler only
// reads from it; writes happen through the admin catalog endpoints.
// Amenities are stored as a JSON array in a TEXT column.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = "id, name, space, capacity, amenities, status, created_at, updated_at"

// Create inserts a new room.  Name, Space and Capacity must be set;
// Status defaults to Available when empty.  After insert the record is
// read back so ID, timestamps and defaults are populated.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	if room.Status == "" {
		room.Status = model.RoomStatusAvailable
	}
	amenities, err := json.Marshal(room.Amenities)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (name, space, capacity, amenities, status) VALUES (?, ?, ?, ?, ?)`,
		room.Name, room.Space, room.Capacity, string(amenities), string(room.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	got, err := r.GetByID(ctx, room.ID)
	if err != nil {
		return err
	}
	*room = *got
	return nil
}

func scanRoom(scan func(dest ...any) error) (*model.Room, error) {
	var room model.Room
	var amenities []byte
	var status string
	if err := scan(&room.ID, &room.Name, &room.Space, &room.Capacity, &amenities, &status, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	room.Status = model.RoomStatus(status)
	room.Amenities = []string{}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &room.Amenities); err != nil {
			return nil, err
		}
	}
	return &room, nil
}

// GetByID retrieves a room by its ID.  It returns ErrRoomNotFound when
// no row exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// List returns the full room catalog ordered by id.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *room)
	}
	return out, rows.Err()
}

// UpdateStatus changes a room's catalog status (e.g. to Maintenance).
// It returns ErrRoomNotFound when the room does not exist.
func (r *RoomRepo) UpdateStatus(ctx context.Context, id uint64, status model.RoomStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "status unchanged".
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a room from the catalog.  It returns ErrRoomNotFound
// when the room does not exist.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
