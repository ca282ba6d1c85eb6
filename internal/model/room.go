package model

import "time"

// RoomStatus is the availability state shown in the room catalog.  Only
// Maintenance affects scheduling: rooms under maintenance cannot receive
// new bookings.  The other states are informational labels managed by
// admins through the catalog endpoints.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "Available"
	RoomStatusReserved    RoomStatus = "Reserved"
	RoomStatusBooked      RoomStatus = "Booked"
	RoomStatusMaintenance RoomStatus = "Maintenance"
)

// Room represents a bookable physical room.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the room.
//  Space     – floor/location label (e.g. "Ground Floor").
//  Capacity  – seating capacity, at least 1.
//  Amenities – tags such as "projector" or "whiteboard".
//  Status    – catalog availability state.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
	ID        uint64     // rooms.id
	Name      string     // rooms.name
	Space     string     // rooms.space
	Capacity  uint32     // rooms.capacity
	Amenities []string   // rooms.amenities (JSON array in a TEXT column)
	Status    RoomStatus // rooms.status
	CreatedAt time.Time  // rooms.created_at
	UpdatedAt time.Time  // rooms.updated_at
}

// Usable reports whether the room may accept new bookings.  Every status
// except Maintenance is usable; Reserved and Booked are display states,
// not scheduling constraints.
func (r Room) Usable() bool {
	return r.Status != RoomStatusMaintenance
}
