package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/venue-admin/internal/model"
)

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = fmt.Errorf("room %w", ErrNotFound)

// RoomRepo persists rooms and computes their remaining capacity from the
// active bookings in the same query.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// booked guests per room, ignoring cancelled and completed bookings
const roomSelect = `SELECT r.id, r.category, r.name, r.price, r.status, r.capacity, r.description, r.features,
	       r.image_path, r.created_at, r.updated_at, COALESCE(b.guests, 0)
	FROM rooms r
	LEFT JOIN (
	    SELECT room_id, SUM(guests) AS guests
	    FROM bookings
	    WHERE status NOT IN (?, ?)
	    GROUP BY room_id
	) b ON b.room_id = r.id`

func inactiveArgs() []any {
	return []any{model.InactiveBookingStatuses[0], model.InactiveBookingStatuses[1]}
}

func scanRoom(s rowScanner) (*model.Room, error) {
	var (
		r      model.Room
		booked uint32
	)
	if err := s.Scan(&r.ID, &r.Category, &r.Name, &r.Price, &r.Status, &r.Capacity, &r.Description,
		&r.Features, &r.ImagePath, &r.CreatedAt, &r.UpdatedAt, &booked); err != nil {
		return nil, err
	}
	r.SetBookedGuests(booked)
	return &r, nil
}

// List returns every room with its remaining capacity.
func (r *RoomRepo) List(ctx context.Context) ([]*model.Room, error) {
	rows, err := r.db.QueryContext(ctx, roomSelect+` ORDER BY r.id`, inactiveArgs()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// GetByID returns a room or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	room, err := scanRoom(r.db.QueryRowContext(ctx, roomSelect+` WHERE r.id = ?`, append(inactiveArgs(), id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// Create inserts a room and reloads it.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	const q = `INSERT INTO rooms (category, name, price, status, capacity, description, features, image_path)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, room.Category, room.Name, room.Price, room.Status, room.Capacity,
		room.Description, room.Features, room.ImagePath)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*room = *fresh
	return nil
}

// Update overwrites the editable columns of a room and reloads it.
func (r *RoomRepo) Update(ctx context.Context, room *model.Room) error {
	const q = `UPDATE rooms
	           SET category = ?, name = ?, price = ?, status = ?, capacity = ?, description = ?, features = ?,
	               image_path = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, room.Category, room.Name, room.Price, room.Status, room.Capacity,
		room.Description, room.Features, room.ImagePath, room.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	fresh, err := r.GetByID(ctx, room.ID)
	if err != nil {
		return err
	}
	*room = *fresh
	return nil
}

// Delete removes a room; its bookings cascade.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
