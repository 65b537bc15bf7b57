package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/venue-admin/internal/model"
)

// ErrBookingNotFound is returned when a booking lookup fails.
var ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)

// BookingRepo persists room bookings.  Writes that add active guests lock the
// room row so two bookings cannot both take the last seats.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

const bookingColumns = `id, room_id, customer_name, phone, guests, status, starts_at, created_at, updated_at`

func scanBooking(s rowScanner) (*model.Booking, error) {
	var b model.Booking
	if err := s.Scan(&b.ID, &b.RoomID, &b.CustomerName, &b.Phone, &b.Guests, &b.Status, &b.StartsAt,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// remaining locks the room and returns how many guests it can still take,
// not counting the booking excludeID.
func remaining(ctx context.Context, tx *sql.Tx, roomID, excludeID uint64) (uint32, error) {
	var capacity uint32
	err := tx.QueryRowContext(ctx, `SELECT capacity FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRoomNotFound
	}
	if err != nil {
		return 0, err
	}
	var booked uint32
	args := append(inactiveArgs(), roomID, excludeID)
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(guests), 0) FROM bookings WHERE status NOT IN (?, ?) AND room_id = ? AND id <> ?`,
		args...).Scan(&booked); err != nil {
		return 0, err
	}
	if booked >= capacity {
		return 0, nil
	}
	return capacity - booked, nil
}

// Create inserts a booking.  Active bookings must fit in the room's
// remaining capacity, otherwise ErrCapacityExceeded is returned.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	left, err := remaining(ctx, tx, b.RoomID, 0)
	if err != nil {
		return err
	}
	if b.Active() && b.Guests > left {
		return ErrCapacityExceeded
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (room_id, customer_name, phone, guests, status, starts_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.RoomID, b.CustomerName, b.Phone, b.Guests, b.Status, b.StartsAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*b = *fresh
	return nil
}

// ListByRoom returns the bookings of a room, newest first.
func (r *BookingRepo) ListByRoom(ctx context.Context, roomID uint64) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE room_id = ? ORDER BY created_at DESC, id DESC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus changes a booking's status.  Reactivating a cancelled or
// completed booking re-checks the room capacity.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	next := *cur
	next.Status = status
	if !cur.Active() && next.Active() {
		left, err := remaining(ctx, tx, cur.RoomID, cur.ID)
		if err != nil {
			return nil, err
		}
		if cur.Guests > left {
			return nil, ErrCapacityExceeded
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id); err != nil {
		return nil, err
	}
	fresh, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return fresh, tx.Commit()
}
