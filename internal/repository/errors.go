// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by primary key matches no row.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot be performed because the row
// changed underneath it, e.g. a match status advanced concurrently.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrPredictionsClosed is returned when a prediction is written for a match
// that is no longer upcoming.  Handlers should translate this into 403.
var ErrPredictionsClosed = errors.New("predictions closed for this match")

// ErrCapacityExceeded is returned when a booking would seat more guests than
// the room has left.
var ErrCapacityExceeded = errors.New("room capacity exceeded")

// isDuplicate reports whether err is a MySQL duplicate-key error.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
