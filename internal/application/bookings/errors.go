package bookings

import (
	"errors"
	"fmt"

	"studio-backend/internal/domain"
)

// ErrNotFound is returned when a project id does not resolve.
var ErrNotFound = errors.New("Booking not found")

// ValidationError rejects a request before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CapacityExceededError means the requested month already holds Max non-cancelled bookings.
type CapacityExceededError struct {
	Month   string
	Current int64
	Max     int64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("Booking month %s is fully booked (%d/%d)", e.Month, e.Current, e.Max)
}

// InvalidTransitionError is returned when the lifecycle does not allow From -> To.
type InvalidTransitionError struct {
	From domain.ProjectStatus
	To   domain.ProjectStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("Cannot move booking from %s to %s", e.From, e.To)
}

// PersistenceError wraps a storage failure. Handlers report it without the cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// persistErr wraps err unless it is already a domain error or nil.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve  *ValidationError
		ce  *CapacityExceededError
		ite *InvalidTransitionError
		pe  *PersistenceError
	)
	if errors.Is(err, ErrNotFound) || errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &ite) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
