package guestlist

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrGuestlistClosed      = errors.New("guestlist closed")
	ErrEmptyRequest         = errors.New("no guests requested")
	ErrInvalidCounts        = errors.New("invalid guest counts")
	ErrDuplicateReservation = errors.New("patron already holds a reservation for this event")
	ErrCapacityExceeded     = errors.New("guestlist capacity exceeded")
	ErrWrongVenue           = errors.New("event belongs to another venue")
	ErrForbidden            = errors.New("forbidden")
	ErrReservationLocked    = errors.New("reservation can no longer be changed")
	ErrReservationCancelled = errors.New("reservation cancelled")

	// ErrConflict is returned by stores when a transaction lost a race
	// (deadlock, lock wait timeout, unique code collision).  Admission
	// retries it; it never reaches callers unless retries run out.
	ErrConflict = errors.New("concurrent update conflict")
)

// CapacityError carries the spots still available when a request does not fit.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: requested %d, remaining %d", ErrCapacityExceeded, e.Requested, e.Remaining)
}

// Is lets errors.Is(err, ErrCapacityExceeded) match.
func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }
