package guestlist

import (
	"context"
	"time"

	"github.com/iliyamo/guestlist/internal/model"
)

// TxRunner runs fn inside a single store transaction.  Stores carry the
// transaction in the context passed to fn.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore is the event persistence the engine needs.
type EventStore interface {
	// GetEvent returns ErrEventNotFound when no row exists.
	GetEvent(ctx context.Context, id uint64) (model.Event, error)
	// GetEventForUpdate locks the event row for the rest of the transaction.
	GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error)
	UpdateEventStatus(ctx context.Context, id uint64, status model.GuestlistStatus) error
}

// ReservationStore is the reservation persistence the engine needs.
type ReservationStore interface {
	// SumActiveUnits totals guest units of non-cancelled reservations on the
	// event, skipping excludeID (0 excludes nothing).
	SumActiveUnits(ctx context.Context, eventID, excludeID uint64) (int, error)
	// FindActive returns the patron's non-cancelled reservation or nil.
	FindActive(ctx context.Context, eventID, patronID uint64) (*model.Reservation, error)
	// Create inserts res and fills in ID and CreatedAt.  A duplicate active
	// (event, patron) pair yields ErrDuplicateReservation and a code
	// collision yields ErrConflict.
	Create(ctx context.Context, res *model.Reservation) error
	// GetByCode and GetByID return ErrReservationNotFound when absent.
	GetByCode(ctx context.Context, code string) (model.Reservation, error)
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	// GetByIDForUpdate locks the reservation row.
	GetByIDForUpdate(ctx context.Context, id uint64) (model.Reservation, error)
	// MarkRedeemed sets redeemed_at, redeeming venue and CHECKED_IN only if
	// redeemed_at is still NULL.  It reports whether the row changed.
	MarkRedeemed(ctx context.Context, id, venueID uint64, at time.Time) (bool, error)
	// SetStatus moves a CONFIRMED reservation to status and reports whether
	// the row changed.
	SetStatus(ctx context.Context, id uint64, status model.ReservationStatus) (bool, error)
	// UpdateGuests rewrites counts and named guests of a CONFIRMED
	// reservation and reports whether the row changed.
	UpdateGuests(ctx context.Context, id uint64, counts model.GuestCounts, guests []string) (bool, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Reservation, error)
	ListByPatron(ctx context.Context, patronID uint64) ([]model.Reservation, error)
}
