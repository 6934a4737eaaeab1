package guestlist

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/guestlist/internal/model"
)

// Spots is the remaining capacity of an event.  When Bounded is false the
// event has no limit and Count carries no meaning.
type Spots struct {
	Bounded bool
	Count   int
}

// Unbounded is the sentinel for events without a limit.
var Unbounded = Spots{}

// Fits reports whether units more guest units can be admitted.
func (s Spots) Fits(units int) bool {
	return !s.Bounded || units <= s.Count
}

// MarshalJSON renders unbounded capacity as null.
func (s Spots) MarshalJSON() ([]byte, error) {
	if !s.Bounded {
		return []byte("null"), nil
	}
	return json.Marshal(s.Count)
}

// Remaining computes limit − total for ev, floored at zero.  An event whose
// limit was lowered below its admitted total reports zero, not a negative.
func Remaining(ev model.Event, total int) Spots {
	if ev.Limit == nil {
		return Unbounded
	}
	left := *ev.Limit - total
	if left < 0 {
		left = 0
	}
	return Spots{Bounded: true, Count: left}
}

// Ledger answers capacity questions over committed reservations.  Inside a
// transaction it sees the transaction's own writes.
type Ledger struct {
	reservations ReservationStore
}

// NewLedger returns a Ledger over the given store.
func NewLedger(reservations ReservationStore) Ledger {
	return Ledger{reservations: reservations}
}

// CurrentTotal sums guest units of all non-cancelled reservations on the event.
func (l Ledger) CurrentTotal(ctx context.Context, eventID uint64) (int, error) {
	return l.reservations.SumActiveUnits(ctx, eventID, 0)
}

// TotalExcluding is CurrentTotal without one reservation's units, used when
// that reservation is being resized.
func (l Ledger) TotalExcluding(ctx context.Context, eventID, reservationID uint64) (int, error) {
	return l.reservations.SumActiveUnits(ctx, eventID, reservationID)
}

// RemainingNow loads the current total and returns the event's remaining spots.
func (l Ledger) RemainingNow(ctx context.Context, ev model.Event) (Spots, int, error) {
	total, err := l.CurrentTotal(ctx, ev.ID)
	if err != nil {
		return Spots{}, 0, err
	}
	return Remaining(ev, total), total, nil
}
