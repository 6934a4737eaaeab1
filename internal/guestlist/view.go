package guestlist

import (
	"context"
	"time"

	"github.com/iliyamo/guestlist/internal/clock"
	"github.com/iliyamo/guestlist/internal/model"
)

// EventView is what any display surface shows about an event's guestlist.
type EventView struct {
	Event     model.Event
	Effective model.GuestlistStatus
	ClosesAt  *time.Time
	Total     int
	Remaining Spots
}

// Viewer serves read-only guestlist views.  All status shown to clients
// goes through it so the time rules live in one place.
type Viewer struct {
	events       EventStore
	reservations ReservationStore
	ledger       Ledger
	resolver     Resolver
	guard        Guard
	clock        clock.Clock
}

// NewViewer wires a Viewer.
func NewViewer(events EventStore, reservations ReservationStore, resolver Resolver, clk clock.Clock) *Viewer {
	return &Viewer{
		events:       events,
		reservations: reservations,
		ledger:       NewLedger(reservations),
		resolver:     resolver,
		clock:        clk,
	}
}

// EventStatus returns the effective status and remaining capacity of an event.
func (v *Viewer) EventStatus(ctx context.Context, eventID uint64) (EventView, error) {
	ev, err := v.events.GetEvent(ctx, eventID)
	if err != nil {
		return EventView{}, err
	}
	return v.view(ctx, ev)
}

// VenueGuestlist returns an event's view and reservations for the venue
// that owns it.
func (v *Viewer) VenueGuestlist(ctx context.Context, eventID, venueID uint64) (EventView, []model.Reservation, error) {
	ev, err := v.events.GetEvent(ctx, eventID)
	if err != nil {
		return EventView{}, nil, err
	}
	if err := v.guard.EventOwnedBy(ev, venueID); err != nil {
		return EventView{}, nil, err
	}
	view, err := v.view(ctx, ev)
	if err != nil {
		return EventView{}, nil, err
	}
	list, err := v.reservations.ListByEvent(ctx, eventID)
	if err != nil {
		return EventView{}, nil, err
	}
	return view, list, nil
}

// PatronReservations lists a patron's reservations, newest first.
func (v *Viewer) PatronReservations(ctx context.Context, patronID uint64) ([]model.Reservation, error) {
	return v.reservations.ListByPatron(ctx, patronID)
}

// PatronReservation returns one reservation owned by patronID.
func (v *Viewer) PatronReservation(ctx context.Context, id, patronID uint64) (model.Reservation, error) {
	res, err := v.reservations.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := v.guard.ReservationOwnedBy(res, patronID); err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

func (v *Viewer) view(ctx context.Context, ev model.Event) (EventView, error) {
	remaining, total, err := v.ledger.RemainingNow(ctx, ev)
	if err != nil {
		return EventView{}, err
	}
	out := EventView{
		Event:     ev,
		Effective: v.resolver.Effective(ev, v.clock.Now()),
		Total:     total,
		Remaining: remaining,
	}
	if at, ok := v.resolver.CloseInstant(ev); ok {
		out.ClosesAt = &at
	}
	return out, nil
}
