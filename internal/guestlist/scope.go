package guestlist

import "github.com/iliyamo/guestlist/internal/model"

// Scope identifies who is acting.  Exactly one of PatronID or VenueID is
// set for authenticated callers.
type Scope struct {
	PatronID uint64
	VenueID  uint64
}

// PatronScope returns the scope of a patron acting on their own bookings.
func PatronScope(patronID uint64) Scope { return Scope{PatronID: patronID} }

// VenueScope returns the scope of an operator acting for a venue.
func VenueScope(venueID uint64) Scope { return Scope{VenueID: venueID} }

// IsVenue reports whether the caller is a venue operator.
func (s Scope) IsVenue() bool { return s.VenueID != 0 }

// Guard is the single place tenant ownership is checked.
type Guard struct{}

// EventOwnedBy fails with ErrWrongVenue unless venueID owns ev.
func (Guard) EventOwnedBy(ev model.Event, venueID uint64) error {
	if venueID == 0 || ev.VenueID != venueID {
		return ErrWrongVenue
	}
	return nil
}

// ReservationOwnedBy fails with ErrForbidden unless patronID owns res.
func (Guard) ReservationOwnedBy(res model.Reservation, patronID uint64) error {
	if patronID == 0 || res.PatronID != patronID {
		return ErrForbidden
	}
	return nil
}

// Authorize checks a reservation on ev against scope: venues must own the
// event, patrons must own the reservation.
func (g Guard) Authorize(scope Scope, ev model.Event, res model.Reservation) error {
	if scope.IsVenue() {
		return g.EventOwnedBy(ev, scope.VenueID)
	}
	return g.ReservationOwnedBy(res, scope.PatronID)
}
