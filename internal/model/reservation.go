package model

import "time"

// ReservationStatus is the state of a single guestlist booking.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCheckedIn ReservationStatus = "CHECKED_IN"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// GuestCounts is the requested party composition.  A paired entry takes
// two guest units; each single entry takes one.
type GuestCounts struct {
	Paired  int
	SingleA int
	SingleB int
}

// Units returns the capacity consumed by the counts.
func (g GuestCounts) Units() int {
	return 2*g.Paired + g.SingleA + g.SingleB
}

// Reservation records one patron's claim against an event's guestlist.
// It corresponds to a row in the `reservations` table; named guests live
// in `reservation_guests`.
//
// Fields:
//  ID               – primary key identifier.
//  EventID          – event the reservation belongs to.
//  PatronID         – user who owns the reservation.
//  Counts           – paired / single-A / single-B guest counts.
//  Guests           – optional named guest list.
//  Status           – CONFIRMED, CHECKED_IN or CANCELLED.
//  Code             – unique redemption code presented at the door.
//  RedeemedAt       – when the reservation was checked in (nil until then).
//  RedeemingVenueID – venue whose staff redeemed it (nil until then).
//  CreatedAt        – creation timestamp.
type Reservation struct {
	ID               uint64            // reservations.id
	EventID          uint64            // reservations.event_id
	PatronID         uint64            // reservations.patron_id
	Counts           GuestCounts       // reservations.paired_count, single_a_count, single_b_count
	Guests           []string          // reservation_guests.name
	Status           ReservationStatus // reservations.status
	Code             string            // reservations.code
	RedeemedAt       *time.Time        // reservations.redeemed_at (nullable)
	RedeemingVenueID *uint64           // reservations.redeeming_venue_id (nullable)
	CreatedAt        time.Time         // reservations.created_at
}

// GuestUnits returns the capacity the reservation consumes.
func (r Reservation) GuestUnits() int { return r.Counts.Units() }

// Active reports whether the reservation still counts toward capacity.
func (r Reservation) Active() bool { return r.Status != ReservationCancelled }

// Redeemed reports whether the reservation has been checked in.
func (r Reservation) Redeemed() bool { return r.RedeemedAt != nil }
