package model

import "time"

// GuestlistStatus is the lifecycle state of an event's guestlist.  The
// values are ordered: OPEN < CLOSING < CLOSED.
type GuestlistStatus string

const (
	GuestlistOpen    GuestlistStatus = "OPEN"
	GuestlistClosing GuestlistStatus = "CLOSING"
	GuestlistClosed  GuestlistStatus = "CLOSED"
)

// Rank returns the position of s in the OPEN < CLOSING < CLOSED ordering.
// Unknown values rank as OPEN.
func (s GuestlistStatus) Rank() int {
	switch s {
	case GuestlistClosing:
		return 1
	case GuestlistClosed:
		return 2
	}
	return 0
}

// Valid reports whether s is one of the known statuses.
func (s GuestlistStatus) Valid() bool {
	switch s {
	case GuestlistOpen, GuestlistClosing, GuestlistClosed:
		return true
	}
	return false
}

// Event is one scheduled occasion at a venue.  It corresponds to a row in
// the `events` table.  Date holds only the calendar day; StartTime and
// CloseTime are wall-clock times on that day in the venue's time zone.
//
// Fields:
//  ID               – primary key identifier.
//  VenueID          – venue that owns the event.
//  Date             – occasion date (time part ignored).
//  StartTime        – door/start time.
//  Status           – stored guestlist status.
//  Limit            – capacity in guest units (nil = unlimited).
//  ClosingThreshold – remaining units at which the list moves to CLOSING.
//  CloseTime        – explicit guestlist close time (nil if unset).
//  CloseOnStart     – close the guestlist at StartTime when CloseTime is unset.
type Event struct {
	ID               uint64          // events.id
	VenueID          uint64          // events.venue_id
	Date             time.Time       // events.event_date
	StartTime        TimeOfDay       // events.start_time
	Status           GuestlistStatus // events.guestlist_status
	Limit            *int            // events.guest_limit (nullable)
	ClosingThreshold *int            // events.closing_threshold (nullable)
	CloseTime        *TimeOfDay      // events.close_time (nullable)
	CloseOnStart     bool            // events.close_on_start
	CreatedAt        time.Time       // events.created_at
	UpdatedAt        time.Time       // events.updated_at
}

// HasLimit reports whether the event caps its guestlist.
func (e Event) HasLimit() bool { return e.Limit != nil }
