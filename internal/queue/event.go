// Package queue carries guestlist domain events over RabbitMQ and keeps
// the audit trail written from them.
package queue

import "time"

// QueueName is the durable queue every guestlist event is published to.
const QueueName = "guestlist.events"

// Event types.
const (
	TypeReservationAdmitted   = "reservation.admitted"
	TypeReservationAmended    = "reservation.amended"
	TypeReservationRedeemed   = "reservation.redeemed"
	TypeReservationCancelled  = "reservation.cancelled"
	TypeGuestlistStatusChange = "guestlist.status_changed"
)

// Event is published after a guestlist change has been committed.  It
// carries enough for consumers to log, notify or aggregate without
// querying the database.  Fields that do not apply to Type are omitted.
type Event struct {
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	EventID       uint64    `json:"event_id"`
	VenueID       uint64    `json:"venue_id,omitempty"`
	ReservationID uint64    `json:"reservation_id,omitempty"`
	PatronID      uint64    `json:"patron_id,omitempty"`
	GuestUnits    int       `json:"guest_units,omitempty"`
	Status        string    `json:"status,omitempty"`
	Previous      string    `json:"previous_status,omitempty"`
	Remaining     *int      `json:"remaining,omitempty"`
}
