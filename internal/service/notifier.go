package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/guestlist/internal/clock"
	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/model"
	"github.com/iliyamo/guestlist/internal/queue"
)

const publishTimeout = 3 * time.Second

// Notifier turns committed guestlist results into queue events.  Publish
// failures are logged and never reach the caller; the database is the
// source of truth.
type Notifier struct {
	pub   Publisher
	clock clock.Clock
	log   *slog.Logger
}

// NewNotifier returns a Notifier.  A nil Publisher disables publishing.
func NewNotifier(pub Publisher, clk clock.Clock, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{pub: pub, clock: clk, log: log}
}

// Admitted reports a new reservation and any status transition it caused.
func (n *Notifier) Admitted(ctx context.Context, a guestlist.Admission) {
	n.admission(ctx, queue.TypeReservationAdmitted, a)
}

// Amended reports a resized reservation.
func (n *Notifier) Amended(ctx context.Context, a guestlist.Admission) {
	n.admission(ctx, queue.TypeReservationAmended, a)
}

func (n *Notifier) admission(ctx context.Context, typ string, a guestlist.Admission) {
	res := a.Reservation
	ev := queue.Event{
		Type:          typ,
		EventID:       res.EventID,
		VenueID:       a.Event.VenueID,
		ReservationID: res.ID,
		PatronID:      res.PatronID,
		GuestUnits:    res.GuestUnits(),
		Status:        string(res.Status),
		Remaining:     remaining(a.Remaining),
	}
	n.publish(ctx, ev)
	if a.Transitioned {
		n.StatusChanged(ctx, a.Event, a.Previous, a.Remaining)
	}
}

// StatusChanged reports a stored guestlist status transition.
func (n *Notifier) StatusChanged(ctx context.Context, ev model.Event, previous model.GuestlistStatus, left guestlist.Spots) {
	n.publish(ctx, queue.Event{
		Type:      queue.TypeGuestlistStatusChange,
		EventID:   ev.ID,
		VenueID:   ev.VenueID,
		Status:    string(ev.Status),
		Previous:  string(previous),
		Remaining: remaining(left),
	})
}

// Redeemed reports a successful door check-in.
func (n *Notifier) Redeemed(ctx context.Context, venueID uint64, out guestlist.Outcome) {
	if !out.Valid {
		return
	}
	res := out.Reservation
	n.publish(ctx, queue.Event{
		Type:          queue.TypeReservationRedeemed,
		EventID:       res.EventID,
		VenueID:       venueID,
		ReservationID: res.ID,
		PatronID:      res.PatronID,
		GuestUnits:    out.GuestUnits,
		Status:        string(res.Status),
	})
}

// Cancelled reports a cancellation, attributed to the event's venue.
func (n *Notifier) Cancelled(ctx context.Context, c guestlist.Cancellation) {
	res := c.Reservation
	n.publish(ctx, queue.Event{
		Type:          queue.TypeReservationCancelled,
		EventID:       res.EventID,
		VenueID:       c.Event.VenueID,
		ReservationID: res.ID,
		PatronID:      res.PatronID,
		GuestUnits:    res.GuestUnits(),
		Status:        string(res.Status),
	})
}

func (n *Notifier) publish(ctx context.Context, ev queue.Event) {
	if n == nil || n.pub == nil {
		return
	}
	ev.OccurredAt = n.clock.Now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := n.pub.Publish(ctx, ev); err != nil {
		n.log.Warn("publish event failed", "type", ev.Type, "event_id", ev.EventID, "err", err)
	}
}

func remaining(s guestlist.Spots) *int {
	if !s.Bounded {
		return nil
	}
	n := s.Count
	return &n
}
