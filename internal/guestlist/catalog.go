package guestlist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/guestlist/internal/clock"
	"github.com/iliyamo/guestlist/internal/metrics"
	"github.com/iliyamo/guestlist/internal/model"
)

// ErrInvalidEvent is returned for event drafts that cannot be scheduled.
var ErrInvalidEvent = errors.New("invalid event settings")

// EventCatalog is the event persistence venue operators manage.
type EventCatalog interface {
	// CreateEvent inserts ev and fills in ID and timestamps.
	CreateEvent(ctx context.Context, ev *model.Event) error
	ListByVenue(ctx context.Context, venueID uint64) ([]model.Event, error)
	// UpdateSettings rewrites the capacity and time rules of an event.
	UpdateSettings(ctx context.Context, id uint64, s EventSettings) error
}

// EventSettings are the operator-controlled rules of a guestlist.
type EventSettings struct {
	Date             time.Time
	StartTime        model.TimeOfDay
	Limit            *int
	ClosingThreshold *int
	CloseTime        *model.TimeOfDay
	CloseOnStart     bool
}

func (s EventSettings) validate() error {
	if s.Date.IsZero() {
		return ErrInvalidEvent
	}
	if s.Limit != nil && *s.Limit < 0 {
		return ErrInvalidEvent
	}
	if s.ClosingThreshold != nil && *s.ClosingThreshold < 0 {
		return ErrInvalidEvent
	}
	return nil
}

// Apply copies the settings onto ev.  Date is truncated to its calendar day.
func (s EventSettings) Apply(ev *model.Event) {
	y, m, d := s.Date.Date()
	ev.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ev.StartTime = s.StartTime
	ev.Limit = s.Limit
	ev.ClosingThreshold = s.ClosingThreshold
	ev.CloseTime = s.CloseTime
	ev.CloseOnStart = s.CloseOnStart
}

// Catalog lets venue operators schedule events and tune their guestlists.
type Catalog struct {
	tx      TxRunner
	events  EventStore
	catalog EventCatalog
	ledger  Ledger
	viewer  *Viewer
	guard   Guard
	clock   clock.Clock
	log     *slog.Logger
}

// NewCatalog wires a Catalog.
func NewCatalog(tx TxRunner, events EventStore, catalog EventCatalog, reservations ReservationStore, viewer *Viewer, clk clock.Clock, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{
		tx:      tx,
		events:  events,
		catalog: catalog,
		ledger:  NewLedger(reservations),
		viewer:  viewer,
		clock:   clk,
		log:     log,
	}
}

// Schedule creates an OPEN event owned by venueID.
func (c *Catalog) Schedule(ctx context.Context, venueID uint64, s EventSettings) (model.Event, error) {
	if venueID == 0 {
		return model.Event{}, ErrWrongVenue
	}
	if err := s.validate(); err != nil {
		return model.Event{}, err
	}
	ev := model.Event{VenueID: venueID, Status: model.GuestlistOpen}
	s.Apply(&ev)
	if ev.Limit != nil && *ev.Limit == 0 {
		ev.Status = model.GuestlistClosed
	}
	if err := c.catalog.CreateEvent(ctx, &ev); err != nil {
		return model.Event{}, err
	}
	c.log.Info("event scheduled", "event_id", ev.ID, "venue_id", venueID)
	return ev, nil
}

// VenueEvents lists the venue's events with their effective status.
func (c *Catalog) VenueEvents(ctx context.Context, venueID uint64) ([]EventView, error) {
	events, err := c.catalog.ListByVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	out := make([]EventView, 0, len(events))
	for _, ev := range events {
		v, err := c.viewer.view(ctx, ev)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Transition records a stored status change made by an operator.
type Transition struct {
	Event    model.Event
	Previous model.GuestlistStatus
}

// Changed reports whether the stored status moved.
func (t Transition) Changed() bool { return t.Previous != t.Event.Status }

// Reconfigure replaces an event's guestlist settings.  Lowering the limit
// to or below the admitted total closes the list; nothing here moves the
// stored status backward.
func (c *Catalog) Reconfigure(ctx context.Context, venueID, eventID uint64, s EventSettings) (EventView, Transition, error) {
	if err := s.validate(); err != nil {
		return EventView{}, Transition{}, err
	}
	var tr Transition
	err := c.tx.WithTx(ctx, func(txCtx context.Context) error {
		ev, err := c.events.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := c.guard.EventOwnedBy(ev, venueID); err != nil {
			return err
		}
		if err := c.catalog.UpdateSettings(txCtx, ev.ID, s); err != nil {
			return err
		}
		s.Apply(&ev)
		tr = Transition{Event: ev, Previous: ev.Status}
		total, err := c.ledger.CurrentTotal(txCtx, ev.ID)
		if err != nil {
			return err
		}
		if next := nextStatus(ev, total); next.Rank() > ev.Status.Rank() {
			if err := c.events.UpdateEventStatus(txCtx, ev.ID, next); err != nil {
				return err
			}
			tr.Event.Status = next
		}
		return nil
	})
	if err != nil {
		return EventView{}, Transition{}, err
	}
	if tr.Changed() {
		metrics.StatusTransitions.WithLabelValues(string(tr.Event.Status)).Inc()
	}
	c.log.Info("event reconfigured", "event_id", tr.Event.ID, "venue_id", venueID, "status", tr.Event.Status)
	view, err := c.viewer.view(ctx, tr.Event)
	if err != nil {
		return EventView{}, Transition{}, err
	}
	return view, tr, nil
}

// Close shuts an event's guestlist immediately.  It is terminal; closing
// an already closed list changes nothing.
func (c *Catalog) Close(ctx context.Context, venueID, eventID uint64) (Transition, error) {
	var tr Transition
	err := c.tx.WithTx(ctx, func(txCtx context.Context) error {
		ev, err := c.events.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := c.guard.EventOwnedBy(ev, venueID); err != nil {
			return err
		}
		tr = Transition{Event: ev, Previous: ev.Status}
		if ev.Status == model.GuestlistClosed {
			return nil
		}
		if err := c.events.UpdateEventStatus(txCtx, ev.ID, model.GuestlistClosed); err != nil {
			return err
		}
		tr.Event.Status = model.GuestlistClosed
		return nil
	})
	if err != nil {
		return Transition{}, err
	}
	if tr.Changed() {
		metrics.StatusTransitions.WithLabelValues(string(model.GuestlistClosed)).Inc()
		c.log.Info("guestlist closed by operator", "event_id", eventID, "venue_id", venueID)
	}
	return tr, nil
}
