package guestlist

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/guestlist/internal/clock"
	"github.com/iliyamo/guestlist/internal/metrics"
	"github.com/iliyamo/guestlist/internal/model"
)

const (
	defaultMaxAttempts = 3
	maxNamedGuests     = 64

	// MaxCount bounds each of paired, single A and single B on one request.
	MaxCount = 10_000
)

// Admissions is the transactional entry point for creating and resizing
// reservations.  Every decision is taken while the event row is locked, so
// two concurrent requests on the same event are serialized by the store.
type Admissions struct {
	tx           TxRunner
	events       EventStore
	reservations ReservationStore
	ledger       Ledger
	resolver     Resolver
	guard        Guard
	clock        clock.Clock
	log          *slog.Logger
	maxAttempts  int
	newCode      func() string
}

// Option configures Admissions.
type Option func(*Admissions)

// WithMaxAttempts bounds how many times a conflicting transaction is run.
func WithMaxAttempts(n int) Option {
	return func(a *Admissions) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithLogger sets the logger used for retries and transitions.
func WithLogger(l *slog.Logger) Option {
	return func(a *Admissions) {
		if l != nil {
			a.log = l
		}
	}
}

// WithCodeGenerator replaces the redemption code generator.
func WithCodeGenerator(fn func() string) Option {
	return func(a *Admissions) {
		if fn != nil {
			a.newCode = fn
		}
	}
}

// NewAdmissions wires an admission controller.
func NewAdmissions(tx TxRunner, events EventStore, reservations ReservationStore, resolver Resolver, clk clock.Clock, opts ...Option) *Admissions {
	a := &Admissions{
		tx:           tx,
		events:       events,
		reservations: reservations,
		ledger:       NewLedger(reservations),
		resolver:     resolver,
		clock:        clk,
		log:          slog.Default(),
		maxAttempts:  defaultMaxAttempts,
		newCode:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AdmitRequest asks for guest units on an event.  Scope is the caller; an
// operator admitting at the door passes a venue scope and the patron the
// booking is made for.
type AdmitRequest struct {
	EventID  uint64
	PatronID uint64
	Counts   model.GuestCounts
	Guests   []string
	Scope    Scope
}

// Admission is the result of a successful admission or amendment.
type Admission struct {
	Reservation  model.Reservation
	Event        model.Event // stored state after any transition
	Total        int         // admitted guest units after the write
	Remaining    Spots
	Transitioned bool
	Previous     model.GuestlistStatus
}

// Admit creates a reservation if the guestlist is open, the patron holds
// no other active reservation on the event and the request fits the
// remaining capacity.  A fill that reaches the limit closes the stored
// guestlist; crossing the closing threshold moves it from OPEN to CLOSING.
//
// Malformed requests (empty, negative or oversized counts, too many names)
// are rejected before the event is read, so an empty request on a closed
// guestlist reports ErrEmptyRequest rather than ErrGuestlistClosed.
func (a *Admissions) Admit(ctx context.Context, req AdmitRequest) (Admission, error) {
	start := time.Now()
	defer func() { metrics.AdmissionDuration.Observe(time.Since(start).Seconds()) }()

	guests, err := validateRequest(req.Counts, req.Guests)
	if err != nil {
		metrics.Admissions.WithLabelValues(admissionResult(err)).Inc()
		return Admission{}, err
	}
	if req.PatronID == 0 {
		metrics.Admissions.WithLabelValues(admissionResult(ErrForbidden)).Inc()
		return Admission{}, ErrForbidden
	}

	var out Admission
	err = a.retry(ctx, "admit", func(txCtx context.Context) error {
		var err error
		out, err = a.admitOnce(txCtx, req, guests)
		return err
	})
	metrics.Admissions.WithLabelValues(admissionResult(err)).Inc()
	if err != nil {
		return Admission{}, err
	}
	a.logTransition(out)
	return out, nil
}

func (a *Admissions) admitOnce(ctx context.Context, req AdmitRequest, guests []string) (Admission, error) {
	now := a.clock.Now()
	ev, err := a.events.GetEventForUpdate(ctx, req.EventID)
	if err != nil {
		return Admission{}, err
	}
	if req.Scope.IsVenue() {
		if err := a.guard.EventOwnedBy(ev, req.Scope.VenueID); err != nil {
			return Admission{}, err
		}
	}
	if a.resolver.Effective(ev, now) == model.GuestlistClosed {
		return Admission{}, ErrGuestlistClosed
	}

	existing, err := a.reservations.FindActive(ctx, ev.ID, req.PatronID)
	if err != nil {
		return Admission{}, err
	}
	if existing != nil {
		return Admission{}, ErrDuplicateReservation
	}

	total, err := a.ledger.CurrentTotal(ctx, ev.ID)
	if err != nil {
		return Admission{}, err
	}
	units := req.Counts.Units()
	if spots := Remaining(ev, total); !spots.Fits(units) {
		return Admission{}, &CapacityError{Requested: units, Remaining: spots.Count}
	}

	res := model.Reservation{
		EventID:   ev.ID,
		PatronID:  req.PatronID,
		Counts:    req.Counts,
		Guests:    guests,
		Status:    model.ReservationConfirmed,
		Code:      a.newCode(),
		CreatedAt: now,
	}
	if err := a.reservations.Create(ctx, &res); err != nil {
		return Admission{}, err
	}
	return a.advance(ctx, ev, res, total+units)
}

// AmendRequest resizes a patron's confirmed reservation.
type AmendRequest struct {
	ReservationID uint64
	PatronID      uint64
	Counts        model.GuestCounts
	Guests        []string
}

// AmendGuests changes the guest counts of a confirmed reservation.  The
// reservation's own units are excluded from the capacity check so a patron
// can always shrink or keep their party.  Checked-in and cancelled
// reservations are locked.
//
// The reservation's event is resolved before the transaction starts; the
// transaction's first read is the event row lock, so the capacity sum sees
// every admission committed ahead of it.
func (a *Admissions) AmendGuests(ctx context.Context, req AmendRequest) (Admission, error) {
	guests, err := validateRequest(req.Counts, req.Guests)
	if err != nil {
		return Admission{}, err
	}
	current, err := a.reservations.GetByID(ctx, req.ReservationID)
	if err != nil {
		return Admission{}, err
	}
	if err := a.guard.ReservationOwnedBy(current, req.PatronID); err != nil {
		return Admission{}, err
	}

	var out Admission
	err = a.retry(ctx, "amend", func(txCtx context.Context) error {
		var err error
		out, err = a.amendOnce(txCtx, req, current.EventID, guests)
		return err
	})
	if err != nil {
		return Admission{}, err
	}
	a.logTransition(out)
	return out, nil
}

func (a *Admissions) amendOnce(ctx context.Context, req AmendRequest, eventID uint64, guests []string) (Admission, error) {
	now := a.clock.Now()
	ev, err := a.events.GetEventForUpdate(ctx, eventID)
	if err != nil {
		return Admission{}, err
	}
	res, err := a.reservations.GetByIDForUpdate(ctx, req.ReservationID)
	if err != nil {
		return Admission{}, err
	}
	if res.EventID != ev.ID {
		return Admission{}, ErrReservationNotFound
	}
	if err := a.guard.ReservationOwnedBy(res, req.PatronID); err != nil {
		return Admission{}, err
	}
	if res.Status != model.ReservationConfirmed || res.Redeemed() {
		return Admission{}, ErrReservationLocked
	}
	if a.resolver.Effective(ev, now) == model.GuestlistClosed {
		return Admission{}, ErrGuestlistClosed
	}

	others, err := a.ledger.TotalExcluding(ctx, ev.ID, res.ID)
	if err != nil {
		return Admission{}, err
	}
	units := req.Counts.Units()
	if spots := Remaining(ev, others); !spots.Fits(units) {
		return Admission{}, &CapacityError{Requested: units, Remaining: spots.Count}
	}
	changed, err := a.reservations.UpdateGuests(ctx, res.ID, req.Counts, guests)
	if err != nil {
		return Admission{}, err
	}
	if !changed {
		return Admission{}, ErrReservationLocked
	}
	res.Counts = req.Counts
	res.Guests = guests
	return a.advance(ctx, ev, res, others+units)
}

// advance applies the forward-only stored status transition for newTotal.
func (a *Admissions) advance(ctx context.Context, ev model.Event, res model.Reservation, newTotal int) (Admission, error) {
	out := Admission{
		Reservation: res,
		Event:       ev,
		Total:       newTotal,
		Remaining:   Remaining(ev, newTotal),
		Previous:    ev.Status,
	}
	next := nextStatus(ev, newTotal)
	if next.Rank() <= ev.Status.Rank() {
		return out, nil
	}
	if err := a.events.UpdateEventStatus(ctx, ev.ID, next); err != nil {
		return Admission{}, err
	}
	out.Event.Status = next
	out.Transitioned = true
	return out, nil
}

// retry runs fn in a transaction, rerunning it when the store reports a
// lost race.  Business-rule failures are returned immediately.
func (a *Admissions) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		err = a.tx.WithTx(ctx, fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}
		if attempt < a.maxAttempts {
			metrics.AdmissionRetries.Inc()
			a.log.Warn("retrying after conflict", "op", op, "attempt", attempt, "err", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (a *Admissions) logTransition(out Admission) {
	if !out.Transitioned {
		return
	}
	metrics.StatusTransitions.WithLabelValues(string(out.Event.Status)).Inc()
	a.log.Info("guestlist status advanced",
		"event_id", out.Event.ID,
		"from", out.Previous,
		"to", out.Event.Status,
		"total", out.Total,
	)
}

// validateRequest rejects malformed counts before storage is touched and
// returns the cleaned named-guest list.
func validateRequest(c model.GuestCounts, guests []string) ([]string, error) {
	for _, n := range []int{c.Paired, c.SingleA, c.SingleB} {
		if n < 0 || n > MaxCount {
			return nil, ErrInvalidCounts
		}
	}
	if c.Units() == 0 {
		return nil, ErrEmptyRequest
	}
	cleaned := make([]string, 0, len(guests))
	for _, g := range guests {
		if g = strings.TrimSpace(g); g != "" {
			cleaned = append(cleaned, g)
		}
	}
	if len(cleaned) > c.Units() || len(cleaned) > maxNamedGuests {
		return nil, ErrInvalidCounts
	}
	return cleaned, nil
}

func admissionResult(err error) string {
	var capErr *CapacityError
	switch {
	case err == nil:
		return "admitted"
	case errors.As(err, &capErr):
		return "capacity_exceeded"
	case errors.Is(err, ErrGuestlistClosed):
		return "guestlist_closed"
	case errors.Is(err, ErrEmptyRequest):
		return "empty_request"
	case errors.Is(err, ErrInvalidCounts):
		return "invalid_counts"
	case errors.Is(err, ErrDuplicateReservation):
		return "duplicate"
	case errors.Is(err, ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, ErrWrongVenue):
		return "wrong_venue"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "error"
}
