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

// Outcome is the result of a door scan that found a reservation the venue
// may redeem.  Valid is false when the reservation had already been
// redeemed; ScannedAt then carries the original redemption time.
type Outcome struct {
	Valid           bool
	AlreadyRedeemed bool
	ScannedAt       *time.Time
	Reservation     model.Reservation
	GuestUnits      int
}

// Gate redeems reservations at the door.  Redemption is a single
// conditional write, so concurrent scans of one code produce exactly one
// valid outcome.
type Gate struct {
	events       EventStore
	reservations ReservationStore
	guard        Guard
	clock        clock.Clock
	log          *slog.Logger
}

// NewGate wires a redemption gate.
func NewGate(events EventStore, reservations ReservationStore, clk clock.Clock, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{events: events, reservations: reservations, clock: clk, log: log}
}

// Redeem checks in the reservation identified by raw for venueID.
func (g *Gate) Redeem(ctx context.Context, venueID uint64, raw string) (Outcome, error) {
	out, err := g.redeem(ctx, venueID, ParseScan(raw))
	metrics.Redemptions.WithLabelValues(redemptionResult(out, err)).Inc()
	return out, err
}

func (g *Gate) redeem(ctx context.Context, venueID uint64, scan ScanCode) (Outcome, error) {
	if scan.Empty() {
		return Outcome{}, ErrReservationNotFound
	}
	res, err := g.lookup(ctx, scan)
	if err != nil {
		return Outcome{}, err
	}
	ev, err := g.events.GetEvent(ctx, res.EventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return Outcome{}, ErrReservationNotFound
		}
		return Outcome{}, err
	}
	if err := g.guard.EventOwnedBy(ev, venueID); err != nil {
		return Outcome{}, err
	}
	if res.Redeemed() {
		return alreadyRedeemed(res), nil
	}
	if res.Status == model.ReservationCancelled {
		return Outcome{}, ErrReservationCancelled
	}

	now := g.clock.Now()
	won, err := g.reservations.MarkRedeemed(ctx, res.ID, venueID, now)
	if err != nil {
		return Outcome{}, err
	}
	if !won {
		// Another scan (or a cancellation) got there first.
		latest, err := g.reservations.GetByID(ctx, res.ID)
		if err != nil {
			return Outcome{}, err
		}
		if latest.Status == model.ReservationCancelled && !latest.Redeemed() {
			return Outcome{}, ErrReservationCancelled
		}
		return alreadyRedeemed(latest), nil
	}

	res.Status = model.ReservationCheckedIn
	res.RedeemedAt = &now
	res.RedeemingVenueID = &venueID
	g.log.Info("reservation redeemed", "reservation_id", res.ID, "event_id", res.EventID, "venue_id", venueID, "guest_units", res.GuestUnits())
	return Outcome{Valid: true, Reservation: res, GuestUnits: res.GuestUnits()}, nil
}

// lookup resolves a scan by redemption code first, then by identifier.
func (g *Gate) lookup(ctx context.Context, scan ScanCode) (model.Reservation, error) {
	if scan.Code != "" {
		res, err := g.reservations.GetByCode(ctx, scan.Code)
		if err == nil || !errors.Is(err, ErrReservationNotFound) {
			return res, err
		}
	}
	if scan.ID != 0 {
		return g.reservations.GetByID(ctx, scan.ID)
	}
	return model.Reservation{}, ErrReservationNotFound
}

func alreadyRedeemed(res model.Reservation) Outcome {
	return Outcome{
		AlreadyRedeemed: true,
		ScannedAt:       res.RedeemedAt,
		Reservation:     res,
		GuestUnits:      res.GuestUnits(),
	}
}

func redemptionResult(out Outcome, err error) string {
	switch {
	case err == nil && out.Valid:
		return "valid"
	case err == nil && out.AlreadyRedeemed:
		return "already_redeemed"
	case errors.Is(err, ErrReservationNotFound):
		return "not_found"
	case errors.Is(err, ErrWrongVenue):
		return "wrong_venue"
	case errors.Is(err, ErrReservationCancelled):
		return "cancelled"
	}
	return "error"
}
