package guestlist

import (
	"context"

	"github.com/iliyamo/guestlist/internal/model"
)

// CancelRequest cancels one reservation on behalf of its patron or of the
// venue that owns the event.
type CancelRequest struct {
	ReservationID uint64
	Scope         Scope
}

// Cancellation is the outcome of Cancel: the reservation as stored and the
// event it belongs to.
type Cancellation struct {
	Reservation model.Reservation
	Event       model.Event
}

// Cancel releases a confirmed reservation's units.  Cancelling never
// reopens a guestlist: stored status is left as it is even when the freed
// units would fall below the closing threshold.  Cancelling an already
// cancelled reservation is a no-op.
func (a *Admissions) Cancel(ctx context.Context, req CancelRequest) (Cancellation, error) {
	var out Cancellation
	err := a.tx.WithTx(ctx, func(txCtx context.Context) error {
		res, err := a.reservations.GetByIDForUpdate(txCtx, req.ReservationID)
		if err != nil {
			return err
		}
		ev, err := a.events.GetEvent(txCtx, res.EventID)
		if err != nil {
			return err
		}
		if err := a.guard.Authorize(req.Scope, ev, res); err != nil {
			return err
		}
		switch {
		case res.Status == model.ReservationCancelled:
			out = Cancellation{Reservation: res, Event: ev}
			return nil
		case res.Redeemed() || res.Status == model.ReservationCheckedIn:
			return ErrReservationLocked
		}
		changed, err := a.reservations.SetStatus(txCtx, res.ID, model.ReservationCancelled)
		if err != nil {
			return err
		}
		if !changed {
			return ErrReservationLocked
		}
		res.Status = model.ReservationCancelled
		out = Cancellation{Reservation: res, Event: ev}
		return nil
	})
	if err != nil {
		return Cancellation{}, err
	}
	a.log.Info("reservation cancelled", "reservation_id", out.Reservation.ID, "event_id", out.Event.ID, "by_venue", req.Scope.IsVenue())
	return out, nil
}
