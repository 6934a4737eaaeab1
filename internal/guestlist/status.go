package guestlist

import (
	"time"

	"github.com/iliyamo/guestlist/internal/model"
)

// ClosingWindow is how long before the close instant a guestlist reads as
// CLOSING.
const ClosingWindow = 2 * time.Hour

// Resolver derives the status clients see from the stored status and the
// event's time rules.  It never writes; stored status only moves through
// admission.
type Resolver struct {
	loc *time.Location
}

// NewResolver interprets event wall-clock times in loc (UTC when nil).
func NewResolver(loc *time.Location) Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return Resolver{loc: loc}
}

// Location returns the zone event times are interpreted in.
func (r Resolver) Location() *time.Location { return r.loc }

// CloseInstant returns when the guestlist closes by time rules, if ever.
// An explicit close time wins; otherwise the start time applies when
// CloseOnStart is set.
func (r Resolver) CloseInstant(ev model.Event) (time.Time, bool) {
	if ev.CloseTime != nil {
		return ev.CloseTime.On(ev.Date, r.loc), true
	}
	if ev.CloseOnStart {
		return ev.StartTime.On(ev.Date, r.loc), true
	}
	return time.Time{}, false
}

// Effective returns the status visible at now.
func (r Resolver) Effective(ev model.Event, now time.Time) model.GuestlistStatus {
	if ev.Status == model.GuestlistClosed {
		return model.GuestlistClosed
	}
	closeAt, ok := r.CloseInstant(ev)
	if !ok {
		return ev.Status
	}
	if !now.Before(closeAt) {
		return model.GuestlistClosed
	}
	if !now.Before(closeAt.Add(-ClosingWindow)) {
		return model.GuestlistClosing
	}
	return ev.Status
}

// nextStatus decides the stored-status transition after admitting up to
// total guest units.  It returns the current status when nothing changes
// and never moves backward.
func nextStatus(ev model.Event, total int) model.GuestlistStatus {
	if ev.Limit == nil {
		return ev.Status
	}
	left := *ev.Limit - total
	switch {
	case left <= 0:
		return model.GuestlistClosed
	case ev.ClosingThreshold != nil && left <= *ev.ClosingThreshold && ev.Status == model.GuestlistOpen:
		return model.GuestlistClosing
	}
	return ev.Status
}
