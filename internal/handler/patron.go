package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/service"
)

// PatronHandler serves reservation endpoints for authenticated patrons.
// JWT authentication and the PATRON role check run in middleware.
type PatronHandler struct {
	admissions *guestlist.Admissions
	viewer     *guestlist.Viewer
	notifier   *service.Notifier
	log        *slog.Logger
}

// NewPatronHandler panics when an engine dependency is missing.  A nil
// notifier disables event publication.
func NewPatronHandler(admissions *guestlist.Admissions, viewer *guestlist.Viewer, notifier *service.Notifier, log *slog.Logger) *PatronHandler {
	if admissions == nil || viewer == nil {
		panic("nil dependency passed to NewPatronHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PatronHandler{admissions: admissions, viewer: viewer, notifier: notifier, log: log}
}

// Reserve handles POST /v1/events/:id/reservations.  The body carries the
// party composition and an optional list of named guests.  It returns 201
// with the new reservation and its redemption code.
func (h *PatronHandler) Reserve(c echo.Context) error {
	patron, err := patronID(c)
	if err != nil {
		return unauthorized(c)
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid event id")
	}
	var body guestsRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}

	ctx := c.Request().Context()
	out, err := h.admissions.Admit(ctx, guestlist.AdmitRequest{
		EventID:  eventID,
		PatronID: patron,
		Counts:   body.counts(),
		Guests:   body.Guests,
		Scope:    guestlist.PatronScope(patron),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.notifier.Admitted(ctx, out)
	return c.JSON(http.StatusCreated, newAdmissionResponse(out))
}

// MyReservations handles GET /v1/my-reservations.
func (h *PatronHandler) MyReservations(c echo.Context) error {
	patron, err := patronID(c)
	if err != nil {
		return unauthorized(c)
	}
	list, err := h.viewer.PatronReservations(c.Request().Context(), patron)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": newReservationList(list)})
}

// GetReservation handles GET /v1/reservations/:id.
func (h *PatronHandler) GetReservation(c echo.Context) error {
	patron, err := patronID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid reservation id")
	}
	res, err := h.viewer.PatronReservation(c.Request().Context(), id, patron)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, newReservationResponse(res))
}

// Amend handles PATCH /v1/reservations/:id.  The body replaces the party
// composition of a confirmed reservation.
func (h *PatronHandler) Amend(c echo.Context) error {
	patron, err := patronID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid reservation id")
	}
	var body guestsRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}

	ctx := c.Request().Context()
	out, err := h.admissions.AmendGuests(ctx, guestlist.AmendRequest{
		ReservationID: id,
		PatronID:      patron,
		Counts:        body.counts(),
		Guests:        body.Guests,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.notifier.Amended(ctx, out)
	return c.JSON(http.StatusOK, newAdmissionResponse(out))
}

// Cancel handles DELETE /v1/reservations/:id.
func (h *PatronHandler) Cancel(c echo.Context) error {
	patron, err := patronID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid reservation id")
	}
	ctx := c.Request().Context()
	out, err := h.admissions.Cancel(ctx, guestlist.CancelRequest{ReservationID: id, Scope: guestlist.PatronScope(patron)})
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.notifier.Cancelled(ctx, out)
	return c.JSON(http.StatusOK, newReservationResponse(out.Reservation))
}
