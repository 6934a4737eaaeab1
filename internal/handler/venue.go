package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/service"
)

// VenueHandler serves the operator surface of one venue.  Every call is
// scoped to the venue carried by the caller's token.
type VenueHandler struct {
	admissions *guestlist.Admissions
	viewer     *guestlist.Viewer
	catalog    *guestlist.Catalog
	notifier   *service.Notifier
	log        *slog.Logger
}

// NewVenueHandler panics when an engine dependency is missing.
func NewVenueHandler(admissions *guestlist.Admissions, viewer *guestlist.Viewer, catalog *guestlist.Catalog, notifier *service.Notifier, log *slog.Logger) *VenueHandler {
	if admissions == nil || viewer == nil || catalog == nil {
		panic("nil dependency passed to NewVenueHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &VenueHandler{admissions: admissions, viewer: viewer, catalog: catalog, notifier: notifier, log: log}
}

// ScheduleEvent handles POST /v1/venue/events.
func (h *VenueHandler) ScheduleEvent(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body eventRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	settings, err := body.settings()
	if err != nil {
		return badRequest(c, "invalid_event", err.Error())
	}
	ctx := c.Request().Context()
	ev, err := h.catalog.Schedule(ctx, venue, settings)
	if err != nil {
		return respondError(c, h.log, err)
	}
	view, err := h.viewer.EventStatus(ctx, ev.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, newEventResponse(view))
}

// ListEvents handles GET /v1/venue/events.
func (h *VenueHandler) ListEvents(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	views, err := h.catalog.VenueEvents(c.Request().Context(), venue)
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]eventResponse, 0, len(views))
	for _, v := range views {
		items = append(items, newEventResponse(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ReconfigureEvent handles PATCH /v1/venue/events/:id.  The body replaces
// the event's date, times and capacity rules.
func (h *VenueHandler) ReconfigureEvent(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid event id")
	}
	var body eventRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	settings, err := body.settings()
	if err != nil {
		return badRequest(c, "invalid_event", err.Error())
	}
	ctx := c.Request().Context()
	view, tr, err := h.catalog.Reconfigure(ctx, venue, eventID, settings)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if tr.Changed() {
		h.notifier.StatusChanged(ctx, tr.Event, tr.Previous, view.Remaining)
	}
	return c.JSON(http.StatusOK, newEventResponse(view))
}

// CloseEvent handles POST /v1/venue/events/:id/close.
func (h *VenueHandler) CloseEvent(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid event id")
	}
	ctx := c.Request().Context()
	tr, err := h.catalog.Close(ctx, venue, eventID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	view, err := h.viewer.EventStatus(ctx, eventID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if tr.Changed() {
		h.notifier.StatusChanged(ctx, tr.Event, tr.Previous, view.Remaining)
	}
	return c.JSON(http.StatusOK, newEventResponse(view))
}

// Guestlist handles GET /v1/venue/events/:id/reservations.  It returns the
// event's effective status and remaining capacity with every reservation.
func (h *VenueHandler) Guestlist(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid event id")
	}
	view, list, err := h.viewer.VenueGuestlist(c.Request().Context(), eventID, venue)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event": newEventResponse(view),
		"items": newReservationList(list),
	})
}

// doorAdmitRequest admits a patron at the door on the operator's account.
type doorAdmitRequest struct {
	PatronID uint64 `json:"patronId" validate:"required"`
	guestsRequest
}

// Admit handles POST /v1/venue/events/:id/reservations.
func (h *VenueHandler) Admit(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid event id")
	}
	var body doorAdmitRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	ctx := c.Request().Context()
	out, err := h.admissions.Admit(ctx, guestlist.AdmitRequest{
		EventID:  eventID,
		PatronID: body.PatronID,
		Counts:   body.counts(),
		Guests:   body.Guests,
		Scope:    guestlist.VenueScope(venue),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.notifier.Admitted(ctx, out)
	return c.JSON(http.StatusCreated, newAdmissionResponse(out))
}

// CancelReservation handles DELETE /v1/venue/reservations/:id.
func (h *VenueHandler) CancelReservation(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid reservation id")
	}
	ctx := c.Request().Context()
	out, err := h.admissions.Cancel(ctx, guestlist.CancelRequest{ReservationID: id, Scope: guestlist.VenueScope(venue)})
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.notifier.Cancelled(ctx, out)
	return c.JSON(http.StatusOK, newReservationResponse(out.Reservation))
}
