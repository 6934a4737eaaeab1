package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/guestlist"
)

// PublicHandler serves unauthenticated guestlist reads.
type PublicHandler struct {
	viewer *guestlist.Viewer
	log    *slog.Logger
}

// NewPublicHandler panics when viewer is nil.
func NewPublicHandler(viewer *guestlist.Viewer, log *slog.Logger) *PublicHandler {
	if viewer == nil {
		panic("nil viewer passed to NewPublicHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PublicHandler{viewer: viewer, log: log}
}

// EventStatus handles GET /v1/events/:id/status.  Status is the effective
// status at request time; storedStatus is what admission has recorded.
// Remaining is omitted for events without a limit.
func (h *PublicHandler) EventStatus(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid_request", "invalid event id")
	}
	view, err := h.viewer.EventStatus(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, newStatusResponse(view))
}
