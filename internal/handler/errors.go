package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/guestlist"
)

type apiError struct {
	status int
	code   string
}

// domainErrors maps engine sentinels to HTTP status and a stable code.
var domainErrors = []struct {
	err error
	apiError
}{
	{guestlist.ErrEmptyRequest, apiError{http.StatusBadRequest, "empty_request"}},
	{guestlist.ErrInvalidCounts, apiError{http.StatusBadRequest, "invalid_counts"}},
	{guestlist.ErrDuplicateReservation, apiError{http.StatusBadRequest, "duplicate_reservation"}},
	{guestlist.ErrGuestlistClosed, apiError{http.StatusBadRequest, "guestlist_closed"}},
	{guestlist.ErrInvalidEvent, apiError{http.StatusBadRequest, "invalid_event"}},
	{guestlist.ErrReservationCancelled, apiError{http.StatusBadRequest, "reservation_cancelled"}},
	{guestlist.ErrEventNotFound, apiError{http.StatusNotFound, "event_not_found"}},
	{guestlist.ErrReservationNotFound, apiError{http.StatusNotFound, "reservation_not_found"}},
	{guestlist.ErrWrongVenue, apiError{http.StatusForbidden, "wrong_venue"}},
	{guestlist.ErrForbidden, apiError{http.StatusForbidden, "forbidden"}},
	{guestlist.ErrReservationLocked, apiError{http.StatusConflict, "reservation_locked"}},
	{guestlist.ErrConflict, apiError{http.StatusServiceUnavailable, "busy"}},
}

func classify(err error) (apiError, bool) {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.apiError, true
		}
	}
	return apiError{}, false
}

// respondError writes the JSON error body for err.  Unknown errors are
// logged and reported as 500 without detail.
func respondError(c echo.Context, log *slog.Logger, err error) error {
	var capErr *guestlist.CapacityError
	if errors.As(err, &capErr) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "capacity_exceeded",
			"message":   err.Error(),
			"remaining": capErr.Remaining,
		})
	}
	if e, ok := classify(err); ok {
		body := echo.Map{"error": e.code, "message": err.Error()}
		if e.status == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", "1")
		}
		return c.JSON(e.status, body)
	}
	log.Error("request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": code, "message": message})
}
