package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/service"
)

// DoorHandler serves the venue's door scanner.
type DoorHandler struct {
	gate     *guestlist.Gate
	notifier *service.Notifier
	log      *slog.Logger
}

// NewDoorHandler panics when gate is nil.
func NewDoorHandler(gate *guestlist.Gate, notifier *service.Notifier, log *slog.Logger) *DoorHandler {
	if gate == nil {
		panic("nil gate passed to NewDoorHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &DoorHandler{gate: gate, notifier: notifier, log: log}
}

// redeemRequest accepts the scanned code either as a JSON string or as the
// scanner's own JSON object.
type redeemRequest struct {
	Code json.RawMessage `json:"code" validate:"required,max=2048"`
}

// scanned returns the raw scan text handed to the gate.
func (r redeemRequest) scanned() string {
	var s string
	if err := json.Unmarshal(r.Code, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r.Code))
}

// Redeem handles POST /v1/door/redeem.  The first valid scan returns 200
// with the booking and its guest units; every later scan returns 400 with
// valid=false and the time of the first scan.
func (h *DoorHandler) Redeem(c echo.Context) error {
	venue, err := venueID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body redeemRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}

	ctx := c.Request().Context()
	out, err := h.gate.Redeem(ctx, venue, body.scanned())
	switch {
	case errors.Is(err, guestlist.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"valid": false, "error": "reservation_not_found"})
	case errors.Is(err, guestlist.ErrWrongVenue):
		return c.JSON(http.StatusForbidden, echo.Map{"valid": false, "error": "wrong_venue"})
	case errors.Is(err, guestlist.ErrReservationCancelled):
		return c.JSON(http.StatusBadRequest, echo.Map{"valid": false, "error": "reservation_cancelled"})
	case err != nil:
		return respondError(c, h.log, err)
	}

	booking := newReservationResponse(out.Reservation)
	if out.AlreadyRedeemed {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"valid":     false,
			"error":     "already_redeemed",
			"scannedAt": out.ScannedAt,
			"booking":   booking,
		})
	}
	h.notifier.Redeemed(ctx, venue, out)
	return c.JSON(http.StatusOK, echo.Map{
		"valid":      true,
		"booking":    booking,
		"guestUnits": out.GuestUnits,
	})
}
