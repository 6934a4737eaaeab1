package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/middleware"
)

var errNoPrincipal = errors.New("no authenticated caller")

// patronID extracts the authenticated patron from the request context.
func patronID(c echo.Context) (uint64, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.Role != middleware.RolePatron || p.PatronID == 0 {
		return 0, errNoPrincipal
	}
	return p.PatronID, nil
}

// venueID extracts the operator's venue from the request context.
func venueID(c echo.Context) (uint64, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.Role != middleware.RoleVenue || p.VenueID == 0 {
		return 0, errNoPrincipal
	}
	return p.VenueID, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
