package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Roles carried in the JWT "role" claim.
const (
	RolePatron = "PATRON"
	RoleVenue  = "VENUE"
)

const principalKey = "principal"

// Principal is the authenticated caller.  Patrons are identified by the
// token subject; venue operators by the venue_id claim.
type Principal struct {
	Subject  string
	Role     string
	PatronID uint64
	VenueID  uint64
}

// PrincipalFrom returns the caller stored by JWTAuth.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// currentUserID identifies the caller for rate limiting.
func currentUserID(c echo.Context) string {
	p, ok := PrincipalFrom(c)
	switch {
	case !ok:
		return "anon"
	case p.Role == RoleVenue:
		return "venue-" + strconv.FormatUint(p.VenueID, 10)
	case p.Subject != "":
		return p.Subject
	}
	return "anon"
}

// claimUint accepts numeric claims encoded as JSON numbers or strings.
func claimUint(v any) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == float64(uint64(t)) {
			return uint64(t), true
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
