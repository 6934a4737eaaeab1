package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth validates a Bearer access token and stores the caller's
// Principal in the request context.  Patron tokens must carry a numeric
// subject; venue tokens must carry a venue_id claim.  The role and user_id
// context keys are set as well for RequireRole and rate limiting.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			p, ok := principalFromClaims(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			c.Set(principalKey, p)
			c.Set("user_id", p.Subject)
			c.Set("role", p.Role)
			return next(c)
		}
	}
}

func principalFromClaims(claims jwt.MapClaims) (Principal, bool) {
	sub, _ := claims.GetSubject()
	role, _ := claims["role"].(string)
	p := Principal{Subject: sub, Role: strings.ToUpper(role)}
	switch p.Role {
	case RolePatron:
		id, ok := claimUint(sub)
		if !ok {
			return Principal{}, false
		}
		p.PatronID = id
	case RoleVenue:
		id, ok := claimUint(claims["venue_id"])
		if !ok {
			return Principal{}, false
		}
		p.VenueID = id
	default:
		return Principal{}, false
	}
	return p, true
}
