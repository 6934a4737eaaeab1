// Package utils mints access tokens for the roles the API accepts.  Token
// issuance belongs to the identity provider in production; these helpers
// serve the devtoken command and tests.
package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Identity is the subject of a token.  Set PatronID for patrons and
// VenueID for venue operators.
type Identity struct {
	Role     string
	PatronID uint64
	VenueID  uint64
	// Subject overrides the sub claim for operators; it defaults to the
	// venue id.
	Subject string
}

// NewAccessToken builds and signs an HS256 JWT carrying sub, role, exp and
// iat, plus venue_id for venue operators.
func NewAccessToken(secret string, id Identity, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("empty signing secret")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"role": id.Role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	switch {
	case id.VenueID != 0:
		claims["venue_id"] = id.VenueID
		claims["sub"] = id.Subject
		if id.Subject == "" {
			claims["sub"] = "venue:" + strconv.FormatUint(id.VenueID, 10)
		}
	case id.PatronID != 0:
		claims["sub"] = strconv.FormatUint(id.PatronID, 10)
	default:
		return AccessToken{}, errors.New("identity needs a patron or venue id")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
