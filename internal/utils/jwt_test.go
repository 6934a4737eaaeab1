package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, secret, raw string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return []byte(secret), nil })
	require.NoError(t, err)
	return claims
}

func TestNewAccessToken_Patron(t *testing.T) {
	tok, err := NewAccessToken("s", Identity{Role: "PATRON", PatronID: 42}, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims := parse(t, "s", tok.Token)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "PATRON", claims["role"])
	assert.NotContains(t, claims, "venue_id")
}

func TestNewAccessToken_Venue(t *testing.T) {
	tok, err := NewAccessToken("s", Identity{Role: "VENUE", VenueID: 9}, time.Minute)
	require.NoError(t, err)

	claims := parse(t, "s", tok.Token)
	assert.Equal(t, "venue:9", claims["sub"])
	assert.EqualValues(t, 9, claims["venue_id"])
}

func TestNewAccessToken_Errors(t *testing.T) {
	_, err := NewAccessToken("", Identity{Role: "PATRON", PatronID: 1}, time.Minute)
	assert.Error(t, err)
	_, err = NewAccessToken("s", Identity{Role: "PATRON"}, time.Minute)
	assert.Error(t, err)
}
