package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/model"
)

func respond(t *testing.T, err error) (int, map[string]any, http.Header) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, respondError(c, slog.New(slog.NewTextHandler(io.Discard, nil)), err))

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body, rec.Header()
}

func TestRespondError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{guestlist.ErrEmptyRequest, http.StatusBadRequest, "empty_request"},
		{guestlist.ErrInvalidCounts, http.StatusBadRequest, "invalid_counts"},
		{guestlist.ErrDuplicateReservation, http.StatusBadRequest, "duplicate_reservation"},
		{guestlist.ErrGuestlistClosed, http.StatusBadRequest, "guestlist_closed"},
		{guestlist.ErrEventNotFound, http.StatusNotFound, "event_not_found"},
		{fmt.Errorf("load: %w", guestlist.ErrReservationNotFound), http.StatusNotFound, "reservation_not_found"},
		{guestlist.ErrWrongVenue, http.StatusForbidden, "wrong_venue"},
		{guestlist.ErrForbidden, http.StatusForbidden, "forbidden"},
		{guestlist.ErrReservationLocked, http.StatusConflict, "reservation_locked"},
		{guestlist.ErrConflict, http.StatusServiceUnavailable, "busy"},
		{errors.New("driver: bad connection"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.code, func(t *testing.T) {
			t.Parallel()
			status, body, _ := respond(t, tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body["error"])
		})
	}
}

func TestRespondError_Capacity(t *testing.T) {
	t.Parallel()

	status, body, _ := respond(t, &guestlist.CapacityError{Requested: 4, Remaining: 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "capacity_exceeded", body["error"])
	assert.EqualValues(t, 1, body["remaining"])
}

func TestRespondError_InternalHidesDetail(t *testing.T) {
	t.Parallel()

	status, body, _ := respond(t, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "message")
}

func TestRespondError_ConflictSetsRetryAfter(t *testing.T) {
	t.Parallel()

	_, _, hdr := respond(t, guestlist.ErrConflict)
	assert.Equal(t, "1", hdr.Get("Retry-After"))
}

func TestRedeemRequestScanned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want string
	}{
		{`{"code":"abc"}`, "abc"},
		{`{"code":"42"}`, "42"},
		{`{"code":42}`, "42"},
		{`{"code":{"bookingId":7}}`, `{"bookingId":7}`},
	}
	for _, tc := range tests {
		var r redeemRequest
		require.NoError(t, json.Unmarshal([]byte(tc.body), &r))
		assert.Equal(t, tc.want, r.scanned(), tc.body)
		assert.Equal(t, guestlist.ParseScan(tc.want), guestlist.ParseScan(r.scanned()))
	}
}

func TestEventRequestSettings(t *testing.T) {
	t.Parallel()

	limit := 30
	s, err := eventRequest{Date: "2026-11-14", StartTime: "21:30", Limit: &limit}.settings()
	require.NoError(t, err)
	assert.True(t, s.CloseOnStart)
	assert.Nil(t, s.CloseTime)
	assert.Equal(t, model.NewTimeOfDay(21, 30, 0), s.StartTime)
	assert.Equal(t, 14, s.Date.Day())
	assert.Equal(t, &limit, s.Limit)

	off := false
	s, err = eventRequest{Date: "2026-11-14", StartTime: "21:30", CloseTime: "20:00", CloseOnStart: &off}.settings()
	require.NoError(t, err)
	assert.False(t, s.CloseOnStart)
	require.NotNil(t, s.CloseTime)
	assert.Equal(t, model.NewTimeOfDay(20, 0, 0), *s.CloseTime)

	_, err = eventRequest{Date: "14.11.2026", StartTime: "21:30"}.settings()
	assert.Error(t, err)
}

func TestValidator(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	assert.NoError(t, v.Validate(&guestsRequest{Paired: 1, Guests: []string{"Ann"}}))

	err := v.Validate(&guestsRequest{SingleA: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "singleA")

	err = v.Validate(&guestsRequest{Paired: math.MaxInt, SingleA: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paired")
	assert.NoError(t, v.Validate(&guestsRequest{Paired: guestlist.MaxCount}))
	assert.Error(t, v.Validate(&guestsRequest{SingleB: guestlist.MaxCount + 1}))

	assert.Error(t, v.Validate(&eventRequest{Date: "2026-11-14", StartTime: "24:00"}))
	assert.Error(t, v.Validate(&eventRequest{Date: "2026-11-14", StartTime: "21:00", CloseTime: "x"}))
	assert.NoError(t, v.Validate(&eventRequest{Date: "2026-11-14", StartTime: "21:00", CloseTime: "20:15:30"}))
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		db     Pinger
		status int
	}{
		{"no database", nil, http.StatusOK},
		{"database up", stubPinger{}, http.StatusOK},
		{"database down", stubPinger{err: errors.New("down")}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
			require.NoError(t, Health(tc.db)(c))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
