package guestlist_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/guestlist/internal/clock"
	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/guestlist/guestlisttest"
	"github.com/iliyamo/guestlist/internal/model"
)

func TestViewer(t *testing.T) {
	t.Parallel()

	store := guestlisttest.NewStore(openEvent(1, intPtr(10), nil))
	store.Seed(model.Reservation{EventID: 1, PatronID: 7, Counts: singles(4), Code: "a"})
	store.Seed(model.Reservation{EventID: 1, PatronID: 8, Counts: singles(2), Code: "b", Status: model.ReservationCancelled})
	v := guestlist.NewViewer(store, store, guestlist.NewResolver(nil), clock.NewFixed(at(20, 0)))
	ctx := context.Background()

	view, err := v.EventStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.GuestlistClosing, view.Effective)
	assert.Equal(t, model.GuestlistOpen, view.Event.Status)
	assert.Equal(t, 4, view.Total)
	assert.Equal(t, guestlist.Spots{Bounded: true, Count: 6}, view.Remaining)
	require.NotNil(t, view.ClosesAt)
	assert.True(t, view.ClosesAt.Equal(at(21, 0)))

	_, err = v.EventStatus(ctx, 9)
	assert.ErrorIs(t, err, guestlist.ErrEventNotFound)

	_, list, err := v.VenueGuestlist(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, _, err = v.VenueGuestlist(ctx, 1, 2)
	assert.ErrorIs(t, err, guestlist.ErrWrongVenue)

	mine, err := v.PatronReservations(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = v.PatronReservation(ctx, mine[0].ID, 8)
	assert.ErrorIs(t, err, guestlist.ErrForbidden)
}
