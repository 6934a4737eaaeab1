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

func newTestCatalog(store *guestlisttest.Store) *guestlist.Catalog {
	clk := clock.NewFixed(noon)
	return guestlist.NewCatalog(store, store, store, store, guestlist.NewViewer(store, store, guestlist.NewResolver(nil), clk), clk, quietLogger())
}

func settings(limit, threshold *int) guestlist.EventSettings {
	return guestlist.EventSettings{
		Date:             eventDay,
		StartTime:        model.NewTimeOfDay(22, 0, 0),
		Limit:            limit,
		ClosingThreshold: threshold,
		CloseOnStart:     true,
	}
}

func TestCatalog_Schedule(t *testing.T) {
	t.Parallel()

	store := guestlisttest.NewStore()
	c := newTestCatalog(store)

	ev, err := c.Schedule(context.Background(), 3, settings(intPtr(40), intPtr(4)))
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, uint64(3), ev.VenueID)
	assert.Equal(t, model.GuestlistOpen, ev.Status)

	_, err = c.Schedule(context.Background(), 3, settings(intPtr(-1), nil))
	assert.ErrorIs(t, err, guestlist.ErrInvalidEvent)

	_, err = c.Schedule(context.Background(), 3, guestlist.EventSettings{})
	assert.ErrorIs(t, err, guestlist.ErrInvalidEvent)

	views, err := c.VenueEvents(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, guestlist.Spots{Bounded: true, Count: 40}, views[0].Remaining)
}

func TestCatalog_ReconfigureLowersLimitBelowTotal(t *testing.T) {
	t.Parallel()

	store := guestlisttest.NewStore(openEvent(1, intPtr(20), nil))
	store.Seed(model.Reservation{EventID: 1, PatronID: 7, Counts: singles(12), Code: "a"})
	c := newTestCatalog(store)

	view, tr, err := c.Reconfigure(context.Background(), 1, 1, settings(intPtr(10), nil))
	require.NoError(t, err)
	assert.Equal(t, model.GuestlistClosed, view.Event.Status)
	assert.Equal(t, guestlist.Spots{Bounded: true, Count: 0}, view.Remaining)
	assert.True(t, tr.Changed())
	assert.Equal(t, model.GuestlistOpen, tr.Previous)

	// Raising it again does not reopen the list.
	view, tr, err = c.Reconfigure(context.Background(), 1, 1, settings(intPtr(100), nil))
	require.NoError(t, err)
	assert.Equal(t, model.GuestlistClosed, view.Event.Status)
	assert.Equal(t, model.GuestlistClosed, view.Effective)
	assert.False(t, tr.Changed())
}

func TestCatalog_TenantScoped(t *testing.T) {
	t.Parallel()

	store := guestlisttest.NewStore(openEvent(1, intPtr(20), nil))
	c := newTestCatalog(store)

	_, _, err := c.Reconfigure(context.Background(), 2, 1, settings(nil, nil))
	assert.ErrorIs(t, err, guestlist.ErrWrongVenue)

	_, err = c.Close(context.Background(), 2, 1)
	assert.ErrorIs(t, err, guestlist.ErrWrongVenue)
	assert.Equal(t, model.GuestlistOpen, store.Event(1).Status)

	tr, err := c.Close(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.GuestlistClosed, tr.Event.Status)
	assert.True(t, tr.Changed())

	tr, err = c.Close(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.False(t, tr.Changed())
}
