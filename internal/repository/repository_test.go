package repository

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/guestlist/internal/clock"
	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/model"
)

var (
	eventCols = []string{"id", "venue_id", "event_date", "start_time", "guestlist_status", "guest_limit",
		"closing_threshold", "close_time", "close_on_start", "created_at", "updated_at"}
	reservationCols = []string{"id", "event_id", "patron_id", "paired_count", "single_a_count", "single_b_count",
		"status", "code", "redeemed_at", "redeeming_venue_id", "created_at"}
	created = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	day     = time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestEventRepo_GetEventForUpdateInTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEventRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM events WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow(5, 2, day, "21:00:00", "CLOSING", 50, 5, "20:30:00", true, created, created))
	mock.ExpectCommit()

	var ev model.Event
	err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
		var err error
		ev, err = repo.GetEventForUpdate(ctx, 5)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(2), ev.VenueID)
	assert.Equal(t, model.GuestlistClosing, ev.Status)
	assert.Equal(t, model.NewTimeOfDay(21, 0, 0), ev.StartTime)
	require.NotNil(t, ev.Limit)
	assert.Equal(t, 50, *ev.Limit)
	require.NotNil(t, ev.ClosingThreshold)
	assert.Equal(t, 5, *ev.ClosingThreshold)
	require.NotNil(t, ev.CloseTime)
	assert.Equal(t, model.NewTimeOfDay(20, 30, 0), *ev.CloseTime)
	assert.True(t, ev.CloseOnStart)
}

func TestEventRepo_NullableColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery(`FROM events WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow(5, 2, day, "21:00:00", "OPEN", nil, nil, nil, false, created, created))

	ev, err := repo.GetEvent(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, ev.Limit)
	assert.Nil(t, ev.ClosingThreshold)
	assert.Nil(t, ev.CloseTime)
	assert.False(t, ev.CloseOnStart)
}

func TestEventRepo_NotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`FROM events WHERE id = \?`).WillReturnRows(sqlmock.NewRows(eventCols))

	_, err := NewEventRepo(db).GetEvent(context.Background(), 9)
	assert.ErrorIs(t, err, guestlist.ErrEventNotFound)
}

func TestWithTx_RollsBackAndTranslatesDeadlock(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()

	err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
		_, err := NewEventRepo(db).GetEventForUpdate(ctx, 1)
		return err
	})
	assert.ErrorIs(t, err, guestlist.ErrConflict)
}

func TestWithTx_NestedCallsShareTransaction(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE events SET guestlist_status = \? WHERE id = \?`).
		WithArgs("CLOSED", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithTx(context.Background(), func(ctx context.Context) error {
		return tm.WithTx(ctx, func(ctx context.Context) error {
			return NewEventRepo(db).UpdateEventStatus(ctx, 1, model.GuestlistClosed)
		})
	})
	require.NoError(t, err)
}

func TestEventRepo_CreateEvent(t *testing.T) {
	db, mock := newMock(t)
	limit := 80

	mock.ExpectExec(`INSERT INTO events`).
		WithArgs(uint64(3), "2026-11-14", "22:00:00", "OPEN", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(12, 1))

	ev := model.Event{VenueID: 3, Date: day, StartTime: model.NewTimeOfDay(22, 0, 0), Status: model.GuestlistOpen, Limit: &limit, CloseOnStart: true}
	require.NoError(t, NewEventRepo(db).CreateEvent(context.Background(), &ev))
	assert.Equal(t, uint64(12), ev.ID)
}

func TestReservationRepo_Create(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(1), uint64(7), 1, 0, 1, "CONFIRMED", "code-1", created).
		WillReturnResult(sqlmock.NewResult(33, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservation_guests (reservation_id, position, name) VALUES (?, ?, ?),(?, ?, ?)`)).
		WithArgs(uint64(33), 1, "Ada", uint64(33), 2, "Grace").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res := model.Reservation{
		EventID:   1,
		PatronID:  7,
		Counts:    model.GuestCounts{Paired: 1, SingleB: 1},
		Guests:    []string{"Ada", "Grace"},
		Status:    model.ReservationConfirmed,
		Code:      "code-1",
		CreatedAt: created,
	}
	require.NoError(t, NewReservationRepo(db).Create(context.Background(), &res))
	assert.Equal(t, uint64(33), res.ID)
}

func TestReservationRepo_CreateTranslatesDuplicates(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want error
	}{
		{"active reservation", "Duplicate entry '1:7' for key 'reservations.uq_reservations_active'", guestlist.ErrDuplicateReservation},
		{"code collision", "Duplicate entry 'x' for key 'reservations.uq_reservations_code'", guestlist.ErrConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)

			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO reservations`).WillReturnError(&mysql.MySQLError{Number: 1062, Message: tc.msg})
			mock.ExpectRollback()

			res := model.Reservation{EventID: 1, PatronID: 7, Counts: model.GuestCounts{SingleA: 1}, Status: model.ReservationConfirmed, Code: "x"}
			err := NewReservationRepo(db).Create(context.Background(), &res)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReservationRepo_SumActiveUnits(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SUM(2 * paired_count + single_a_count + single_b_count)`)).
		WithArgs(uint64(1), uint64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(46))

	total, err := NewReservationRepo(db).SumActiveUnits(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 46, total)
}

func TestReservationRepo_FindActive(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(`status <> 'CANCELLED' LIMIT 1`).
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	got, err := repo.FindActive(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectQuery(`status <> 'CANCELLED' LIMIT 1`).
		WithArgs(uint64(1), uint64(8)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(4, 1, 8, 0, 2, 0, "CONFIRMED", "c", nil, nil, created))

	got, err = repo.FindActive(context.Background(), 1, 8)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(4), got.ID)
}

func TestReservationRepo_GetByCodeLoadsGuests(t *testing.T) {
	db, mock := newMock(t)
	redeemed := created.Add(time.Hour)

	mock.ExpectQuery(`FROM reservations WHERE code = \?`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(9, 1, 7, 1, 0, 0, "CHECKED_IN", "abc", redeemed, 2, created))
	mock.ExpectQuery(`FROM reservation_guests g WHERE reservation_id = \? ORDER BY g.reservation_id, g.position`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "name"}).AddRow(9, "Ada").AddRow(9, "Grace"))

	res, err := NewReservationRepo(db).GetByCode(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCheckedIn, res.Status)
	require.NotNil(t, res.RedeemedAt)
	assert.True(t, res.RedeemedAt.Equal(redeemed))
	require.NotNil(t, res.RedeemingVenueID)
	assert.Equal(t, uint64(2), *res.RedeemingVenueID)
	assert.Equal(t, []string{"Ada", "Grace"}, res.Guests)
	assert.Equal(t, 2, res.GuestUnits())
}

func TestReservationRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`FROM reservations WHERE id = \?`).WillReturnRows(sqlmock.NewRows(reservationCols))

	_, err := NewReservationRepo(db).GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, guestlist.ErrReservationNotFound)
}

func TestReservationRepo_MarkRedeemed(t *testing.T) {
	at := time.Date(2026, 11, 14, 22, 5, 0, 0, time.UTC)
	for _, tc := range []struct {
		name     string
		affected int64
		want     bool
	}{
		{"first scan wins", 1, true},
		{"already redeemed", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)

			mock.ExpectExec(`WHERE id = \? AND redeemed_at IS NULL AND status = 'CONFIRMED'`).
				WithArgs(at, uint64(2), uint64(9)).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			ok, err := NewReservationRepo(db).MarkRedeemed(context.Background(), 9, 2, at)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestReservationRepo_UpdateGuests(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET paired_count = \?, single_a_count = \?, single_b_count = \?`).
		WithArgs(2, 0, 1, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM reservation_guests WHERE reservation_id = \?`).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_guests`).
		WithArgs(uint64(9), 1, "Ada").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := NewReservationRepo(db).UpdateGuests(context.Background(), 9, model.GuestCounts{Paired: 2, SingleB: 1}, []string{"Ada"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReservationRepo_UpdateGuestsLocked(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET paired_count`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := NewReservationRepo(db).UpdateGuests(context.Background(), 9, model.GuestCounts{SingleA: 1}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReservationRepo_ListByEvent(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`FROM reservations WHERE event_id = \? ORDER BY created_at, id`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(1, 1, 7, 1, 0, 0, "CONFIRMED", "a", nil, nil, created).
			AddRow(2, 1, 8, 0, 3, 0, "CANCELLED", "b", nil, nil, created))
	mock.ExpectQuery(`JOIN reservations r ON r.id = g.reservation_id WHERE r.event_id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "name"}).AddRow(2, "Lin"))

	list, err := NewReservationRepo(db).ListByEvent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].Guests)
	assert.Equal(t, []string{"Lin"}, list[1].Guests)
	assert.Equal(t, model.ReservationCancelled, list[1].Status)
}

func TestTranslate(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, translate(plain))
	assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1205}), guestlist.ErrConflict)
	assert.NotErrorIs(t, translate(&mysql.MySQLError{Number: 1146}), guestlist.ErrConflict)
}

func TestAmendGuests_LocksEventBeforeReading(t *testing.T) {
	db, mock := newMock(t)
	now := day.Add(12 * time.Hour)
	guestCols := []string{"reservation_id", "name"}
	reservation := func() *sqlmock.Rows {
		return sqlmock.NewRows(reservationCols).AddRow(9, 1, 7, 0, 2, 0, "CONFIRMED", "c", nil, nil, created)
	}

	// Resolving the reservation's event happens outside the transaction.
	mock.ExpectQuery(`FROM reservations WHERE id = \?`).WithArgs(uint64(9)).WillReturnRows(reservation())
	mock.ExpectQuery(`FROM reservation_guests g WHERE reservation_id = \?`).WithArgs(uint64(9)).WillReturnRows(sqlmock.NewRows(guestCols))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM events WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow(1, 2, day, "21:00:00", "OPEN", 10, nil, nil, true, created, created))
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).WithArgs(uint64(9)).WillReturnRows(reservation())
	mock.ExpectQuery(`FROM reservation_guests g WHERE reservation_id = \?`).WithArgs(uint64(9)).WillReturnRows(sqlmock.NewRows(guestCols))
	mock.ExpectQuery(regexp.QuoteMeta(`SUM(2 * paired_count + single_a_count + single_b_count)`)).
		WithArgs(uint64(1), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(6))
	mock.ExpectExec(`SET paired_count = \?, single_a_count = \?, single_b_count = \?`).
		WithArgs(0, 4, 0, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM reservation_guests WHERE reservation_id = \?`).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE events SET guestlist_status = \? WHERE id = \?`).
		WithArgs("CLOSED", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	events, reservations := NewEventRepo(db), NewReservationRepo(db)
	a := guestlist.NewAdmissions(NewTxManager(db), events, reservations, guestlist.NewResolver(time.UTC), clock.NewFixed(now),
		guestlist.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	out, err := a.AmendGuests(context.Background(), guestlist.AmendRequest{
		ReservationID: 9,
		PatronID:      7,
		Counts:        model.GuestCounts{SingleA: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, out.Total)
	assert.Equal(t, model.GuestlistClosed, out.Event.Status)
}
