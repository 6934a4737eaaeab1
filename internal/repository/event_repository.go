package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/model"
)

const eventColumns = `id, venue_id, event_date, start_time, guestlist_status, guest_limit,
       closing_threshold, close_time, close_on_start, created_at, updated_at`

// EventRepo provides data access to the events table.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// WithTx runs fn in a transaction shared by every repository.
func (r *EventRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

// GetEvent returns the event with the given id.
func (r *EventRepo) GetEvent(ctx context.Context, id uint64) (model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
}

// GetEventForUpdate locks the event row until the surrounding transaction
// ends.  Admissions on one event queue up behind this lock.
func (r *EventRepo) GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id)
}

func (r *EventRepo) get(ctx context.Context, q string, id uint64) (model.Event, error) {
	ev, err := scanEvent(conn(ctx, r.db).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, guestlist.ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", translate(err))
	}
	return ev, nil
}

// UpdateEventStatus writes the stored guestlist status.
func (r *EventRepo) UpdateEventStatus(ctx context.Context, id uint64, status model.GuestlistStatus) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE events SET guestlist_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update event status: %w", translate(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return guestlist.ErrEventNotFound
	}
	return nil
}

// CreateEvent inserts ev and populates its ID.
func (r *EventRepo) CreateEvent(ctx context.Context, ev *model.Event) error {
	const q = `INSERT INTO events (venue_id, event_date, start_time, guestlist_status, guest_limit,
                     closing_threshold, close_time, close_on_start)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		ev.VenueID, ev.Date.Format(time.DateOnly), ev.StartTime.String(), string(ev.Status),
		nullInt(ev.Limit), nullInt(ev.ClosingThreshold), nullTime(ev.CloseTime), ev.CloseOnStart,
	)
	if err != nil {
		return fmt.Errorf("create event: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// ListByVenue returns the venue's events ordered by date and start time.
func (r *EventRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE venue_id = ? ORDER BY event_date, start_time, id`, venueID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// UpdateSettings rewrites the capacity and time rules of an event.
func (r *EventRepo) UpdateSettings(ctx context.Context, id uint64, s guestlist.EventSettings) error {
	const q = `UPDATE events
               SET event_date = ?, start_time = ?, guest_limit = ?, closing_threshold = ?,
                   close_time = ?, close_on_start = ?
               WHERE id = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		s.Date.Format(time.DateOnly), s.StartTime.String(), nullInt(s.Limit), nullInt(s.ClosingThreshold),
		nullTime(s.CloseTime), s.CloseOnStart, id,
	)
	if err != nil {
		return fmt.Errorf("update event settings: %w", translate(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return guestlist.ErrEventNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.Event, error) {
	var (
		ev        model.Event
		status    string
		limit     sql.NullInt64
		threshold sql.NullInt64
		closeTime sql.NullString
	)
	err := row.Scan(&ev.ID, &ev.VenueID, &ev.Date, &ev.StartTime, &status, &limit,
		&threshold, &closeTime, &ev.CloseOnStart, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	ev.Status = model.GuestlistStatus(status)
	if limit.Valid {
		n := int(limit.Int64)
		ev.Limit = &n
	}
	if threshold.Valid {
		n := int(threshold.Int64)
		ev.ClosingThreshold = &n
	}
	if closeTime.Valid {
		t, err := model.ParseTimeOfDay(closeTime.String)
		if err != nil {
			return model.Event{}, err
		}
		ev.CloseTime = &t
	}
	return ev, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *model.TimeOfDay) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.String(), Valid: true}
}
