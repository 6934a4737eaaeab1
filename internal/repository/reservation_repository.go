package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/model"
)

const reservationColumns = `id, event_id, patron_id, paired_count, single_a_count, single_b_count,
       status, code, redeemed_at, redeeming_venue_id, created_at`

// ReservationRepo provides data access to reservations and their named
// guests.  Named guests are stored in the reservation_guests table in the
// order they were given.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// SumActiveUnits totals guest units of the event's non-cancelled
// reservations, leaving out excludeID.
func (r *ReservationRepo) SumActiveUnits(ctx context.Context, eventID, excludeID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(2 * paired_count + single_a_count + single_b_count), 0)
               FROM reservations
               WHERE event_id = ? AND status <> 'CANCELLED' AND id <> ?`
	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, eventID, excludeID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active units: %w", translate(err))
	}
	return total, nil
}

// FindActive returns the patron's non-cancelled reservation on the event,
// or nil when there is none.
func (r *ReservationRepo) FindActive(ctx context.Context, eventID, patronID uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
          WHERE event_id = ? AND patron_id = ? AND status <> 'CANCELLED' LIMIT 1`
	res, err := scanReservation(conn(ctx, r.db).QueryRowContext(ctx, q, eventID, patronID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active reservation: %w", translate(err))
	}
	return &res, nil
}

// Create inserts res with its named guests and populates the ID.  Both
// writes share one transaction.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		const q = `INSERT INTO reservations (event_id, patron_id, paired_count, single_a_count,
                         single_b_count, status, code, created_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		out, err := conn(ctx, r.db).ExecContext(ctx, q,
			res.EventID, res.PatronID, res.Counts.Paired, res.Counts.SingleA, res.Counts.SingleB,
			string(res.Status), res.Code, res.CreatedAt.UTC(),
		)
		if err != nil {
			return translate(err)
		}
		id, err := out.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)
		return r.insertGuests(ctx, res.ID, res.Guests)
	})
}

// insertGuests writes all named guests in a single statement.  Passing an
// empty slice has no effect.
func (r *ReservationRepo) insertGuests(ctx context.Context, reservationID uint64, guests []string) error {
	if len(guests) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO reservation_guests (reservation_id, position, name) VALUES `)
	args := make([]any, 0, len(guests)*3)
	for i, name := range guests {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, reservationID, i+1, name)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert guests: %w", translate(err))
	}
	return nil
}

// GetByCode looks a reservation up by its redemption code.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (model.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE code = ?`, code)
}

// GetByID looks a reservation up by its identifier.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
}

// GetByIDForUpdate locks the reservation row for the current transaction.
func (r *ReservationRepo) GetByIDForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
}

func (r *ReservationRepo) getOne(ctx context.Context, q string, arg any) (model.Reservation, error) {
	res, err := scanReservation(conn(ctx, r.db).QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, guestlist.ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("get reservation: %w", translate(err))
	}
	guests, err := r.guestsByReservation(ctx, `WHERE reservation_id = ?`, res.ID)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Guests = guests[res.ID]
	return res, nil
}

// MarkRedeemed checks the reservation in unless it already was.  The
// conditional UPDATE is the only guard against two concurrent scans, so
// exactly one caller sees true.
func (r *ReservationRepo) MarkRedeemed(ctx context.Context, id, venueID uint64, at time.Time) (bool, error) {
	const q = `UPDATE reservations
               SET redeemed_at = ?, redeeming_venue_id = ?, status = 'CHECKED_IN'
               WHERE id = ? AND redeemed_at IS NULL AND status = 'CONFIRMED'`
	return r.execChanged(ctx, "mark redeemed", q, at.UTC(), venueID, id)
}

// SetStatus moves a confirmed, unredeemed reservation to status.
func (r *ReservationRepo) SetStatus(ctx context.Context, id uint64, status model.ReservationStatus) (bool, error) {
	const q = `UPDATE reservations SET status = ?
               WHERE id = ? AND status = 'CONFIRMED' AND redeemed_at IS NULL`
	return r.execChanged(ctx, "set status", q, string(status), id)
}

// UpdateGuests replaces counts and named guests of a confirmed,
// unredeemed reservation.
func (r *ReservationRepo) UpdateGuests(ctx context.Context, id uint64, counts model.GuestCounts, guests []string) (bool, error) {
	var changed bool
	err := withTx(ctx, r.db, func(ctx context.Context) error {
		const q = `UPDATE reservations
                   SET paired_count = ?, single_a_count = ?, single_b_count = ?
                   WHERE id = ? AND status = 'CONFIRMED' AND redeemed_at IS NULL`
		var err error
		changed, err = r.execChanged(ctx, "update guests", q, counts.Paired, counts.SingleA, counts.SingleB, id)
		if err != nil || !changed {
			return err
		}
		if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM reservation_guests WHERE reservation_id = ?`, id); err != nil {
			return fmt.Errorf("clear guests: %w", translate(err))
		}
		return r.insertGuests(ctx, id, guests)
	})
	return changed, err
}

func (r *ReservationRepo) execChanged(ctx context.Context, op, q string, args ...any) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// ListByEvent returns every reservation on the event in creation order.
func (r *ReservationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE event_id = ? ORDER BY created_at, id`,
		`JOIN reservations r ON r.id = g.reservation_id WHERE r.event_id = ?`,
		eventID)
}

// ListByPatron returns the patron's reservations, newest first.
func (r *ReservationRepo) ListByPatron(ctx context.Context, patronID uint64) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE patron_id = ? ORDER BY created_at DESC, id DESC`,
		`JOIN reservations r ON r.id = g.reservation_id WHERE r.patron_id = ?`,
		patronID)
}

func (r *ReservationRepo) list(ctx context.Context, q, guestFilter string, arg uint64) ([]model.Reservation, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", translate(err))
	}
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	guests, err := r.guestsByReservation(ctx, guestFilter, arg)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Guests = guests[out[i].ID]
	}
	return out, nil
}

// guestsByReservation loads named guests matching filter, grouped by
// reservation and kept in position order.
func (r *ReservationRepo) guestsByReservation(ctx context.Context, filter string, arg any) (map[uint64][]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT g.reservation_id, g.name FROM reservation_guests g `+filter+` ORDER BY g.reservation_id, g.position`, arg)
	if err != nil {
		return nil, fmt.Errorf("load guests: %w", translate(err))
	}
	defer rows.Close()
	out := make(map[uint64][]string)
	for rows.Next() {
		var (
			id   uint64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		res        model.Reservation
		status     string
		redeemedAt sql.NullTime
		venueID    sql.NullInt64
	)
	err := row.Scan(&res.ID, &res.EventID, &res.PatronID, &res.Counts.Paired, &res.Counts.SingleA,
		&res.Counts.SingleB, &status, &res.Code, &redeemedAt, &venueID, &res.CreatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Status = model.ReservationStatus(status)
	if redeemedAt.Valid {
		t := redeemedAt.Time
		res.RedeemedAt = &t
	}
	if venueID.Valid {
		v := uint64(venueID.Int64)
		res.RedeemingVenueID = &v
	}
	return res, nil
}
