// Package guestlisttest provides an in-memory store for exercising the
// guestlist engine without MySQL.
package guestlisttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/model"
)

// Store is an in-memory EventStore, ReservationStore, EventCatalog and
// TxRunner.
// GetEventForUpdate takes a per-event lock held until the surrounding
// WithTx returns, which serializes admissions the way FOR UPDATE does.
// Writes are applied immediately; there is no rollback.
type Store struct {
	mu           sync.Mutex
	events       map[uint64]model.Event
	reservations map[uint64]model.Reservation
	nextID       uint64
	locks        map[uint64]*sync.Mutex

	conflicts int
	txCount   int
}

type txKey struct{}

type memTx struct {
	held []*sync.Mutex
}

func NewStore(events ...model.Event) *Store {
	s := &Store{
		events:       make(map[uint64]model.Event),
		reservations: make(map[uint64]model.Reservation),
		locks:        make(map[uint64]*sync.Mutex),
	}
	for _, ev := range events {
		s.events[ev.ID] = ev
	}
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCount++
	s.mu.Unlock()

	tx := &memTx{}
	defer func() {
		for i := len(tx.held) - 1; i >= 0; i-- {
			tx.held[i].Unlock()
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, tx))
}

func (s *Store) GetEvent(_ context.Context, id uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, guestlist.ErrEventNotFound
	}
	return ev, nil
}

func (s *Store) GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	if tx, ok := ctx.Value(txKey{}).(*memTx); ok {
		s.mu.Lock()
		l, ok := s.locks[id]
		if !ok {
			l = &sync.Mutex{}
			s.locks[id] = l
		}
		s.mu.Unlock()
		l.Lock()
		tx.held = append(tx.held, l)
	}
	return s.GetEvent(ctx, id)
}

func (s *Store) UpdateEventStatus(_ context.Context, id uint64, status model.GuestlistStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return guestlist.ErrEventNotFound
	}
	ev.Status = status
	s.events[id] = ev
	return nil
}

func (s *Store) SumActiveUnits(_ context.Context, eventID, excludeID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, r := range s.reservations {
		if r.EventID == eventID && r.Active() && r.ID != excludeID {
			total += r.GuestUnits()
		}
	}
	return total, nil
}

func (s *Store) FindActive(_ context.Context, eventID, patronID uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.EventID == eventID && r.PatronID == patronID && r.Active() {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) Create(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return guestlist.ErrConflict
	}
	for _, r := range s.reservations {
		if r.Code == res.Code {
			return guestlist.ErrConflict
		}
		if r.EventID == res.EventID && r.PatronID == res.PatronID && r.Active() {
			return guestlist.ErrDuplicateReservation
		}
	}
	s.nextID++
	res.ID = s.nextID
	s.reservations[res.ID] = cloneReservation(*res)
	return nil
}

func (s *Store) GetByCode(_ context.Context, code string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.Code == code {
			return cloneReservation(r), nil
		}
	}
	return model.Reservation{}, guestlist.ErrReservationNotFound
}

func (s *Store) GetByID(_ context.Context, id uint64) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, guestlist.ErrReservationNotFound
	}
	return cloneReservation(r), nil
}

func (s *Store) GetByIDForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.GetByID(ctx, id)
}

func (s *Store) MarkRedeemed(_ context.Context, id, venueID uint64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.RedeemedAt != nil || r.Status != model.ReservationConfirmed {
		return false, nil
	}
	r.RedeemedAt = &at
	r.RedeemingVenueID = &venueID
	r.Status = model.ReservationCheckedIn
	s.reservations[id] = r
	return true, nil
}

func (s *Store) SetStatus(_ context.Context, id uint64, status model.ReservationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status != model.ReservationConfirmed || r.RedeemedAt != nil {
		return false, nil
	}
	r.Status = status
	s.reservations[id] = r
	return true, nil
}

func (s *Store) UpdateGuests(_ context.Context, id uint64, counts model.GuestCounts, guests []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status != model.ReservationConfirmed || r.RedeemedAt != nil {
		return false, nil
	}
	r.Counts = counts
	r.Guests = append([]string(nil), guests...)
	s.reservations[id] = r
	return true, nil
}

func (s *Store) ListByEvent(_ context.Context, eventID uint64) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool { return r.EventID == eventID }), nil
}

func (s *Store) ListByPatron(_ context.Context, patronID uint64) ([]model.Reservation, error) {
	return s.filter(func(r model.Reservation) bool { return r.PatronID == patronID }), nil
}

func (s *Store) filter(keep func(model.Reservation) bool) []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, cloneReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Seed inserts a reservation directly, bypassing admission.
func (s *Store) Seed(r model.Reservation) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	if r.Status == "" {
		r.Status = model.ReservationConfirmed
	}
	s.reservations[r.ID] = r
	return r
}

func (s *Store) Event(id uint64) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *Store) Reservation(id uint64) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReservation(s.reservations[id])
}

func cloneReservation(r model.Reservation) model.Reservation {
	r.Guests = append([]string(nil), r.Guests...)
	return r
}

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// EventDay is the calendar day of events built by OpenEvent.
var EventDay = time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)

// OpenEvent returns an OPEN event at 21:00 on EventDay owned by venue 1.
func OpenEvent(id uint64, limit, threshold *int) model.Event {
	return model.Event{
		ID:               id,
		VenueID:          1,
		Date:             EventDay,
		StartTime:        model.NewTimeOfDay(21, 0, 0),
		Status:           model.GuestlistOpen,
		Limit:            limit,
		ClosingThreshold: threshold,
		CloseOnStart:     true,
	}
}

// FailCreates makes the next n Create calls fail with guestlist.ErrConflict.
func (s *Store) FailCreates(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// TxCount reports how many transactions have been started.
func (s *Store) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// All returns every reservation ordered by ID.
func (s *Store) All() []model.Reservation {
	return s.filter(func(model.Reservation) bool { return true })
}

func (s *Store) CreateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last uint64
	for id := range s.events {
		if id > last {
			last = id
		}
	}
	ev.ID = last + 1
	s.events[ev.ID] = *ev
	return nil
}

func (s *Store) ListByVenue(_ context.Context, venueID uint64) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, ev := range s.events {
		if ev.VenueID == venueID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateSettings(_ context.Context, id uint64, set guestlist.EventSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return guestlist.ErrEventNotFound
	}
	set.Apply(&ev)
	s.events[id] = ev
	return nil
}
