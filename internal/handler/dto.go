package handler

import (
	"time"

	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/model"
)

// guestsRequest is the party composition shared by admission and amendment.
type guestsRequest struct {
	Paired  int      `json:"paired" validate:"gte=0,lte=10000"`
	SingleA int      `json:"singleA" validate:"gte=0,lte=10000"`
	SingleB int      `json:"singleB" validate:"gte=0,lte=10000"`
	Guests  []string `json:"guests" validate:"max=64,dive,max=120"`
}

func (g guestsRequest) counts() model.GuestCounts {
	return model.GuestCounts{Paired: g.Paired, SingleA: g.SingleA, SingleB: g.SingleB}
}

type reservationResponse struct {
	ID               uint64     `json:"id"`
	EventID          uint64     `json:"eventId"`
	PatronID         uint64     `json:"patronId"`
	Paired           int        `json:"paired"`
	SingleA          int        `json:"singleA"`
	SingleB          int        `json:"singleB"`
	GuestUnits       int        `json:"guestUnits"`
	Guests           []string   `json:"guests"`
	Status           string     `json:"status"`
	Code             string     `json:"code"`
	RedeemedAt       *time.Time `json:"redeemedAt,omitempty"`
	RedeemingVenueID *uint64    `json:"redeemingVenueId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func newReservationResponse(r model.Reservation) reservationResponse {
	guests := r.Guests
	if guests == nil {
		guests = []string{}
	}
	return reservationResponse{
		ID:               r.ID,
		EventID:          r.EventID,
		PatronID:         r.PatronID,
		Paired:           r.Counts.Paired,
		SingleA:          r.Counts.SingleA,
		SingleB:          r.Counts.SingleB,
		GuestUnits:       r.GuestUnits(),
		Guests:           guests,
		Status:           string(r.Status),
		Code:             r.Code,
		RedeemedAt:       r.RedeemedAt,
		RedeemingVenueID: r.RedeemingVenueID,
		CreatedAt:        r.CreatedAt,
	}
}

func newReservationList(list []model.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, newReservationResponse(r))
	}
	return out
}

// admissionResponse is returned by admission and amendment.
type admissionResponse struct {
	Reservation     reservationResponse `json:"reservation"`
	GuestlistStatus string              `json:"guestlistStatus"`
	Remaining       *int                `json:"remaining,omitempty"`
}

func newAdmissionResponse(a guestlist.Admission) admissionResponse {
	return admissionResponse{
		Reservation:     newReservationResponse(a.Reservation),
		GuestlistStatus: string(a.Event.Status),
		Remaining:       spotsPtr(a.Remaining),
	}
}

// statusResponse is the guestlist state shown to any caller.
type statusResponse struct {
	EventID      uint64     `json:"eventId"`
	Status       string     `json:"status"`
	StoredStatus string     `json:"storedStatus"`
	ClosesAt     *time.Time `json:"closesAt,omitempty"`
	Remaining    *int       `json:"remaining,omitempty"`
}

func newStatusResponse(v guestlist.EventView) statusResponse {
	return statusResponse{
		EventID:      v.Event.ID,
		Status:       string(v.Effective),
		StoredStatus: string(v.Event.Status),
		ClosesAt:     v.ClosesAt,
		Remaining:    spotsPtr(v.Remaining),
	}
}

// eventResponse is the operator's view of an event.
type eventResponse struct {
	ID               uint64     `json:"id"`
	VenueID          uint64     `json:"venueId"`
	Date             string     `json:"date"`
	StartTime        string     `json:"startTime"`
	CloseTime        *string    `json:"closeTime,omitempty"`
	CloseOnStart     bool       `json:"closeOnStart"`
	Limit            *int       `json:"limit,omitempty"`
	ClosingThreshold *int       `json:"closingThreshold,omitempty"`
	Status           string     `json:"status"`
	StoredStatus     string     `json:"storedStatus"`
	ClosesAt         *time.Time `json:"closesAt,omitempty"`
	Admitted         int        `json:"admitted"`
	Remaining        *int       `json:"remaining,omitempty"`
}

func newEventResponse(v guestlist.EventView) eventResponse {
	ev := v.Event
	out := eventResponse{
		ID:               ev.ID,
		VenueID:          ev.VenueID,
		Date:             ev.Date.Format(time.DateOnly),
		StartTime:        ev.StartTime.String(),
		CloseOnStart:     ev.CloseOnStart,
		Limit:            ev.Limit,
		ClosingThreshold: ev.ClosingThreshold,
		Status:           string(v.Effective),
		StoredStatus:     string(ev.Status),
		ClosesAt:         v.ClosesAt,
		Admitted:         v.Total,
		Remaining:        spotsPtr(v.Remaining),
	}
	if ev.CloseTime != nil {
		s := ev.CloseTime.String()
		out.CloseTime = &s
	}
	return out
}

// eventRequest schedules or reconfigures an event.
type eventRequest struct {
	Date             string `json:"date" validate:"required,isodate"`
	StartTime        string `json:"startTime" validate:"required,timeofday"`
	CloseTime        string `json:"closeTime" validate:"omitempty,timeofday"`
	CloseOnStart     *bool  `json:"closeOnStart"`
	Limit            *int   `json:"limit" validate:"omitempty,gte=0"`
	ClosingThreshold *int   `json:"closingThreshold" validate:"omitempty,gte=0"`
}

// settings converts a validated request.  CloseOnStart defaults to true.
func (r eventRequest) settings() (guestlist.EventSettings, error) {
	date, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		return guestlist.EventSettings{}, err
	}
	start, err := model.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return guestlist.EventSettings{}, err
	}
	s := guestlist.EventSettings{
		Date:             date,
		StartTime:        start,
		Limit:            r.Limit,
		ClosingThreshold: r.ClosingThreshold,
		CloseOnStart:     r.CloseOnStart == nil || *r.CloseOnStart,
	}
	if r.CloseTime != "" {
		ct, err := model.ParseTimeOfDay(r.CloseTime)
		if err != nil {
			return guestlist.EventSettings{}, err
		}
		s.CloseTime = &ct
	}
	return s, nil
}

func spotsPtr(s guestlist.Spots) *int {
	if !s.Bounded {
		return nil
	}
	n := s.Count
	return &n
}
