package guestlist_test

import (
	"github.com/iliyamo/guestlist/internal/guestlist/guestlisttest"
	"github.com/iliyamo/guestlist/internal/model"
)

var eventDay = guestlisttest.EventDay

func intPtr(n int) *int { return guestlisttest.Int(n) }

func todPtr(t model.TimeOfDay) *model.TimeOfDay { return &t }

func openEvent(id uint64, limit, threshold *int) model.Event {
	return guestlisttest.OpenEvent(id, limit, threshold)
}
