package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date, stored as seconds since
// midnight.  It maps to a MySQL TIME column, which the driver returns as
// text ("21:00:00") even with parseTime enabled.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour, minute and second.
func NewTimeOfDay(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600 + m*60 + s)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	var vals [3]int
	for i, p := range parts {
		// MySQL may append fractional seconds.
		if i == 2 {
			p, _, _ = strings.Cut(p, ".")
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		vals[i] = n
	}
	if vals[0] > 23 || vals[1] > 59 || vals[2] > 59 {
		return 0, fmt.Errorf("time of day out of range %q", s)
	}
	return NewTimeOfDay(vals[0], vals[1], vals[2]), nil
}

// On combines t with the calendar day of date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	secs := int(t)
	return time.Date(y, m, d, secs/3600, (secs%3600)/60, secs%60, 0, loc)
}

func (t TimeOfDay) String() string {
	secs := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// Scan implements sql.Scanner.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return t.set(string(v))
	case string:
		return t.set(v)
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute(), v.Second())
		return nil
	case nil:
		return fmt.Errorf("time of day: NULL")
	}
	return fmt.Errorf("time of day: unsupported type %T", src)
}

func (t *TimeOfDay) set(s string) error {
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// MarshalText renders HH:MM:SS for JSON payloads.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts HH:MM or HH:MM:SS.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	return t.set(string(b))
}
