package guestlist

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ScanCode is what a door scanner presented: a redemption code, a raw
// reservation identifier, or both.
type ScanCode struct {
	Code string
	ID   uint64
}

// Empty reports whether nothing usable was scanned.
func (s ScanCode) Empty() bool { return s.Code == "" && s.ID == 0 }

// ParseScan accepts a bare code, a numeric reservation id, or a small JSON
// payload such as {"code":"..."} or {"bookingId":42}.
func ParseScan(raw string) ScanCode {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ScanCode{}
	}
	if strings.HasPrefix(s, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(s), &payload); err == nil {
			return fromPayload(payload)
		}
	}
	out := ScanCode{Code: s}
	if id, err := strconv.ParseUint(s, 10, 64); err == nil {
		out.ID = id
	}
	return out
}

func fromPayload(p map[string]any) ScanCode {
	var out ScanCode
	for _, k := range []string{"code", "redemptionCode", "redemption_code", "qr"} {
		if v, ok := p[k].(string); ok && strings.TrimSpace(v) != "" {
			out.Code = strings.TrimSpace(v)
			break
		}
	}
	for _, k := range []string{"bookingId", "booking_id", "reservationId", "reservation_id", "id"} {
		switch v := p[k].(type) {
		case float64:
			if v > 0 && v == float64(uint64(v)) {
				out.ID = uint64(v)
			}
		case string:
			v = strings.TrimSpace(v)
			if id, err := strconv.ParseUint(v, 10, 64); err == nil {
				out.ID = id
			} else if out.Code == "" && v != "" {
				out.Code = v
			}
		}
		if out.ID != 0 {
			break
		}
	}
	return out
}
