package booking

import (
	"fmt"
	"strings"
	"time"
)

// PendingTTL is how long a pending reservation may sit unconfirmed
// before it is eligible for automatic cancellation.
const PendingTTL = 60 * time.Minute

// creationLayouts are the combined date-time encodings accepted for
// reservation creation timestamps, tried in order.
var creationLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseCreationTime normalizes a reservation creation timestamp to a
// single instant. It accepts either a combined date-time string or a
// separate date and time-of-day pair; combined wins when both are set.
func ParseCreationTime(combined, date, timeOfDay string) (time.Time, error) {
	combined = strings.TrimSpace(combined)
	if combined != "" {
		for _, layout := range creationLayouts {
			if layout == time.RFC3339 {
				if parsed, err := time.Parse(layout, combined); err == nil {
					return parsed, nil
				}
				continue
			}
			if parsed, err := time.ParseInLocation(layout, combined, time.Local); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized creation timestamp %q", combined)
	}

	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if date == "" || timeOfDay == "" {
		return time.Time{}, fmt.Errorf("creation timestamp is missing")
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if parsed, err := time.ParseInLocation(layout, date+" "+timeOfDay, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized creation date %q time %q", date, timeOfDay)
}

// FindExpiredPending returns the pending reservations created more than
// threshold before now (strict greater-than). Reservations that are not
// pending or carry no usable creation timestamp are excluded: acting on
// bad data is worse than leaving a stale hold in place, so missing
// timestamps never classify as expired. Output order follows input
// order but is not part of the contract.
func FindExpiredPending(reservations []Reservation, now time.Time, threshold time.Duration) []Reservation {
	if threshold <= 0 {
		threshold = PendingTTL
	}

	var expired []Reservation
	for _, r := range reservations {
		if r.Status != StatusPending {
			continue
		}
		if r.CreatedAt.IsZero() {
			continue
		}
		if now.Sub(r.CreatedAt) > threshold {
			expired = append(expired, r)
		}
	}
	return expired
}
