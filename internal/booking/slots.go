// Package booking holds the pure availability, conflict, expiry, and
// pricing rules shared by the HTTP handlers and the background jobs.
// Nothing in this package touches the database or the wall clock; every
// function is deterministic over its inputs.
package booking

import (
	"fmt"
	"time"
)

const (
	// OpeningHour and ClosingHour bound the bookable day. Slots are the
	// hour marks from OpeningHour through ClosingHour inclusive; the last
	// mark is only usable as an end time.
	OpeningHour = 8
	ClosingHour = 22

	// minStartLeadTime is how much time must remain before a same-day
	// slot can still be chosen as a start.
	minStartLeadTime = 30 * time.Minute

	dayLayout = "2006-01-02"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Reservation is the in-memory view of a stored reservation that the
// booking rules operate on.
type Reservation struct {
	ID        int64
	CourtID   int64
	UserID    int64
	Day       string // YYYY-MM-DD, no timezone
	StartHour int
	EndHour   int
	Status    Status
	Price     float64
	CreatedAt time.Time
}

// Valid reports whether the reservation carries a usable hour-aligned
// interval. Records that fail this check are skipped by the availability
// rules rather than trusted.
func (r Reservation) Valid() bool {
	return r.StartHour < r.EndHour &&
		r.StartHour >= OpeningHour &&
		r.EndHour <= ClosingHour
}

// DaySlots returns the fixed hour marks for one bookable day,
// OpeningHour..ClosingHour inclusive.
func DaySlots() []int {
	slots := make([]int, 0, ClosingHour-OpeningHour+1)
	for h := OpeningHour; h <= ClosingHour; h++ {
		slots = append(slots, h)
	}
	return slots
}

// ParseDay parses a YYYY-MM-DD day string in the given location.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation(dayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("day must be formatted as YYYY-MM-DD")
	}
	return parsed, nil
}

// SameDay reports whether the YYYY-MM-DD day string names the calendar
// day of the reference instant.
func SameDay(day string, now time.Time) bool {
	return day == now.Format(dayLayout)
}

// FormatHour renders an hour mark as HH:00 for API responses.
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// hourTooSoon reports whether an hour mark on the current day is already
// past or starts too close to the reference instant. The current hour is
// still usable while more than half of it remains; the next hour is
// usable only when it is more than minStartLeadTime away.
func hourTooSoon(hour int, now time.Time) bool {
	cutoffMinute := int(minStartLeadTime.Minutes())
	switch {
	case hour < now.Hour():
		return true
	case hour == now.Hour():
		return now.Minute() >= cutoffMinute
	case hour == now.Hour()+1:
		return now.Minute() >= cutoffMinute
	default:
		return false
	}
}
