package booking

import (
	"sort"
	"time"
)

// Block is a maximal contiguous run of occupied hours, half-open
// [Start, End). Blocks are derived from the reservation set on every
// computation and never stored.
type Block struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Availability is the derived occupancy picture for one court and day.
// The reference instant is captured once at computation time so every
// derived value answers against the same "now".
type Availability struct {
	Occupied    map[int]bool
	Blocks      []Block
	ValidStarts []int

	now     time.Time
	isToday bool
}

// Compute derives the availability picture for one court and day.
// reservations should already be filtered to that court and day;
// cancelled and malformed records are skipped. excludeID removes the
// reservation being edited so it can keep or extend its own hours.
// isToday applies the near-past cutoff against now.
func Compute(reservations []Reservation, excludeID int64, now time.Time, isToday bool) Availability {
	avail := Availability{
		Occupied: make(map[int]bool),
		now:      now,
		isToday:  isToday,
	}

	active := make([]Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.ID == excludeID && excludeID != 0 {
			continue
		}
		if r.Status == StatusCancelled {
			continue
		}
		if !r.Valid() {
			continue
		}
		active = append(active, r)
		for h := r.StartHour; h < r.EndHour; h++ {
			avail.Occupied[h] = true
		}
	}

	avail.Blocks = mergeBlocks(active)

	for h := OpeningHour; h < ClosingHour; h++ {
		if isToday && hourTooSoon(h, now) {
			continue
		}
		if avail.Occupied[h] {
			continue
		}
		// A start only counts when at least one end is reachable.
		if len(avail.ValidEnds(h)) == 0 {
			continue
		}
		avail.ValidStarts = append(avail.ValidStarts, h)
	}

	return avail
}

// ValidEnds lists the end hours reachable from start: each candidate end
// must lie after start, must not be in the near past when the day is
// today, and every hour between start and it must be free. The scan
// stops at the first occupied hour, so a single busy hour invalidates
// everything beyond it.
func (a Availability) ValidEnds(start int) []int {
	if start < OpeningHour || start >= ClosingHour {
		return nil
	}
	var ends []int
	for e := start + 1; e <= ClosingHour; e++ {
		if a.Occupied[e-1] {
			break
		}
		if a.isToday && hourTooSoon(e, a.now) {
			continue
		}
		ends = append(ends, e)
	}
	return ends
}

// mergeBlocks sorts reservations by start hour and folds them into
// maximal blocks. Touching intervals count as continuous, so [9,11) and
// [11,13) merge into [9,13).
func mergeBlocks(reservations []Reservation) []Block {
	if len(reservations) == 0 {
		return nil
	}

	sorted := make([]Reservation, len(reservations))
	copy(sorted, reservations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartHour == sorted[j].StartHour {
			return sorted[i].EndHour < sorted[j].EndHour
		}
		return sorted[i].StartHour < sorted[j].StartHour
	})

	blocks := []Block{{Start: sorted[0].StartHour, End: sorted[0].EndHour}}
	for _, r := range sorted[1:] {
		last := &blocks[len(blocks)-1]
		if r.StartHour <= last.End {
			if r.EndHour > last.End {
				last.End = r.EndHour
			}
			continue
		}
		blocks = append(blocks, Block{Start: r.StartHour, End: r.EndHour})
	}
	return blocks
}
