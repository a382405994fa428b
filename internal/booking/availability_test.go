package booking

import (
	"reflect"
	"testing"
	"time"
)

func res(id int64, start, end int) Reservation {
	return Reservation{ID: id, CourtID: 1, Day: "2025-06-10", StartHour: start, EndHour: end, Status: StatusConfirmed}
}

func TestComputeMergesTouchingBlocks(t *testing.T) {
	avail := Compute([]Reservation{res(1, 9, 11), res(2, 11, 13)}, 0, time.Time{}, false)

	want := []Block{{Start: 9, End: 13}}
	if !reflect.DeepEqual(avail.Blocks, want) {
		t.Fatalf("blocks = %v, want %v", avail.Blocks, want)
	}
	for h := 9; h < 13; h++ {
		if !avail.Occupied[h] {
			t.Errorf("hour %d should be occupied", h)
		}
	}
}

func TestComputeKeepsDisjointBlocksSeparate(t *testing.T) {
	avail := Compute([]Reservation{res(1, 9, 10), res(2, 14, 15)}, 0, time.Time{}, false)

	want := []Block{{Start: 9, End: 10}, {Start: 14, End: 15}}
	if !reflect.DeepEqual(avail.Blocks, want) {
		t.Fatalf("blocks = %v, want %v", avail.Blocks, want)
	}
}

func TestComputeMergesOverlapAndNesting(t *testing.T) {
	cases := []struct {
		name  string
		input []Reservation
		want  []Block
	}{
		{
			name:  "partial overlap",
			input: []Reservation{res(1, 9, 12), res(2, 11, 14)},
			want:  []Block{{Start: 9, End: 14}},
		},
		{
			name:  "fully nested",
			input: []Reservation{res(1, 9, 15), res(2, 10, 12)},
			want:  []Block{{Start: 9, End: 15}},
		},
		{
			name:  "unsorted input",
			input: []Reservation{res(2, 14, 16), res(1, 9, 10)},
			want:  []Block{{Start: 9, End: 10}, {Start: 14, End: 16}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			avail := Compute(tc.input, 0, time.Time{}, false)
			if !reflect.DeepEqual(avail.Blocks, tc.want) {
				t.Fatalf("blocks = %v, want %v", avail.Blocks, tc.want)
			}
		})
	}
}

func TestComputeExcludesEditedReservation(t *testing.T) {
	avail := Compute([]Reservation{res(5, 10, 12)}, 5, time.Time{}, false)

	if avail.Occupied[10] || avail.Occupied[11] {
		t.Fatalf("hours 10 and 11 should be free when editing reservation 5, occupied=%v", avail.Occupied)
	}
	if len(avail.Blocks) != 0 {
		t.Fatalf("expected no blocks, got %v", avail.Blocks)
	}
}

func TestComputeSkipsCancelledAndMalformed(t *testing.T) {
	cancelled := res(1, 9, 11)
	cancelled.Status = StatusCancelled
	inverted := res(2, 15, 13)

	avail := Compute([]Reservation{cancelled, inverted}, 0, time.Time{}, false)
	if len(avail.Occupied) != 0 {
		t.Fatalf("expected empty occupancy, got %v", avail.Occupied)
	}
}

func TestComputeTodayCutoff(t *testing.T) {
	// 14:45: slot 14 has only 15 minutes left, slot 15 is less than 30
	// minutes away, slot 16 is the first usable start.
	now := time.Date(2025, 6, 10, 14, 45, 0, 0, time.UTC)
	avail := Compute(nil, 0, now, true)

	starts := make(map[int]bool, len(avail.ValidStarts))
	for _, h := range avail.ValidStarts {
		starts[h] = true
	}
	if starts[14] {
		t.Error("slot 14 should be invalid at 14:45")
	}
	if starts[15] {
		t.Error("slot 15 should be invalid at 14:45")
	}
	if !starts[16] {
		t.Error("slot 16 should be valid at 14:45")
	}
}

func TestComputeTodayCurrentHourBeforeHalfPast(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 10, 0, 0, time.UTC)
	avail := Compute(nil, 0, now, true)

	starts := make(map[int]bool, len(avail.ValidStarts))
	for _, h := range avail.ValidStarts {
		starts[h] = true
	}
	if !starts[14] {
		t.Error("current-hour slot should be valid while more than 30 minutes remain")
	}
	if !starts[15] {
		t.Error("slot 15 is 50 minutes away and should be valid")
	}
	if starts[13] {
		t.Error("slot 13 is past and should be invalid")
	}
}

func TestComputeNotTodayIgnoresClock(t *testing.T) {
	now := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)
	avail := Compute(nil, 0, now, false)

	if len(avail.ValidStarts) != ClosingHour-OpeningHour {
		t.Fatalf("expected %d starts on a free future day, got %d", ClosingHour-OpeningHour, len(avail.ValidStarts))
	}
	if avail.ValidStarts[0] != OpeningHour {
		t.Fatalf("first start = %d, want %d", avail.ValidStarts[0], OpeningHour)
	}
}

func TestValidEndsStopAtFirstOccupiedHour(t *testing.T) {
	avail := Compute([]Reservation{res(1, 11, 12)}, 0, time.Time{}, false)

	ends := avail.ValidEnds(9)
	want := []int{10, 11}
	if !reflect.DeepEqual(ends, want) {
		t.Fatalf("ValidEnds(9) = %v, want %v", ends, want)
	}

	endSet := make(map[int]bool, len(ends))
	for _, e := range ends {
		endSet[e] = true
	}
	// Hour 12 itself is free, but the span [9,12) crosses occupied hour 11.
	if endSet[12] {
		t.Error("end 12 should be invalid: span crosses occupied hour 11")
	}
	if endSet[11] == false && endSet[10] == false {
		t.Error("ends 10 and 11 should both be valid")
	}
}

func TestEveryValidStartHasReachableEnd(t *testing.T) {
	avail := Compute([]Reservation{res(1, 10, 11), res(2, 13, 16)}, 0, time.Time{}, false)

	for _, s := range avail.ValidStarts {
		if len(avail.ValidEnds(s)) == 0 {
			t.Errorf("start %d has no reachable end and should have been excluded", s)
		}
	}
}

func TestComputeDeterminism(t *testing.T) {
	input := []Reservation{res(1, 9, 11), res(2, 13, 15), res(3, 10, 12)}
	now := time.Date(2025, 6, 10, 9, 5, 0, 0, time.UTC)

	first := Compute(input, 0, now, true)
	second := Compute(input, 0, now, true)

	if !reflect.DeepEqual(first.Blocks, second.Blocks) ||
		!reflect.DeepEqual(first.ValidStarts, second.ValidStarts) ||
		!reflect.DeepEqual(first.Occupied, second.Occupied) {
		t.Fatal("recomputation with identical inputs must yield identical output")
	}
}

func TestDaySlots(t *testing.T) {
	slots := DaySlots()
	if len(slots) != 15 {
		t.Fatalf("expected 15 hour marks, got %d", len(slots))
	}
	if slots[0] != 8 || slots[len(slots)-1] != 22 {
		t.Fatalf("slots span %d..%d, want 8..22", slots[0], slots[len(slots)-1])
	}
}

func TestSameDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	if !SameDay("2025-06-10", now) {
		t.Error("2025-06-10 should match")
	}
	if SameDay("2025-06-11", now) {
		t.Error("2025-06-11 should not match")
	}
}
