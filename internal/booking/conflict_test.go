package booking

import (
	"testing"
	"time"
)

func TestHasConflict(t *testing.T) {
	avail := Compute([]Reservation{res(1, 10, 12), res(2, 15, 17)}, 0, time.Time{}, false)

	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"fully free", 8, 10, false},
		{"adjacent before", 9, 10, false},
		{"adjacent after", 12, 14, false},
		{"partial overlap front", 9, 11, true},
		{"partial overlap back", 11, 13, true},
		{"fully nested", 10, 12, true},
		{"surrounding", 9, 13, true},
		{"between blocks", 12, 15, false},
		{"spanning both blocks", 11, 16, true},
		{"inverted interval", 12, 10, false},
		{"empty interval", 10, 10, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasConflict(tc.start, tc.end, avail.Occupied); got != tc.want {
				t.Errorf("HasConflict(%d, %d) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

// The per-hour scan and the interval overlap test are two formulations
// of the same predicate and must never disagree.
func TestConflictFormulationsAgree(t *testing.T) {
	layouts := [][]Reservation{
		nil,
		{res(1, 10, 12)},
		{res(1, 9, 11), res(2, 11, 13)},
		{res(1, 8, 9), res(2, 12, 14), res(3, 18, 22)},
		{res(1, 9, 15), res(2, 10, 12)},
	}

	for _, layout := range layouts {
		avail := Compute(layout, 0, time.Time{}, false)
		for start := OpeningHour - 1; start <= ClosingHour; start++ {
			for end := start - 1; end <= ClosingHour+1; end++ {
				scan := HasConflict(start, end, avail.Occupied)
				interval := OverlapsBlocks(start, end, avail.Blocks)
				if scan != interval {
					t.Fatalf("formulations disagree for [%d,%d) over %v: scan=%v interval=%v",
						start, end, avail.Blocks, scan, interval)
				}
			}
		}
	}
}
