package booking

import "testing"

func TestComputePrice(t *testing.T) {
	cases := []struct {
		name       string
		rate       float64
		start, end int
		extraFee   float64
		want       float64
	}{
		{"three hours", 18, 9, 12, 0, 54},
		{"zero duration", 18, 9, 9, 0, 0},
		{"inverted interval", 18, 12, 9, 0, 0},
		{"with flat fee", 18, 9, 12, 5, 59},
		{"fractional rate rounds up", 12.506, 10, 11, 0, 12.51},
		{"fractional rate rounds down", 12.504, 10, 11, 0, 12.50},
		{"single hour", 22.50, 14, 15, 0, 22.50},
		{"fee on zero duration still zero", 18, 9, 9, 5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputePrice(tc.rate, tc.start, tc.end, tc.extraFee)
			if got != tc.want {
				t.Errorf("ComputePrice(%v, %d, %d, %v) = %v, want %v",
					tc.rate, tc.start, tc.end, tc.extraFee, got, tc.want)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1.006, 1.01},
		{1.004, 1.0},
		{54, 54},
		{0.375, 0.38},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
