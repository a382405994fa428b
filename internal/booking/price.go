package booking

import "math"

// ComputePrice prices an hour-aligned interval at the court's hourly
// rate plus an optional flat fee, rounded half-up at the cent. A
// non-positive duration prices at zero so half-filled forms never show
// a negative amount.
func ComputePrice(hourlyRate float64, startHour, endHour int, extraFee float64) float64 {
	duration := endHour - startHour
	if duration <= 0 {
		return 0
	}
	return Round2(hourlyRate*float64(duration) + extraFee)
}

// Round2 rounds to two decimal places with half-up rounding at the
// currency minor unit.
func Round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}
