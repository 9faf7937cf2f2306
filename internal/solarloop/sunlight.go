package solarloop

import "math"

// Sunlight is the intensity (W/m²) at the given minute: one sine cycle per day
// scaled to peak, clamped at zero during the night half.
func Sunlight(minute int, peak float64) float64 {
	v := peak * math.Sin(float64(minute)/MinutesPerDay*2*math.Pi)
	return math.Max(v, 0)
}
