package solarloop

import (
	"fmt"
	"math"
)

// Params is the full input of one run. Fields are in cache order.
type Params struct {
	Efficiency         float64
	Area               float64 // m²
	FlowRate           float64 // L/min
	Volume             float64 // L
	ThermalEfficiency  float64
	InitialTemperature float64 // °C
	PeakSunlight       float64 // W/m²
	Duration           int     // minutes
	Derating           Derating
}

// ParamNames lists the scalar parameters accepted by Set, in cache order.
var ParamNames = []string{
	"efficiency",
	"area",
	"flow_rate",
	"volume",
	"thermal_efficiency",
	"initial_temperature",
	"peak_sunlight",
	"duration",
}

// Set returns a copy of p with the named scalar replaced.
func (p Params) Set(name string, v float64) (Params, error) {
	switch name {
	case "efficiency":
		p.Efficiency = v
	case "area":
		p.Area = v
	case "flow_rate":
		p.FlowRate = v
	case "volume":
		p.Volume = v
	case "thermal_efficiency":
		p.ThermalEfficiency = v
	case "initial_temperature":
		p.InitialTemperature = v
	case "peak_sunlight":
		p.PeakSunlight = v
	case "duration":
		if v != math.Trunc(v) || v < 0 || v > MaxDuration {
			return p, fmt.Errorf("%w: %v", ErrInvalidDuration, v)
		}
		p.Duration = int(v)
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return p, nil
}

// ValidateDuration rejects negative durations and runs longer than MaxDuration.
func ValidateDuration(d int) error {
	if d < 0 || d > MaxDuration {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, d)
	}
	return nil
}

// Get returns the named scalar.
func (p Params) Get(name string) (float64, error) {
	switch name {
	case "efficiency":
		return p.Efficiency, nil
	case "area":
		return p.Area, nil
	case "flow_rate":
		return p.FlowRate, nil
	case "volume":
		return p.Volume, nil
	case "thermal_efficiency":
		return p.ThermalEfficiency, nil
	case "initial_temperature":
		return p.InitialTemperature, nil
	case "peak_sunlight":
		return p.PeakSunlight, nil
	case "duration":
		return float64(p.Duration), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
}
