package solarloop

import "math"

// Collector is a lumped solar collector: one well-mixed mass of water heated by
// sunlight and cooled toward AmbientReference when there is none.
type Collector struct {
	Efficiency       float64
	Area             float64 // m²
	WaterTemperature float64 // °C
	Derating         Derating
}

func NewCollector(efficiency, area, initialTemperature float64, derating Derating) Collector {
	return Collector{
		Efficiency:       efficiency,
		Area:             area,
		WaterTemperature: initialTemperature,
		Derating:         derating,
	}
}

// EffectiveEfficiency is the base efficiency after temperature derating.
func (c Collector) EffectiveEfficiency() float64 {
	if c.Derating == DeratingNone {
		return c.Efficiency
	}
	factor := math.Max(0, 1-DeratingSlope*(c.WaterTemperature-DeratingReference))
	return c.Efficiency * factor
}

// CollectEnergy returns the collector after one step at the given sunlight
// intensity (W/m²) and flow rate (L/min).
func (c Collector) CollectEnergy(sunlight, flowRate float64) Collector {
	energy := c.EffectiveEfficiency() * c.Area * sunlight
	heatCapacity := flowRate * StepMinutes * GramsPerKilogram * SpecificHeatWater
	if energy > 0 {
		c.WaterTemperature += energy / heatCapacity
	} else {
		c.WaterTemperature -= (ThermalConductivityWater * c.Area * (c.WaterTemperature - AmbientReference)) / heatCapacity
	}
	return c
}
