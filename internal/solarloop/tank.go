package solarloop

// Tank is a lumped storage tank. Volume in litres doubles as mass in kilograms.
type Tank struct {
	Volume      float64
	Temperature float64
	// ThermalEfficiency is carried with the tank but not applied to the energy balance.
	ThermalEfficiency float64
}

func NewTank(volume, initialTemperature, thermalEfficiency float64) Tank {
	return Tank{
		Volume:            volume,
		Temperature:       initialTemperature,
		ThermalEfficiency: thermalEfficiency,
	}
}

// UpdateTemperature mixes one step of inflow at incoming °C against outflow at
// outgoing °C. The energy balance
//
//	(m·T·c + q·Tin·c - q·Tout·c) / (m·c)
//
// reduces to T + q/m·(Tin - Tout), which is what is computed.
func (t Tank) UpdateTemperature(incoming, outgoing, flowRate float64) Tank {
	mass := t.Volume
	t.Temperature += (flowRate * StepMinutes / mass) * (incoming - outgoing)
	return t
}
