package solarloop

// Pump carries the loop's constant flow rate. It has no dynamic state.
type Pump struct {
	flowRate float64
}

func NewPump(flowRate float64) Pump {
	return Pump{flowRate: flowRate}
}

// FlowRate in litres per minute.
func (p Pump) FlowRate() float64 { return p.flowRate }

// LitresPerStep is the volume moved through the loop in one step.
func (p Pump) LitresPerStep() float64 { return p.flowRate * StepMinutes }
