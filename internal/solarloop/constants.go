package solarloop

const (
	// SpecificHeatWater in J/(g·°C).
	SpecificHeatWater = 4.18
	// GramsPerKilogram scales the specific heat to kilograms of water (1 kg per litre).
	GramsPerKilogram = 1000.0
	// ThermalConductivityWater is the lumped passive loss coefficient of the collector.
	ThermalConductivityWater = 0.57864

	// AmbientReference is the temperature a dark collector cools toward (°C).
	AmbientReference = 4.0
	// DeratingReference is the water temperature above which efficiency drops (°C).
	DeratingReference = 25.0
	// DeratingSlope is the efficiency loss per degree above DeratingReference.
	DeratingSlope = 0.01

	// MinutesPerDay is the period of the sunlight cycle.
	MinutesPerDay = 1440

	// MaxDuration caps a run at one leap year of minutes.
	MaxDuration = 366 * MinutesPerDay
	// StepMinutes is the integration step. Flow rates are L/min, so FlowRate*StepMinutes
	// is the volume moved through the loop in one step.
	StepMinutes = 1.0
)
