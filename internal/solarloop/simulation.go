package solarloop

import (
	"fmt"
	"math"
)

// Record is one simulated minute.
type Record struct {
	Minute               int     `json:"minute" yaml:"minute"`
	TankTemperature      float64 `json:"tank_temperature" yaml:"tank_temperature"`
	CollectorTemperature float64 `json:"collector_temperature" yaml:"collector_temperature"`
	Sunlight             float64 `json:"sunlight_intensity" yaml:"sunlight_intensity"`
}

// Series is in chronological order, one record per minute.
type Series []Record

func (s Series) TankTemperatures() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.TankTemperature
	}
	return out
}

func (s Series) SunlightIntensities() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.Sunlight
	}
	return out
}

// Simulation drives collector, pump and tank through one run. It is not safe
// for concurrent use and can be run once.
type Simulation struct {
	params    Params
	state     State
	collector Collector
	pump      Pump
	tank      Tank
}

func New(p Params) (*Simulation, error) {
	if !p.Derating.Valid() {
		return nil, ErrInvalidDerating
	}
	if err := ValidateDuration(p.Duration); err != nil {
		return nil, err
	}
	return &Simulation{
		params:    p,
		collector: NewCollector(p.Efficiency, p.Area, p.InitialTemperature, p.Derating),
		pump:      NewPump(p.FlowRate),
		tank:      NewTank(p.Volume, p.InitialTemperature, p.ThermalEfficiency),
	}, nil
}

func (s *Simulation) Params() Params       { return s.params }
func (s *Simulation) State() State         { return s.state }
func (s *Simulation) Collector() Collector { return s.collector }
func (s *Simulation) Tank() Tank           { return s.tank }

func (s *Simulation) step(minute int) Record {
	sun := Sunlight(minute, s.params.PeakSunlight)
	s.collector = s.collector.CollectEnergy(sun, s.pump.FlowRate())
	s.tank = s.tank.UpdateTemperature(s.collector.WaterTemperature, s.tank.Temperature, s.pump.FlowRate())
	return Record{
		Minute:               minute,
		TankTemperature:      s.tank.Temperature,
		CollectorTemperature: s.collector.WaterTemperature,
		Sunlight:             sun,
	}
}

// Run advances the model Duration minutes and returns the series.
// A zero flow rate or volume surfaces as ErrNonFinite.
func (s *Simulation) Run() (Series, error) {
	if s.state != StateNotStarted {
		return nil, ErrAlreadyRun
	}
	s.state = StateRunning
	defer func() { s.state = StateComplete }()

	var series Series
	for i := 0; i < s.params.Duration; i++ {
		r := s.step(i)
		if !finite(r.CollectorTemperature) || !finite(r.TankTemperature) {
			return nil, fmt.Errorf("minute %d: %w", i, ErrNonFinite)
		}
		series = append(series, r)
	}
	return series, nil
}

// Run is New followed by Simulation.Run.
func Run(p Params) (Series, error) {
	sim, err := New(p)
	if err != nil {
		return nil, err
	}
	return sim.Run()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
