package testutil

import (
	"github.com/Agrid-Dev/solarloop/internal/playback"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

// FakeLoopService is a reusable fake implementing ports.LoopService.
// Put ONLY what multiple test packages need here.
type FakeLoopService struct {
	S playback.Snapshot
	P solarloop.Params
	R solarloop.Series

	SetEnabledCalled bool
	SetEnabledArg    bool

	RerunCalled bool
	RerunArg    solarloop.Params
	RerunErr    error
}

func DefaultParams() solarloop.Params {
	return solarloop.Params{
		Efficiency:         0.7,
		Area:               2,
		FlowRate:           5,
		Volume:             150,
		ThermalEfficiency:  0.9,
		InitialTemperature: 20,
		PeakSunlight:       800,
		Duration:           1440,
		Derating:           solarloop.DeratingLinear,
	}
}

func NewFakeLoopService() *FakeLoopService {
	return &FakeLoopService{
		S: playback.Snapshot{
			RunID:                "run-1",
			Enabled:              true,
			Minute:               360,
			Duration:             1440,
			TankTemperature:      31.25,
			CollectorTemperature: 33.5,
			Sunlight:             800,
		},
		P: DefaultParams(),
		R: solarloop.Series{
			{Minute: 0, TankTemperature: 20, CollectorTemperature: 20, Sunlight: 0},
			{Minute: 1, TankTemperature: 20.5, CollectorTemperature: 21, Sunlight: 3.5},
		},
	}
}

func (f *FakeLoopService) Get() playback.Snapshot   { return f.S }
func (f *FakeLoopService) Params() solarloop.Params { return f.P }
func (f *FakeLoopService) Series() solarloop.Series { return f.R }

func (f *FakeLoopService) SetEnabled(b bool) {
	f.SetEnabledCalled = true
	f.SetEnabledArg = b
	f.S.Enabled = b
}

func (f *FakeLoopService) Rerun(p solarloop.Params) error {
	f.RerunCalled = true
	f.RerunArg = p
	if f.RerunErr != nil {
		return f.RerunErr
	}
	f.P = p
	f.S.Minute = 0
	f.S.Duration = p.Duration
	return nil
}
