// Package dto holds the JSON shapes shared by the controllers.
package dto

import (
	"github.com/Agrid-Dev/solarloop/internal/playback"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

type Snapshot struct {
	DeviceID             string  `json:"device_id,omitempty"`
	RunID                string  `json:"run_id"`
	Enabled              bool    `json:"enabled"`
	Complete             bool    `json:"complete"`
	Minute               int     `json:"minute"`
	Duration             int     `json:"duration"`
	TankTemperature      float64 `json:"tank_temperature"`
	CollectorTemperature float64 `json:"collector_temperature"`
	SunlightIntensity    float64 `json:"sunlight_intensity"`
}

func FromSnapshot(s playback.Snapshot) Snapshot {
	return Snapshot{
		RunID:                s.RunID,
		Enabled:              s.Enabled,
		Complete:             s.Complete,
		Minute:               s.Minute,
		Duration:             s.Duration,
		TankTemperature:      s.TankTemperature,
		CollectorTemperature: s.CollectorTemperature,
		SunlightIntensity:    s.Sunlight,
	}
}

type Params struct {
	Efficiency         float64 `json:"efficiency"`
	Area               float64 `json:"area"`
	FlowRate           float64 `json:"flow_rate"`
	Volume             float64 `json:"volume"`
	ThermalEfficiency  float64 `json:"thermal_efficiency"`
	InitialTemperature float64 `json:"initial_temperature"`
	PeakSunlight       float64 `json:"peak_sunlight"`
	Duration           int     `json:"duration"`
	Derating           string  `json:"derating"`
}

func FromParams(p solarloop.Params) Params {
	return Params{
		Efficiency:         p.Efficiency,
		Area:               p.Area,
		FlowRate:           p.FlowRate,
		Volume:             p.Volume,
		ThermalEfficiency:  p.ThermalEfficiency,
		InitialTemperature: p.InitialTemperature,
		PeakSunlight:       p.PeakSunlight,
		Duration:           p.Duration,
		Derating:           p.Derating.String(),
	}
}

// ToParams converts back; an empty derating means linear.
func (d Params) ToParams() (solarloop.Params, error) {
	derating := solarloop.DeratingLinear
	if d.Derating != "" {
		var err error
		if derating, err = solarloop.ParseDerating(d.Derating); err != nil {
			return solarloop.Params{}, err
		}
	}
	if err := solarloop.ValidateDuration(d.Duration); err != nil {
		return solarloop.Params{}, err
	}
	return solarloop.Params{
		Efficiency:         d.Efficiency,
		Area:               d.Area,
		FlowRate:           d.FlowRate,
		Volume:             d.Volume,
		ThermalEfficiency:  d.ThermalEfficiency,
		InitialTemperature: d.InitialTemperature,
		PeakSunlight:       d.PeakSunlight,
		Duration:           d.Duration,
		Derating:           derating,
	}, nil
}
