package export

import (
	"gonum.org/v1/gonum/floats"

	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

// Summary condenses a series for logs and API responses.
type Summary struct {
	Records          int     `json:"records" yaml:"records"`
	FinalTank        float64 `json:"final_tank_temperature" yaml:"final_tank_temperature"`
	MinTank          float64 `json:"min_tank_temperature" yaml:"min_tank_temperature"`
	MaxTank          float64 `json:"max_tank_temperature" yaml:"max_tank_temperature"`
	MeanTank         float64 `json:"mean_tank_temperature" yaml:"mean_tank_temperature"`
	PeakSunlight     float64 `json:"peak_sunlight_intensity" yaml:"peak_sunlight_intensity"`
	PeakSunlightTime int     `json:"peak_sunlight_minute" yaml:"peak_sunlight_minute"`
}

func Summarize(s solarloop.Series) Summary {
	if len(s) == 0 {
		return Summary{}
	}
	tank := s.TankTemperatures()
	sun := s.SunlightIntensities()
	peak := floats.MaxIdx(sun)
	return Summary{
		Records:          len(s),
		FinalTank:        tank[len(tank)-1],
		MinTank:          floats.Min(tank),
		MaxTank:          floats.Max(tank),
		MeanTank:         floats.Sum(tank) / float64(len(tank)),
		PeakSunlight:     sun[peak],
		PeakSunlightTime: s[peak].Minute,
	}
}
