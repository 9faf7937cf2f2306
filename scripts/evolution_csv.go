package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

// referenceDay is a 2 m² panel feeding a 150 L tank over one day.
var referenceDay = solarloop.Params{
	Efficiency:         0.7,
	Area:               2,
	FlowRate:           5,
	Volume:             150,
	ThermalEfficiency:  0.9,
	InitialTemperature: 20,
	PeakSunlight:       800,
	Duration:           solarloop.MinutesPerDay,
}

// CompareDerating runs params under both collector models and writes the tank
// temperatures side by side.
func CompareDerating(params solarloop.Params, filename string) error {
	params.Derating = solarloop.DeratingLinear
	linear, err := solarloop.Run(params)
	if err != nil {
		return fmt.Errorf("linear run: %w", err)
	}
	params.Derating = solarloop.DeratingNone
	constant, err := solarloop.Run(params)
	if err != nil {
		return fmt.Errorf("constant run: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Minute", "Sunlight", "TankLinear", "TankConstant", "CollectorLinear", "CollectorConstant"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for i := range linear {
		if err := writer.Write([]string{
			strconv.Itoa(linear[i].Minute),
			fmt.Sprintf("%.2f", linear[i].Sunlight),
			fmt.Sprintf("%.4f", linear[i].TankTemperature),
			fmt.Sprintf("%.4f", constant[i].TankTemperature),
			fmt.Sprintf("%.4f", linear[i].CollectorTemperature),
			fmt.Sprintf("%.4f", constant[i].CollectorTemperature),
		}); err != nil {
			return fmt.Errorf("failed to write CSV record: %v", err)
		}
	}
	return nil
}

func main() {
	if err := CompareDerating(referenceDay, "solarloop.csv"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
