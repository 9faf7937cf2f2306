// Package export renders a simulated series for external charting tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

var ErrUnknownFormat = errors.New("unknown output format")

type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

var csvHeader = []string{"minute", "tank_temperature", "collector_temperature", "sunlight_intensity"}

func WriteCSV(w io.Writer, s solarloop.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range s {
		if err := cw.Write([]string{
			strconv.Itoa(r.Minute),
			strconv.FormatFloat(r.TankTemperature, 'f', -1, 64),
			strconv.FormatFloat(r.CollectorTemperature, 'f', -1, 64),
			strconv.FormatFloat(r.Sunlight, 'f', -1, 64),
		}); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// document is the JSON/YAML envelope.
type document struct {
	Summary Summary          `json:"summary" yaml:"summary"`
	Series  solarloop.Series `json:"series" yaml:"series"`
}

func WriteJSON(w io.Writer, s solarloop.Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Summary: Summarize(s), Series: s})
}

func WriteYAML(w io.Writer, s solarloop.Series) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Summary: Summarize(s), Series: s}); err != nil {
		return err
	}
	return enc.Close()
}

func Write(w io.Writer, f Format, s solarloop.Series) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, s)
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatYAML:
		return WriteYAML(w, s)
	default:
		return ErrUnknownFormat
	}
}
