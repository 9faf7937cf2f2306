// Package paramcache stores a parameter set as a flat, positional list of
// eight scalars, one per line, in solarloop.ParamNames order.
package paramcache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

const fieldCount = 8

var ErrMalformedCache = errors.New("malformed parameter cache")

// Write emits the eight values without a trailing newline.
func Write(w io.Writer, p solarloop.Params) error {
	fields := []string{
		formatFloat(p.Efficiency),
		formatFloat(p.Area),
		formatFloat(p.FlowRate),
		formatFloat(p.Volume),
		formatFloat(p.ThermalEfficiency),
		formatFloat(p.InitialTemperature),
		formatFloat(p.PeakSunlight),
		strconv.Itoa(p.Duration),
	}
	_, err := io.WriteString(w, strings.Join(fields, "\n"))
	return err
}

// Read parses exactly eight lines. The derating model is not part of the
// format; callers supply it.
func Read(r io.Reader) (solarloop.Params, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return solarloop.Params{}, fmt.Errorf("read cache: %w", err)
	}
	if len(lines) != fieldCount {
		return solarloop.Params{}, fmt.Errorf("%w: want %d lines, got %d", ErrMalformedCache, fieldCount, len(lines))
	}

	var floats [fieldCount - 1]float64
	for i := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
		if err != nil {
			return solarloop.Params{}, fmt.Errorf("%w: line %d (%s): %v", ErrMalformedCache, i+1, solarloop.ParamNames[i], err)
		}
		floats[i] = v
	}
	duration, err := strconv.Atoi(strings.TrimSpace(lines[fieldCount-1]))
	if err != nil {
		return solarloop.Params{}, fmt.Errorf("%w: line %d (duration): %v", ErrMalformedCache, fieldCount, err)
	}

	return solarloop.Params{
		Efficiency:         floats[0],
		Area:               floats[1],
		FlowRate:           floats[2],
		Volume:             floats[3],
		ThermalEfficiency:  floats[4],
		InitialTemperature: floats[5],
		PeakSunlight:       floats[6],
		Duration:           duration,
	}, nil
}

func Save(path string, p solarloop.Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	if err := Write(f, p); err != nil {
		_ = f.Close()
		return fmt.Errorf("write cache: %w", err)
	}
	return f.Close()
}

// Load reads the cache at path and applies derating.
func Load(path string, derating solarloop.Derating) (solarloop.Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return solarloop.Params{}, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	p, err := Read(f)
	if err != nil {
		return solarloop.Params{}, err
	}
	p.Derating = derating
	return p, nil
}

// Exists reports whether a cache file is present at path.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
