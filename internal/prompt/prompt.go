// Package prompt acquires a parameter set from a console.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Agrid-Dev/solarloop/internal/paramcache"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

var ErrNoInput = errors.New("input ended before all values were read")

type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *Prompter) askFloat(question string) (float64, error) {
	s, err := p.ask(question)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}

// Params asks for the eight scalars in cache order.
func (p *Prompter) Params(derating solarloop.Derating) (solarloop.Params, error) {
	questions := []string{
		"Enter the efficiency of the solar collector: ",
		"Enter the area of the solar collector (in square meters): ",
		"Enter the flow rate of the pump (in liters per minute): ",
		"Enter the volume of the storage tank (in liters): ",
		"Enter the thermal efficiency of the storage tank: ",
		"Enter the initial temperature of the water (in degrees Celsius): ",
		"Enter the peak sunlight intensity (in watts per square meter, peak value is 1361 W/m^2): ",
	}
	vals := make([]float64, len(questions))
	for i, q := range questions {
		v, err := p.askFloat(q)
		if err != nil {
			return solarloop.Params{}, fmt.Errorf("%s: %w", solarloop.ParamNames[i], err)
		}
		vals[i] = v
	}

	s, err := p.ask("Enter the duration of the simulation (in minutes): ")
	if err != nil {
		return solarloop.Params{}, fmt.Errorf("duration: %w", err)
	}
	duration, err := strconv.Atoi(s)
	if err != nil {
		return solarloop.Params{}, fmt.Errorf("duration: parse %q: %w", s, err)
	}

	return solarloop.Params{
		Efficiency:         vals[0],
		Area:               vals[1],
		FlowRate:           vals[2],
		Volume:             vals[3],
		ThermalEfficiency:  vals[4],
		InitialTemperature: vals[5],
		PeakSunlight:       vals[6],
		Duration:           duration,
		Derating:           derating,
	}, nil
}

// Confirm asks a Y/N question; anything but y/Y is no.
func (p *Prompter) Confirm(question string) (bool, error) {
	s, err := p.ask(question + " Y/N: ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(s, "y"), nil
}

// Acquire offers the cache at cachePath when it exists, otherwise (or when
// declined) asks for every value and saves the answers back to the cache.
func (p *Prompter) Acquire(cachePath string, derating solarloop.Derating) (solarloop.Params, error) {
	if cachePath != "" && paramcache.Exists(cachePath) {
		use, err := p.Confirm(fmt.Sprintf("Do you want to use the values from the file %s?", cachePath))
		if err != nil {
			return solarloop.Params{}, err
		}
		if use {
			return paramcache.Load(cachePath, derating)
		}
	}

	params, err := p.Params(derating)
	if err != nil {
		return solarloop.Params{}, err
	}
	if cachePath != "" {
		if err := paramcache.Save(cachePath, params); err != nil {
			return solarloop.Params{}, err
		}
	}
	return params, nil
}
