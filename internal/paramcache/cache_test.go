package paramcache

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

func sampleParams() solarloop.Params {
	return solarloop.Params{
		Efficiency:         0.7,
		Area:               2.0,
		FlowRate:           5.0,
		Volume:             150,
		ThermalEfficiency:  0.9,
		InitialTemperature: 20.1,
		PeakSunlight:       1361,
		Duration:           1440,
	}
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleParams()))
	assert.Equal(t, "0.7\n2\n5\n150\n0.9\n20.1\n1361\n1440", buf.String())
}

func TestRoundTrip(t *testing.T) {
	p := sampleParams()
	p.Efficiency = 0.1 + 0.2 // not exactly representable as a short decimal

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestReadToleratesTrailingNewlineAndSpaces(t *testing.T) {
	in := "0.7\n 2 \n5\n150\n0.9\n20\n800\n1440\n"
	got, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Area)
	assert.Equal(t, 1440, got.Duration)
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"truncated", "0.7\n2\n5\n150\n0.9\n20\n800"},
		{"extra line", "0.7\n2\n5\n150\n0.9\n20\n800\n1440\n9"},
		{"not a number", "0.7\nwide\n5\n150\n0.9\n20\n800\n1440"},
		{"fractional duration", "0.7\n2\n5\n150\n0.9\n20\n800\n1440.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrMalformedCache)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	assert.False(t, Exists(path))

	require.NoError(t, Save(path, sampleParams()))
	assert.True(t, Exists(path))

	got, err := Load(path, solarloop.DeratingNone)
	require.NoError(t, err)
	want := sampleParams()
	want.Derating = solarloop.DeratingNone
	assert.Equal(t, want, got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"), solarloop.DeratingLinear)
	assert.Error(t, err)
}
