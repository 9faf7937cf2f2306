// Package playback replays a completed simulation one record per tick so live
// surfaces (HTTP, MQTT, Modbus, WebSocket) can follow the simulated day.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

// Snapshot is the record under the playback cursor.
type Snapshot struct {
	RunID                string
	Enabled              bool
	Complete             bool
	Minute               int
	Duration             int
	TankTemperature      float64
	CollectorTemperature float64
	Sunlight             float64
}

type Player struct {
	mu      sync.RWMutex
	runID   string
	params  solarloop.Params
	series  solarloop.Series
	cursor  int
	enabled bool
	loop    bool
}

// New runs the simulation for params and positions the cursor on minute 0.
func New(params solarloop.Params, loop bool) (*Player, error) {
	p := &Player{enabled: true, loop: loop}
	if err := p.Rerun(params); err != nil {
		return nil, err
	}
	return p, nil
}

// Rerun replaces the current run. On error the previous run is kept.
func (p *Player) Rerun(params solarloop.Params) error {
	series, err := solarloop.Run(params)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.runID = uuid.NewString()
	p.params = params
	p.series = series
	p.cursor = 0
	return nil
}

func (p *Player) Get() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		RunID:    p.runID,
		Enabled:  p.enabled,
		Duration: len(p.series),
		Complete: p.completeLocked(),
	}
	if len(p.series) == 0 {
		s.TankTemperature = p.params.InitialTemperature
		s.CollectorTemperature = p.params.InitialTemperature
		return s
	}
	r := p.series[p.cursor]
	s.Minute = r.Minute
	s.TankTemperature = r.TankTemperature
	s.CollectorTemperature = r.CollectorTemperature
	s.Sunlight = r.Sunlight
	return s
}

func (p *Player) completeLocked() bool {
	return len(p.series) == 0 || (!p.loop && p.cursor == len(p.series)-1)
}

func (p *Player) Params() solarloop.Params {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.params
}

// Series returns a copy of the full run.
func (p *Player) Series() solarloop.Series {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(solarloop.Series, len(p.series))
	copy(out, p.series)
	return out
}

func (p *Player) SetEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = on
}

// Advance moves the cursor one record forward when enabled. At the end it
// wraps to minute 0 in loop mode and stays put otherwise.
func (p *Player) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || len(p.series) == 0 {
		return
	}
	switch {
	case p.cursor < len(p.series)-1:
		p.cursor++
	case p.loop:
		p.cursor = 0
	}
}

func (p *Player) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Advance()
		}
	}
}
