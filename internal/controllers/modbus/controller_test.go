package modbusctrl

import (
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/goburrow/modbus"

	"github.com/Agrid-Dev/solarloop/internal/playback"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

// fake service for tests
type spyLoopService struct {
	mu sync.Mutex
	s  playback.Snapshot
	p  solarloop.Params

	setEnabledCalls []bool
	rerunCalls      []solarloop.Params
}

func (f *spyLoopService) Get() playback.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}
func (f *spyLoopService) Params() solarloop.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.p
}
func (f *spyLoopService) Series() solarloop.Series { return nil }
func (f *spyLoopService) SetEnabled(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.s.Enabled = v
	f.setEnabledCalls = append(f.setEnabledCalls, v)
}
func (f *spyLoopService) Rerun(p solarloop.Params) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.p = p
	f.rerunCalls = append(f.rerunCalls, p)
	return nil
}

func (f *spyLoopService) lastRerun() (solarloop.Params, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rerunCalls) == 0 {
		return solarloop.Params{}, false
	}
	return f.rerunCalls[len(f.rerunCalls)-1], true
}

func findFreeTCPAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	a := l.Addr().String()
	_ = l.Close()
	return a
}

const settle = 50 * time.Millisecond

func TestNewValidation(t *testing.T) {
	if _, err := New(&spyLoopService{}, Config{}); err == nil {
		t.Fatal("expected error when UnitID missing")
	}
	c, err := New(&spyLoopService{}, Config{UnitID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if c.cfg.Addr != "127.0.0.1:1502" {
		t.Fatalf("expected default addr, got %q", c.cfg.Addr)
	}
}

func TestEncodeScaled(t *testing.T) {
	cases := []struct {
		v     float64
		scale float64
		want  float64
	}{
		{21.25, TemperatureScale, 21.25},
		{-3.5, TemperatureScale, -3.5},
		{812.3, SunlightScale, 812.3},
		{1e9, 1, 32767},
		{-1e9, 1, -32768},
	}
	for _, tc := range cases {
		if got := decodeScaled(encodeScaled(tc.v, tc.scale), tc.scale); got != tc.want {
			t.Fatalf("round trip %v (scale %v) = %v, want %v", tc.v, tc.scale, got, tc.want)
		}
	}
}

func TestDurationRegisterIsUnsigned(t *testing.T) {
	hr := holdingRegisters[7]
	if hr.name != "duration" {
		t.Fatalf("register 7 = %q, want duration", hr.name)
	}
	cases := []struct {
		v    float64
		want uint16
	}{
		{1440, 1440},
		{40000, 40000},
		{1e9, 0xFFFF},
		{-1, 0},
	}
	for _, tc := range cases {
		if got := hr.encode(tc.v); got != tc.want {
			t.Fatalf("encode(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
	if got := hr.decode(0xFFFF); got != 65535 {
		t.Fatalf("decode(0xFFFF) = %v, want 65535", got)
	}
}

func TestModbusControllerHandlers(t *testing.T) {
	fs := &spyLoopService{
		s: playback.Snapshot{
			Enabled:              true,
			Minute:               360,
			Duration:             1440,
			TankTemperature:      31.25,
			CollectorTemperature: 33.5,
			Sunlight:             800,
		},
		p: solarloop.Params{
			Efficiency: 0.7, Area: 2, FlowRate: 5, Volume: 150, ThermalEfficiency: 0.9,
			InitialTemperature: 20, PeakSunlight: 800, Duration: 1440, Derating: solarloop.DeratingLinear,
		},
	}

	addr := findFreeTCPAddr(t)
	ctrl, err := New(fs, Config{DeviceID: "dev", Addr: addr, UnitID: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := t.Context()
	go func() {
		_ = ctrl.Run(ctx)
	}()

	time.Sleep(settle)

	handler := modbus.NewTCPClientHandler(addr)
	if err := handler.Connect(); err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer handler.Close()
	client := modbus.NewClient(handler)

	// Input registers: live record
	res, err := client.ReadInputRegisters(0, irCount)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	get := func(b []byte, i int) uint16 { return binary.BigEndian.Uint16(b[i*2 : i*2+2]) }
	if get(res, IRMinute) != 360 {
		t.Fatalf("minute mismatch: %d", get(res, IRMinute))
	}
	if get(res, IRTankTemperature) != encodeScaled(31.25, TemperatureScale) {
		t.Fatalf("tank temperature mismatch")
	}
	if get(res, IRSunlight) != encodeScaled(800, SunlightScale) {
		t.Fatalf("sunlight mismatch")
	}

	// Holding registers: parameters
	res, err = client.ReadHoldingRegisters(0, uint16(len(holdingRegisters)))
	if err != nil {
		t.Fatalf("read holding: %v", err)
	}
	if len(res) != 2*len(holdingRegisters) {
		t.Fatalf("expected %d bytes got %d", 2*len(holdingRegisters), len(res))
	}
	if get(res, 2) != encodeScaled(5, 100) {
		t.Fatalf("flow rate mismatch")
	}
	if get(res, 7) != 1440 {
		t.Fatalf("duration mismatch")
	}

	// Write peak sunlight register -> rerun
	if _, err := client.WriteSingleRegister(6, 950); err != nil {
		t.Fatalf("write register: %v", err)
	}
	time.Sleep(settle)
	p, ok := fs.lastRerun()
	if !ok || p.PeakSunlight != 950 || p.FlowRate != 5 {
		t.Fatalf("rerun not called with peak_sunlight=950: %+v", p)
	}

	// Write flow rate and volume together -> single rerun
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], encodeScaled(7.5, 100))
	binary.BigEndian.PutUint16(payload[2:4], 200)
	if _, err := client.WriteMultipleRegisters(2, 2, payload); err != nil {
		t.Fatalf("write multiple: %v", err)
	}
	time.Sleep(settle)
	p, _ = fs.lastRerun()
	if p.FlowRate != 7.5 || p.Volume != 200 || p.PeakSunlight != 950 {
		t.Fatalf("unexpected params after multi write: %+v", p)
	}

	// Duration above int16 range
	if _, err := client.WriteSingleRegister(7, 40000); err != nil {
		t.Fatalf("write duration: %v", err)
	}
	time.Sleep(settle)
	p, _ = fs.lastRerun()
	if p.Duration != 40000 {
		t.Fatalf("expected duration=40000, got %d", p.Duration)
	}
	res, err = client.ReadHoldingRegisters(7, 1)
	if err != nil {
		t.Fatalf("read duration: %v", err)
	}
	if get(res, 0) != 40000 {
		t.Fatalf("duration read back %d, want 40000", get(res, 0))
	}

	// Out of range holding register
	if _, err := client.WriteSingleRegister(8, 1); err == nil {
		t.Fatal("expected illegal address error")
	}

	// Write coil 0 disabled
	if _, err := client.WriteSingleCoil(0, 0x0000); err != nil {
		t.Fatalf("write coil: %v", err)
	}
	time.Sleep(settle)
	fs.mu.Lock()
	if len(fs.setEnabledCalls) == 0 || fs.setEnabledCalls[len(fs.setEnabledCalls)-1] != false {
		fs.mu.Unlock()
		t.Fatalf("setEnabled not called")
	}
	fs.mu.Unlock()

	coils, err := client.ReadCoils(0, 1)
	if err != nil {
		t.Fatalf("read coils: %v", err)
	}
	if len(coils) != 1 || coils[0] != 0 {
		t.Fatalf("expected coil 0 off, got %v", coils)
	}
}
