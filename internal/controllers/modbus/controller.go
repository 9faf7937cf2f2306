package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	mbserver "github.com/tbrandon/mbserver"
	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/solarloop/internal/ports"
)

// Config for the Modbus controller.
type Config struct {
	DeviceID string
	Addr     string
	UnitID   byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
}

type Controller struct {
	svc ports.LoopService
	cfg Config

	serv *mbserver.Server
}

// Input registers (read only).
const (
	IRMinute = iota
	IRTankTemperature
	IRCollectorTemperature
	IRSunlight
	IRComplete
	irCount
)

// holdingRegister maps a holding register onto a named parameter. Unsigned
// registers carry 0..65535 instead of a two's complement value.
type holdingRegister struct {
	name     string
	scale    float64
	unsigned bool
}

func (hr holdingRegister) encode(v float64) uint16 {
	if hr.unsigned {
		return uint16(min(max(math.Round(v*hr.scale), 0), math.MaxUint16))
	}
	return encodeScaled(v, hr.scale)
}

func (hr holdingRegister) decode(u uint16) float64 {
	if hr.unsigned {
		return float64(u) / hr.scale
	}
	return decodeScaled(u, hr.scale)
}

// Holding registers 0..7 follow solarloop.ParamNames order.
var holdingRegisters = []holdingRegister{
	{"efficiency", 1000, false},
	{"area", 100, false},
	{"flow_rate", 100, false},
	{"volume", 1, false},
	{"thermal_efficiency", 1000, false},
	{"initial_temperature", 100, false},
	{"peak_sunlight", 1, false},
	{"duration", 1, true},
}

const (
	TemperatureScale = 100
	SunlightScale    = 10
)

func New(svc ports.LoopService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	return &Controller{svc: svc, cfg: cfg}, nil
}

// Run starts the Modbus server. Reads are served from the live snapshot and
// parameter writes rerun the simulation. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside mbserver.
	serv.RegisterFunctionHandler(1, c.readCoils)
	serv.RegisterFunctionHandler(3, c.readHoldingRegisters)
	serv.RegisterFunctionHandler(4, c.readInputRegisters)
	serv.RegisterFunctionHandler(5, c.writeSingleCoil)
	serv.RegisterFunctionHandler(6, c.writeSingleRegister)
	serv.RegisterFunctionHandler(16, c.writeMultipleRegisters)

	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	log.WithField("addr", c.cfg.Addr).Info("modbus listening")

	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

// Read Coils (function 1): coil 0 is playback enabled.
func (c *Controller) readCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame.GetData())
	if ex != nil {
		return []byte{}, ex
	}
	if start != 0 || qty != 1 {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	coil := byte(0)
	if c.svc.Get().Enabled {
		coil = 0x01
	}
	return []byte{1, coil}, &mbserver.Success
}

// Read Holding Registers (function 3): the run parameters.
func (c *Controller) readHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame.GetData())
	if ex != nil {
		return []byte{}, ex
	}
	if start+qty > len(holdingRegisters) {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	p := c.svc.Params()
	regs := make([]uint16, 0, qty)
	for _, hr := range holdingRegisters[start : start+qty] {
		v, _ := p.Get(hr.name)
		regs = append(regs, hr.encode(v))
	}
	return registerResponse(regs), &mbserver.Success
}

// Read Input Registers (function 4): the record under the playback cursor.
func (c *Controller) readInputRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame.GetData())
	if ex != nil {
		return []byte{}, ex
	}
	if start+qty > irCount {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	snap := c.svc.Get()
	complete := uint16(0)
	if snap.Complete {
		complete = 1
	}
	all := [irCount]uint16{
		IRMinute:               uint16(snap.Minute),
		IRTankTemperature:      encodeScaled(snap.TankTemperature, TemperatureScale),
		IRCollectorTemperature: encodeScaled(snap.CollectorTemperature, TemperatureScale),
		IRSunlight:             encodeScaled(snap.Sunlight, SunlightScale),
		IRComplete:             complete,
	}
	return registerResponse(all[start : start+qty]), &mbserver.Success
}

// Write Single Coil (function 5): enable or pause playback.
func (c *Controller) writeSingleCoil(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if addr != 0 {
		return []byte{}, &mbserver.IllegalDataAddress
	}

	var enabled bool
	switch value {
	case 0x0000:
		enabled = false
	case 0xFF00:
		enabled = true
	default:
		return []byte{}, &mbserver.IllegalDataValue
	}

	c.svc.SetEnabled(enabled)

	// echo request (address + value)
	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Single Register (function 6)
func (c *Controller) writeSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := int(binary.BigEndian.Uint16(data[0:2]))
	value := binary.BigEndian.Uint16(data[2:4])

	if ex := c.applyRegisters(addr, []uint16{value}); ex != nil {
		return []byte{}, ex
	}

	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Multiple Registers (function 16): all values apply in one rerun.
func (c *Controller) writeMultipleRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if byteCount != int(quantity)*2 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}
	values := make([]uint16, quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
	}

	if ex := c.applyRegisters(int(start), values); ex != nil {
		return []byte{}, ex
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

func (c *Controller) applyRegisters(start int, values []uint16) *mbserver.Exception {
	if start+len(values) > len(holdingRegisters) {
		return &mbserver.IllegalDataAddress
	}
	p := c.svc.Params()
	for i, v := range values {
		hr := holdingRegisters[start+i]
		next, err := p.Set(hr.name, hr.decode(v))
		if err != nil {
			return &mbserver.IllegalDataValue
		}
		p = next
	}
	if err := c.svc.Rerun(p); err != nil {
		return &mbserver.IllegalDataValue
	}
	return nil
}

func readRange(data []byte) (start, qty int, ex *mbserver.Exception) {
	if len(data) < 4 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	start = int(binary.BigEndian.Uint16(data[0:2]))
	qty = int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > 125 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	return start, qty, nil
}

func registerResponse(regs []uint16) []byte {
	byteCount := len(regs) * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i, r := range regs {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
	}
	return resp
}

func encodeScaled(v, scale float64) uint16 {
	r := min(max(int(math.Round(v*scale)), math.MinInt16), math.MaxInt16)
	return uint16(int16(r))
}

func decodeScaled(u uint16, scale float64) float64 {
	return float64(int16(u)) / scale
}

