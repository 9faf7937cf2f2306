package device

import "github.com/Agrid-Dev/solarloop/internal/playback"

// Device names a live solar loop.
type Device struct {
	ID     string
	Player *playback.Player
}

func New(id string, p *playback.Player) *Device {
	return &Device{ID: id, Player: p}
}
