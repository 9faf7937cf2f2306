package ports

import (
	"github.com/Agrid-Dev/solarloop/internal/playback"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

// LoopService is the control-plane port used by controllers (HTTP/MQTT/etc).
type LoopService interface {
	Get() playback.Snapshot
	Params() solarloop.Params
	Series() solarloop.Series
	SetEnabled(bool)
	Rerun(solarloop.Params) error
}
