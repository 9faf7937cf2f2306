package wsctrl

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/solarloop/internal/controllers/dto"
	"github.com/Agrid-Dev/solarloop/internal/ports"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream pushes the live snapshot to websocket clients whenever it changes.
type Stream struct {
	svc      ports.LoopService
	hub      *Hub
	deviceID string
	interval time.Duration
}

func NewStream(svc ports.LoopService, deviceID string, interval time.Duration) *Stream {
	if interval <= 0 {
		interval = time.Second
	}
	return &Stream{svc: svc, hub: NewHub(), deviceID: deviceID, interval: interval}
}

func (s *Stream) Hub() *Hub { return s.hub }

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 64),
	}
	s.hub.Register(client)
	go client.writePump()

	// current state first, then changes
	client.send <- s.message()

	// Drain reads until the peer goes away; clients do not send commands.
	defer s.hub.Unregister(client)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket read error")
			}
			return
		}
	}
}

func (s *Stream) message() []byte {
	out := dto.FromSnapshot(s.svc.Get())
	out.DeviceID = s.deviceID
	b, _ := json.Marshal(out)
	return b
}

// Run broadcasts on every interval tick where the snapshot changed.
func (s *Stream) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := s.svc.Get()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cur := s.svc.Get()
			if cur != last {
				s.hub.Broadcast(s.message())
				last = cur
			}
		}
	}
}
