package wsctrl

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/solarloop/internal/controllers/dto"
	"github.com/Agrid-Dev/solarloop/internal/playback"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	c := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast([]byte("hello"))
	assert.Equal(t, []byte("hello"), <-c.send)

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)

	hub.Broadcast([]byte("a"))
	hub.Broadcast([]byte("b")) // must not block
	assert.Equal(t, []byte("a"), <-c.send)
}

func TestStreamPushesSnapshots(t *testing.T) {
	player, err := playback.New(solarloop.Params{
		Efficiency: 0.7, Area: 2, FlowRate: 5, Volume: 150, ThermalEfficiency: 0.9,
		InitialTemperature: 20, PeakSunlight: 800, Duration: 50, Derating: solarloop.DeratingLinear,
	}, false)
	require.NoError(t, err)

	stream := NewStream(player, "roof", 5*time.Millisecond)
	ts := httptest.NewServer(stream)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stream.Run(ctx) }()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readSnapshot(t, conn)
	assert.Equal(t, "roof", first.DeviceID)
	assert.Equal(t, 0, first.Minute)

	player.Advance()
	next := readSnapshot(t, conn)
	for next.Minute == 0 {
		next = readSnapshot(t, conn)
	}
	assert.Equal(t, 1, next.Minute)
	assert.Equal(t, first.RunID, next.RunID)
}

func readSnapshot(t *testing.T, conn *websocket.Conn) dto.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var s dto.Snapshot
	require.NoError(t, json.Unmarshal(msg, &s))
	return s
}
