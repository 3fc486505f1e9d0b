package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"maycast/server/modules/coordinator/application/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFabric(t *testing.T, hub *services.RoomHub) (*httptest.Server, func() *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(hub)
	router.GET("/ws", handler.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	dial := func() *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	return srv, dial
}

func send(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ClientMessage{Event: event, Payload: raw}))
}

func readEvent(t *testing.T, conn *websocket.Conn, want string) services.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env services.Envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %s", want)
		if env.Event == want {
			return env
		}
	}
}

func TestFabric_GuestJoinVisibleToObserver(t *testing.T) {
	hub := services.NewRoomHub()
	_, dial := newFabric(t, hub)

	observer := dial()
	send(t, observer, EventJoinRoom, JoinRoomPayload{RoomID: "R1"})
	env := readEvent(t, observer, services.EventRoomGuests)
	payload := env.Payload.(map[string]interface{})
	assert.Equal(t, "R1", payload["roomId"])

	guest := dial()
	send(t, guest, EventJoinRoom, JoinRoomPayload{RoomID: "R1", Name: "Alice"})

	env = readEvent(t, observer, services.EventGuestJoined)
	assert.NotEmpty(t, env.Timestamp)

	require.Eventually(t, func() bool { return hub.GuestCount("R1") == 1 },
		time.Second, 10*time.Millisecond)
}

func TestFabric_TimeSyncPong(t *testing.T) {
	hub := services.NewRoomHub()
	_, dial := newFabric(t, hub)

	conn := dial()
	send(t, conn, EventJoinRoom, JoinRoomPayload{RoomID: "R1", Name: "Alice"})

	before := time.Now().UnixMilli()
	send(t, conn, EventTimeSyncPing, TimeSyncPingPayload{RoomID: "R1", ClientSendTime: 123456})

	env := readEvent(t, conn, services.EventTimeSyncPong)
	raw, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var pong TimeSyncPongPayload
	require.NoError(t, json.Unmarshal(raw, &pong))

	assert.Equal(t, int64(123456), pong.ClientSendTime)
	assert.GreaterOrEqual(t, pong.ServerReceiveTime, before)
	assert.GreaterOrEqual(t, pong.ServerSendTime, pong.ServerReceiveTime)
}

func TestFabric_SyncCompleteFiresAllSyncedHook(t *testing.T) {
	hub := services.NewRoomHub()

	var mu sync.Mutex
	var fired []string
	hub.BindHooks(services.LifecycleHooks{
		AllGuestsSynced: func(roomID string) {
			mu.Lock()
			defer mu.Unlock()
			fired = append(fired, roomID)
		},
	})

	_, dial := newFabric(t, hub)

	guest := dial()
	send(t, guest, EventJoinRoom, JoinRoomPayload{RoomID: "R1", Name: "Alice"})
	send(t, guest, EventSetRecordingID, SetRecordingIDPayload{RoomID: "R1", RecordingID: "rec-a"})
	send(t, guest, EventGuestSyncUpdate, GuestSyncUpdatePayload{
		RoomID: "R1", RecordingID: "rec-a", SyncState: "uploading", UploadedChunks: 3, TotalChunks: 3,
	})
	send(t, guest, EventGuestSyncComplete, GuestSyncCompletePayload{RoomID: "R1", RecordingID: "rec-a", TotalChunks: 3})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1 && fired[0] == "R1"
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, hub.AllGuestsSynced("R1"))
}

func TestFabric_DisconnectSynthesizesGuestLeft(t *testing.T) {
	hub := services.NewRoomHub()
	_, dial := newFabric(t, hub)

	observer := dial()
	send(t, observer, EventJoinRoom, JoinRoomPayload{RoomID: "R1"})
	readEvent(t, observer, services.EventRoomGuests)

	guest := dial()
	send(t, guest, EventJoinRoom, JoinRoomPayload{RoomID: "R1", Name: "Alice"})
	readEvent(t, observer, services.EventGuestJoined)

	guest.Close()

	env := readEvent(t, observer, services.EventGuestLeft)
	payload := env.Payload.(map[string]interface{})
	assert.Equal(t, "Alice", payload["name"])

	require.Eventually(t, func() bool { return hub.GuestCount("R1") == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestFabric_WaveformForwarded(t *testing.T) {
	hub := services.NewRoomHub()
	_, dial := newFabric(t, hub)

	observer := dial()
	send(t, observer, EventJoinRoom, JoinRoomPayload{RoomID: "R1"})
	readEvent(t, observer, services.EventRoomGuests)

	guest := dial()
	send(t, guest, EventJoinRoom, JoinRoomPayload{RoomID: "R1", Name: "Alice"})
	readEvent(t, observer, services.EventGuestJoined)

	samples := make([]float64, 32)
	for i := range samples {
		samples[i] = float64(i) / 32
	}
	send(t, guest, EventGuestWaveformUpdate, GuestWaveformPayload{RoomID: "R1", WaveformData: samples, IsSilent: false})

	env := readEvent(t, observer, services.EventGuestWaveformChanged)
	payload := env.Payload.(map[string]interface{})
	wave := payload["waveformData"].([]interface{})
	assert.Len(t, wave, 32)
	assert.Equal(t, false, payload["isSilent"])
}
