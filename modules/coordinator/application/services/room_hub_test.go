package services

import (
	"encoding/json"
	"testing"
	"time"

	"maycast/server/modules/coordinator/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEnvelope(t *testing.T, ch <-chan []byte) Envelope {
	t.Helper()
	select {
	case frame := <-ch:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func drainUntil(t *testing.T, ch <-chan []byte, event string) Envelope {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case frame := <-ch:
			var env Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %q", event)
		}
	}
}

func TestRoomHub_JoinBroadcastsGuestJoined(t *testing.T) {
	hub := NewRoomHub()

	observer := hub.Attach("conn-director")
	_, err := hub.JoinAsObserver("conn-director", "R1")
	require.NoError(t, err)

	hub.Attach("conn-alice")
	presence, err := hub.JoinAsGuest("conn-alice", "R1", "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, presence.GuestID)
	assert.Equal(t, entities.SyncIdle, presence.SyncState)

	env := recvEnvelope(t, observer)
	assert.Equal(t, EventGuestJoined, env.Event)
	assert.NotEmpty(t, env.Timestamp)

	assert.Equal(t, 1, hub.GuestCount("R1"))
}

func TestRoomHub_ObserverSnapshot(t *testing.T) {
	hub := NewRoomHub()

	hub.Attach("conn-alice")
	hub.JoinAsGuest("conn-alice", "R1", "Alice")
	hub.Attach("conn-bob")
	hub.JoinAsGuest("conn-bob", "R1", "Bob")

	hub.Attach("conn-director")
	snapshot, err := hub.JoinAsObserver("conn-director", "R1")
	require.NoError(t, err)
	assert.Len(t, snapshot, 2)
}

func TestRoomHub_ReconnectAllocatesNewGuestID(t *testing.T) {
	hub := NewRoomHub()

	hub.Attach("conn-1")
	first, err := hub.JoinAsGuest("conn-1", "R1", "Alice")
	require.NoError(t, err)

	hub.Detach("conn-1")
	assert.Equal(t, 0, hub.GuestCount("R1"))

	hub.Attach("conn-2")
	second, err := hub.JoinAsGuest("conn-2", "R1", "Alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.GuestID, second.GuestID)
}

func TestRoomHub_DetachSynthesizesGuestLeft(t *testing.T) {
	hub := NewRoomHub()

	observer := hub.Attach("conn-director")
	hub.JoinAsObserver("conn-director", "R1")

	hub.Attach("conn-alice")
	hub.JoinAsGuest("conn-alice", "R1", "Alice")
	drainUntil(t, observer, EventGuestJoined)

	hub.Detach("conn-alice")

	env := drainUntil(t, observer, EventGuestLeft)
	payload := env.Payload.(map[string]interface{})
	assert.Equal(t, "R1", payload["roomId"])
	assert.Equal(t, "Alice", payload["name"])
}

func TestRoomHub_AllGuestsSynced(t *testing.T) {
	hub := NewRoomHub()

	// Empty room: trivially true.
	assert.True(t, hub.AllGuestsSynced("R1"))

	hub.Attach("conn-alice")
	hub.JoinAsGuest("conn-alice", "R1", "Alice")
	hub.Attach("conn-bob")
	hub.JoinAsGuest("conn-bob", "R1", "Bob")

	// Guests without bound recordings do not block the predicate.
	assert.True(t, hub.AllGuestsSynced("R1"))

	hub.BindRecording("conn-alice", "rec-a")
	hub.BindRecording("conn-bob", "rec-b")
	assert.False(t, hub.AllGuestsSynced("R1"))

	hub.CompleteSync("conn-alice", "rec-a", 3)
	assert.False(t, hub.AllGuestsSynced("R1"))

	hub.CompleteSync("conn-bob", "rec-b", 5)
	assert.True(t, hub.AllGuestsSynced("R1"))
}

func TestRoomHub_SyncErrorBlocksPredicate(t *testing.T) {
	hub := NewRoomHub()

	hub.Attach("conn-alice")
	hub.JoinAsGuest("conn-alice", "R1", "Alice")
	hub.Attach("conn-bob")
	hub.JoinAsGuest("conn-bob", "R1", "Bob")
	hub.BindRecording("conn-alice", "rec-a")
	hub.BindRecording("conn-bob", "rec-b")

	hub.CompleteSync("conn-alice", "rec-a", 3)
	hub.SetSyncError("conn-bob", "rec-b", "upload failed", 2)

	assert.False(t, hub.AllGuestsSynced("R1"))
}

func TestRoomHub_CompleteSyncFiresHook(t *testing.T) {
	hub := NewRoomHub()

	var fired []string
	hub.BindHooks(LifecycleHooks{
		AllGuestsSynced: func(roomID string) { fired = append(fired, roomID) },
	})

	hub.Attach("conn-alice")
	hub.JoinAsGuest("conn-alice", "R1", "Alice")
	hub.BindRecording("conn-alice", "rec-a")

	hub.UpdateSync("conn-alice", "rec-a", entities.SyncUploading, 2, 3)
	assert.Empty(t, fired)

	hub.CompleteSync("conn-alice", "rec-a", 3)
	assert.Equal(t, []string{"R1"}, fired)
}

func TestRoomHub_RecordingLinkedHook(t *testing.T) {
	hub := NewRoomHub()

	type link struct{ roomID, recordingID, name string }
	var links []link
	hub.BindHooks(LifecycleHooks{
		RecordingLinked: func(roomID, recordingID, name string) {
			links = append(links, link{roomID, recordingID, name})
		},
	})

	hub.Attach("conn-alice")
	hub.JoinAsGuest("conn-alice", "R1", "Alice")
	hub.BindRecording("conn-alice", "rec-a")

	require.Len(t, links, 1)
	assert.Equal(t, link{"R1", "rec-a", "Alice"}, links[0])
}

func TestRoomHub_BroadcastScopedToRoom(t *testing.T) {
	hub := NewRoomHub()

	inRoom := hub.Attach("conn-in")
	hub.JoinAsObserver("conn-in", "R1")
	otherRoom := hub.Attach("conn-other")
	hub.JoinAsObserver("conn-other", "R2")

	hub.Broadcast("R1", "room_state_changed", map[string]interface{}{"state": "recording"})

	env := recvEnvelope(t, inRoom)
	assert.Equal(t, "room_state_changed", env.Event)

	select {
	case frame := <-otherRoom:
		t.Fatalf("unexpected frame for other room: %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomHub_BroadcastDropsOnBackpressure(t *testing.T) {
	hub := NewRoomHub()

	hub.Attach("conn-slow")
	hub.JoinAsObserver("conn-slow", "R1")

	// Nothing drains the queue; overflowing it must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+10; i++ {
			hub.Broadcast("R1", "guest_waveform_changed", map[string]interface{}{"i": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on full send queue")
	}
}

func TestRoomHub_LeaveRemovesPresence(t *testing.T) {
	hub := NewRoomHub()

	hub.Attach("conn-alice")
	hub.JoinAsGuest("conn-alice", "R1", "Alice")
	require.Equal(t, 1, hub.GuestCount("R1"))

	hub.Leave("conn-alice")
	assert.Equal(t, 0, hub.GuestCount("R1"))
	assert.Empty(t, hub.Snapshot("R1"))

	// Connection stays attached and can join again.
	_, err := hub.JoinAsGuest("conn-alice", "R2", "Alice")
	assert.NoError(t, err)
}

func TestRoomHub_ChannelName(t *testing.T) {
	assert.Equal(t, "room:R1", ChannelName("R1"))
}
