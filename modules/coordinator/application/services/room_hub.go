package services

import (
	"encoding/json"
	"sync"
	"time"

	"maycast/server/modules/coordinator/domain/entities"
	"maycast/server/seedwork/domain"

	"github.com/rs/zerolog/log"
)

// Server-to-client event names emitted by the coordinator
const (
	EventRoomGuests              = "room_guests"
	EventGuestJoined             = "guest_joined"
	EventGuestLeft               = "guest_left"
	EventGuestRecordingLinked    = "guest_recording_linked"
	EventGuestSyncStateChanged   = "guest_sync_state_changed"
	EventGuestSyncComplete       = "guest_sync_complete"
	EventGuestSyncError          = "guest_sync_error"
	EventGuestMediaStatusChanged = "guest_media_status_changed"
	EventGuestWaveformChanged    = "guest_waveform_changed"
	EventTimeSyncPong            = "time_sync_pong"
)

// sendBuffer is the per-connection outbound queue depth. Broadcasts are
// best-effort: a full queue drops the frame rather than blocking the room.
const sendBuffer = 256

// Envelope is the wire frame for every server-to-client message. The
// timestamp is server-assigned; clients sort locally when they need a total
// order across connections.
type Envelope struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEnvelope stamps an event with the current server time
func NewEnvelope(event string, payload interface{}) Envelope {
	return Envelope{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	}
}

// ChannelName returns the room channel identifier
func ChannelName(roomID string) string {
	return "room:" + roomID
}

// LifecycleHooks connect the coordinator to the application core. Bound once
// at wiring time, before the first connection is accepted.
type LifecycleHooks struct {
	// AllGuestsSynced fires when the last pending guest reports completion
	AllGuestsSynced func(roomID string)
	// RecordingLinked fires when a guest binds its recording id; the core
	// persists the participant name into the recording metadata.
	RecordingLinked func(roomID, recordingID, name string)
}

// connection is the hub's handle on one transport. Writes go through the
// buffered send channel; the owning write pump drains it.
type connection struct {
	connID  string
	roomID  string
	guestID string
	send    chan []byte
	closed  bool
}

// RoomHub is the in-memory authority over live-room presence. Three maps,
// one mutex: room → guests, connection → route, room → guest count. All
// events for a room are low-rate, so a single lock suffices.
type RoomHub struct {
	mu     sync.Mutex
	rooms  map[string]map[string]*entities.GuestPresence
	conns  map[string]*connection
	counts map[string]int
	hooks  LifecycleHooks
}

// NewRoomHub creates an empty hub
func NewRoomHub() *RoomHub {
	return &RoomHub{
		rooms:  make(map[string]map[string]*entities.GuestPresence),
		conns:  make(map[string]*connection),
		counts: make(map[string]int),
	}
}

// BindHooks attaches the application-core callbacks. Must be called during
// wiring, before connections are accepted.
func (h *RoomHub) BindHooks(hooks LifecycleHooks) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = hooks
}

// Attach registers a transport and returns its outbound queue
func (h *RoomHub) Attach(connID string) <-chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn := &connection{connID: connID, send: make(chan []byte, sendBuffer)}
	h.conns[connID] = conn
	return conn.send
}

// Detach removes a transport. If the connection was a guest that never sent
// leave_room, a guest_left is synthesized and the presence purged.
func (h *RoomHub) Detach(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)
	conn.closed = true
	close(conn.send)

	roomID := conn.roomID
	left := h.removePresenceLocked(conn)
	h.mu.Unlock()

	if left != nil {
		log.Debug().Str("room_id", roomID).Str("guest_id", left.GuestID).Msg("synthesizing guest_left on disconnect")
		h.Broadcast(roomID, EventGuestLeft, map[string]interface{}{
			"roomId":  roomID,
			"guestId": left.GuestID,
			"name":    left.Name,
		})
	}
}

// JoinAsGuest subscribes the connection to the room channel as a guest,
// allocates a guest id, creates presence and broadcasts guest_joined.
func (h *RoomHub) JoinAsGuest(connID, roomID, name string) (*entities.GuestPresence, error) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return nil, errUnknownConnection(connID)
	}

	// A repeated join on the same transport replaces the old presence.
	h.removePresenceLocked(conn)

	presence := &entities.GuestPresence{
		GuestID:       domain.GenerateID(),
		ConnectionID:  connID,
		Name:          name,
		SyncState:     entities.SyncIdle,
		LastUpdatedAt: time.Now(),
	}

	conn.roomID = roomID
	conn.guestID = presence.GuestID
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*entities.GuestPresence)
	}
	h.rooms[roomID][presence.GuestID] = presence
	h.counts[roomID]++
	snapshot := *presence
	h.mu.Unlock()

	h.Broadcast(roomID, EventGuestJoined, map[string]interface{}{
		"roomId": roomID,
		"guest":  snapshot,
	})
	return &snapshot, nil
}

// JoinAsObserver subscribes the connection to the room channel without a
// presence and returns the current guest snapshot for a room_guests unicast.
func (h *RoomHub) JoinAsObserver(connID, roomID string) ([]entities.GuestPresence, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return nil, errUnknownConnection(connID)
	}
	conn.roomID = roomID

	return h.snapshotLocked(roomID), nil
}

// Leave handles an explicit leave_room: the presence is purged and
// guest_left broadcast. Observers just unsubscribe.
func (h *RoomHub) Leave(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok || conn.roomID == "" {
		h.mu.Unlock()
		return
	}
	roomID := conn.roomID
	left := h.removePresenceLocked(conn)
	conn.roomID = ""
	h.mu.Unlock()

	if left != nil {
		h.Broadcast(roomID, EventGuestLeft, map[string]interface{}{
			"roomId":  roomID,
			"guestId": left.GuestID,
			"name":    left.Name,
		})
	}
}

// BindRecording binds a recording id to the guest's presence, invokes the
// recording-linked hook when the guest has a name, and broadcasts.
func (h *RoomHub) BindRecording(connID, recordingID string) {
	h.mu.Lock()
	presence := h.presenceLocked(connID)
	if presence == nil {
		h.mu.Unlock()
		return
	}
	presence.RecordingID = recordingID
	presence.LastUpdatedAt = time.Now()
	roomID := h.conns[connID].roomID
	snapshot := *presence
	hook := h.hooks.RecordingLinked
	h.mu.Unlock()

	if hook != nil && snapshot.Name != "" {
		hook(roomID, recordingID, snapshot.Name)
	}

	h.Broadcast(roomID, EventGuestRecordingLinked, map[string]interface{}{
		"roomId":      roomID,
		"guestId":     snapshot.GuestID,
		"recordingId": recordingID,
		"name":        snapshot.Name,
	})
}

// UpdateSync applies a guest_sync_update and broadcasts the new state
func (h *RoomHub) UpdateSync(connID, recordingID string, state entities.SyncState, uploaded, total int) {
	h.mu.Lock()
	presence := h.presenceLocked(connID)
	if presence == nil {
		h.mu.Unlock()
		return
	}
	if recordingID != "" {
		presence.RecordingID = recordingID
	}
	presence.SyncState = state
	presence.UploadedChunks = uploaded
	presence.TotalChunks = total
	presence.LastUpdatedAt = time.Now()
	roomID := h.conns[connID].roomID
	snapshot := *presence
	h.mu.Unlock()

	h.Broadcast(roomID, EventGuestSyncStateChanged, map[string]interface{}{
		"roomId": roomID,
		"guest":  snapshot,
	})
}

// CompleteSync marks the guest synced, broadcasts, and fires the all-synced
// hook if the aggregate predicate now holds.
func (h *RoomHub) CompleteSync(connID, recordingID string, total int) {
	h.mu.Lock()
	presence := h.presenceLocked(connID)
	if presence == nil {
		h.mu.Unlock()
		return
	}
	if recordingID != "" {
		presence.RecordingID = recordingID
	}
	presence.SyncState = entities.SyncSynced
	presence.UploadedChunks = total
	presence.TotalChunks = total
	presence.ErrorMessage = ""
	presence.LastUpdatedAt = time.Now()
	roomID := h.conns[connID].roomID
	snapshot := *presence
	allSynced := h.allSyncedLocked(roomID)
	hook := h.hooks.AllGuestsSynced
	h.mu.Unlock()

	h.Broadcast(roomID, EventGuestSyncComplete, map[string]interface{}{
		"roomId":      roomID,
		"guestId":     snapshot.GuestID,
		"recordingId": snapshot.RecordingID,
		"totalChunks": total,
	})

	if allSynced && hook != nil {
		hook(roomID)
	}
}

// SetSyncError records a guest-side upload failure and broadcasts it so the
// director sees the failure live.
func (h *RoomHub) SetSyncError(connID, recordingID, message string, failedChunks int) {
	h.mu.Lock()
	presence := h.presenceLocked(connID)
	if presence == nil {
		h.mu.Unlock()
		return
	}
	if recordingID != "" {
		presence.RecordingID = recordingID
	}
	presence.SyncState = entities.SyncError
	presence.ErrorMessage = message
	presence.LastUpdatedAt = time.Now()
	roomID := h.conns[connID].roomID
	snapshot := *presence
	h.mu.Unlock()

	h.Broadcast(roomID, EventGuestSyncError, map[string]interface{}{
		"roomId":       roomID,
		"guestId":      snapshot.GuestID,
		"recordingId":  snapshot.RecordingID,
		"errorMessage": message,
		"failedChunks": failedChunks,
	})
}

// UpdateMediaStatus applies a guest_media_status_update and broadcasts
func (h *RoomHub) UpdateMediaStatus(connID string, status entities.MediaStatus) {
	h.mu.Lock()
	presence := h.presenceLocked(connID)
	if presence == nil {
		h.mu.Unlock()
		return
	}
	presence.MediaStatus = status
	presence.LastUpdatedAt = time.Now()
	roomID := h.conns[connID].roomID
	snapshot := *presence
	h.mu.Unlock()

	h.Broadcast(roomID, EventGuestMediaStatusChanged, map[string]interface{}{
		"roomId":      roomID,
		"guestId":     snapshot.GuestID,
		"mediaStatus": status,
	})
}

// ForwardWaveform relays waveform samples without touching presence
func (h *RoomHub) ForwardWaveform(connID string, waveform []float64, isSilent bool) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok || conn.roomID == "" {
		h.mu.Unlock()
		return
	}
	roomID := conn.roomID
	guestID := conn.guestID
	h.mu.Unlock()

	h.Broadcast(roomID, EventGuestWaveformChanged, map[string]interface{}{
		"roomId":       roomID,
		"guestId":      guestID,
		"waveformData": waveform,
		"isSilent":     isSilent,
	})
}

// RoomOf returns the room a connection is subscribed to
func (h *RoomHub) RoomOf(connID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.conns[connID]; ok {
		return conn.roomID
	}
	return ""
}

// GuestCount returns the number of guest presences in a room
func (h *RoomHub) GuestCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[roomID]
}

// Snapshot returns a copy of the room's guest presences
func (h *RoomHub) Snapshot(roomID string) []entities.GuestPresence {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked(roomID)
}

// AllGuestsSynced evaluates the aggregate predicate: every presence with a
// bound recording id is synced. A room with no guest recordings satisfies it
// trivially.
func (h *RoomHub) AllGuestsSynced(roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allSyncedLocked(roomID)
}

// Broadcast fans an event out to every connection subscribed to the room.
// Delivery is best-effort: closed or backpressured connections drop the
// frame silently.
func (h *RoomHub) Broadcast(roomID, event string, payload interface{}) {
	frame, err := json.Marshal(NewEnvelope(event, payload))
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.conns {
		if conn.roomID != roomID || conn.closed {
			continue
		}
		select {
		case conn.send <- frame:
		default:
			log.Debug().Str("channel", ChannelName(roomID)).Str("event", event).
				Msg("dropping frame on backpressure")
		}
	}
}

// Unicast sends an event to a single connection, best-effort
func (h *RoomHub) Unicast(connID, event string, payload interface{}) {
	frame, err := json.Marshal(NewEnvelope(event, payload))
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal unicast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[connID]
	if !ok || conn.closed {
		return
	}
	select {
	case conn.send <- frame:
	default:
		log.Debug().Str("event", event).Msg("dropping unicast on backpressure")
	}
}

// removePresenceLocked purges the connection's guest presence, if any, and
// returns it. Caller holds the lock.
func (h *RoomHub) removePresenceLocked(conn *connection) *entities.GuestPresence {
	if conn.guestID == "" {
		return nil
	}
	var removed *entities.GuestPresence
	if guests, ok := h.rooms[conn.roomID]; ok {
		removed = guests[conn.guestID]
		delete(guests, conn.guestID)
		if len(guests) == 0 {
			delete(h.rooms, conn.roomID)
		}
	}
	h.counts[conn.roomID]--
	if h.counts[conn.roomID] <= 0 {
		delete(h.counts, conn.roomID)
	}
	conn.guestID = ""
	return removed
}

func (h *RoomHub) presenceLocked(connID string) *entities.GuestPresence {
	conn, ok := h.conns[connID]
	if !ok || conn.guestID == "" {
		return nil
	}
	guests, ok := h.rooms[conn.roomID]
	if !ok {
		return nil
	}
	return guests[conn.guestID]
}

func (h *RoomHub) snapshotLocked(roomID string) []entities.GuestPresence {
	guests := h.rooms[roomID]
	out := make([]entities.GuestPresence, 0, len(guests))
	for _, p := range guests {
		out = append(out, *p)
	}
	return out
}

func (h *RoomHub) allSyncedLocked(roomID string) bool {
	for _, p := range h.rooms[roomID] {
		if p.RecordingID == "" {
			continue
		}
		if p.SyncState != entities.SyncSynced {
			return false
		}
	}
	return true
}

func errUnknownConnection(connID string) error {
	return domain.NewDomainError(domain.KindNotFound, "UNKNOWN_CONNECTION",
		"connection "+connID+" is not attached", nil)
}
