package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"maycast/server/modules/coordinator/application/services"
	"maycast/server/modules/coordinator/domain/entities"
	"maycast/server/seedwork/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 10 * time.Second

// Handler upgrades HTTP connections into the room event fabric
type Handler struct {
	hub      *services.RoomHub
	upgrader websocket.Upgrader
}

// NewHandler creates a new websocket handler over the given hub
func NewHandler(hub *services.RoomHub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Cross-origin browsers are expected; the access key guards
				// the HTTP surface and rooms are unguessable.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleConnection runs one participant's connection: a write pump draining
// the hub's outbound queue and a read loop dispatching client events.
// Events are serialized per connection by construction.
// @Summary Room event fabric
// @Description Upgrade to WebSocket and exchange room coordination events
// @Tags coordinator
// @Success 101 {string} string "Switching Protocols"
// @Router /ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	connID := domain.GenerateID()
	send := h.hub.Attach(connID)
	defer h.hub.Detach(connID)

	// Write pump: frames the hub queued for this connection. Write errors
	// mean the transport is gone; remaining frames are drained and dropped.
	go func() {
		for frame := range send {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				for range send {
				}
				return
			}
		}
	}()

	log.Debug().Str("conn_id", connID).Msg("websocket connection established")

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn_id", connID).Msg("websocket read error")
			}
			return
		}
		h.dispatch(connID, msg)
	}
}

// dispatch applies one client event to the hub
func (h *Handler) dispatch(connID string, msg ClientMessage) {
	switch msg.Event {
	case EventJoinRoom:
		var p JoinRoomPayload
		if !decode(connID, msg, &p) {
			return
		}
		if p.Name == "" {
			snapshot, err := h.hub.JoinAsObserver(connID, p.RoomID)
			if err != nil {
				log.Warn().Err(err).Str("conn_id", connID).Msg("observer join failed")
				return
			}
			h.hub.Unicast(connID, services.EventRoomGuests, map[string]interface{}{
				"roomId": p.RoomID,
				"guests": snapshot,
			})
			return
		}
		if _, err := h.hub.JoinAsGuest(connID, p.RoomID, p.Name); err != nil {
			log.Warn().Err(err).Str("conn_id", connID).Msg("guest join failed")
		}

	case EventLeaveRoom:
		h.hub.Leave(connID)

	case EventSetRecordingID:
		var p SetRecordingIDPayload
		if !decode(connID, msg, &p) {
			return
		}
		h.hub.BindRecording(connID, p.RecordingID)

	case EventGuestSyncUpdate:
		var p GuestSyncUpdatePayload
		if !decode(connID, msg, &p) {
			return
		}
		h.hub.UpdateSync(connID, p.RecordingID, entities.SyncState(p.SyncState), p.UploadedChunks, p.TotalChunks)

	case EventGuestSyncComplete:
		var p GuestSyncCompletePayload
		if !decode(connID, msg, &p) {
			return
		}
		h.hub.CompleteSync(connID, p.RecordingID, p.TotalChunks)

	case EventGuestSyncError:
		var p GuestSyncErrorPayload
		if !decode(connID, msg, &p) {
			return
		}
		h.hub.SetSyncError(connID, p.RecordingID, p.ErrorMessage, p.FailedChunks)

	case EventGuestMediaStatusUpdate:
		var p GuestMediaStatusPayload
		if !decode(connID, msg, &p) {
			return
		}
		h.hub.UpdateMediaStatus(connID, p.MediaStatus)

	case EventGuestWaveformUpdate:
		var p GuestWaveformPayload
		if !decode(connID, msg, &p) {
			return
		}
		h.hub.ForwardWaveform(connID, p.WaveformData, p.IsSilent)

	case EventTimeSyncPing:
		var p TimeSyncPingPayload
		if !decode(connID, msg, &p) {
			return
		}
		received := time.Now().UnixMilli()
		h.hub.Unicast(connID, services.EventTimeSyncPong, TimeSyncPongPayload{
			ClientSendTime:    p.ClientSendTime,
			ServerReceiveTime: received,
			ServerSendTime:    time.Now().UnixMilli(),
		})

	default:
		log.Debug().Str("event", msg.Event).Str("conn_id", connID).Msg("unknown client event")
	}
}

// decode unmarshals an event payload, logging and skipping malformed frames
func decode(connID string, msg ClientMessage, out interface{}) bool {
	if len(msg.Payload) == 0 {
		log.Debug().Str("event", msg.Event).Str("conn_id", connID).Msg("missing payload")
		return false
	}
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		log.Debug().Err(err).Str("event", msg.Event).Str("conn_id", connID).Msg("malformed payload")
		return false
	}
	return true
}
