package ws

import (
	"encoding/json"

	"maycast/server/modules/coordinator/domain/entities"
)

// Client-to-server event names
const (
	EventJoinRoom               = "join_room"
	EventLeaveRoom              = "leave_room"
	EventSetRecordingID         = "set_recording_id"
	EventGuestSyncUpdate        = "guest_sync_update"
	EventGuestSyncComplete      = "guest_sync_complete"
	EventGuestSyncError         = "guest_sync_error"
	EventGuestMediaStatusUpdate = "guest_media_status_update"
	EventGuestWaveformUpdate    = "guest_waveform_update"
	EventTimeSyncPing           = "time_sync_ping"
)

// ClientMessage is the inbound wire frame; the payload is decoded per event
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// JoinRoomPayload subscribes the connection to a room channel. A missing
// name marks a director/observer.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name,omitempty"`
}

// LeaveRoomPayload unsubscribes from a room channel
type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

// SetRecordingIDPayload binds a recording to the guest presence
type SetRecordingIDPayload struct {
	RoomID      string `json:"roomId"`
	RecordingID string `json:"recordingId"`
}

// GuestSyncUpdatePayload reports upload progress
type GuestSyncUpdatePayload struct {
	RoomID         string `json:"roomId"`
	RecordingID    string `json:"recordingId"`
	SyncState      string `json:"syncState"`
	UploadedChunks int    `json:"uploadedChunks"`
	TotalChunks    int    `json:"totalChunks"`
}

// GuestSyncCompletePayload reports upload completion
type GuestSyncCompletePayload struct {
	RoomID      string `json:"roomId"`
	RecordingID string `json:"recordingId"`
	TotalChunks int    `json:"totalChunks"`
}

// GuestSyncErrorPayload reports a client-side upload failure
type GuestSyncErrorPayload struct {
	RoomID       string `json:"roomId"`
	RecordingID  string `json:"recordingId"`
	ErrorMessage string `json:"errorMessage"`
	FailedChunks int    `json:"failedChunks"`
}

// GuestMediaStatusPayload reports capture device status
type GuestMediaStatusPayload struct {
	RoomID      string               `json:"roomId"`
	MediaStatus entities.MediaStatus `json:"mediaStatus"`
}

// GuestWaveformPayload carries the 32-sample level meter; forwarded only
type GuestWaveformPayload struct {
	RoomID       string    `json:"roomId"`
	WaveformData []float64 `json:"waveformData"`
	IsSilent     bool      `json:"isSilent"`
}

// TimeSyncPingPayload is the clock-sync handshake request
type TimeSyncPingPayload struct {
	RoomID         string `json:"roomId"`
	ClientSendTime int64  `json:"clientSendTime"`
}

// TimeSyncPongPayload echoes the client stamp with server receive/send
// times in milliseconds since epoch.
type TimeSyncPongPayload struct {
	ClientSendTime    int64 `json:"clientSendTime"`
	ServerReceiveTime int64 `json:"serverReceiveTime"`
	ServerSendTime    int64 `json:"serverSendTime"`
}
