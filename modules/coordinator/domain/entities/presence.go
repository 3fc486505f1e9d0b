package entities

import "time"

// SyncState is a guest's upload progress, distinct from recording state
type SyncState string

const (
	SyncIdle      SyncState = "idle"
	SyncRecording SyncState = "recording"
	SyncUploading SyncState = "uploading"
	SyncSynced    SyncState = "synced"
	SyncError     SyncState = "error"
)

// MediaStatus is the guest-reported capture status, forwarded as-is
type MediaStatus map[string]interface{}

// GuestPresence is the coordinator's in-memory record of one connected
// guest. It is never persisted; a reconnecting guest gets a fresh presence
// under a new guest id.
type GuestPresence struct {
	GuestID        string      `json:"guestId"`
	ConnectionID   string      `json:"-"`
	RecordingID    string      `json:"recordingId,omitempty"`
	Name           string      `json:"name,omitempty"`
	SyncState      SyncState   `json:"syncState"`
	UploadedChunks int         `json:"uploadedChunks"`
	TotalChunks    int         `json:"totalChunks"`
	LastUpdatedAt  time.Time   `json:"lastUpdatedAt"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
	MediaStatus    MediaStatus `json:"mediaStatus,omitempty"`
}
