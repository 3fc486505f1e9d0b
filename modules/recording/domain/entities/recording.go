package entities

import (
	"fmt"
	"time"

	"maycast/server/seedwork/domain"
)

type RecordingState string

const (
	RecordingStandby     RecordingState = "standby"
	RecordingRecording   RecordingState = "recording"
	RecordingFinalizing  RecordingState = "finalizing"
	RecordingSynced      RecordingState = "synced"
	RecordingInterrupted RecordingState = "interrupted"
)

// ProcessingState tracks one post-production stage of a recording
type ProcessingState string

const (
	ProcessingPending   ProcessingState = "pending"
	ProcessingActive    ProcessingState = "processing"
	ProcessingCompleted ProcessingState = "completed"
	ProcessingFailed    ProcessingState = "failed"
)

// ClockSyncInfo carries the client-measured clock offset from the time-sync
// handshake. The server never verifies it; it is echoed into post-production
// tooling as-is.
type ClockSyncInfo struct {
	OffsetMs    float64   `json:"offset_ms"`
	RoundTripMs float64   `json:"round_trip_ms"`
	MeasuredAt  time.Time `json:"measured_at"`
}

// RecordingMetadata is the client-supplied descriptive blob. Mutable only
// while the recording is in standby or recording.
type RecordingMetadata struct {
	DisplayName     string         `json:"display_name,omitempty"`
	ParticipantName string         `json:"participant_name,omitempty"`
	DeviceInfo      string         `json:"device_info,omitempty"`
	CodecInfo       string         `json:"codec_info,omitempty"`
	ClockSync       *ClockSyncInfo `json:"clock_sync,omitempty"`
}

// Recording represents one participant's upload stream. It may be bound to a
// room or standalone; the binding decides the chunk-store key layout.
type Recording struct {
	domain.BaseEntity
	RoomID   string             `json:"room_id,omitempty" gorm:"column:room_id;type:varchar(128)"`
	State    RecordingState     `json:"state" gorm:"column:state;not null"`
	Metadata *RecordingMetadata `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb;serializer:json"`

	ChunkCount int   `json:"chunk_count" gorm:"column:chunk_count;not null;default:0"`
	TotalSize  int64 `json:"total_size" gorm:"column:total_size;not null;default:0"`

	StartTime time.Time  `json:"start_time" gorm:"column:start_time;not null"`
	EndTime   *time.Time `json:"end_time,omitempty" gorm:"column:end_time"`

	ProcessingState ProcessingState `json:"processing_state" gorm:"column:processing_state;not null;default:pending"`
	ProcessingError string          `json:"processing_error,omitempty" gorm:"column:processing_error;type:text"`
	OutputMP4Key    string          `json:"output_mp4_key,omitempty" gorm:"column:output_mp4_key"`
	OutputM4AKey    string          `json:"output_m4a_key,omitempty" gorm:"column:output_m4a_key"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty" gorm:"column:processed_at"`

	TranscriptionState ProcessingState `json:"transcription_state" gorm:"column:transcription_state;not null;default:pending"`
	TranscriptionError string          `json:"transcription_error,omitempty" gorm:"column:transcription_error;type:text"`
	OutputVTTKey       string          `json:"output_vtt_key,omitempty" gorm:"column:output_vtt_key"`
	TranscribedAt      *time.Time      `json:"transcribed_at,omitempty" gorm:"column:transcribed_at"`
}

// NewRecording creates a recording in standby, optionally bound to a room
func NewRecording(roomID string, metadata *RecordingMetadata) Recording {
	rec := Recording{
		RoomID:             roomID,
		State:              RecordingStandby,
		Metadata:           metadata,
		StartTime:          time.Now(),
		ProcessingState:    ProcessingPending,
		TranscriptionState: ProcessingPending,
	}
	rec.SetID(domain.GenerateID())
	return rec
}

// CanTransitionTo reports whether the recording state machine permits moving
// to next. The success path is standby → recording → finalizing → synced;
// interrupted is reachable from any non-terminal state and is reserved for
// operator tooling.
func (s RecordingState) CanTransitionTo(next RecordingState) bool {
	if next == RecordingInterrupted {
		return s != RecordingSynced && s != RecordingInterrupted
	}
	switch s {
	case RecordingStandby:
		return next == RecordingRecording
	case RecordingRecording:
		return next == RecordingFinalizing
	case RecordingFinalizing:
		return next == RecordingSynced
	default:
		return false
	}
}

// IsValid reports whether s is a known recording state
func (s RecordingState) IsValid() bool {
	switch s {
	case RecordingStandby, RecordingRecording, RecordingFinalizing, RecordingSynced, RecordingInterrupted:
		return true
	}
	return false
}

// IsTerminal reports whether no further state changes are permitted
func (s RecordingState) IsTerminal() bool {
	return s == RecordingSynced || s == RecordingInterrupted
}

// MetadataMutable reports whether the metadata blob may still change
func (s RecordingState) MetadataMutable() bool {
	return s == RecordingStandby || s == RecordingRecording
}

// ValidateTransition returns a typed error when moving to next is illegal
func (s RecordingState) ValidateTransition(next RecordingState) error {
	if !next.IsValid() {
		return domain.NewDomainError(domain.KindInvalidOperation, "UNKNOWN_STATE",
			fmt.Sprintf("unknown recording state %q", next), nil)
	}
	if !s.CanTransitionTo(next) {
		return domain.NewDomainError(domain.KindInvalidTransition, "INVALID_STATE_TRANSITION",
			fmt.Sprintf("cannot transition recording from %q to %q", s, next), nil)
	}
	return nil
}

// Filename returns the download file name derived from display name
func (r *Recording) Filename() string {
	if r.Metadata != nil && r.Metadata.DisplayName != "" {
		return r.Metadata.DisplayName + ".mp4"
	}
	return r.GetID() + ".mp4"
}

// TableName sets the table name for GORM
func (Recording) TableName() string {
	return "recordings"
}
