package repositories

import (
	"context"
	"time"

	"maycast/server/modules/recording/domain/entities"
)

// RecordingRepository defines the persistence contract for recordings
type RecordingRepository interface {
	// Save upserts a recording
	Save(ctx context.Context, rec *entities.Recording) error

	// FindByID retrieves a recording by its ID
	FindByID(ctx context.Context, id string) (*entities.Recording, error)

	// ListByRoom returns the recordings linked into a room via membership
	ListByRoom(ctx context.Context, roomID string) ([]*entities.Recording, error)

	// TransitionState performs a conditional state update; the write applies
	// only while the recording is still in the expected from state.
	TransitionState(ctx context.Context, id string, from, to entities.RecordingState) error

	// UpdateMetadata replaces the metadata blob
	UpdateMetadata(ctx context.Context, id string, metadata *entities.RecordingMetadata) error

	// IncrementChunkCount atomically bumps chunk_count by one and total_size
	// by size. Fails when the recording is missing.
	IncrementChunkCount(ctx context.Context, id string, size int64) error

	// SetEndTime records when capture stopped
	SetEndTime(ctx context.Context, id string, endTime time.Time) error

	// UpdateProcessingState records extraction progress with optional output
	// keys and error text
	UpdateProcessingState(ctx context.Context, id string, state entities.ProcessingState, update ProcessingUpdate) error

	// UpdateTranscriptionState records transcription progress
	UpdateTranscriptionState(ctx context.Context, id string, state entities.ProcessingState, update TranscriptionUpdate) error

	// Delete removes a recording row
	Delete(ctx context.Context, id string) error
}

// ProcessingUpdate carries the optional fields of an extraction state change
type ProcessingUpdate struct {
	Error       string
	MP4Key      string
	M4AKey      string
	ProcessedAt *time.Time
}

// TranscriptionUpdate carries the optional fields of a transcription state change
type TranscriptionUpdate struct {
	Error         string
	VTTKey        string
	TranscribedAt *time.Time
}
