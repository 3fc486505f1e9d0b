package services

import (
	"context"
	"time"

	"maycast/server/modules/postproduction/domain/jobs"
	recordingEntities "maycast/server/modules/recording/domain/entities"
	recordingRepos "maycast/server/modules/recording/domain/repositories"
	"maycast/server/seedwork/infrastructure/events"

	"github.com/rs/zerolog/log"
)

// TranscriptionEnqueuer dispatches transcription jobs
type TranscriptionEnqueuer interface {
	EnqueueTranscription(ctx context.Context, job jobs.TranscriptionJob) error
}

// TranscriptionChain watches completed extraction jobs and enqueues one
// transcription job per produced audio track.
type TranscriptionChain struct {
	recordings recordingRepos.RecordingRepository
	queue      TranscriptionEnqueuer
}

// NewTranscriptionChain creates a new chain subscriber
func NewTranscriptionChain(recordings recordingRepos.RecordingRepository, queue TranscriptionEnqueuer) *TranscriptionChain {
	return &TranscriptionChain{recordings: recordings, queue: queue}
}

// Register subscribes the chain to extraction-completed events
func (c *TranscriptionChain) Register(bus events.EventBus) error {
	return bus.Subscribe(jobs.EventExtractionCompleted, c.handle)
}

func (c *TranscriptionChain) handle(event interface{}) {
	result, ok := event.(*jobs.ExtractionResult)
	if !ok {
		log.Error().Msg("extraction-completed event carried unexpected payload")
		return
	}

	ctx := context.Background()
	for recordingID, output := range result.Outputs {
		if output.M4AKey == "" {
			continue
		}

		rec, err := c.recordings.FindByID(ctx, recordingID)
		if err != nil {
			log.Warn().Err(err).Str("recording_id", recordingID).Msg("skipping transcription, recording unavailable")
			continue
		}
		if rec.RoomID == "" {
			log.Debug().Str("recording_id", recordingID).Msg("skipping transcription, recording has no room")
			continue
		}

		if err := c.recordings.UpdateTranscriptionState(ctx, recordingID, recordingEntities.ProcessingPending,
			recordingRepos.TranscriptionUpdate{}); err != nil {
			log.Error().Err(err).Str("recording_id", recordingID).Msg("failed to reset transcription state")
			continue
		}

		job := jobs.TranscriptionJob{
			RoomID:      rec.RoomID,
			RecordingID: recordingID,
			M4AKey:      output.M4AKey,
			CreatedAt:   time.Now(),
		}
		if err := c.queue.EnqueueTranscription(ctx, job); err != nil {
			log.Error().Err(err).Str("recording_id", recordingID).Msg("failed to enqueue transcription")
		}
	}
}
