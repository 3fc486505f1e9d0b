package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maycast/server/modules/postproduction/domain/jobs"
	domainServices "maycast/server/modules/postproduction/domain/services"
	recordingEntities "maycast/server/modules/recording/domain/entities"
	recordingRepos "maycast/server/modules/recording/domain/repositories"
	storage "maycast/server/modules/storage/domain/services"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// TranscriptionService turns extracted audio tracks into WebVTT subtitles
type TranscriptionService struct {
	store      storage.ChunkStore
	recordings recordingRepos.RecordingRepository
	provider   domainServices.TranscriptionProvider
}

// NewTranscriptionService creates a new transcription service
func NewTranscriptionService(store storage.ChunkStore, recordings recordingRepos.RecordingRepository, provider domainServices.TranscriptionProvider) *TranscriptionService {
	return &TranscriptionService{store: store, recordings: recordings, provider: provider}
}

// HandleTask is the asynq handler for transcription tasks
func (s *TranscriptionService) HandleTask(ctx context.Context, t *asynq.Task) error {
	var job jobs.TranscriptionJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("malformed transcription payload: %w", err)
	}
	return s.Process(ctx, job)
}

// Process transcribes one recording. Failures are recorded on the recording
// and returned so the queue applies its backoff policy.
func (s *TranscriptionService) Process(ctx context.Context, job jobs.TranscriptionJob) error {
	if err := s.recordings.UpdateTranscriptionState(ctx, job.RecordingID, recordingEntities.ProcessingActive,
		recordingRepos.TranscriptionUpdate{}); err != nil {
		return err
	}

	vttKey, err := s.transcribe(ctx, job)
	if err != nil {
		if markErr := s.recordings.UpdateTranscriptionState(ctx, job.RecordingID, recordingEntities.ProcessingFailed,
			recordingRepos.TranscriptionUpdate{Error: err.Error()}); markErr != nil {
			log.Error().Err(markErr).Str("recording_id", job.RecordingID).Msg("failed to record transcription failure")
		}
		return err
	}

	now := time.Now()
	if err := s.recordings.UpdateTranscriptionState(ctx, job.RecordingID, recordingEntities.ProcessingCompleted,
		recordingRepos.TranscriptionUpdate{VTTKey: vttKey, TranscribedAt: &now}); err != nil {
		return err
	}

	log.Info().Str("recording_id", job.RecordingID).Str("vtt_key", vttKey).
		Str("provider", s.provider.Name()).Msg("transcription completed")
	return nil
}

func (s *TranscriptionService) transcribe(ctx context.Context, job jobs.TranscriptionJob) (string, error) {
	audio, err := s.store.GetObject(ctx, job.M4AKey)
	if err != nil {
		return "", fmt.Errorf("audio track unavailable: %w", err)
	}

	segments, err := s.provider.Transcribe(ctx, audio, "audio/mp4")
	if err != nil {
		return "", fmt.Errorf("provider %s failed: %w", s.provider.Name(), err)
	}

	vtt := FormatWebVTT(segments)
	vttKey := storage.SubtitleKey(job.RecordingID, job.RoomID)
	if err := s.store.SaveObject(ctx, vttKey, []byte(vtt), "text/vtt"); err != nil {
		return "", fmt.Errorf("failed to upload subtitles: %w", err)
	}
	return vttKey, nil
}
