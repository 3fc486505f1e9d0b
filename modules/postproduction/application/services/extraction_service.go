package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"maycast/server/modules/postproduction/domain/jobs"
	recordingEntities "maycast/server/modules/recording/domain/entities"
	recordingRepos "maycast/server/modules/recording/domain/repositories"
	storage "maycast/server/modules/storage/domain/services"
	"maycast/server/seedwork/infrastructure/events"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// transcodeTimeout bounds one ffmpeg invocation
	transcodeTimeout = 5 * time.Minute

	// defaultDownloadParallelism bounds concurrent chunk downloads
	defaultDownloadParallelism = 6
)

// TranscodeFunc copies the audio stream of src into dst without re-encoding
type TranscodeFunc func(ctx context.Context, src, dst string) error

// FFmpegTranscode shells out to ffmpeg for the audio copy
func FFmpegTranscode(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", src, "-vn", "-acodec", "copy", dst)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, truncate(string(out), 512))
	}
	return nil
}

// ExtractionService assembles uploaded segments and extracts audio tracks.
// One job covers every recording of a finished room; recordings are
// processed sequentially and a failure never aborts the batch.
type ExtractionService struct {
	store       storage.ChunkStore
	recordings  recordingRepos.RecordingRepository
	bus         events.EventBus
	tempDir     string
	parallelism int
	transcode   TranscodeFunc
}

// NewExtractionService creates a new extraction service
func NewExtractionService(store storage.ChunkStore, recordings recordingRepos.RecordingRepository, bus events.EventBus, tempDir string) *ExtractionService {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &ExtractionService{
		store:       store,
		recordings:  recordings,
		bus:         bus,
		tempDir:     tempDir,
		parallelism: defaultDownloadParallelism,
		transcode:   FFmpegTranscode,
	}
}

// SetTranscode overrides the transcode tool (tests)
func (s *ExtractionService) SetTranscode(fn TranscodeFunc) {
	s.transcode = fn
}

// HandleTask is the asynq handler for audio-extraction tasks
func (s *ExtractionService) HandleTask(ctx context.Context, t *asynq.Task) error {
	var job jobs.AudioExtractionJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("malformed extraction payload: %w", err)
	}

	result := s.Process(ctx, job)

	if err := s.bus.Publish(jobs.EventExtractionCompleted, result); err != nil {
		log.Error().Err(err).Str("room_id", job.RoomID).Msg("failed to publish extraction result")
	}

	if w := t.ResultWriter(); w != nil {
		if payload, err := json.Marshal(result); err == nil {
			if _, err := w.Write(payload); err != nil {
				log.Debug().Err(err).Msg("failed to record extraction result")
			}
		}
	}
	return nil
}

// Process runs the batch and returns the successful outputs only
func (s *ExtractionService) Process(ctx context.Context, job jobs.AudioExtractionJob) *jobs.ExtractionResult {
	start := time.Now()
	outputs := make(map[string]jobs.RecordingOutput, len(job.RecordingIDs))

	for _, recordingID := range job.RecordingIDs {
		output, err := s.processRecording(ctx, job.RoomID, recordingID)
		if err != nil {
			log.Error().Err(err).Str("recording_id", recordingID).Msg("extraction failed for recording")
			s.markFailed(ctx, recordingID, err)
			continue
		}
		outputs[recordingID] = *output
	}

	return &jobs.ExtractionResult{
		RoomID:               job.RoomID,
		Outputs:              outputs,
		ProcessingDurationMs: time.Since(start).Milliseconds(),
	}
}

// processRecording assembles one recording and extracts its audio track
func (s *ExtractionService) processRecording(ctx context.Context, roomID, recordingID string) (*jobs.RecordingOutput, error) {
	if err := s.recordings.UpdateProcessingState(ctx, recordingID, recordingEntities.ProcessingActive,
		recordingRepos.ProcessingUpdate{}); err != nil {
		return nil, fmt.Errorf("failed to mark processing: %w", err)
	}

	initData, err := s.store.GetInitSegment(ctx, recordingID, roomID)
	if err != nil {
		return nil, fmt.Errorf("init segment unavailable: %w", err)
	}

	chunkIDs, err := s.store.ListChunkIDs(ctx, recordingID, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(chunkIDs) == 0 {
		return nil, fmt.Errorf("recording has no chunks")
	}

	chunks, err := s.downloadChunks(ctx, recordingID, roomID, chunkIDs)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(s.tempDir, "extract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	srcPath := filepath.Join(tmpDir, "source.mp4")
	if err := writeAssembled(srcPath, initData, chunks); err != nil {
		return nil, err
	}

	m4aPath := filepath.Join(tmpDir, "audio.m4a")
	transcodeCtx, cancel := context.WithTimeout(ctx, transcodeTimeout)
	defer cancel()
	if err := s.transcode(transcodeCtx, srcPath, m4aPath); err != nil {
		return nil, fmt.Errorf("audio extraction failed: %w", err)
	}

	mp4Data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read assembled mp4: %w", err)
	}
	m4aData, err := os.ReadFile(m4aPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted audio: %w", err)
	}

	mp4Key := storage.OutputMP4Key(recordingID, roomID)
	m4aKey := storage.OutputM4AKey(recordingID, roomID)
	if err := s.store.SaveObject(ctx, mp4Key, mp4Data, "video/mp4"); err != nil {
		return nil, fmt.Errorf("failed to upload mp4: %w", err)
	}
	if err := s.store.SaveObject(ctx, m4aKey, m4aData, "audio/mp4"); err != nil {
		return nil, fmt.Errorf("failed to upload m4a: %w", err)
	}

	now := time.Now()
	if err := s.recordings.UpdateProcessingState(ctx, recordingID, recordingEntities.ProcessingCompleted,
		recordingRepos.ProcessingUpdate{MP4Key: mp4Key, M4AKey: m4aKey, ProcessedAt: &now}); err != nil {
		return nil, fmt.Errorf("failed to mark completed: %w", err)
	}

	log.Info().Str("recording_id", recordingID).Int("chunks", len(chunkIDs)).
		Int64("mp4_bytes", int64(len(mp4Data))).Int64("m4a_bytes", int64(len(m4aData))).
		Msg("extraction completed")

	return &jobs.RecordingOutput{
		MP4Key:  mp4Key,
		M4AKey:  m4aKey,
		MP4Size: int64(len(mp4Data)),
		M4ASize: int64(len(m4aData)),
	}, nil
}

// downloadChunks fetches chunks with bounded parallelism, preserving order
// by index.
func (s *ExtractionService) downloadChunks(ctx context.Context, recordingID, roomID string, chunkIDs []int) ([][]byte, error) {
	chunks := make([][]byte, len(chunkIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, chunkID := range chunkIDs {
		g.Go(func() error {
			data, err := s.store.GetChunk(gctx, recordingID, roomID, chunkID)
			if err != nil {
				return fmt.Errorf("failed to download chunk %d: %w", chunkID, err)
			}
			chunks[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// markFailed records a per-recording failure without aborting the batch
func (s *ExtractionService) markFailed(ctx context.Context, recordingID string, cause error) {
	if err := s.recordings.UpdateProcessingState(ctx, recordingID, recordingEntities.ProcessingFailed,
		recordingRepos.ProcessingUpdate{Error: cause.Error()}); err != nil {
		log.Error().Err(err).Str("recording_id", recordingID).Msg("failed to record processing failure")
	}
}

// writeAssembled writes init followed by every chunk contiguously
func writeAssembled(path string, initData []byte, chunks [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create assembly file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(initData); err != nil {
		return fmt.Errorf("failed to write init segment: %w", err)
	}
	for i, chunk := range chunks {
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
	}
	return f.Sync()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
