package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maycast/server/modules/postproduction/domain/jobs"
	"maycast/server/seedwork/infrastructure/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Queue policy shared by both queues
const (
	maxRetry    = 3
	backoffBase = 30 * time.Second

	// Completed and failed task records are retained for inspection.
	completedRetention = 24 * time.Hour
)

// Client enqueues post-production jobs onto the Redis-backed queues
type Client struct {
	client *asynq.Client
	addr   string
}

// NewClient probes the Redis backend and returns a queue client. The probe
// keeps a misconfigured REDIS_HOST from failing silently at first enqueue.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("no redis backend configured")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr()})
	defer rdb.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Addr(), err)
	}

	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Addr()}),
		addr:   cfg.Addr(),
	}, nil
}

// EnqueueAudioExtraction dispatches an extraction job
func (c *Client) EnqueueAudioExtraction(ctx context.Context, job jobs.AudioExtractionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction job: %w", err)
	}
	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(jobs.TypeAudioExtraction, payload),
		asynq.Queue(jobs.QueueAudioExtraction),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(completedRetention),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue extraction job: %w", err)
	}
	log.Info().Str("task_id", info.ID).Str("room_id", job.RoomID).
		Int("recordings", len(job.RecordingIDs)).Msg("audio extraction enqueued")
	return nil
}

// EnqueueTranscription dispatches a transcription job
func (c *Client) EnqueueTranscription(ctx context.Context, job jobs.TranscriptionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal transcription job: %w", err)
	}
	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(jobs.TypeTranscription, payload),
		asynq.Queue(jobs.QueueTranscription),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(completedRetention),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue transcription job: %w", err)
	}
	log.Info().Str("task_id", info.ID).Str("recording_id", job.RecordingID).Msg("transcription enqueued")
	return nil
}

// Close releases the underlying connection pool
func (c *Client) Close() error {
	return c.client.Close()
}

// RetryDelay implements the exponential backoff policy: 30 s, 60 s, 120 s.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	return backoffBase * (1 << n)
}

// NewServer builds the worker-side queue server. Extraction work gets twice
// the scheduling weight of transcription, matching the per-queue
// concurrency defaults. When no transcription provider is configured the
// transcription queue is left out entirely so its tasks wait for a worker
// that can handle them.
func NewServer(cfg config.RedisConfig, concurrency int, withTranscription bool) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 3
	}
	queues := map[string]int{
		jobs.QueueAudioExtraction: 2,
	}
	if withTranscription {
		queues[jobs.QueueTranscription] = 1
	}
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Addr()},
		asynq.Config{
			Concurrency:    concurrency,
			Queues:         queues,
			RetryDelayFunc: RetryDelay,
			Logger:         zerologAdapter{},
		},
	)
}

// zerologAdapter bridges asynq's logger onto zerolog
type zerologAdapter struct{}

func (zerologAdapter) Debug(args ...interface{}) { log.Debug().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Info(args ...interface{})  { log.Info().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Warn(args ...interface{})  { log.Warn().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Error(args ...interface{}) { log.Error().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Fatal(args ...interface{}) { log.Fatal().Msg(fmt.Sprint(args...)) }
