package main

import (
	"context"
	"os"
	"os/exec"

	ppServices "maycast/server/modules/postproduction/application/services"
	"maycast/server/modules/postproduction/domain/jobs"
	domainServices "maycast/server/modules/postproduction/domain/services"
	ppProviders "maycast/server/modules/postproduction/infrastructure/providers"
	"maycast/server/modules/postproduction/infrastructure/queue"
	recInfraRepos "maycast/server/modules/recording/infrastructure/repositories"
	storageServices "maycast/server/modules/storage/domain/services"
	storageProviders "maycast/server/modules/storage/infrastructure/providers"
	"maycast/server/seedwork/infrastructure/config"
	"maycast/server/seedwork/infrastructure/database"
	"maycast/server/seedwork/infrastructure/events"
	"maycast/server/seedwork/infrastructure/logging"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "")
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Server.Env)
	log.Logger = logger

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		log.Error().Msg("ffmpeg not found in PATH, cannot extract audio")
		os.Exit(1)
	}
	if !cfg.Redis.Enabled() {
		log.Error().Msg("REDIS_HOST is required for the worker")
		os.Exit(1)
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		os.Exit(1)
	}
	defer database.Close(db)

	store, err := newChunkStore(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize chunk store")
		os.Exit(1)
	}

	recordingRepo := recInfraRepos.NewGormRecordingRepository(db)
	bus := events.NewMemoryEventBus()

	queueClient, err := queue.NewClient(cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to job queue")
		os.Exit(1)
	}
	defer queueClient.Close()

	extraction := ppServices.NewExtractionService(store, recordingRepo, bus, cfg.Worker.TempDir)

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeAudioExtraction, extraction.HandleTask)

	provider, err := newProvider(cfg.Transcription)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize transcription provider")
		os.Exit(1)
	}
	if provider != nil {
		transcription := ppServices.NewTranscriptionService(store, recordingRepo, provider)
		mux.HandleFunc(jobs.TypeTranscription, transcription.HandleTask)

		chain := ppServices.NewTranscriptionChain(recordingRepo, queueClient)
		if err := chain.Register(bus); err != nil {
			log.Error().Err(err).Msg("failed to register transcription chain")
			os.Exit(1)
		}
		log.Info().Str("provider", provider.Name()).Msg("transcription enabled")
	} else {
		log.Warn().Msg("no transcription provider configured, transcription worker disabled")
	}

	srv := queue.NewServer(cfg.Redis, cfg.Worker.Concurrency, provider != nil)

	log.Info().Int("concurrency", cfg.Worker.Concurrency).Msg("worker started")
	// Run blocks until SIGTERM/SIGINT: intake stops, in-flight jobs finish,
	// then the pools above close via the deferred calls.
	if err := srv.Run(mux); err != nil {
		log.Error().Err(err).Msg("worker failed")
		os.Exit(1)
	}
}

// newChunkStore selects the storage backend from configuration
func newChunkStore(cfg *config.Config) (storageServices.ChunkStore, error) {
	if cfg.Storage.Backend == config.BackendS3 {
		return storageProviders.NewS3ChunkStore(context.Background(), cfg.Storage.S3)
	}
	return storageProviders.NewLocalChunkStore(cfg.Storage.LocalPath)
}

// newProvider picks the transcription provider from configuration; nil means
// transcription is not configured.
func newProvider(cfg config.TranscriptionConfig) (domainServices.TranscriptionProvider, error) {
	switch cfg.Provider() {
	case "deepgram":
		return ppProviders.NewDeepgramProvider(cfg.DeepgramAPIKey), nil
	case "gemini":
		return ppProviders.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, nil
	}
}
