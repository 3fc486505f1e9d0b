package container

import (
	"context"
	"fmt"

	coordServices "maycast/server/modules/coordinator/application/services"
	"maycast/server/modules/coordinator/interfaces/ws"
	ppServices "maycast/server/modules/postproduction/application/services"
	"maycast/server/modules/postproduction/infrastructure/queue"
	recServices "maycast/server/modules/recording/application/services"
	recRepoIface "maycast/server/modules/recording/domain/repositories"
	recInfraRepos "maycast/server/modules/recording/infrastructure/repositories"
	recHandlers "maycast/server/modules/recording/interfaces/http/handlers"
	recRoutes "maycast/server/modules/recording/interfaces/http/routes"
	roomServices "maycast/server/modules/room/application/services"
	roomRepoIface "maycast/server/modules/room/domain/repositories"
	roomInfraRepos "maycast/server/modules/room/infrastructure/repositories"
	roomHandlers "maycast/server/modules/room/interfaces/http/handlers"
	roomMiddleware "maycast/server/modules/room/interfaces/http/middleware"
	roomRoutes "maycast/server/modules/room/interfaces/http/routes"
	storageServices "maycast/server/modules/storage/domain/services"
	storageProviders "maycast/server/modules/storage/infrastructure/providers"
	"maycast/server/seedwork/infrastructure/config"
	"maycast/server/seedwork/infrastructure/database"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Container holds all application dependencies, constructed leaves first:
// chunk store, metadata store, job queue, coordinator, application core.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB         *gorm.DB
	ChunkStore storageServices.ChunkStore
	Queue      *queue.Client

	// Repositories
	RoomRepository      roomRepoIface.RoomRepository
	RecordingRepository recRepoIface.RecordingRepository

	// Coordinator
	Hub       *coordServices.RoomHub
	WSHandler *ws.Handler

	// Services
	RoomService      *roomServices.RoomService
	RecordingService *recServices.RecordingService

	// HTTP surface
	RoomRoutes      *roomRoutes.RoomRoutes
	RecordingRoutes *recRoutes.RecordingRoutes
}

// NewContainer creates and wires up all dependencies
func NewContainer(cfg *config.Config) (*Container, error) {
	// C1: chunk store, fixed at startup
	store, err := newChunkStore(cfg)
	if err != nil {
		return nil, err
	}

	// C2: metadata store
	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	roomRepo := roomInfraRepos.NewGormRoomRepository(db)
	recordingRepo := recInfraRepos.NewGormRecordingRepository(db)

	// C3: job queue. Absent Redis means post-production jobs are skipped
	// silently; the rest of the system is unaffected.
	var queueClient *queue.Client
	if cfg.Redis.Enabled() {
		queueClient, err = queue.NewClient(cfg.Redis)
		if err != nil {
			database.Close(db)
			return nil, err
		}
	} else {
		log.Warn().Msg("REDIS_HOST not set, job queues disabled")
	}

	// C4: room coordinator
	hub := coordServices.NewRoomHub()

	// C5: application core
	var enqueuer roomServices.ExtractionEnqueuer
	if queueClient != nil {
		enqueuer = queueClient
	}
	roomService := roomServices.NewRoomService(roomRepo, hub, enqueuer)
	recordingService := recServices.NewRecordingService(recordingRepo, store, roomService)

	hub.BindHooks(coordServices.LifecycleHooks{
		AllGuestsSynced: roomService.HandleAllGuestsSynced,
		RecordingLinked: func(roomID, recordingID, name string) {
			if err := recordingService.SetParticipantName(context.Background(), recordingID, name); err != nil {
				log.Warn().Err(err).Str("recording_id", recordingID).Msg("failed to persist participant name")
			}
		},
	})

	subtitleService := ppServices.NewSubtitleService(store, recordingRepo)

	accessMiddleware := roomMiddleware.NewRoomAccessMiddleware(roomService)
	roomHandler := roomHandlers.NewRoomHandlers(roomService, recordingService, subtitleService)
	recordingHandler := recHandlers.NewRecordingHandlers(recordingService)

	return &Container{
		Config:              cfg,
		DB:                  db,
		ChunkStore:          store,
		Queue:               queueClient,
		RoomRepository:      roomRepo,
		RecordingRepository: recordingRepo,
		Hub:                 hub,
		WSHandler:           ws.NewHandler(hub),
		RoomService:         roomService,
		RecordingService:    recordingService,
		RoomRoutes:          roomRoutes.NewRoomRoutes(roomHandler, accessMiddleware),
		RecordingRoutes:     recRoutes.NewRecordingRoutes(recordingHandler),
	}, nil
}

// newChunkStore selects the storage backend from configuration
func newChunkStore(cfg *config.Config) (storageServices.ChunkStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		store, err := storageProviders.NewS3ChunkStore(context.Background(), cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 chunk store: %w", err)
		}
		log.Info().Str("bucket", cfg.Storage.S3.Bucket).Msg("using S3 chunk store")
		return store, nil
	case config.BackendLocal:
		store, err := storageProviders.NewLocalChunkStore(cfg.Storage.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local chunk store: %w", err)
		}
		log.Info().Str("path", cfg.Storage.LocalPath).Msg("using local chunk store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Close tears dependencies down in reverse construction order: queue client,
// then database. The chunk store and the room hub have no close step.
func (c *Container) Close() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close queue client")
		}
	}
	if c.DB != nil {
		if err := database.Close(c.DB); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}
