package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maycast/server/seedwork/application/middleware"
	"maycast/server/seedwork/infrastructure/config"
	"maycast/server/seedwork/infrastructure/container"
	"maycast/server/seedwork/infrastructure/database"
	"maycast/server/seedwork/infrastructure/logging"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "")
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Server.Env)
	log.Logger = logger

	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize application")
		os.Exit(1)
	}
	defer c.Close()

	if err := database.RunMigrations(c.DB, "migrations"); err != nil {
		log.Error().Err(err).Msg("failed to run migrations")
		os.Exit(1)
	}

	router := buildRouter(c)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("storage", string(cfg.Storage.Backend)).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("forced shutdown")
	}
}

// buildRouter assembles the HTTP surface: middleware, health, the room and
// recording APIs and the websocket fabric.
func buildRouter(c *container.Container) *gin.Engine {
	if c.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(c.Config.Server.CORSOrigin))
	router.Use(middleware.ErrorHandler())

	start := time.Now()
	health := func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    int64(time.Since(start).Seconds()),
		})
	}
	router.GET("/health", health)

	api := router.Group("/api")
	api.GET("/health", health)

	c.RoomRoutes.Setup(api)
	c.RecordingRoutes.Setup(api)

	router.GET("/ws", c.WSHandler.HandleConnection)

	return router
}
