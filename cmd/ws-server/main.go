package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"dealer-support-chat/internal/api"
	"dealer-support-chat/internal/api/router"
	"dealer-support-chat/internal/env"
	"dealer-support-chat/internal/logger"
	"dealer-support-chat/internal/queue"
	"dealer-support-chat/internal/websocket"
)

// ws-server only fans out realtime events. It needs CHAT_REDIS_URL so that
// events published by chat-server instances reach its subscribers.
func main() {
	cfg, err := env.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("config invalid")
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("ws server stopped")
	}
}

func run(ctx context.Context, cfg env.Config, log zerolog.Logger) error {
	if cfg.RedisURL == "" {
		return fmt.Errorf("%s is required", env.ChatRedisURL)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	broker := websocket.NewRedisBroker(websocket.NewRedisClient(cfg.RedisURL, cfg.RedisPass), log)
	defer broker.Close()
	go func() {
		if err := broker.Relay(ctx, hub); err != nil {
			log.Error().Err(err).Msg("redis relay stopped")
			stop()
		}
	}()

	queueManager := queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers, log)
	defer queueManager.Shutdown()

	server := api.NewAPIServer(
		cfg.WSAddr,
		queueManager,
		api.Dependencies{
			Websocket:   websocket.NewHandler(hub, log, cfg.CORSOrigins),
			Hub:         hub,
			Logger:      log,
			CORSOrigins: cfg.CORSOrigins,
		},
		router.UtilsRoutes(cfg.APIPrefix),
		router.WebsocketRoutes(cfg.APIPrefix),
	)

	return server.Run(ctx)
}
