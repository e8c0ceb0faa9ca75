package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"dealer-support-chat/internal/api"
	"dealer-support-chat/internal/api/middleware"
	"dealer-support-chat/internal/api/router"
	"dealer-support-chat/internal/env"
	"dealer-support-chat/internal/hours"
	"dealer-support-chat/internal/logger"
	"dealer-support-chat/internal/queue"
	"dealer-support-chat/internal/service/inquiry"
	"dealer-support-chat/internal/websocket"
)

func main() {
	cfg, err := env.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("config invalid")
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, prometheus.DefaultRegisterer); err != nil {
		log.Fatal().Err(err).Msg("chat server stopped")
	}
}

// run serves the customer, staff and realtime routes until ctx is done.
func run(ctx context.Context, cfg env.Config, log zerolog.Logger, reg prometheus.Registerer) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repo, err := inquiry.NewRepositoryFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store init (%s): %w", cfg.StoreDriver, err)
	}
	if closer, ok := repo.(inquiry.Closer); ok {
		defer closer.Close()
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	var notifier inquiry.Notifier = hub
	if cfg.RedisURL != "" {
		broker := websocket.NewRedisBroker(websocket.NewRedisClient(cfg.RedisURL, cfg.RedisPass), log)
		defer broker.Close()
		if err := broker.Ping(ctx); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
		go func() {
			if err := broker.Relay(ctx, hub); err != nil {
				log.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		notifier = broker
	}

	service := inquiry.New(repo,
		inquiry.WithNotifier(notifier),
		inquiry.WithLogger(log),
		inquiry.WithStoreTimeout(cfg.StoreTimeout),
	)

	calendar := hours.NewCalendar(loc)
	announcer, err := hours.NewAnnouncer(calendar, notifier, log)
	if err != nil {
		return err
	}
	announcer.Start()
	defer announcer.Stop()

	queueManager := queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers, log)
	defer queueManager.Shutdown()

	deps := api.Dependencies{
		Inquiries:   service,
		Calendar:    calendar,
		Websocket:   websocket.NewHandler(hub, log, cfg.CORSOrigins),
		Hub:         hub,
		Logger:      log,
		CORSOrigins: cfg.CORSOrigins,
		Registerer:  reg,
	}
	if cfg.AgentJWTSecret != "" {
		deps.AgentAuth = middleware.ValidateAgentJWT(cfg.AgentJWTSecret)
	} else {
		log.Warn().Msg("AGENT_JWT_SECRET not set, staff routes are unauthenticated")
	}

	server := api.NewAPIServer(
		cfg.HTTPAddr,
		queueManager,
		deps,
		router.UtilsRoutes(cfg.APIPrefix),
		router.HoursRoutes(cfg.APIPrefix),
		router.InquiryRoutes(cfg.APIPrefix),
		router.WebsocketRoutes(cfg.APIPrefix),
	)

	return server.Run(ctx)
}
