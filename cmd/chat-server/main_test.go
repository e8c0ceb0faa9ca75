package main

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealer-support-chat/internal/env"
)

func testConfig() env.Config {
	return env.Config{
		Env:          "development",
		HTTPAddr:     "127.0.0.1:0",
		APIPrefix:    "/api/chat",
		StoreDriver:  env.DriverMemory,
		StoreTimeout: time.Second,
		QueueSize:    4,
		QueueWorkers: 2,
	}
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- run(ctx, testConfig(), zerolog.Nop(), prometheus.NewRegistry())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunRejectsBadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.BusinessTimezone = "Not/AZone"

	err := run(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	require.Error(t, err)
}
