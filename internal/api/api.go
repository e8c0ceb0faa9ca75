package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"dealer-support-chat/internal/api/middleware"
	"dealer-support-chat/internal/hours"
	"dealer-support-chat/internal/queue"
	"dealer-support-chat/internal/service/inquiry"
	"dealer-support-chat/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

// Dependencies are the collaborators route registrars can reach through the
// server. Anything a binary does not serve may be left nil.
type Dependencies struct {
	Inquiries   *inquiry.Service
	Calendar    *hours.Calendar
	Websocket   *websocket.Handler
	Hub         *websocket.Hub
	Logger      zerolog.Logger
	CORSOrigins []string
	// AgentAuth guards staff routes; nil leaves them open.
	AgentAuth  middleware.Middleware
	Registerer prometheus.Registerer
	Now        func() time.Time
}

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	deps                Dependencies
	routeRegistrars     []RouteRegistrar
	metrics             *metrics
	cors                middleware.CORSConfig
	log                 zerolog.Logger
}

func NewAPIServer(listenAddr string, rqm *queue.RequestQueueManager, deps Dependencies, registrars ...RouteRegistrar) *APIServer {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &APIServer{
		listenAddr:          listenAddr,
		requestQueueManager: rqm,
		deps:                deps,
		routeRegistrars:     registrars,
		metrics:             newMetrics(deps.Registerer, listenAddr, rqm),
		cors:                middleware.DefaultCORSConfig(deps.CORSOrigins),
		log:                 deps.Logger,
	}
}

// Routes builds the instrumented handler with every registrar applied.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	return s.metrics.instrument(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.listenAddr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info().Str("addr", s.listenAddr).Msg("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *APIServer) Inquiries() *inquiry.Service {
	return s.deps.Inquiries
}

func (s *APIServer) Calendar() *hours.Calendar {
	return s.deps.Calendar
}

func (s *APIServer) Handler() *websocket.Handler {
	return s.deps.Websocket
}

func (s *APIServer) Hub() *websocket.Hub {
	return s.deps.Hub
}

func (s *APIServer) Logger() zerolog.Logger {
	return s.log
}

func (s *APIServer) Now() time.Time {
	return s.deps.Now()
}

// AgentAuth returns the staff middleware, or none when auth is disabled.
func (s *APIServer) AgentAuth() []middleware.Middleware {
	if s.deps.AgentAuth == nil {
		return nil
	}
	return []middleware.Middleware{s.deps.AgentAuth}
}
