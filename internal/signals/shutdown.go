package signals

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pecigonzalo/kafka-spout/internal/workers"
)

// DefaultDrainDelay is how long the server keeps answering while readiness
// probes notice it is going away
const DefaultDrainDelay = 3 * time.Second

type Shutdown struct {
	logger                *zerolog.Logger
	serverShutdownTimeout time.Duration
	drainDelay            time.Duration
}

func NewShutdown(serverShutdownTimeout time.Duration, drainDelay time.Duration, logger *zerolog.Logger) (*Shutdown, error) {
	srv := &Shutdown{
		logger:                logger,
		serverShutdownTimeout: serverShutdownTimeout,
		drainDelay:            drainDelay,
	}

	return srv, nil
}

// Graceful blocks until stopCh is closed, then stops the worker and the HTTP
// server in that order
func (s *Shutdown) Graceful(stopCh <-chan struct{}, httpServer *http.Server, worker workers.Worker, healthy *int32, ready *int32) {
	ctx := context.Background()

	// wait for SIGTERM or SIGINT
	<-stopCh
	ctx, cancel := context.WithTimeout(ctx, s.serverShutdownTimeout)
	defer cancel()

	s.logger.Info().
		Msg("Shutting down reader manager")
	worker.Stop()

	// all calls to /healthz and /readyz will fail from now on
	atomic.StoreInt32(healthy, 0)
	atomic.StoreInt32(ready, 0)

	s.logger.Info().
		Dur("timeout", s.serverShutdownTimeout).
		Msg("Shutting down HTTP server")

	// wait for Kubernetes readiness probe to remove this instance from the load balancer
	// the readiness check interval must be lower than the timeout
	time.Sleep(s.drainDelay)

	// determine if the http server was started
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server graceful shutdown failed")
		}
	}
}
