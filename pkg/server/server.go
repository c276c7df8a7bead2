// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zbx-vsphere/vsphere-status/pkg/collector"
	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/logging"
)

// Server exposes on-demand collection over HTTP.
type Server struct {
	config      *Config
	collector   collector.Collector
	allowed     map[string]string
	httpServer  *http.Server
	rateLimiter *rate.Limiter

	mu    sync.RWMutex
	ready bool
}

// New builds a server. base is the collector template; each request runs
// a copy of it with the requested query set.
func New(cfg *Config, base *collector.Collector) (*Server, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if base == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "collector is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:      cfg,
		collector:   *base,
		allowed:     cfg.allowedTargets(),
		rateLimiter: rate.NewLimiter(cfg.RateLimit, cfg.RateLimitBurst),
	}
	s.collector.Serializer = nil

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Address, fmt.Sprintf("%d", cfg.Port)),
		Handler:           s.setupRoutes(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 16,
		ErrorLog:          logging.NewLogLogger(slog.LevelWarn, false),
	}
	return s, nil
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// SetReady sets the readiness reported by /ready.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

func (s *Server) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to listen", err,
			map[string]any{"address": s.httpServer.Addr})
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server",
			"name", s.config.Name,
			"version", s.config.Version,
			"address", ln.Addr().String(),
			"targets", len(s.allowed))
		s.SetReady(true)
		if err := s.httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(errors.ErrCodeUnavailable, "server failed", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)
	slog.Info("shutting down server", "timeout", s.config.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, "graceful shutdown failed", err)
	}
	slog.Info("server stopped")
	return nil
}
