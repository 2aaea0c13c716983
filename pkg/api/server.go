// Zaparoo Radio
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Radio.
//
// Zaparoo Radio is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Radio is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Radio.  If not, see <http://www.gnu.org/licenses/>.

// Package api serves the radio over HTTP: REST endpoints for status and
// control, and a websocket that streams events and accepts commands.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-radio/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-radio/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-radio/pkg/service/state"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	requestTimeout  = 15 * time.Second
	shutdownTimeout = 5 * time.Second
	wsBuffer        = 64
)

var defaultOrigins = []string{"https://*", "http://*"}

type Options struct {
	// Clock drives command rate limiting. Nil uses the real clock.
	Clock          clockwork.Clock
	AllowedOrigins []string
	AllowedIPs     []string
}

type Server struct {
	radio   Radio
	state   *state.State
	broker  *broker.Broker
	ws      *melody.Melody
	router  chi.Router
	limiter *middleware.CommandLimiter
}

func NewServer(r Radio, st *state.State, b *broker.Broker, opts Options) *Server {
	s := &Server{
		radio:   r,
		state:   st,
		broker:  b,
		ws:      melody.New(),
		limiter: middleware.NewCommandLimiter(opts.Clock),
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	s.ws.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }
	s.ws.HandleMessage(middleware.RateLimitMessages(s.limiter, s.handleWSMessage, rejectWS))
	s.ws.HandleConnect(func(sess *melody.Session) {
		log.Debug().Str("addr", sess.Request.RemoteAddr).Msg("websocket client connected")
	})
	s.ws.HandleDisconnect(func(sess *melody.Session) {
		log.Debug().Str("addr", sess.Request.RemoteAddr).Msg("websocket client disconnected")
	})

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(middleware.IPFilterMiddleware(middleware.NewIPFilter(opts.AllowedIPs)))
	router.Use(middleware.RequestLogger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get(models.EventsPath, func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	router.Group(func(r chi.Router) {
		r.Use(chimw.NoCache)
		r.Use(chimw.Timeout(requestTimeout))
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/memory", s.handleMemory)
		r.Get("/api/commands", s.handleListCommands)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitMiddleware(s.limiter))
			r.Put("/api/memory/{slot}", s.handleSetMemory)
			r.Post("/api/commands/{name}", s.handleCommand)
			r.Post("/api/captures/{kind}", s.handleCapture)
			r.Post("/api/theme/preview", s.handleThemePreview)
			r.Post("/api/sleep", s.handleSleep)
		})
	})

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Broadcast forwards broker notifications to every websocket client until
// the subscription closes or ctx is done.
func (s *Server) Broadcast(ctx context.Context) {
	notifications, id := s.broker.Subscribe(wsBuffer)
	defer s.broker.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.ws.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// Run serves on listen until ctx is cancelled.
func (s *Server) Run(ctx context.Context, listen string) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Broadcast(ctx)
	s.limiter.StartPruning(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		_ = s.ws.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.ws.Close(); err != nil {
		log.Warn().Err(err).Msg("closing websocket sessions")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	<-errCh
	return nil
}
