// Zaparoo LCD
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo LCD.
//
// Zaparoo LCD is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo LCD is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo LCD.  If not, see <http://www.gnu.org/licenses/>.

// Package api serves the HTTP API used by automation hosts to drive the
// display, plus a websocket feed of delivered frames.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/methods"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/config"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/controller"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	EventsPath      = "/api/events"
	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP API.
type Server struct {
	env     methods.RequestEnv
	cfg     *config.Instance
	limiter *middleware.IPRateLimiter
	ws      *melody.Melody
}

// NewServer builds the API around a running controller.
func NewServer(cfg *config.Instance, ctrl *controller.Controller) *Server {
	ws := melody.New()
	ws.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	return &Server{
		env:     methods.RequestEnv{Controller: ctrl, Config: cfg},
		cfg:     cfg,
		limiter: middleware.NewIPRateLimiter(cfg.RateLimit(), nil),
		ws:      ws,
	}
}

// Router returns the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(s.cfg.AllowedIPs())))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: append([]string{"http://localhost:*", "http://127.0.0.1:*"}, s.cfg.AllowedOrigins()...),
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get(EventsPath, func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	env := s.env
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.NoCache)
		r.Use(chimiddleware.Timeout(config.APIRequestTimeout))
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
		r.Use(middleware.RequestLogger)

		r.Route("/api/elements", func(r chi.Router) {
			r.Get("/", methods.HandleListElements(env))
			r.Post("/", methods.HandleAddElement(env))
			r.Delete("/", methods.HandleClearElements(env))
			r.Patch("/{id}", methods.HandleUpdateElement(env))
			r.Delete("/{id}", methods.HandleRemoveElement(env))
		})

		r.Get("/api/backgrounds", methods.HandleListBackgrounds(env))
		r.Put("/api/backgrounds/{orientation}", methods.HandleSetBackground(env))
		r.Delete("/api/backgrounds/{orientation}", methods.HandleClearBackground(env))

		r.Route("/api/display", func(r chi.Router) {
			r.Get("/", methods.HandleDisplayStatus(env))
			r.Get("/frame.png", methods.HandleFramePNG(env))
			r.Post("/fill", methods.HandleFill(env))
			r.Post("/pixel", methods.HandlePixel(env))
			r.Post("/test-pattern", methods.HandleTestPattern(env))
			r.Post("/clear", methods.HandleClear(env))
			r.Post("/redraw", methods.HandleRedraw(env))
			r.Put("/orientation", methods.HandleSetOrientation(env))
		})

		r.Put("/api/backlight", methods.HandleSetBacklight(env))
		r.Post("/api/values", methods.HandleUpdateValues(env))
	})

	return r
}

// broadcastNotifications pushes every delivered frame to websocket clients.
func (s *Server) broadcastNotifications(ctx context.Context, notifications <-chan controller.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-notifications:
			data, err := json.Marshal(models.Notification{
				JSONRPC: "2.0",
				Method:  models.NotificationFrame,
				Params:  notif,
			})
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

// Start serves the API on the configured address until ctx is done.
func (s *Server) Start(ctx context.Context, notifications <-chan controller.Notification) error {
	srv := &http.Server{
		Addr:              s.cfg.APIListen(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.limiter.RunCleanup(ctx)
		return nil
	})
	if notifications != nil {
		g.Go(func() error {
			s.broadcastNotifications(ctx, notifications)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.ws.Close(); err != nil {
			log.Debug().Err(err).Msg("closing websocket sessions")
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("api stopped: %w", err)
	}
	return nil
}
