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

// Package service wires the daemon together: the serial sessions and their
// dispatchers, the scene store, the compositor, the controller and the API.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/assets"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/compositor"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/config"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/controller"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/transport"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const notificationBuffer = 32

type Options struct {
	Fs afero.Fs
	// PortFactory opens serial ports. Nil opens real devices.
	PortFactory transport.PortFactory
	Clock       clockwork.Clock
	DataDir     string
}

type device struct {
	session    *transport.Session
	dispatcher *transport.Dispatcher
}

func openDevice(
	ctx context.Context,
	name, path string,
	opts transport.Options,
	factory transport.PortFactory,
) device {
	opts.Name = name
	session := transport.NewSession(opts, factory)
	if err := session.Open(ctx, path); err != nil {
		// the session reconnects on the next send
		log.Warn().Err(err).Str("session", name).Msg("device not available yet")
	}
	return device{
		session:    session,
		dispatcher: transport.NewDispatcher(name, session),
	}
}

func backlightFromConfig(cfg *config.Instance) controller.Backlight {
	name, intensity, speed := cfg.BacklightSetting()
	if name == "" {
		return controller.DefaultBacklight
	}
	theme, err := protocol.ParseTheme(name)
	if err != nil {
		log.Warn().Err(err).Msg("invalid backlight theme in config, using default")
		return controller.DefaultBacklight
	}
	b := controller.Backlight{Theme: theme, Intensity: intensity, Speed: speed}
	if b.Intensity == 0 {
		b.Intensity = controller.DefaultBacklight.Intensity
	}
	if b.Speed == 0 {
		b.Speed = controller.DefaultBacklight.Speed
	}
	return b
}

// Start brings up the daemon in the background. stop cancels it and waits
// for cleanup; done is closed once everything has shut down.
func Start(
	cfg *config.Instance,
	opts Options,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)
	bootID := uuid.New().String()
	log.Info().Msgf("boot session UUID: %s", bootID)

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.DataDir == "" {
		opts.DataDir = config.DefaultDataDir()
	}

	fontDir := cfg.FontDir(opts.DataDir)
	iconDir := cfg.IconDir(opts.DataDir)
	statePath := cfg.StatePath(opts.DataDir)
	for _, dir := range []string{fontDir, iconDir, filepath.Dir(statePath)} {
		if err := opts.Fs.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	log.Info().Str("path", statePath).Msg("loading scene state")
	store, err := scene.Open(opts.Fs, statePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open scene state: %w", err)
	}

	lib := assets.NewLibrary(opts.Fs, fontDir, iconDir)
	comp := compositor.New(opts.Fs, lib)

	ctx, cancel := context.WithCancel(context.Background())

	display := openDevice(ctx, "display", cfg.DisplayPort(), transport.Options{
		BaudRate:   cfg.DisplayBaudRate(),
		AckTimeout: cfg.AckTimeout(),
		RequireAck: cfg.RequireAck(),
	}, opts.PortFactory)
	devices := []device{display}

	// left as a nil interface when disabled so the controller reports it
	var backlight controller.Submitter
	if cfg.BacklightEnabled() {
		baud := cfg.BacklightBaudRate()
		if baud == 0 {
			baud = transport.BacklightBaudRate
		}
		bl := openDevice(ctx, "backlight", cfg.BacklightPort(), transport.Options{
			BaudRate: baud,
		}, opts.PortFactory)
		devices = append(devices, bl)
		backlight = bl.dispatcher
	} else {
		log.Info().Msg("backlight disabled")
	}

	notifications := make(chan controller.Notification, notificationBuffer)
	ctrl := controller.New(store, comp, protocol.NewCodec(), display.dispatcher, backlight, controller.Options{
		Clock:             opts.Clock,
		Notifications:     notifications,
		Backlight:         backlightFromConfig(cfg),
		KeepAliveInterval: cfg.KeepAliveInterval(),
	})
	server := api.NewServer(cfg, ctrl)

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range devices {
		g.Go(func() error {
			return d.dispatcher.Run(gctx) //nolint:wrapcheck // never fails
		})
	}
	g.Go(func() error {
		return ctrl.Run(gctx) //nolint:wrapcheck // already wrapped
	})
	g.Go(func() error {
		return server.Start(gctx, notifications) //nolint:wrapcheck // already wrapped
	})
	if cfg.WatchAssets() {
		g.Go(func() error {
			return assets.Watch(gctx, lib, func() {
				comp.Invalidate()
				ctrl.RequestRedraw()
			})
		})
	}

	var runErr error
	doneCh := make(chan struct{})
	go func() {
		runErr = g.Wait()
		if runErr != nil {
			log.Error().Err(runErr).Msg("service stopped with error")
		}
		log.Info().Msg("service context cancelled, running cleanup")
		for _, d := range devices {
			if err := d.session.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing serial session")
			}
		}
		cancel()
		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		cancel()
		<-doneCh
		if errors.Is(runErr, context.Canceled) {
			return nil
		}
		return runErr
	}
	return stop, doneCh, nil
}
