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

// Package controller ties the scene store, compositor, codec and transport
// together. It owns the display state: current orientation, whether the
// panel shows the composed scene or a transient primitive drawing, the
// backlight setting and the latest bound values.
package controller

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/compositor"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/transport"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Mode says what the panel is showing.
type Mode int

const (
	// ModeScene means the panel shows the composed element store.
	ModeScene Mode = iota
	// ModePrimitive means a fill, pixel, test pattern or clear replaced the
	// scene. The next scene trigger returns to ModeScene.
	ModePrimitive
)

func (m Mode) String() string {
	if m == ModePrimitive {
		return "primitive"
	}
	return "scene"
}

// DefaultKeepAliveInterval matches the panel's expected heartbeat.
const DefaultKeepAliveInterval = time.Second

// Submitter sends one encoded message and waits for the result.
// transport.Dispatcher is the implementation.
type Submitter interface {
	Submit(ctx context.Context, msg *protocol.Message) error
}

// Composer renders a scene. compositor.Compositor is the implementation.
type Composer interface {
	Compose(sc *compositor.Scene) (*compositor.Frame, error)
}

// Backlight is the LED strip setting.
type Backlight struct {
	Theme     protocol.Theme `json:"theme"`
	Intensity int            `json:"intensity"`
	Speed     int            `json:"speed"`
}

// DefaultBacklight is the rainbow theme at medium intensity and speed.
var DefaultBacklight = Backlight{
	Theme:     protocol.ThemeRainbow,
	Intensity: protocol.LevelDefault,
	Speed:     protocol.LevelDefault,
}

// Notification reports a frame that was handed to the panel.
type Notification struct {
	Kind        string            `json:"kind"`
	Mode        string            `json:"mode"`
	Orientation scene.Orientation `json:"orientation"`
}

// Options configure a controller. Notifications, when set, receives one
// value per delivered frame; sends never block.
type Options struct {
	Clock             clockwork.Clock
	Notifications     chan<- Notification
	Backlight         Backlight
	KeepAliveInterval time.Duration
}

// Controller is the display controller. Display operations are serialized
// by opMu; lastFrame and mode follow the last frame the panel accepted.
type Controller struct {
	clock       clockwork.Clock
	store       *scene.Store
	composer    Composer
	codec       protocol.Encoder
	display     Submitter
	backlight   Submitter
	refresh     chan struct{}
	rescene     chan struct{}
	notify      chan<- Notification
	values      map[string]any
	lastFrame   *compositor.Frame
	light       Backlight
	keepAlive   time.Duration
	opMu        syncutil.Mutex
	mu          syncutil.RWMutex
	orientation scene.Orientation
	mode        Mode
}

// New creates a controller. The orientation is restored from the store.
func New(
	store *scene.Store,
	composer Composer,
	codec protocol.Encoder,
	display Submitter,
	backlight Submitter,
	opts Options,
) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.KeepAliveInterval == 0 {
		opts.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if opts.Backlight == (Backlight{}) {
		opts.Backlight = DefaultBacklight
	}
	return &Controller{
		clock:       opts.Clock,
		store:       store,
		composer:    composer,
		codec:       codec,
		display:     display,
		backlight:   backlight,
		refresh:     make(chan struct{}, 1),
		rescene:     make(chan struct{}, 1),
		notify:      opts.Notifications,
		values:      make(map[string]any),
		light:       opts.Backlight,
		keepAlive:   opts.KeepAliveInterval,
		orientation: store.Orientation(),
	}
}

// Run sends the initial orientation, scene and backlight, then redraws on
// every store change and keeps the panel alive until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.sendOrientation(ctx, c.Orientation()); err != nil {
			log.Warn().Err(err).Msg("failed to send initial orientation")
		}
		c.kick(c.rescene)
		return c.redrawLoop(ctx)
	})
	g.Go(func() error {
		if err := c.sendBacklight(ctx, c.Backlight()); err != nil {
			log.Warn().Err(err).Msg("failed to send initial backlight")
		}
		return nil
	})
	if c.keepAlive > 0 {
		g.Go(func() error {
			return c.keepAliveLoop(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("controller stopped: %w", err)
	}
	return nil
}

func (c *Controller) redrawLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.store.Changes():
			c.logRedraw(ctx, c.redraw(ctx, true))
		case <-c.rescene:
			c.logRedraw(ctx, c.redraw(ctx, true))
		case <-c.refresh:
			c.logRedraw(ctx, c.redraw(ctx, false))
		}
	}
}

func (c *Controller) logRedraw(ctx context.Context, err error) {
	switch {
	case err == nil:
	case errors.Is(err, transport.ErrSuperseded), ctx.Err() != nil:
		log.Debug().Err(err).Msg("redraw dropped")
	default:
		log.Error().Err(err).Msg("redraw failed")
	}
}

func (c *Controller) keepAliveLoop(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.keepAlive)
	defer ticker.Stop()

	msg, err := c.codec.Encode(protocol.KeepAliveCommand{})
	if err != nil {
		return fmt.Errorf("failed to encode keepalive: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			ka := msg
			err := c.display.Submit(ctx, &ka)
			if err != nil && !errors.Is(err, transport.ErrSuperseded) && ctx.Err() == nil {
				log.Warn().Err(err).Msg("keepalive failed")
			}
		}
	}
}

// redraw composes the scene and sends it. With force unset it only redraws
// when the panel is already in scene mode.
func (c *Controller) redraw(ctx context.Context, force bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if !force && c.mode != ModeScene {
		c.mu.Unlock()
		return nil
	}
	o := c.orientation
	values := maps.Clone(c.values)
	c.mu.Unlock()

	sc := &compositor.Scene{
		Orientation: o,
		Background:  c.store.Background(o),
		Elements:    c.store.List(),
		Values:      values,
	}
	frame, err := c.composer.Compose(sc)
	if err != nil {
		return fmt.Errorf("failed to compose scene: %w", err)
	}
	msg, err := c.codec.Encode(protocol.FrameCommand{Frame: frame})
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}

	log.Debug().
		Int("elements", len(sc.Elements)).
		Int("orientation", int(o)).
		Msg("redrawing scene")
	if err := c.display.Submit(ctx, &msg); err != nil {
		return err //nolint:wrapcheck // transport errors are sentinels
	}

	c.mu.Lock()
	c.mode = ModeScene
	c.lastFrame = frame
	c.mu.Unlock()
	c.publish(msg.Kind, ModeScene, o)
	return nil
}

func (c *Controller) publish(kind string, mode Mode, o scene.Orientation) {
	if c.notify == nil {
		return
	}
	select {
	case c.notify <- Notification{Kind: kind, Mode: mode.String(), Orientation: o}:
	default:
		log.Debug().Str("kind", kind).Msg("notification dropped")
	}
}

// Redraw recomposes the scene immediately and returns to scene mode.
func (c *Controller) Redraw(ctx context.Context) error {
	return c.redraw(ctx, true)
}

// RequestRedraw schedules a scene redraw on the controller's loop.
func (c *Controller) RequestRedraw() {
	c.kick(c.rescene)
}

func (*Controller) kick(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Mode returns what the panel is showing.
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Orientation returns the active orientation.
func (c *Controller) Orientation() scene.Orientation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orientation
}

// Backlight returns the last backlight setting sent.
func (c *Controller) Backlight() Backlight {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.light
}

// Snapshot returns a copy of the frame last handed to the panel, or nil
// before the first draw.
func (c *Controller) Snapshot() *compositor.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastFrame == nil {
		return nil
	}
	return c.lastFrame.Clone()
}
