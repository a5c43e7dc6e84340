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

package controller

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/rs/zerolog/log"
)

// ErrNoBacklight is returned by SetBacklight when no LED port is configured.
var ErrNoBacklight = errors.New("no backlight channel configured")

// AddText adds an element. The redraw happens on the controller loop.
func (c *Controller) AddText(el scene.Element) (string, error) {
	return c.store.Add(el) //nolint:wrapcheck // store errors are sentinels
}

// UpdateText patches an element and reports whether anything changed.
func (c *Controller) UpdateText(id string, patch scene.Patch) (bool, error) {
	return c.store.Update(id, patch) //nolint:wrapcheck // store errors are sentinels
}

// RemoveText deletes an element.
func (c *Controller) RemoveText(id string) error {
	return c.store.Remove(id) //nolint:wrapcheck // store errors are sentinels
}

// ClearAllText deletes every element, keeping backgrounds.
func (c *Controller) ClearAllText() error {
	return c.store.ClearAll() //nolint:wrapcheck // store errors are sentinels
}

// ListElements returns the elements in z-order.
func (c *Controller) ListElements() []scene.Element {
	return c.store.List()
}

// Backgrounds returns the configured background of every orientation.
func (c *Controller) Backgrounds() map[scene.Orientation]scene.Background {
	return c.store.Backgrounds()
}

// SetBackground sets the background of orientation o.
func (c *Controller) SetBackground(o scene.Orientation, bg scene.Background) error {
	return c.store.SetBackground(o, bg) //nolint:wrapcheck // store errors are sentinels
}

// ClearBackground resets orientation o to black.
func (c *Controller) ClearBackground(o scene.Orientation) error {
	return c.store.ClearBackground(o) //nolint:wrapcheck // store errors are sentinels
}

// UpdateValue stores the current value of one bound source.
func (c *Controller) UpdateValue(ref string, value any) {
	c.UpdateValues(map[string]any{ref: value})
}

// UpdateValues merges resolved source values. A redraw is scheduled when a
// bound element shows one of the changed sources and the panel is in scene
// mode; value updates never replace a primitive drawing.
func (c *Controller) UpdateValues(values map[string]any) {
	changed := make(map[string]bool, len(values))

	c.mu.Lock()
	for ref, v := range values {
		if old, ok := c.values[ref]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		c.values[ref] = v
		changed[ref] = true
	}
	c.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	for _, el := range c.store.List() {
		if el.Source == scene.SourceBound && changed[el.SourceRef] {
			c.kick(c.refresh)
			return
		}
	}
}

// Value returns the current value of a bound source.
func (c *Controller) Value(ref string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[ref]
	return v, ok
}

// FillDisplay paints the panel one color.
func (c *Controller) FillDisplay(ctx context.Context, color scene.Color) error {
	return c.primitive(ctx, func(o scene.Orientation) protocol.Command {
		return protocol.FillCommand{Color: color, Orientation: o}
	})
}

// SetPixel shows one pixel on a black panel.
func (c *Controller) SetPixel(ctx context.Context, x, y int, color scene.Color) error {
	return c.primitive(ctx, func(o scene.Orientation) protocol.Command {
		return protocol.PixelCommand{X: x, Y: y, Color: color, Orientation: o}
	})
}

// ShowTestPattern shows the diagnostic gradient.
func (c *Controller) ShowTestPattern(ctx context.Context) error {
	return c.primitive(ctx, func(o scene.Orientation) protocol.Command {
		return protocol.TestPatternCommand{Orientation: o}
	})
}

// ClearDisplay blanks the panel.
func (c *Controller) ClearDisplay(ctx context.Context) error {
	return c.primitive(ctx, func(o scene.Orientation) protocol.Command {
		return protocol.ClearCommand{Orientation: o}
	})
}

// primitive sends a host rendered drawing that bypasses the compositor and
// switches to primitive mode. Mode and snapshot only change once the panel
// accepted the frame.
func (c *Controller) primitive(
	ctx context.Context,
	build func(o scene.Orientation) protocol.Command,
) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	o := c.Orientation()
	cmd := build(o)
	frame, err := protocol.RenderFrame(cmd)
	if err != nil {
		return err //nolint:wrapcheck // codec errors are sentinels
	}
	msg, err := c.codec.Encode(cmd)
	if err != nil {
		return err //nolint:wrapcheck // codec errors are sentinels
	}

	log.Debug().Str("kind", msg.Kind).Msg("sending primitive")
	if err := c.display.Submit(ctx, &msg); err != nil {
		return err //nolint:wrapcheck // transport errors are sentinels
	}

	c.mu.Lock()
	c.mode = ModePrimitive
	c.lastFrame = frame
	c.mu.Unlock()
	c.publish(msg.Kind, ModePrimitive, o)
	return nil
}

// SetBacklight changes the LED strip. It never touches the display.
func (c *Controller) SetBacklight(ctx context.Context, b Backlight) error {
	if c.backlight == nil {
		return ErrNoBacklight
	}
	return c.sendBacklight(ctx, b)
}

func (c *Controller) sendBacklight(ctx context.Context, b Backlight) error {
	if c.backlight == nil {
		return nil
	}
	msg, err := c.codec.Encode(protocol.BacklightCommand{
		Theme:     b.Theme,
		Intensity: b.Intensity,
		Speed:     b.Speed,
	})
	if err != nil {
		return err //nolint:wrapcheck // codec errors are sentinels
	}
	if err := c.backlight.Submit(ctx, &msg); err != nil {
		return err //nolint:wrapcheck // transport errors are sentinels
	}

	c.mu.Lock()
	c.light = b
	c.mu.Unlock()

	log.Info().
		Str("theme", b.Theme.String()).
		Int("intensity", b.Intensity).
		Int("speed", b.Speed).
		Msg("backlight set")
	return nil
}

// SetOrientation persists o, switches the panel's scan mode and schedules a
// scene redraw in the new geometry. A changed orientation reaches the redraw
// loop through the store's change signal.
func (c *Controller) SetOrientation(ctx context.Context, o scene.Orientation) error {
	if !o.Valid() {
		return fmt.Errorf("%w: orientation %d", protocol.ErrEncoding, o)
	}

	c.opMu.Lock()
	c.mu.Lock()
	prev := c.orientation
	c.orientation = o
	c.mu.Unlock()

	if err := c.store.SetOrientation(o); err != nil {
		c.mu.Lock()
		c.orientation = prev
		c.mu.Unlock()
		c.opMu.Unlock()
		return err //nolint:wrapcheck // store errors are sentinels
	}
	err := c.sendOrientation(ctx, o)
	c.opMu.Unlock()

	log.Info().Int("orientation", int(o)).Msg("orientation changed")
	if prev == o {
		c.kick(c.rescene)
	}
	return err
}

func (c *Controller) sendOrientation(ctx context.Context, o scene.Orientation) error {
	msg, err := c.codec.Encode(protocol.OrientationCommand{Orientation: o})
	if err != nil {
		return err //nolint:wrapcheck // codec errors are sentinels
	}
	return c.display.Submit(ctx, &msg) //nolint:wrapcheck // transport errors are sentinels
}
