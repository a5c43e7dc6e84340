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

package config

import "time"

const (
	DefaultDisplayPort   = "/dev/ttyACM0"
	DefaultBacklightPort = "/dev/ttyUSB0"
)

type Display struct {
	Port              string `toml:"port" validate:"required"`
	AckTimeout        string `toml:"ack_timeout,omitempty" validate:"duration"`
	KeepAliveInterval string `toml:"keepalive_interval,omitempty" validate:"duration"`
	BaudRate          int    `toml:"baud_rate,omitempty" validate:"omitempty,min=1200"`
	RequireAck        bool   `toml:"require_ack"`
}

type Backlight struct {
	Enabled   *bool  `toml:"enabled,omitempty"`
	Port      string `toml:"port,omitempty"`
	Theme     string `toml:"theme,omitempty" validate:"theme"`
	BaudRate  int    `toml:"baud_rate,omitempty" validate:"omitempty,min=1200"`
	Intensity int    `toml:"intensity,omitempty" validate:"omitempty,min=1,max=5"`
	Speed     int    `toml:"speed,omitempty" validate:"omitempty,min=1,max=5"`
}

func (c *Instance) DisplayPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.Port
}

// DisplayBaudRate returns 0 when unset so the transport default applies.
func (c *Instance) DisplayBaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.BaudRate
}

func (c *Instance) RequireAck() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.RequireAck
}

// AckTimeout returns 0 when unset. Load has already validated the value.
func (c *Instance) AckTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, _ := time.ParseDuration(c.vals.Display.AckTimeout)
	return d
}

// KeepAliveInterval returns 0 when unset.
func (c *Instance) KeepAliveInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, _ := time.ParseDuration(c.vals.Display.KeepAliveInterval)
	return d
}

func (c *Instance) BacklightEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Backlight.Enabled == nil {
		return c.vals.Backlight.Port != ""
	}
	return *c.vals.Backlight.Enabled && c.vals.Backlight.Port != ""
}

func (c *Instance) BacklightPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Backlight.Port
}

func (c *Instance) BacklightBaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Backlight.BaudRate
}

// BacklightSetting returns the saved theme, intensity and speed. Unset
// fields are empty or zero.
func (c *Instance) BacklightSetting() (theme string, intensity, speed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.vals.Backlight
	return b.Theme, b.Intensity, b.Speed
}

// SetBacklightSetting records the last backlight setting. Call Save to
// persist it.
func (c *Instance) SetBacklightSetting(theme string, intensity, speed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Backlight.Theme = theme
	c.vals.Backlight.Intensity = intensity
	c.vals.Backlight.Speed = speed
}
