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

const (
	DefaultAPIListen = "127.0.0.1:7498"
	DefaultRateLimit = 20
)

type Service struct {
	APIListen      string   `toml:"api_listen,omitempty" validate:"omitempty,hostname_port"`
	StateFile      string   `toml:"state_file,omitempty"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
	AllowedIPs     []string `toml:"allowed_ips,omitempty"`
	RateLimit      int      `toml:"rate_limit,omitempty" validate:"omitempty,min=1"`

	// ErrorReportingDSN enables Sentry error reporting when set.
	ErrorReportingDSN string `toml:"error_reporting_dsn,omitempty" validate:"omitempty,url"`
}

type Assets struct {
	Watch   *bool  `toml:"watch,omitempty"`
	FontDir string `toml:"font_dir,omitempty" validate:"omitempty,excludes=.."`
	IconDir string `toml:"icon_dir,omitempty" validate:"omitempty,excludes=.."`
}

func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIListen == "" {
		return DefaultAPIListen
	}
	return c.vals.Service.APIListen
}

// AllowedIPs lists the addresses and CIDRs allowed to use the API. Empty
// allows everyone.
func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.AllowedIPs
}

func (c *Instance) ErrorReportingDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.ErrorReportingDSN
}

// AllowedOrigins lists extra CORS origins for browser dashboards.
func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.AllowedOrigins
}

// RateLimit is the sustained API request rate per second.
func (c *Instance) RateLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.RateLimit == 0 {
		return DefaultRateLimit
	}
	return c.vals.Service.RateLimit
}

// StatePath returns the scene state file. Relative paths resolve against
// dataDir.
func (c *Instance) StatePath(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolvePath(dataDir, c.vals.Service.StateFile, StateFile)
}

func (c *Instance) FontDir(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolvePath(dataDir, c.vals.Assets.FontDir, FontsDir)
}

func (c *Instance) IconDir(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolvePath(dataDir, c.vals.Assets.IconDir, IconsDir)
}

// WatchAssets reports whether asset directories are watched for changes.
// Defaults to true.
func (c *Instance) WatchAssets() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Assets.Watch == nil {
		return true
	}
	return *c.vals.Assets.Watch
}
