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

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

var AppVersion = "DEVELOPMENT"

const (
	AppName   = "zaparoo-lcd"
	LogFile   = "lcdd.log"
	CfgFile   = "config.toml"
	FontsDir  = "fonts"
	IconsDir  = "icons"
	StateFile = "scene.toml"

	// APIRequestTimeout bounds a whole API call, including waiting for the
	// panel to take a full frame.
	APIRequestTimeout = 30 * time.Second
)

// DefaultConfigDir is the XDG config directory for the daemon.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDataDir holds logs, the scene state and the asset directories.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
