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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCfgDir = "/config/zaparoo-lcd"

func writeConfig(t *testing.T, fs afero.Fs, content string) string {
	t.Helper()
	cfgPath := filepath.Join(testCfgDir, CfgFile)
	require.NoError(t, afero.WriteFile(fs, cfgPath, []byte(content), 0o600))
	return cfgPath
}

func TestNewConfig_WritesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	t.Setenv(CfgEnv, "")

	cfg, err := NewConfig(fs, testCfgDir, BaseDefaults)
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, filepath.Join(testCfgDir, CfgFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_schema = 1")
	assert.Contains(t, string(data), DefaultDisplayPort)

	assert.Equal(t, DefaultDisplayPort, cfg.DisplayPort())
	assert.Equal(t, DefaultBacklightPort, cfg.BacklightPort())
	assert.True(t, cfg.BacklightEnabled())
	assert.False(t, cfg.RequireAck())
	assert.Zero(t, cfg.AckTimeout())
	assert.Zero(t, cfg.KeepAliveInterval())
	assert.Equal(t, DefaultAPIListen, cfg.APIListen())
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit())
	assert.True(t, cfg.WatchAssets())
}

func TestNewConfig_EnvOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	t.Setenv(CfgEnv, "/elsewhere/lcd.toml")

	cfg, err := NewConfig(fs, testCfgDir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/lcd.toml", cfg.Path())

	exists, err := afero.Exists(fs, "/elsewhere/lcd.toml")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoad_PreservesDefaultsForMissingFields(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfgPath := writeConfig(t, fs, fmt.Sprintf("config_schema = %d\n", SchemaVersion))

	cfg := &Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     BaseDefaults,
		defaults: BaseDefaults,
	}
	require.NoError(t, cfg.Load())

	assert.Equal(t, DefaultDisplayPort, cfg.DisplayPort())
	assert.Equal(t, DefaultBacklightPort, cfg.BacklightPort())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfgPath := writeConfig(t, fs, fmt.Sprintf(`config_schema = %d
debug_logging = true

[display]
port = "/dev/ttyS3"
baud_rate = 230400
ack_timeout = "500ms"
keepalive_interval = "3s"
require_ack = true

[backlight]
enabled = false
theme = "breathing"
intensity = 5
speed = 1

[service]
api_listen = "0.0.0.0:9000"
rate_limit = 5
`, SchemaVersion))

	cfg := &Instance{fs: fs, cfgPath: cfgPath, vals: BaseDefaults, defaults: BaseDefaults}
	require.NoError(t, cfg.Load())

	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, "/dev/ttyS3", cfg.DisplayPort())
	assert.Equal(t, 230400, cfg.DisplayBaudRate())
	assert.Equal(t, 500*time.Millisecond, cfg.AckTimeout())
	assert.Equal(t, 3*time.Second, cfg.KeepAliveInterval())
	assert.True(t, cfg.RequireAck())
	assert.False(t, cfg.BacklightEnabled())

	theme, intensity, speed := cfg.BacklightSetting()
	assert.Equal(t, "breathing", theme)
	assert.Equal(t, 5, intensity)
	assert.Equal(t, 1, speed)

	assert.Equal(t, "0.0.0.0:9000", cfg.APIListen())
	assert.Equal(t, 5, cfg.RateLimit())
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "schema mismatch",
			content: "config_schema = 99\n",
			errMsg:  "schema version mismatch",
		},
		{
			name:    "bad toml",
			content: "config_schema = \n",
			errMsg:  "failed to unmarshal config",
		},
		{
			name:    "bad duration",
			content: "config_schema = 1\n[display]\nport = \"/dev/x\"\nack_timeout = \"soon\"\n",
			errMsg:  "acktimeout must be a valid duration",
		},
		{
			name:    "bad theme",
			content: "config_schema = 1\n[backlight]\ntheme = \"disco\"\n",
			errMsg:  `theme "disco" not found`,
		},
		{
			name:    "intensity out of range",
			content: "config_schema = 1\n[backlight]\nintensity = 7\n",
			errMsg:  "intensity must be at most 5",
		},
		{
			name:    "empty display port",
			content: "config_schema = 1\n[display]\nport = \"\"\n",
			errMsg:  "port is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			cfgPath := writeConfig(t, fs, tt.content)

			cfg := &Instance{fs: fs, cfgPath: cfgPath, vals: BaseDefaults, defaults: BaseDefaults}
			err := cfg.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, DefaultDisplayPort, cfg.DisplayPort(), "values unchanged on failure")
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfgPath := writeConfig(t, fs, "config_schema = 1\n")
	cfg := &Instance{fs: fs, cfgPath: cfgPath, vals: BaseDefaults, defaults: BaseDefaults}
	require.NoError(t, cfg.Load())

	cfg.SetBacklightSetting("color_cycle", 2, 4)
	require.NoError(t, cfg.Save())

	data, err := afero.ReadFile(fs, cfgPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "enabled", "nil pointers are omitted")

	reloaded := &Instance{fs: fs, cfgPath: cfgPath, vals: BaseDefaults, defaults: BaseDefaults}
	require.NoError(t, reloaded.Load())
	theme, intensity, speed := reloaded.BacklightSetting()
	assert.Equal(t, "color_cycle", theme)
	assert.Equal(t, 2, intensity)
	assert.Equal(t, 4, speed)
}

func TestSave_NoPath(t *testing.T) {
	t.Parallel()

	cfg := &Instance{fs: afero.NewMemMapFs()}
	require.Error(t, cfg.Save())
	require.Error(t, cfg.Load())
}

func TestBacklightEnabled(t *testing.T) {
	t.Parallel()

	enabled := true
	disabled := false

	tests := []struct {
		enabled  *bool
		name     string
		port     string
		expected bool
	}{
		{name: "nil with port", port: "/dev/ttyUSB0", expected: true},
		{name: "nil without port", port: "", expected: false},
		{name: "explicit true", enabled: &enabled, port: "/dev/ttyUSB0", expected: true},
		{name: "explicit true without port", enabled: &enabled, port: "", expected: false},
		{name: "explicit false", enabled: &disabled, port: "/dev/ttyUSB0", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Instance{vals: Values{Backlight: Backlight{Enabled: tt.enabled, Port: tt.port}}}
			assert.Equal(t, tt.expected, cfg.BacklightEnabled())
		})
	}
}
