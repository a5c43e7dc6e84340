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

package service

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/config"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/controller"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/testing/mocks"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/transport"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type ports struct {
	opened map[string]*mocks.MockSerialPort
	bauds  map[string]int
	mu     syncutil.Mutex
}

func (p *ports) factory(path string, mode *serial.Mode) (transport.Port, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	port := mocks.NewMockSerialPort()
	p.opened[path] = port
	p.bauds[path] = mode.BaudRate
	return port, nil
}

func (p *ports) get(path string) (*mocks.MockSerialPort, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened[path], p.bauds[path]
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func newConfig(t *testing.T, fs afero.Fs, backlight bool) *config.Instance {
	t.Helper()
	watch := false
	defaults := config.BaseDefaults
	defaults.Service.APIListen = freeAddr(t)
	defaults.Assets.Watch = &watch
	defaults.Backlight.Enabled = &backlight
	defaults.Backlight.Theme = "breathing"
	cfg, err := config.NewConfig(fs, "/config", defaults)
	require.NoError(t, err)
	return cfg
}

func TestStart(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := newConfig(t, fs, true)
	p := &ports{opened: map[string]*mocks.MockSerialPort{}, bauds: map[string]int{}}

	stop, done, err := Start(cfg, Options{Fs: fs, PortFactory: p.factory, DataDir: "/data"})
	require.NoError(t, err)

	c := client.New(cfg.APIListen())
	require.Eventually(t, func() bool {
		_, err := c.Do(context.Background(), http.MethodGet, "/api/display", nil)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	display, baud := p.get(config.DefaultDisplayPort)
	require.NotNil(t, display)
	assert.Equal(t, transport.DefaultBaudRate, baud)

	led, baud := p.get(config.DefaultBacklightPort)
	require.NotNil(t, led)
	assert.Equal(t, transport.BacklightBaudRate, baud)

	framePackets := len(protocol.ImagePackets(make([]byte, protocol.FrameBytes)))
	require.Eventually(t, func() bool {
		return len(display.Written()) >= 1+framePackets && len(led.Written()) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, bytes.HasPrefix(display.Written()[0], []byte{0x55, 0xa1, 0xf1}))
	assert.Equal(t, byte(0xfa), led.Written()[0][0])

	exists, err := afero.DirExists(fs, "/data/fonts")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, stop())
	select {
	case <-done:
	default:
		t.Fatal("done not closed after stop")
	}
	assert.True(t, display.IsClosed())
	assert.True(t, led.IsClosed())
}

func TestStart_BacklightDisabled(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := newConfig(t, fs, false)
	p := &ports{opened: map[string]*mocks.MockSerialPort{}, bauds: map[string]int{}}

	stop, _, err := Start(cfg, Options{Fs: fs, PortFactory: p.factory, DataDir: "/data"})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, stop()) })

	c := client.New(cfg.APIListen())
	require.Eventually(t, func() bool {
		_, err := c.Do(context.Background(), http.MethodGet, "/api/display", nil)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	led, _ := p.get(config.DefaultBacklightPort)
	assert.Nil(t, led)

	_, err = c.Do(context.Background(), http.MethodPut, "/api/backlight",
		map[string]any{"theme": "rainbow", "intensity": 3, "speed": 3})
	require.ErrorIs(t, err, client.ErrRequestFailed)
	assert.Contains(t, err.Error(), "503")
}

func TestStart_CorruptState(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := newConfig(t, fs, false)
	require.NoError(t, afero.WriteFile(fs, cfg.StatePath("/data"), []byte("not = [toml"), 0o600))

	_, _, err := Start(cfg, Options{Fs: fs, PortFactory: (&ports{}).factory, DataDir: "/data"})
	require.Error(t, err)
}

func TestBacklightFromConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := newConfig(t, fs, true)

	b := backlightFromConfig(cfg)
	assert.Equal(t, protocol.ThemeBreathing, b.Theme)
	assert.Equal(t, controller.DefaultBacklight.Intensity, b.Intensity)
	assert.Equal(t, controller.DefaultBacklight.Speed, b.Speed)

	cfg.SetBacklightSetting("off", 1, 5)
	assert.Equal(t, controller.Backlight{Theme: protocol.ThemeOff, Intensity: 1, Speed: 5}, backlightFromConfig(cfg))

	cfg.SetBacklightSetting("", 0, 0)
	assert.Equal(t, controller.DefaultBacklight, backlightFromConfig(cfg))

	cfg.SetBacklightSetting("disco", 2, 2)
	assert.Equal(t, controller.DefaultBacklight, backlightFromConfig(cfg))
}
