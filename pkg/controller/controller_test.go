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
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/assets"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/compositor"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/testing/mocks"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/transport"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var red = scene.RGB(255, 0, 0)

// recorder is a Submitter that hands every message to the test.
type recorder struct {
	msgs chan *protocol.Message
	err  error
}

func newRecorder() *recorder {
	return &recorder{msgs: make(chan *protocol.Message, 64)}
}

func (r *recorder) Submit(_ context.Context, msg *protocol.Message) error {
	cp := *msg
	r.msgs <- &cp
	return r.err
}

func (r *recorder) next(t *testing.T) *protocol.Message {
	t.Helper()
	select {
	case msg := <-r.msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case msg := <-r.msgs:
		t.Fatalf("unexpected %s message", msg.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

type fixture struct {
	ctrl    *Controller
	store   *scene.Store
	display *recorder
	light   *recorder
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	store := scene.NewStore(fs, "/state/scene.toml")
	lib := assets.NewLibrary(fs, "/fonts", "/icons")
	clock := clockwork.NewFakeClock()
	f := &fixture{
		store:   store,
		display: newRecorder(),
		light:   newRecorder(),
		clock:   clock,
	}
	f.ctrl = New(store, compositor.New(fs, lib), protocol.NewCodec(), f.display, f.light, Options{Clock: clock})
	return f
}

func boundElement(ref string) scene.Element {
	return scene.Element{
		ID:        ref,
		Source:    scene.SourceBound,
		SourceRef: ref,
		Format:    "{value}",
		Position:  scene.Point{X: 200, Y: 100},
		Font:      scene.Font{Size: 16},
		Color:     scene.White,
	}
}

func pending(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestController_SetPixel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.ctrl.SetPixel(context.Background(), 10, 20, red))

	msg := f.display.next(t)
	assert.Equal(t, "pixel", msg.Kind)
	assert.Equal(t, protocol.KeyFrame, msg.SupersedeKey)
	assert.Len(t, msg.Packets, 27)
	assert.Equal(t, ModePrimitive, f.ctrl.Mode())

	snap := f.ctrl.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, compositor.RGB565(255, 0, 0), snap.RGB565At(10, 20))
	assert.Equal(t, uint16(0), snap.RGB565At(11, 20))
}

func TestController_SetPixelStartsFromBlack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.FillDisplay(ctx, scene.RGB(0, 0, 255)))
	require.NoError(t, f.ctrl.SetPixel(ctx, 0, 0, red))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, compositor.RGB565(255, 0, 0), snap.RGB565At(0, 0))
	assert.Equal(t, uint16(0), snap.RGB565At(1, 0))
}

func TestController_SetPixelReplacesBackground(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.SetBackground(scene.Rotate0, scene.Background{Color: &red}))
	require.NoError(t, f.ctrl.Redraw(ctx))
	f.display.next(t)
	require.Equal(t, compositor.RGB565(255, 0, 0), f.ctrl.Snapshot().RGB565At(100, 100))

	require.NoError(t, f.ctrl.SetPixel(ctx, 5, 5, scene.White))
	msg := f.display.next(t)
	assert.Equal(t, "pixel", msg.Kind)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, msg.Packets[0][protocol.HeaderSize:protocol.HeaderSize+4])

	snap := f.ctrl.Snapshot()
	assert.Equal(t, uint16(0xffff), snap.RGB565At(5, 5))
	assert.Equal(t, uint16(0), snap.RGB565At(100, 100))
}

func TestController_SceneReplacesPrimitive(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.SetPixel(ctx, 10, 20, red))
	f.display.next(t)

	_, err := f.ctrl.AddText(scene.Element{
		ID:       "greeting",
		Source:   scene.SourceStatic,
		Format:   "hi",
		Position: scene.Point{X: 200, Y: 100},
		Font:     scene.Font{Size: 16},
		Color:    scene.White,
	})
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Redraw(ctx))

	msg := f.display.next(t)
	assert.Equal(t, "frame", msg.Kind)
	assert.Equal(t, ModeScene, f.ctrl.Mode())
	assert.Equal(t, uint16(0), f.ctrl.Snapshot().RGB565At(10, 20))
}

func TestController_SetPixelOutOfBounds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.ctrl.SetPixel(context.Background(), 320, 0, red)
	require.ErrorIs(t, err, protocol.ErrEncoding)
	assert.Equal(t, ModeScene, f.ctrl.Mode())
	assert.Nil(t, f.ctrl.Snapshot())
	f.display.none(t)
}

func TestController_PrimitivesTable(t *testing.T) {
	t.Parallel()

	pattern, err := protocol.TestPattern(scene.Rotate0)
	require.NoError(t, err)

	tests := []struct {
		run  func(ctx context.Context, c *Controller) error
		name string
		kind string
		want uint16
	}{
		{
			name: "fill",
			run: func(ctx context.Context, c *Controller) error {
				return c.FillDisplay(ctx, scene.RGB(0, 255, 0))
			},
			kind: "fill",
			want: compositor.RGB565(0, 255, 0),
		},
		{
			name: "clear",
			run:  func(ctx context.Context, c *Controller) error { return c.ClearDisplay(ctx) },
			kind: "clear",
			want: 0,
		},
		{
			name: "test pattern",
			run:  func(ctx context.Context, c *Controller) error { return c.ShowTestPattern(ctx) },
			kind: "test_pattern",
			want: pattern.RGB565At(0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			require.NoError(t, tt.run(context.Background(), f.ctrl))
			assert.Equal(t, tt.kind, f.display.next(t).Kind)
			assert.Equal(t, ModePrimitive, f.ctrl.Mode())
			assert.Equal(t, tt.want, f.ctrl.Snapshot().RGB565At(0, 0))
		})
	}
}

func TestController_SubmitErrorPropagates(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	store := scene.NewStore(fs, "/state/scene.toml")
	display := &mocks.MockSender{}
	display.On("Submit", mock.Anything, mock.Anything).Return(transport.ErrDeviceTimeout)

	c := New(store, compositor.New(fs, assets.NewLibrary(fs, "", "")), protocol.NewCodec(), display, nil, Options{})

	err := c.FillDisplay(context.Background(), red)
	require.ErrorIs(t, err, transport.ErrDeviceTimeout)
	assert.Equal(t, ModeScene, c.Mode())
	assert.Nil(t, c.Snapshot())

	err = c.Redraw(context.Background())
	require.ErrorIs(t, err, transport.ErrDeviceTimeout)
	assert.Nil(t, c.Snapshot())
	display.AssertNumberOfCalls(t, "Submit", 2)
}

func TestController_FailedRedrawKeepsPrimitive(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	store := scene.NewStore(fs, "/state/scene.toml")
	display := &mocks.MockSender{}
	display.On("Submit", mock.Anything, mock.Anything).Return(nil).Once()
	display.On("Submit", mock.Anything, mock.Anything).Return(transport.ErrDeviceTimeout)

	c := New(store, compositor.New(fs, assets.NewLibrary(fs, "", "")), protocol.NewCodec(), display, nil, Options{})
	ctx := context.Background()

	require.NoError(t, c.FillDisplay(ctx, red))
	require.ErrorIs(t, c.Redraw(ctx), transport.ErrDeviceTimeout)

	assert.Equal(t, ModePrimitive, c.Mode())
	assert.Equal(t, compositor.RGB565(255, 0, 0), c.Snapshot().RGB565At(0, 0))
}

func TestController_SetBacklight(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	b := Backlight{Theme: protocol.ThemeBreathing, Intensity: 5, Speed: 1}
	require.NoError(t, f.ctrl.SetBacklight(context.Background(), b))

	msg := f.light.next(t)
	assert.Equal(t, "backlight", msg.Kind)
	assert.Equal(t, []byte{0xfa, 0x02, 0x05, 0x01, 0x02}, msg.Packets[0])
	assert.Equal(t, b, f.ctrl.Backlight())
	f.display.none(t)
}

func TestController_SetBacklightInvalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.ctrl.SetBacklight(context.Background(), Backlight{Theme: protocol.ThemeOff, Intensity: 9, Speed: 1})
	require.ErrorIs(t, err, protocol.ErrEncoding)
	assert.Equal(t, DefaultBacklight, f.ctrl.Backlight())
	f.light.none(t)
}

func TestController_SetBacklightUnconfigured(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	store := scene.NewStore(fs, "/state/scene.toml")
	c := New(store, compositor.New(fs, assets.NewLibrary(fs, "", "")), protocol.NewCodec(), newRecorder(), nil, Options{})

	err := c.SetBacklight(context.Background(), DefaultBacklight)
	require.ErrorIs(t, err, ErrNoBacklight)
}

func TestController_SetOrientation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.SetOrientation(ctx, scene.Rotate90))

	msg := f.display.next(t)
	assert.Equal(t, "orientation", msg.Kind)
	assert.Equal(t, []byte{0x55, 0xa1, 0xf1, 0x02}, msg.Packets[0][:4])
	assert.Equal(t, scene.Rotate90, f.ctrl.Orientation())
	assert.Equal(t, scene.Rotate90, f.store.Orientation())
	assert.True(t, pending(f.store.Changes()))
	assert.False(t, pending(f.ctrl.rescene))

	require.NoError(t, f.ctrl.Redraw(ctx))
	assert.Equal(t, "frame", f.display.next(t).Kind)
	snap := f.ctrl.Snapshot()
	assert.Equal(t, 170, snap.Width)
	assert.Equal(t, 320, snap.Height)
}

func TestController_SetOrientationUnchanged(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.ctrl.SetOrientation(context.Background(), scene.Rotate0))
	assert.Equal(t, "orientation", f.display.next(t).Kind)
	assert.False(t, pending(f.store.Changes()))
	assert.True(t, pending(f.ctrl.rescene))
}

func TestController_SetOrientationSendsOneFrame(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Run(ctx) }()

	assert.Equal(t, "orientation", f.display.next(t).Kind)
	assert.Equal(t, "frame", f.display.next(t).Kind)
	f.display.none(t)

	require.NoError(t, f.ctrl.SetOrientation(ctx, scene.Rotate270))
	assert.Equal(t, "orientation", f.display.next(t).Kind)
	assert.Equal(t, "frame", f.display.next(t).Kind)
	f.display.none(t)

	snap := f.ctrl.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, scene.Rotate270, snap.Orientation)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}
}

func TestController_SetOrientationInvalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.ctrl.SetOrientation(context.Background(), scene.Orientation(45))
	require.ErrorIs(t, err, protocol.ErrEncoding)
	assert.Equal(t, scene.Rotate0, f.ctrl.Orientation())
	f.display.none(t)
}

func TestController_SetOrientationPersistFailure(t *testing.T) {
	t.Parallel()
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	store := scene.NewStore(fs, "/state/scene.toml")
	display := newRecorder()
	c := New(store, compositor.New(fs, assets.NewLibrary(fs, "", "")), protocol.NewCodec(), display, nil, Options{})

	err := c.SetOrientation(context.Background(), scene.Rotate270)
	require.ErrorIs(t, err, scene.ErrPersist)
	assert.Equal(t, scene.Rotate0, c.Orientation())
	display.none(t)
}

func TestController_UpdateValues(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.ctrl.AddText(boundElement("cpu_temp"))
	require.NoError(t, err)

	f.ctrl.UpdateValue("cpu_temp", 42.0)
	assert.True(t, pending(f.ctrl.refresh), "bound value change")

	f.ctrl.UpdateValue("cpu_temp", 42.0)
	assert.False(t, pending(f.ctrl.refresh), "unchanged value")

	f.ctrl.UpdateValues(map[string]any{"gpu_temp": 60.0, "fan": []any{1.0, 2.0}})
	assert.False(t, pending(f.ctrl.refresh), "unbound values")

	v, ok := f.ctrl.Value("gpu_temp")
	assert.True(t, ok)
	assert.InDelta(t, 60.0, v, 0.001)
}

func TestController_Elements(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	id, err := f.ctrl.AddText(boundElement("cpu_temp"))
	require.NoError(t, err)

	format := "{value:.0f}"
	changed, err := f.ctrl.UpdateText(id, scene.Patch{Format: &format})
	require.NoError(t, err)
	assert.True(t, changed)

	els := f.ctrl.ListElements()
	require.Len(t, els, 1)
	assert.Equal(t, format, els[0].Format)

	require.NoError(t, f.ctrl.SetBackground(scene.Rotate0, scene.Background{Color: &red}))
	assert.Equal(t, &red, f.ctrl.Backgrounds()[scene.Rotate0].Color)
	require.NoError(t, f.ctrl.ClearBackground(scene.Rotate0))
	assert.Empty(t, f.ctrl.Backgrounds())

	require.NoError(t, f.ctrl.RemoveText(id))
	require.ErrorIs(t, f.ctrl.RemoveText(id), scene.ErrNotFound)

	_, err = f.ctrl.AddText(boundElement("a"))
	require.NoError(t, err)
	require.NoError(t, f.ctrl.ClearAllText())
	assert.Empty(t, f.ctrl.ListElements())
}

func TestController_Run(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Run(ctx) }()

	assert.Equal(t, "orientation", f.display.next(t).Kind)
	assert.Equal(t, "frame", f.display.next(t).Kind)
	assert.Equal(t, "backlight", f.light.next(t).Kind)

	_, err := f.ctrl.AddText(boundElement("cpu_temp"))
	require.NoError(t, err)
	assert.Equal(t, "frame", f.display.next(t).Kind)

	f.ctrl.UpdateValue("cpu_temp", 50.0)
	assert.Equal(t, "frame", f.display.next(t).Kind)

	f.ctrl.UpdateValue("unbound", 1.0)
	f.display.none(t)

	require.NoError(t, f.ctrl.FillDisplay(ctx, red))
	assert.Equal(t, "fill", f.display.next(t).Kind)

	// values keep updating without leaving primitive mode
	f.ctrl.UpdateValue("cpu_temp", 60.0)
	f.display.none(t)
	assert.Equal(t, ModePrimitive, f.ctrl.Mode())

	f.ctrl.RequestRedraw()
	assert.Equal(t, "frame", f.display.next(t).Kind)

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(DefaultKeepAliveInterval)
	msg := f.display.next(t)
	assert.Equal(t, "keepalive", msg.Kind)
	assert.Equal(t, protocol.KeyKeepAlive, msg.SupersedeKey)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}
}

func TestController_Notifications(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	store := scene.NewStore(fs, "/state/scene.toml")
	notifications := make(chan Notification, 1)
	c := New(store, compositor.New(fs, assets.NewLibrary(fs, "", "")), protocol.NewCodec(), newRecorder(), nil,
		Options{Notifications: notifications})
	ctx := context.Background()

	require.NoError(t, c.ShowTestPattern(ctx))
	assert.Equal(t, Notification{Kind: "test_pattern", Mode: "primitive", Orientation: scene.Rotate0}, <-notifications)

	// full channel drops instead of blocking
	require.NoError(t, c.Redraw(ctx))
	require.NoError(t, c.ClearDisplay(ctx))
	assert.Equal(t, Notification{Kind: "frame", Mode: "scene", Orientation: scene.Rotate0}, <-notifications)
	assert.Empty(t, notifications)
}
