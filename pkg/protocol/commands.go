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

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/compositor"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
)

// Command is one device operation. The set is closed; see the types below.
type Command interface {
	command()
}

// FrameCommand sends a composed frame. The frame's size must match its
// orientation exactly.
type FrameCommand struct {
	Frame *compositor.Frame
}

// FillCommand paints the whole panel one color.
type FillCommand struct {
	Color       scene.Color
	Orientation scene.Orientation
}

// PixelCommand shows a single pixel on an otherwise black frame. Anything
// on the panel before, background included, is replaced.
type PixelCommand struct {
	X           int
	Y           int
	Color       scene.Color
	Orientation scene.Orientation
}

// TestPatternCommand shows a red/green gradient over a fixed blue.
type TestPatternCommand struct {
	Orientation scene.Orientation
}

// ClearCommand is a fill with black.
type ClearCommand struct {
	Orientation scene.Orientation
}

// OrientationCommand switches the panel between landscape and portrait
// scanning.
type OrientationCommand struct {
	Orientation scene.Orientation
}

// KeepAliveCommand keeps the panel from dropping back to its demo screen.
type KeepAliveCommand struct{}

// BacklightCommand drives the LED strip.
type BacklightCommand struct {
	Theme     Theme
	Intensity int
	Speed     int
}

func (FrameCommand) command()       {}
func (FillCommand) command()        {}
func (PixelCommand) command()       {}
func (TestPatternCommand) command() {}
func (ClearCommand) command()       {}
func (OrientationCommand) command() {}
func (KeepAliveCommand) command()   {}
func (BacklightCommand) command()   {}

// Theme is an LED animation.
type Theme uint8

const (
	ThemeRainbow    Theme = 0x01
	ThemeBreathing  Theme = 0x02
	ThemeColorCycle Theme = 0x03
	ThemeOff        Theme = 0x04
	ThemeAuto       Theme = 0x05
)

// Backlight intensity and speed share the same range.
const (
	LevelMin     = 1
	LevelMax     = 5
	LevelDefault = 3
)

var themeNames = map[Theme]string{
	ThemeRainbow:    "rainbow",
	ThemeBreathing:  "breathing",
	ThemeColorCycle: "color_cycle",
	ThemeOff:        "off",
	ThemeAuto:       "auto",
}

func (t Theme) String() string {
	if name, ok := themeNames[t]; ok {
		return name
	}
	return "theme(" + strconv.Itoa(int(t)) + ")"
}

func (t Theme) Valid() bool {
	_, ok := themeNames[t]
	return ok
}

func (t Theme) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: backlight theme %d", ErrEncoding, t)
	}
	return []byte(t.String()), nil
}

func (t *Theme) UnmarshalText(text []byte) error {
	parsed, err := ParseTheme(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTheme accepts a theme name or its numeric code.
func ParseTheme(s string) (Theme, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t, name := range themeNames {
		if name == s {
			return t, nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && Theme(n).Valid() {
		return Theme(n), nil
	}
	return 0, fmt.Errorf("unknown backlight theme: %q", s)
}
