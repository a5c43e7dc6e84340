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

package scene

import (
	"fmt"
	"strconv"
)

// Native panel raster, landscape.
const (
	NativeWidth  = 320
	NativeHeight = 170
)

// Orientation is the panel rotation in degrees, clockwise.
type Orientation int

const (
	Rotate0   Orientation = 0
	Rotate90  Orientation = 90
	Rotate180 Orientation = 180
	Rotate270 Orientation = 270
)

// Orientations lists every supported orientation.
var Orientations = []Orientation{Rotate0, Rotate90, Rotate180, Rotate270}

func (o Orientation) Valid() bool {
	switch o {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	default:
		return false
	}
}

// Portrait reports whether the axes are swapped relative to the panel.
func (o Orientation) Portrait() bool {
	return o == Rotate90 || o == Rotate270
}

// Size returns the frame width and height for the orientation.
func (o Orientation) Size() (width, height int) {
	if o.Portrait() {
		return NativeHeight, NativeWidth
	}
	return NativeWidth, NativeHeight
}

func (o Orientation) String() string {
	return strconv.Itoa(int(o))
}

// ParseOrientation accepts degree values plus "landscape" and "portrait".
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "landscape":
		return Rotate0, nil
	case "portrait":
		return Rotate90, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Orientation(n).Valid() {
		return 0, fmt.Errorf("invalid orientation: %q", s)
	}
	return Orientation(n), nil
}
