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

	"github.com/ZaparooProject/zaparoo-lcd/pkg/compositor"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
)

// Raster reorders a frame into the panel's scan order. Landscape frames go
// row by row. Portrait frames go column by column starting from the right
// edge. 180 and 270 degrees are the 0 and 90 degree rasters reversed pixel
// for pixel.
func Raster(f *compositor.Frame) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrEncoding)
	}
	if !f.Orientation.Valid() {
		return nil, fmt.Errorf("%w: orientation %d", ErrEncoding, f.Orientation)
	}
	w, h := f.Orientation.Size()
	if f.Width != w || f.Height != h || len(f.Pix) != FrameBytes {
		return nil, fmt.Errorf(
			"%w: frame is %dx%d with %d bytes, want %dx%d with %d bytes",
			ErrEncoding, f.Width, f.Height, len(f.Pix), w, h, FrameBytes,
		)
	}

	out := make([]byte, FrameBytes)
	if f.Orientation.Portrait() {
		i := 0
		for x := w - 1; x >= 0; x-- {
			for y := 0; y < h; y++ {
				src := (y*w + x) * 2
				out[i] = f.Pix[src]
				out[i+1] = f.Pix[src+1]
				i += 2
			}
		}
	} else {
		copy(out, f.Pix)
	}

	if f.Orientation == scene.Rotate180 || f.Orientation == scene.Rotate270 {
		reversePixels(out)
	}
	return out, nil
}

func reversePixels(b []byte) {
	for i, j := 0, len(b)-2; i < j; i, j = i+2, j-2 {
		b[i], b[j] = b[j], b[i]
		b[i+1], b[j+1] = b[j+1], b[i+1]
	}
}

func newFrame(o scene.Orientation) (*compositor.Frame, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: orientation %d", ErrEncoding, o)
	}
	return compositor.NewFrame(o), nil
}

// PixelFrame returns a black frame with one pixel set.
func PixelFrame(cmd PixelCommand) (*compositor.Frame, error) {
	f, err := newFrame(cmd.Orientation)
	if err != nil {
		return nil, err
	}

	if cmd.X < 0 || cmd.Y < 0 || cmd.X >= f.Width || cmd.Y >= f.Height {
		return nil, fmt.Errorf(
			"%w: pixel (%d,%d) outside %dx%d",
			ErrEncoding, cmd.X, cmd.Y, f.Width, f.Height,
		)
	}
	f.SetRGB565(cmd.X, cmd.Y, compositor.RGB565(cmd.Color.R, cmd.Color.G, cmd.Color.B))
	return f, nil
}

// TestPattern renders the diagnostic gradient: red rises left to right,
// green top to bottom, blue is fixed at half.
func TestPattern(o scene.Orientation) (*compositor.Frame, error) {
	f, err := newFrame(o)
	if err != nil {
		return nil, err
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r := uint8(x * 255 / f.Width)
			g := uint8(y * 255 / f.Height)
			f.SetRGB565(x, y, compositor.RGB565(r, g, 128))
		}
	}
	return f, nil
}
