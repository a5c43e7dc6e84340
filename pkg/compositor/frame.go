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

package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
)

// Frame is a full screen image in the panel's native pixel format: RGB565,
// big-endian, row-major in the coordinates of its orientation.
type Frame struct {
	Pix         []byte
	Width       int
	Height      int
	Orientation scene.Orientation
}

// NewFrame returns a black frame sized for o.
func NewFrame(o scene.Orientation) *Frame {
	w, h := o.Size()
	return &Frame{
		Pix:         make([]byte, w*h*2),
		Width:       w,
		Height:      h,
		Orientation: o,
	}
}

// RGB565 packs an 8 bit per channel color.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// ExpandRGB565 unpacks v, replicating the high bits into the low ones.
func ExpandRGB565(v uint16) color.RGBA {
	r := uint8(v>>11) & 0x1f
	g := uint8(v>>5) & 0x3f
	b := uint8(v) & 0x1f
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xff,
	}
}

func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *Frame) At(x, y int) color.Color {
	if !image.Pt(x, y).In(f.Bounds()) {
		return color.RGBA{}
	}
	return ExpandRGB565(f.RGB565At(x, y))
}

// RGB565At returns the raw pixel value. x and y must be in bounds.
func (f *Frame) RGB565At(x, y int) uint16 {
	i := (y*f.Width + x) * 2
	return uint16(f.Pix[i])<<8 | uint16(f.Pix[i+1])
}

// SetRGB565 stores a raw pixel value. Out of bounds writes are ignored.
func (f *Frame) SetRGB565(x, y int, v uint16) {
	if !image.Pt(x, y).In(f.Bounds()) {
		return
	}
	i := (y*f.Width + x) * 2
	f.Pix[i] = byte(v >> 8)
	f.Pix[i+1] = byte(v)
}

// Set implements draw.Image.
func (f *Frame) Set(x, y int, c color.Color) {
	rgba, _ := color.RGBAModel.Convert(c).(color.RGBA)
	f.SetRGB565(x, y, RGB565(rgba.R, rgba.G, rgba.B))
}

// Fill paints every pixel with c.
func (f *Frame) Fill(c scene.Color) {
	v := RGB565(c.R, c.G, c.B)
	hi, lo := byte(v>>8), byte(v)
	for i := 0; i < len(f.Pix); i += 2 {
		f.Pix[i] = hi
		f.Pix[i+1] = lo
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := *f
	out.Pix = bytes.Clone(f.Pix)
	return &out
}

// PNG encodes the frame for previews.
func (f *Frame) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, f); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// fromRGBA quantizes an opaque canvas into a frame.
func fromRGBA(img *image.RGBA, o scene.Orientation) *Frame {
	f := NewFrame(o)
	b := img.Bounds()
	for y := 0; y < f.Height; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < f.Width; x++ {
			p := row[x*4 : x*4+3]
			v := RGB565(p[0], p[1], p[2])
			i := (y*f.Width + x) * 2
			f.Pix[i] = byte(v >> 8)
			f.Pix[i+1] = byte(v)
		}
	}
	return f
}
