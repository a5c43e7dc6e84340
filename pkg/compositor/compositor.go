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

// Package compositor renders a scene into a Frame: the orientation's
// background first, then every element in store order so later elements
// draw over earlier ones. Rendering is deterministic for a given scene,
// value set and asset library.
package compositor

import (
	"fmt"
	"image"
	_ "image/gif"  // background decoder
	_ "image/jpeg" // background decoder
	_ "image/png"  // background decoder
	"math"
	"strings"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/assets"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/format"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp" // background decoder
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // background decoder
)

// Scene is everything a single frame is composed from.
type Scene struct {
	Values      map[string]any
	Background  scene.Background
	Elements    []scene.Element
	Orientation scene.Orientation
}

type bgKey struct {
	path string
	w, h int
}

// Compositor draws scenes. It is safe for concurrent use; compositions are
// serialized.
type Compositor struct {
	fs      afero.Fs
	lib     *assets.Library
	bgCache map[bgKey]*image.RGBA
	mu      syncutil.Mutex
}

// New returns a compositor loading background images from fs and fonts and
// icons from lib.
func New(fs afero.Fs, lib *assets.Library) *Compositor {
	return &Compositor{
		fs:      fs,
		lib:     lib,
		bgCache: make(map[bgKey]*image.RGBA),
	}
}

// Invalidate drops cached background images.
func (c *Compositor) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bgCache = make(map[bgKey]*image.RGBA)
}

// Compose renders sc into a new frame.
func (c *Compositor) Compose(sc *Scene) (*Frame, error) {
	if !sc.Orientation.Valid() {
		return nil, fmt.Errorf("invalid orientation: %d", sc.Orientation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w, h := sc.Orientation.Size()
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	c.drawBackground(canvas, sc.Background)

	for i := range sc.Elements {
		el := &sc.Elements[i]
		value, ok := sc.Values[el.SourceRef]
		runs, err := el.Resolve(value, ok)
		if err != nil {
			log.Warn().Err(err).Str("id", el.ID).Msg("element failed to format")
			runs = format.TextRuns(format.ErrorText)
		}
		c.drawElement(canvas, el, runs)
	}

	return fromRGBA(canvas, sc.Orientation), nil
}

func (c *Compositor) drawBackground(canvas *image.RGBA, bg scene.Background) {
	fill := image.NewUniform(scene.Black.RGBA())
	if bg.Color != nil {
		fill = image.NewUniform(bg.Color.RGBA())
	}
	draw.Draw(canvas, canvas.Bounds(), fill, image.Point{}, draw.Src)

	if bg.Image == "" {
		return
	}
	img, err := c.backgroundImage(bg.Image, canvas.Bounds().Dx(), canvas.Bounds().Dy())
	if err != nil {
		log.Warn().Err(err).Str("image", bg.Image).Msg("background image unavailable")
		return
	}
	draw.Draw(canvas, canvas.Bounds(), img, image.Point{}, draw.Over)
}

// backgroundImage decodes path and scales it to w x h. Results are cached
// per size.
func (c *Compositor) backgroundImage(path string, w, h int) (*image.RGBA, error) {
	key := bgKey{path: path, w: w, h: h}
	if img, ok := c.bgCache[key]; ok {
		return img, nil
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open background: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Debug().Err(err).Msg("error closing background file")
		}
	}()

	src, kind, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode background: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	c.bgCache[key] = dst

	log.Debug().
		Str("image", path).
		Str("format", kind).
		Int("width", w).
		Int("height", h).
		Msg("loaded background image")
	return dst, nil
}

type layout struct {
	face     font.Face
	width    fixed.Int26_6
	ascent   int
	height   int
	iconSize int
	gap      fixed.Int26_6
}

func (c *Compositor) measure(el *scene.Element, runs format.Resolved) (layout, bool) {
	face, err := c.lib.FaceOrDefault(el.Font.Name, el.Font.Size)
	if err != nil {
		log.Warn().Err(err).Str("id", el.ID).Msg("no font for element")
		return layout{}, false
	}

	m := face.Metrics()
	l := layout{
		face:     face,
		ascent:   m.Ascent.Ceil(),
		height:   (m.Ascent + m.Descent).Ceil(),
		iconSize: int(math.Round(el.Font.Size)),
		gap:      font.MeasureString(face, " "),
	}
	l.height = max(l.height, l.iconSize)

	for i, run := range runs {
		switch run.Kind {
		case format.RunIcon:
			l.width += fixed.I(l.iconSize)
			if needsGap(runs, i) {
				l.width += l.gap
			}
		case format.RunText:
			l.width += font.MeasureString(face, run.Text)
		}
	}
	return l, true
}

// needsGap reports whether the icon at i is followed by text that does not
// already start with whitespace.
func needsGap(runs format.Resolved, i int) bool {
	if i+1 >= len(runs) {
		return false
	}
	next := runs[i+1]
	if next.Kind == format.RunIcon {
		return true
	}
	return next.Text != "" && !strings.HasPrefix(next.Text, " ")
}

func (c *Compositor) drawElement(canvas *image.RGBA, el *scene.Element, runs format.Resolved) {
	if len(runs) == 0 {
		return
	}
	l, ok := c.measure(el, runs)
	if !ok {
		return
	}

	x := fixed.I(el.Position.X)
	switch el.Alignment {
	case scene.AlignCenter:
		x -= l.width / 2
	case scene.AlignRight:
		x -= l.width
	case scene.AlignLeft:
	}
	y := el.Position.Y

	if el.Background != nil {
		rect := image.Rect(x.Floor(), y, (x + l.width).Ceil(), y+l.height)
		draw.Draw(canvas, rect, image.NewUniform(el.Background.RGBA()), image.Point{}, draw.Src)
	}

	ink := image.NewUniform(el.Color.RGBA())
	d := &font.Drawer{
		Dst:  canvas,
		Src:  ink,
		Face: l.face,
		Dot:  fixed.Point26_6{X: x, Y: fixed.I(y + l.ascent)},
	}

	for i, run := range runs {
		switch run.Kind {
		case format.RunIcon:
			c.drawIcon(canvas, ink, run.Text, d.Dot.X.Round(), y, l.iconSize)
			d.Dot.X += fixed.I(l.iconSize)
			if needsGap(runs, i) {
				d.Dot.X += l.gap
			}
		case format.RunText:
			d.DrawString(run.Text)
		}
	}
}

func (c *Compositor) drawIcon(canvas *image.RGBA, ink image.Image, name string, x, y, size int) {
	mask, err := c.lib.Icon(name, size)
	if err != nil {
		log.Debug().Err(err).Str("icon", name).Msg("skipping icon")
		return
	}
	r := image.Rect(x, y, x+size, y+size)
	draw.DrawMask(canvas, r, ink, image.Point{}, mask, image.Point{}, draw.Over)
}
