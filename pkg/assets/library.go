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

// Package assets resolves the opaque font and icon handles stored on scene
// elements into drawable resources. Fonts are TrueType or OpenType files and
// icons are SVG files (Material Design Icons by default), both loaded from
// configurable directories and cached per name and size.
package assets

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrUnknownAsset is returned when a font or icon handle has no file.
var ErrUnknownAsset = errors.New("unknown asset")

// DefaultFont is the handle used for elements without a font name.
const DefaultFont = "goregular"

var builtinFonts = map[string][]byte{
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"gomono":    gomono.TTF,
}

var fontExts = []string{".ttf", ".otf"}

type faceKey struct {
	name string
	size float64
}

type iconKey struct {
	name string
	size int
}

// Library loads and caches fonts and icons. Returned faces and masks are
// shared: faces must only be used by one goroutine at a time and masks must
// not be modified.
type Library struct {
	fs      afero.Fs
	fonts   map[string]*opentype.Font
	faces   map[faceKey]font.Face
	icons   map[iconKey]*iconMask
	fontDir string
	iconDir string
	mu      syncutil.Mutex
}

// NewLibrary creates a library reading fonts from fontDir and icons from
// iconDir on fs. Either directory may be empty.
func NewLibrary(fs afero.Fs, fontDir, iconDir string) *Library {
	return &Library{
		fs:      fs,
		fontDir: fontDir,
		iconDir: iconDir,
		fonts:   make(map[string]*opentype.Font),
		faces:   make(map[faceKey]font.Face),
		icons:   make(map[iconKey]*iconMask),
	}
}

// Dirs returns the configured asset directories that are set.
func (l *Library) Dirs() []string {
	dirs := make([]string, 0, 2)
	for _, d := range []string{l.fontDir, l.iconDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Face returns a face for the named font at size points. An empty name
// selects DefaultFont.
func (l *Library) Face(name string, size float64) (font.Face, error) {
	if name == "" {
		name = DefaultFont
	}
	if !(size > 0 && size <= MaxRasterSize) {
		return nil, fmt.Errorf("invalid font size: %v", size)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := faceKey{name: name, size: size}
	if face, ok := l.faces[key]; ok {
		return face, nil
	}

	f, err := l.fontLocked(name)
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face %s@%v: %w", name, size, err)
	}
	l.faces[key] = face
	return face, nil
}

// FaceOrDefault returns the named face, falling back to the default font at
// the same size when the name cannot be loaded.
func (l *Library) FaceOrDefault(name string, size float64) (font.Face, error) {
	face, err := l.Face(name, size)
	if err == nil || name == "" || name == DefaultFont {
		return face, err
	}
	log.Warn().Err(err).Str("font", name).Msg("falling back to default font")
	return l.Face(DefaultFont, size)
}

func (l *Library) fontLocked(name string) (*opentype.Font, error) {
	if f, ok := l.fonts[name]; ok {
		return f, nil
	}

	data, ok := builtinFonts[name]
	if !ok {
		var err error
		data, err = l.readFontFile(name)
		if err != nil {
			return nil, err
		}
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	l.fonts[name] = f
	log.Debug().Str("font", name).Msg("loaded font")
	return f, nil
}

func (l *Library) readFontFile(name string) ([]byte, error) {
	if l.fontDir == "" || !validHandle(name) {
		return nil, fmt.Errorf("%w: font %s", ErrUnknownAsset, name)
	}

	candidates := []string{name}
	if path.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range fontExts {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		data, err := afero.ReadFile(l.fs, path.Join(l.fontDir, c))
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: font %s", ErrUnknownAsset, name)
}

// Invalidate drops every cached font, face and icon so the next lookup
// reads the asset directories again.
func (l *Library) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, face := range l.faces {
		_ = face.Close()
	}
	l.fonts = make(map[string]*opentype.Font)
	l.faces = make(map[faceKey]font.Face)
	l.icons = make(map[iconKey]*iconMask)
	log.Debug().Msg("asset caches invalidated")
}

// validHandle rejects handles that would escape the asset directory.
func validHandle(name string) bool {
	if name == "" || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
