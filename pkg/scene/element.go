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
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/format"
)

// ErrInvalidElement is returned when an element fails validation.
var ErrInvalidElement = errors.New("invalid element")

// DefaultFontSize is used when an element leaves Font.Size unset.
const DefaultFontSize = 16

// Font sizes outside MinFontSize..MaxFontSize are rejected. Icons take the
// element's font size, so the same range bounds icon rasters.
const (
	MinFontSize = 8
	MaxFontSize = 72
)

type SourceKind string

const (
	// SourceStatic elements render their template text verbatim.
	SourceStatic SourceKind = "static"
	// SourceBound elements substitute the current value of SourceRef.
	SourceBound SourceKind = "bound"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

type Point struct {
	X int `toml:"x" json:"x"`
	Y int `toml:"y" json:"y"`
}

// Font is an opaque font handle. An empty Name selects the default font.
type Font struct {
	Name string  `toml:"name,omitempty" json:"name,omitempty" validate:"omitempty,handle"`
	Size float64 `toml:"size" json:"size"`
}

// Element is a named text or icon node of the display scene.
type Element struct {
	Background *Color     `toml:"background_color,omitempty" json:"background_color,omitempty"`
	ID         string     `toml:"id" json:"id"`
	Source     SourceKind `toml:"source" json:"source"`
	SourceRef  string     `toml:"source_ref,omitempty" json:"source_ref,omitempty"`
	Format     string     `toml:"format" json:"format"`
	Icon       string     `toml:"icon,omitempty" json:"icon,omitempty" validate:"omitempty,handle"`
	Alignment  Alignment  `toml:"alignment,omitempty" json:"alignment,omitempty"`
	Font       Font       `toml:"font" json:"font"`
	Position   Point      `toml:"position" json:"position"`
	Color      Color      `toml:"color" json:"color"`
	tmpl       format.Template
}

// Compile validates the element, fills defaults and parses its template.
func (e *Element) Compile() error {
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidElement)
	}
	if e.Source == "" {
		e.Source = SourceStatic
	}
	if e.Alignment == "" {
		e.Alignment = AlignLeft
	}
	if e.Font.Size == 0 {
		e.Font.Size = DefaultFontSize
	}
	if !(e.Font.Size >= MinFontSize && e.Font.Size <= MaxFontSize) {
		return fmt.Errorf("%w: font size %v outside %d..%d",
			ErrInvalidElement, e.Font.Size, MinFontSize, MaxFontSize)
	}

	switch e.Alignment {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		return fmt.Errorf("%w: alignment %q", ErrInvalidElement, e.Alignment)
	}

	switch e.Source {
	case SourceStatic:
		e.tmpl = format.ParseLiteral(e.Format)
	case SourceBound:
		if e.SourceRef == "" {
			return fmt.Errorf("%w: bound element %s has no source_ref", ErrInvalidElement, e.ID)
		}
		tmpl, err := format.Parse(e.Format)
		if err != nil {
			return fmt.Errorf("element %s: %w", e.ID, err)
		}
		e.tmpl = tmpl
	default:
		return fmt.Errorf("%w: source %q", ErrInvalidElement, e.Source)
	}

	return nil
}

// Template returns the parsed template. Only valid after Compile.
func (e *Element) Template() format.Template {
	return e.tmpl
}

// Resolve produces the runs to draw for value. ok is false when a bound
// element has not received a value yet.
func (e *Element) Resolve(value any, ok bool) (format.Resolved, error) {
	var runs format.Resolved
	if e.Icon != "" {
		runs = append(runs, format.Run{Kind: format.RunIcon, Text: e.Icon})
	}

	if e.Source == SourceBound && !ok {
		return append(runs, format.TextRuns(format.MissingText)...), nil
	}

	out, err := format.Resolve(e.tmpl, value)
	if err != nil {
		return nil, err
	}
	return append(runs, out...), nil
}

// Patch holds the fields of an update. Nil fields are left unchanged.
type Patch struct {
	Source          *SourceKind `json:"source,omitempty"`
	SourceRef       *string     `json:"source_ref,omitempty"`
	Format          *string     `json:"format,omitempty"`
	Position        *Point      `json:"position,omitempty"`
	Font            *Font       `json:"font,omitempty"`
	Color           *Color      `json:"color,omitempty"`
	Background      *Color      `json:"background_color,omitempty"`
	Icon            *string     `json:"icon,omitempty" validate:"omitempty,handle"`
	Alignment       *Alignment  `json:"alignment,omitempty"`
	ClearBackground bool        `json:"clear_background,omitempty"`
}

// apply returns e with the patch fields replaced.
func (p *Patch) apply(e Element) Element {
	if p.Source != nil {
		e.Source = *p.Source
	}
	if p.SourceRef != nil {
		e.SourceRef = *p.SourceRef
	}
	if p.Format != nil {
		e.Format = *p.Format
	}
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Font != nil {
		e.Font = *p.Font
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.Icon != nil {
		e.Icon = *p.Icon
	}
	if p.Alignment != nil {
		e.Alignment = *p.Alignment
	}
	switch {
	case p.ClearBackground:
		e.Background = nil
	case p.Background != nil:
		bg := *p.Background
		e.Background = &bg
	}
	return e
}

// sameFields compares the user visible fields of two elements.
func sameFields(a, b *Element) bool {
	if (a.Background == nil) != (b.Background == nil) {
		return false
	}
	if a.Background != nil && *a.Background != *b.Background {
		return false
	}
	return a.ID == b.ID &&
		a.Source == b.Source &&
		a.SourceRef == b.SourceRef &&
		a.Format == b.Format &&
		a.Icon == b.Icon &&
		a.Alignment == b.Alignment &&
		a.Font == b.Font &&
		a.Position == b.Position &&
		a.Color == b.Color
}

// clone copies the element so callers cannot alias the stored background.
func (e *Element) clone() Element {
	out := *e
	if e.Background != nil {
		bg := *e.Background
		out.Background = &bg
	}
	return out
}

// Background is the base layer of one orientation: an image file or a solid
// color. The zero value renders black.
type Background struct {
	Color *Color `toml:"color,omitempty" json:"color,omitempty"`
	Image string `toml:"image,omitempty" json:"image,omitempty"`
}

func (b Background) IsZero() bool {
	return b.Image == "" && b.Color == nil
}
