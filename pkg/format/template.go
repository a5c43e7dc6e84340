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

// Package format implements the small template language used by display
// elements. A template is parsed once into a sequence of tagged parts
// (literal text, a single value slot, or an mdi icon token) so malformed
// templates are rejected when an element is added rather than per frame.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrFormat is returned for malformed templates and for values that cannot
// be rendered with the requested format spec.
var ErrFormat = errors.New("format error")

// IconPrefix marks an icon token inside literal text, e.g. "mdi:thermometer".
const IconPrefix = "mdi:"

type PartKind int

const (
	PartLiteral PartKind = iota
	PartValue
	PartIcon
)

type SpecKind int

const (
	// SpecPlain stringifies the value as-is.
	SpecPlain SpecKind = iota
	// SpecFixed renders a number with a fixed count of decimal places.
	SpecFixed
	// SpecInteger renders a number rounded to the nearest integer.
	SpecInteger
	// SpecPercent multiplies by 100 and appends a percent sign.
	SpecPercent
)

// Spec is the parsed form of the text after the colon in a value slot.
// Precision is -1 when the template did not give one.
type Spec struct {
	Kind      SpecKind
	Precision int
}

// Part is one tagged segment of a parsed template. Text holds the literal
// text for PartLiteral and the icon name for PartIcon.
type Part struct {
	Text string
	Spec Spec
	Kind PartKind
}

// Template is an immutable parsed template.
type Template struct {
	raw   string
	parts []Part
	slot  bool
}

var (
	specRe     = regexp.MustCompile(`^(?:\.(\d{1,2}))?([sfd%]?)$`)
	iconNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*`)
)

// String returns the template source.
func (t Template) String() string {
	return t.raw
}

// HasSlot reports whether the template contains a value slot.
func (t Template) HasSlot() bool {
	return t.slot
}

// Parts returns a copy of the parsed parts.
func (t Template) Parts() []Part {
	out := make([]Part, len(t.parts))
	copy(out, t.parts)
	return out
}

// ParseLiteral parses the text of a static element. Braces are not special,
// only icon tokens are recognised.
func ParseLiteral(s string) Template {
	return Template{raw: s, parts: splitIcons(s, nil)}
}

// Parse parses a bound element template with at most one value slot. The
// slot is written {value}, {value:<spec>}, {} or {:<spec>}; literal braces
// are escaped as {{ and }}.
func Parse(s string) (Template, error) {
	t := Template{raw: s}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = splitIcons(lit.String(), t.parts)
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("%w: unclosed slot at offset %d in %q", ErrFormat, i, s)
			}
			if t.slot {
				return Template{}, fmt.Errorf("%w: more than one value slot in %q", ErrFormat, s)
			}
			spec, err := parseSlot(s[i+1 : i+end])
			if err != nil {
				return Template{}, fmt.Errorf("%w in %q", err, s)
			}
			flush()
			t.parts = append(t.parts, Part{Kind: PartValue, Spec: spec})
			t.slot = true
			i += end
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return Template{}, fmt.Errorf("%w: single '}' at offset %d in %q", ErrFormat, i, s)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

func parseSlot(body string) (Spec, error) {
	name, spec, _ := strings.Cut(body, ":")
	if name != "" && name != "value" {
		return Spec{}, fmt.Errorf("%w: unknown slot name %q", ErrFormat, name)
	}

	m := specRe.FindStringSubmatch(spec)
	if m == nil {
		return Spec{}, fmt.Errorf("%w: unsupported format spec %q", ErrFormat, spec)
	}

	out := Spec{Precision: -1}
	if m[1] != "" {
		p, err := strconv.Atoi(m[1])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: bad precision %q", ErrFormat, m[1])
		}
		out.Precision = p
	}

	switch m[2] {
	case "", "s":
		out.Kind = SpecPlain
		if m[2] == "" && out.Precision >= 0 {
			return Spec{}, fmt.Errorf("%w: precision without a type in %q", ErrFormat, spec)
		}
	case "f":
		out.Kind = SpecFixed
		if out.Precision < 0 {
			out.Precision = 6
		}
	case "d":
		out.Kind = SpecInteger
		if out.Precision >= 0 {
			return Spec{}, fmt.Errorf("%w: precision not allowed with d", ErrFormat)
		}
	case "%":
		out.Kind = SpecPercent
		if out.Precision < 0 {
			out.Precision = 6
		}
	}

	return out, nil
}

// splitIcons appends the literal and icon parts found in s to parts. An icon
// token must start the text or follow whitespace.
func splitIcons(s string, parts []Part) []Part {
	rest := s
	for rest != "" {
		idx := findIconToken(rest)
		if idx < 0 {
			parts = appendLiteral(parts, rest)
			break
		}
		name := iconNameRe.FindString(rest[idx+len(IconPrefix):])
		parts = appendLiteral(parts, rest[:idx])
		parts = append(parts, Part{Kind: PartIcon, Text: name})
		rest = rest[idx+len(IconPrefix)+len(name):]
	}
	return parts
}

func findIconToken(s string) int {
	off := 0
	for {
		idx := strings.Index(s[off:], IconPrefix)
		if idx < 0 {
			return -1
		}
		abs := off + idx
		boundary := abs == 0 || s[abs-1] == ' ' || s[abs-1] == '\t'
		if boundary && iconNameRe.MatchString(s[abs+len(IconPrefix):]) {
			return abs
		}
		off = abs + len(IconPrefix)
	}
}

func appendLiteral(parts []Part, s string) []Part {
	if s == "" {
		return parts
	}
	if n := len(parts); n > 0 && parts[n-1].Kind == PartLiteral {
		parts[n-1].Text += s
		return parts
	}
	return append(parts, Part{Kind: PartLiteral, Text: s})
}
