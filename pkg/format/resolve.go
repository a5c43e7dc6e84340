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

package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// ErrorText is drawn in place of an element whose value failed to format.
	ErrorText = "#ERR"
	// MissingText is drawn for a bound element that has no value yet.
	MissingText = "N/A"
)

type RunKind int

const (
	RunText RunKind = iota
	RunIcon
)

// Run is a piece of resolved output: text to draw, or the name of an icon
// for the compositor to rasterize.
type Run struct {
	Text string
	Kind RunKind
}

// Resolved is the display-ready output of a template.
type Resolved []Run

// Text joins the text runs, dropping icons.
func (r Resolved) Text() string {
	var sb strings.Builder
	for _, run := range r {
		if run.Kind == RunText {
			sb.WriteString(run.Text)
		}
	}
	return sb.String()
}

// TextRuns wraps a plain string as a single text run.
func TextRuns(s string) Resolved {
	return Resolved{{Kind: RunText, Text: s}}
}

// Resolve substitutes value into the template slot. Templates without a
// slot (static text) ignore value.
func Resolve(t Template, value any) (Resolved, error) {
	out := make(Resolved, 0, len(t.parts))
	for _, p := range t.parts {
		switch p.Kind {
		case PartLiteral:
			out = appendText(out, p.Text)
		case PartIcon:
			out = append(out, Run{Kind: RunIcon, Text: p.Text})
		case PartValue:
			s, err := FormatValue(p.Spec, value)
			if err != nil {
				return nil, err
			}
			out = appendText(out, s)
		}
	}
	return out, nil
}

// FormatValue renders a single value according to spec.
func FormatValue(spec Spec, value any) (string, error) {
	switch spec.Kind {
	case SpecPlain:
		s := stringify(value)
		if spec.Precision >= 0 {
			r := []rune(s)
			if len(r) > spec.Precision {
				s = string(r[:spec.Precision])
			}
		}
		return s, nil
	case SpecFixed:
		f, err := toFloat(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', spec.Precision, 64), nil
	case SpecInteger:
		f, err := toFloat(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(int64(math.Round(f)), 10), nil
	case SpecPercent:
		f, err := toFloat(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f*100, 'f', spec.Precision, 64) + "%", nil
	default:
		return "", fmt.Errorf("%w: unknown spec kind %d", ErrFormat, spec.Kind)
	}
}

func appendText(out Resolved, s string) Resolved {
	if s == "" {
		return out
	}
	if n := len(out); n > 0 && out[n-1].Kind == RunText {
		out[n-1].Text += s
		return out
	}
	return append(out, Run{Kind: RunText, Text: s})
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// toFloat accepts numeric types and numeric strings, since sensor states
// usually arrive as strings.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrFormat, x.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: %q is not a number", ErrFormat, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrFormat, v)
	}
}
