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

// Package cli holds the command line flags shared by the daemon binary.
// Flags other than -version talk to an already running daemon.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/config"
)

var ErrBadFlag = errors.New("invalid flag value")

type Flags struct {
	Version     *bool
	List        *bool
	Fill        *string
	Clear       *bool
	TestPattern *bool
	Redraw      *bool
	Orientation *string
	Backlight   *string
	Value       *string
	Watch       *bool
}

// SetupFlags defines the flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Version: fs.Bool("version", false, "print version and exit"),
		List:    fs.Bool("list", false, "print the element store of the running daemon"),
		Fill:    fs.String("fill", "", "fill the display with a color (#rrggbb)"),
		Clear:   fs.Bool("clear", false, "blank the display"),
		TestPattern: fs.Bool(
			"test-pattern",
			false,
			"show the diagnostic gradient",
		),
		Redraw:      fs.Bool("redraw", false, "return the display to the element scene"),
		Orientation: fs.String("orientation", "", "rotate the display (0, 90, 180, 270)"),
		Backlight: fs.String(
			"backlight",
			"",
			"set the LED strip as theme[:intensity[:speed]]",
		),
		Value: fs.String("value", "", "send a bound value as name=value"),
		Watch: fs.Bool("watch", false, "print frames as the daemon sends them"),
	}
}

// Version returns the version line.
func Version() string {
	return fmt.Sprintf("Zaparoo LCD v%s", config.AppVersion)
}

// Run executes any client flags against c. It reports false when no client
// flag was given and the daemon should start instead.
func (f *Flags) Run(ctx context.Context, c *client.Client, out io.Writer) (bool, error) {
	ran := false
	step := func(method, path string, body any) error {
		ran = true
		_, err := c.Do(ctx, method, path, body)
		return err //nolint:wrapcheck // client errors carry the server message
	}

	if *f.Fill != "" {
		if err := step(http.MethodPost, "/api/display/fill", map[string]string{"color": *f.Fill}); err != nil {
			return true, err
		}
	}
	if *f.Clear {
		if err := step(http.MethodPost, "/api/display/clear", nil); err != nil {
			return true, err
		}
	}
	if *f.TestPattern {
		if err := step(http.MethodPost, "/api/display/test-pattern", nil); err != nil {
			return true, err
		}
	}
	if *f.Redraw {
		if err := step(http.MethodPost, "/api/display/redraw", nil); err != nil {
			return true, err
		}
	}
	if *f.Orientation != "" {
		o, err := strconv.Atoi(*f.Orientation)
		if err != nil {
			return true, fmt.Errorf("%w: orientation %q", ErrBadFlag, *f.Orientation)
		}
		if err := step(http.MethodPut, "/api/display/orientation", models.OrientationParams{Orientation: o}); err != nil {
			return true, err
		}
	}
	if *f.Backlight != "" {
		params, err := parseBacklight(*f.Backlight)
		if err != nil {
			return true, err
		}
		if err := step(http.MethodPut, "/api/backlight", params); err != nil {
			return true, err
		}
	}
	if *f.Value != "" {
		name, raw, ok := strings.Cut(*f.Value, "=")
		if !ok || name == "" {
			return true, fmt.Errorf("%w: value %q", ErrBadFlag, *f.Value)
		}
		var v any = raw
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			v = n
		}
		body := models.ValuesParams{Values: map[string]any{name: v}}
		if err := step(http.MethodPost, "/api/values", body); err != nil {
			return true, err
		}
	}
	if *f.List {
		ran = true
		data, err := c.Do(ctx, http.MethodGet, "/api/elements", nil)
		if err != nil {
			return true, err //nolint:wrapcheck // client errors carry the server message
		}
		_, _ = fmt.Fprintln(out, strings.TrimSpace(string(data)))
	}
	if *f.Watch {
		ran = true
		err := c.Watch(ctx, func(n models.Notification) {
			_, _ = fmt.Fprintf(out, "%s %v\n", n.Method, n.Params)
		})
		if err != nil {
			return true, err //nolint:wrapcheck // client errors carry the server message
		}
	}

	return ran, nil
}

func parseBacklight(s string) (models.BacklightParams, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return models.BacklightParams{}, fmt.Errorf("%w: backlight %q", ErrBadFlag, s)
	}
	params := models.BacklightParams{Theme: parts[0], Intensity: 3, Speed: 3}
	levels := []*int{&params.Intensity, &params.Speed}
	for i, part := range parts[1:] {
		n, err := strconv.Atoi(part)
		if err != nil {
			return models.BacklightParams{}, fmt.Errorf("%w: backlight %q", ErrBadFlag, s)
		}
		*levels[i] = n
	}
	return params, nil
}
