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

// Package models holds the JSON bodies of the HTTP API.
package models

import "github.com/ZaparooProject/zaparoo-lcd/pkg/scene"

type BackgroundParams struct {
	Color *scene.Color `json:"color,omitempty"`
	Image string       `json:"image,omitempty" validate:"required_without=Color"`
}

type FillParams struct {
	Color *scene.Color `json:"color" validate:"required"`
}

type PixelParams struct {
	Color *scene.Color `json:"color" validate:"required"`
	X     int          `json:"x" validate:"gte=0"`
	Y     int          `json:"y" validate:"gte=0"`
}

type OrientationParams struct {
	Orientation int `json:"orientation" validate:"orientation"`
}

type BacklightParams struct {
	Theme     string `json:"theme" validate:"required,theme"`
	Intensity int    `json:"intensity" validate:"min=1,max=5"`
	Speed     int    `json:"speed" validate:"min=1,max=5"`
}

type ValuesParams struct {
	Values map[string]any `json:"values" validate:"required"`
}
