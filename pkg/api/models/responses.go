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

package models

import (
	"github.com/ZaparooProject/zaparoo-lcd/pkg/controller"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
)

const (
	NotificationFrame = "display.frame"
)

type ElementsResponse struct {
	Elements []scene.Element `json:"elements"`
}

type AddElementResponse struct {
	ID string `json:"id"`
}

type UpdateElementResponse struct {
	Changed bool `json:"changed"`
}

type BackgroundsResponse struct {
	Backgrounds map[string]scene.Background `json:"backgrounds"`
}

type DisplayResponse struct {
	Mode        string               `json:"mode"`
	Backlight   controller.Backlight `json:"backlight"`
	Orientation scene.Orientation    `json:"orientation"`
	Elements    int                  `json:"elements"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Notification is pushed to websocket clients, shaped like a JSON-RPC
// notification.
type Notification struct {
	Params  any    `json:"params"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
}
