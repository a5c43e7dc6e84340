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

// Package methods implements the HTTP API handlers.
package methods

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/config"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/controller"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/format"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/transport"
	"github.com/rs/zerolog/log"
)

const maxBodySize = 1 << 20

// RequestEnv is shared by every handler.
type RequestEnv struct {
	Controller *controller.Controller
	Config     *config.Instance
}

// StatusFor maps a domain error to an HTTP status code.
func StatusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, scene.ErrInvalidElement),
		errors.Is(err, format.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, scene.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scene.ErrDuplicateID),
		errors.Is(err, transport.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, protocol.ErrEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, transport.ErrDeviceTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, transport.ErrPortUnavailable),
		errors.Is(err, transport.ErrErrorAck),
		errors.Is(err, transport.ErrNotReady):
		return http.StatusBadGateway
	case errors.Is(err, controller.ErrNoBacklight),
		errors.Is(err, transport.ErrDispatcherClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("api request failed")
	writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
}

// decode reads a JSON body into dest and validates it.
func decode[T any](w http.ResponseWriter, r *http.Request, dest *T) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %w", validation.ErrInvalidParams, err)
	}
	return validation.ValidateAndUnmarshal(body, dest) //nolint:wrapcheck // validation errors are typed
}
