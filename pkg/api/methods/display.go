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

package methods

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/controller"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

func orientationParam(r *http.Request) (scene.Orientation, error) {
	o, err := scene.ParseOrientation(chi.URLParam(r, "orientation"))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", validation.ErrInvalidParams, err)
	}
	return o, nil
}

func HandleDisplayStatus(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.DisplayResponse{
			Mode:        env.Controller.Mode().String(),
			Orientation: env.Controller.Orientation(),
			Backlight:   env.Controller.Backlight(),
			Elements:    len(env.Controller.ListElements()),
		})
	}
}

func HandleFill(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.FillParams
		if err := decode(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		respond(w, r, env.Controller.FillDisplay(r.Context(), *params.Color))
	}
}

func HandlePixel(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.PixelParams
		if err := decode(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		respond(w, r, env.Controller.SetPixel(r.Context(), params.X, params.Y, *params.Color))
	}
}

func HandleTestPattern(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, env.Controller.ShowTestPattern(r.Context()))
	}
}

func HandleClear(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, env.Controller.ClearDisplay(r.Context()))
	}
}

func HandleRedraw(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, env.Controller.Redraw(r.Context()))
	}
}

func HandleSetOrientation(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.OrientationParams
		if err := decode(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		respond(w, r, env.Controller.SetOrientation(r.Context(), scene.Orientation(params.Orientation)))
	}
}

func HandleSetBacklight(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.BacklightParams
		if err := decode(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		theme, err := protocol.ParseTheme(params.Theme)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %w", validation.ErrInvalidParams, err))
			return
		}
		b := controller.Backlight{Theme: theme, Intensity: params.Intensity, Speed: params.Speed}
		if err := env.Controller.SetBacklight(r.Context(), b); err != nil {
			writeError(w, r, err)
			return
		}
		if env.Config != nil {
			env.Config.SetBacklightSetting(theme.String(), b.Intensity, b.Speed)
			if err := env.Config.Save(); err != nil {
				log.Warn().Err(err).Msg("failed to save backlight setting")
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleUpdateValues(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.ValuesParams
		if err := decode(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		env.Controller.UpdateValues(params.Values)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleFramePNG returns the frame last handed to the panel.
func HandleFramePNG(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame := env.Controller.Snapshot()
		if frame == nil {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "nothing drawn yet"})
			return
		}
		data, err := frame.PNG()
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if _, err := w.Write(data); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
			log.Debug().Err(err).Msg("failed to write frame preview")
		}
	}
}

func respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
