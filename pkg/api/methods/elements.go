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
	"net/http"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
	"github.com/go-chi/chi/v5"
)

func HandleListElements(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.ElementsResponse{
			Elements: env.Controller.ListElements(),
		})
	}
}

func HandleAddElement(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var el scene.Element
		if err := decode(w, r, &el); err != nil {
			writeError(w, r, err)
			return
		}
		id, err := env.Controller.AddText(el)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.AddElementResponse{ID: id})
	}
}

func HandleUpdateElement(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch scene.Patch
		if err := decode(w, r, &patch); err != nil {
			writeError(w, r, err)
			return
		}
		changed, err := env.Controller.UpdateText(chi.URLParam(r, "id"), patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.UpdateElementResponse{Changed: changed})
	}
}

func HandleRemoveElement(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := env.Controller.RemoveText(chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleClearElements(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := env.Controller.ClearAllText(); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleListBackgrounds(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		bgs := env.Controller.Backgrounds()
		out := make(map[string]scene.Background, len(bgs))
		for o, bg := range bgs {
			out[o.String()] = bg
		}
		writeJSON(w, http.StatusOK, models.BackgroundsResponse{Backgrounds: out})
	}
}

func HandleSetBackground(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := orientationParam(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var params models.BackgroundParams
		if err := decode(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		bg := scene.Background{Color: params.Color, Image: params.Image}
		if err := env.Controller.SetBackground(o, bg); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleClearBackground(env RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := orientationParam(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := env.Controller.ClearBackground(o); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
