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
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// StateSchemaVersion is written to every state file.
const StateSchemaVersion = 1

// StateFile is the default name of the persisted scene.
const StateFile = "scene.toml"

// State is the on-disk form of the store.
type State struct {
	Backgrounds map[string]Background `toml:"backgrounds,omitempty"`
	Elements    []Element             `toml:"elements,omitempty"`
	Schema      int                   `toml:"schema"`
	Orientation Orientation           `toml:"orientation"`
}

// readState loads the state file. A missing file is an empty state.
func readState(fs afero.Fs, path string) (State, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("no saved scene, starting empty")
		return State{Schema: StateSchemaVersion}, nil
	} else if err != nil {
		return State{}, fmt.Errorf("failed to read scene file: %w", err)
	}

	var st State
	if err := toml.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to parse scene file: %w", err)
	}
	return st, nil
}

// writeState replaces the state file wholesale through a temp file rename.
func writeState(fs afero.Fs, path string, st *State) error {
	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create scene directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write scene file: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to replace scene file: %w", err)
	}
	return nil
}
