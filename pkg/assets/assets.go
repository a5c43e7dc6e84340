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

package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Builtin icons ship with the binary and are used when the icon directory
// has no file of the same name.
//
//go:embed builtin/*.svg
var Builtin embed.FS

func readBuiltinIcon(name string) ([]byte, error) {
	data, err := Builtin.ReadFile(path.Join("builtin", name+".svg"))
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin icon: %w", err)
	}
	return data, nil
}

// BuiltinIcons lists the names of the embedded icons.
func BuiltinIcons() ([]string, error) {
	entries, err := fs.ReadDir(Builtin, "builtin")
	if err != nil {
		return nil, fmt.Errorf("failed to list builtin icons: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".svg"))
	}
	return names, nil
}
