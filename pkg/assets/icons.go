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
	"bytes"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/format"
	"github.com/spf13/afero"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// MaxRasterSize caps font and icon sizes handed to the library.
const MaxRasterSize = 512

type iconMask struct {
	alpha *image.Alpha
}

// Icon rasterizes the named SVG icon into a size x size alpha mask. Names
// may carry the "mdi:" prefix used in element text. Files in the icon
// directory take precedence over the builtin set.
func (l *Library) Icon(name string, size int) (*image.Alpha, error) {
	name = strings.TrimPrefix(name, format.IconPrefix)
	if size <= 0 || size > MaxRasterSize {
		return nil, fmt.Errorf("invalid icon size: %d", size)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := iconKey{name: name, size: size}
	if m, ok := l.icons[key]; ok {
		return m.alpha, nil
	}

	if !validHandle(name) {
		return nil, fmt.Errorf("%w: icon %s", ErrUnknownAsset, name)
	}
	data, err := l.readIcon(name)
	if err != nil {
		return nil, err
	}

	alpha, err := rasterizeSVG(data, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render icon %s: %w", name, err)
	}
	l.icons[key] = &iconMask{alpha: alpha}
	return alpha, nil
}

func (l *Library) readIcon(name string) ([]byte, error) {
	if l.iconDir != "" {
		data, err := afero.ReadFile(l.fs, path.Join(l.iconDir, name+".svg"))
		if err == nil {
			return data, nil
		}
	}
	if data, err := readBuiltinIcon(name); err == nil {
		return data, nil
	}
	return nil, fmt.Errorf("%w: icon %s", ErrUnknownAsset, name)
}

func rasterizeSVG(data []byte, size int) (*image.Alpha, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	icon.SetTarget(0, 0, float64(size), float64(size))
	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	dasher := rasterx.NewDasher(size, size, scanner)
	icon.Draw(dasher, 1.0)

	alpha := image.NewAlpha(rgba.Bounds())
	for i := 0; i < len(alpha.Pix); i++ {
		alpha.Pix[i] = rgba.Pix[i*4+3]
	}
	return alpha, nil
}
