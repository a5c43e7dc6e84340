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
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"pgregory.net/rapid"
)

func elementGen() *rapid.Generator[Element] {
	return rapid.Custom(func(t *rapid.T) Element {
		el := Element{
			ID:       rapid.StringMatching(`[a-z][a-z0-9_]{0,8}`).Draw(t, "id"),
			Format:   rapid.StringMatching(`[A-Za-z0-9 %:.]{0,16}`).Draw(t, "format"),
			Position: Point{X: rapid.IntRange(-50, 400).Draw(t, "x"), Y: rapid.IntRange(-50, 400).Draw(t, "y")},
			Font:     Font{Size: float64(rapid.IntRange(8, 72).Draw(t, "size"))},
			Color: Color{
				R: rapid.Uint8().Draw(t, "r"),
				G: rapid.Uint8().Draw(t, "g"),
				B: rapid.Uint8().Draw(t, "b"),
			},
			Alignment: rapid.SampledFrom([]Alignment{AlignLeft, AlignCenter, AlignRight}).Draw(t, "align"),
		}
		if rapid.Bool().Draw(t, "bound") {
			el.Source = SourceBound
			el.SourceRef = "sensor." + el.ID
			el.Format = rapid.SampledFrom([]string{"{}", "{value:.1f}", "{value:d} rpm", "{value:.0%}"}).Draw(t, "tmpl")
		}
		if rapid.Bool().Draw(t, "hasbg") {
			bg := Color{R: rapid.Uint8().Draw(t, "bgr")}
			el.Background = &bg
		}
		return el
	})
}

// TestPropertyStoreRoundTrip checks that reloading the persisted file yields
// the same element list in the same order.
func TestPropertyStoreRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		fs := afero.NewMemMapFs()
		s := NewStore(fs, testStatePath)

		els := rapid.SliceOfNDistinct(elementGen(), 1, 8, func(e Element) string { return e.ID }).Draw(t, "elements")
		for _, el := range els {
			if _, err := s.Add(el); err != nil {
				t.Fatalf("add %s: %v", el.ID, err)
			}
		}
		o := rapid.SampledFrom(Orientations).Draw(t, "orientation")
		if err := s.SetOrientation(o); err != nil {
			t.Fatalf("set orientation: %v", err)
		}

		reopened, err := Open(fs, testStatePath)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if reopened.Orientation() != o {
			t.Fatalf("orientation %v, want %v", reopened.Orientation(), o)
		}

		want, got := s.List(), reopened.List()
		if len(want) != len(got) {
			t.Fatalf("got %d elements, want %d", len(got), len(want))
		}
		for i := range want {
			if !sameFields(&want[i], &got[i]) {
				t.Fatalf("element %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
	})
}

// TestPropertyIDsStayUnique checks that no sequence of adds and removes
// leaves two elements with the same id.
func TestPropertyIDsStayUnique(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		s := NewStore(afero.NewMemMapFs(), testStatePath)
		ops := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 40).Draw(t, "ops")

		for i, n := range ops {
			id := fmt.Sprintf("e%d", n)
			if rapid.Bool().Draw(t, fmt.Sprintf("remove%d", i)) {
				_ = s.Remove(id)
				continue
			}
			_, _ = s.Add(Element{ID: id, Format: id})
		}

		seen := make(map[string]bool)
		for _, el := range s.List() {
			if seen[el.ID] {
				t.Fatalf("duplicate id %s", el.ID)
			}
			seen[el.ID] = true
		}
	})
}

// TestPropertyUpdateIdempotent checks that applying the same patch twice only
// reports a change the first time.
func TestPropertyUpdateIdempotent(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		s := NewStore(afero.NewMemMapFs(), testStatePath)
		el := elementGen().Draw(t, "element")
		if _, err := s.Add(el); err != nil {
			t.Fatalf("add: %v", err)
		}

		pos := Point{X: rapid.IntRange(0, 320).Draw(t, "x"), Y: rapid.IntRange(0, 320).Draw(t, "y")}
		patch := Patch{Position: &pos}

		first, err := s.Update(el.ID, patch)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if first != (pos != el.Position) {
			t.Fatalf("first update changed=%v for %v -> %v", first, el.Position, pos)
		}
		second, err := s.Update(el.ID, patch)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if second {
			t.Fatal("second identical update reported a change")
		}
	})
}
