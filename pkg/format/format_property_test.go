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

package format

import (
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// TestPropertyFixedMatchesStrconv verifies .Nf output equals strconv's
// rendering for any finite value and precision.
func TestPropertyFixedMatchesStrconv(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		prec := rapid.IntRange(0, 6).Draw(t, "prec")
		v := rapid.Float64Range(-1e6, 1e6).Draw(t, "v")

		tmpl, err := Parse("{value:." + strconv.Itoa(prec) + "f}")
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		out, err := Resolve(tmpl, v)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		want := strconv.FormatFloat(v, 'f', prec, 64)
		if out.Text() != want {
			t.Fatalf("got %q want %q", out.Text(), want)
		}
	})
}

// TestPropertyLiteralRoundTrip verifies static text without icon tokens is
// returned verbatim.
func TestPropertyLiteralRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		if strings.Contains(s, IconPrefix) {
			t.Skip("contains icon prefix")
		}
		out, err := Resolve(ParseLiteral(s), nil)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if out.Text() != s {
			t.Fatalf("got %q want %q", out.Text(), s)
		}
	})
}

// TestPropertyParseNeverPanics feeds arbitrary templates to the parser.
func TestPropertyParseNeverPanics(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[{}a-z:.0-9%dfs ]{0,24}`).Draw(t, "tmpl")
		tmpl, err := Parse(s)
		if err != nil {
			return
		}
		_, _ = Resolve(tmpl, 1.5)
	})
}
