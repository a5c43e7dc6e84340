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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPFilter_IsAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		allowed    []string
		expected   bool
	}{
		{name: "empty allows all", allowed: nil, remoteAddr: "203.0.113.9:5000", expected: true},
		{name: "exact ip", allowed: []string{"192.168.1.10"}, remoteAddr: "192.168.1.10:5000", expected: true},
		{name: "ip with port entry", allowed: []string{"192.168.1.10:7498"}, remoteAddr: "192.168.1.10:1", expected: true},
		{name: "cidr match", allowed: []string{"10.0.0.0/8"}, remoteAddr: "10.4.5.6:80", expected: true},
		{name: "cidr miss", allowed: []string{"10.0.0.0/8"}, remoteAddr: "192.168.1.1:80", expected: false},
		{name: "loopback always", allowed: []string{"10.0.0.0/8"}, remoteAddr: "127.0.0.1:80", expected: true},
		{name: "ipv6 loopback", allowed: []string{"10.0.0.0/8"}, remoteAddr: "[::1]:80", expected: true},
		{name: "unparseable", allowed: []string{"10.0.0.0/8"}, remoteAddr: "nonsense", expected: false},
		{name: "invalid entries skipped", allowed: []string{"bogus", "192.168.1.10"}, remoteAddr: "192.168.1.10:1", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NewIPFilter(tt.allowed).IsAllowed(tt.remoteAddr))
		})
	}
}

func TestHTTPIPFilterMiddleware(t *testing.T) {
	t.Parallel()

	handler := HTTPIPFilterMiddleware(NewIPFilter([]string{"192.168.1.0/24"}))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/elements", http.NoBody)
	req.RemoteAddr = "192.168.1.50:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req.RemoteAddr = "192.168.2.50:4000"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestParseRemoteIP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "192.168.1.1", ParseRemoteIP("192.168.1.1:8080").String())
	assert.Equal(t, "192.168.1.1", ParseRemoteIP("192.168.1.1").String())
	assert.Equal(t, "::1", ParseRemoteIP("[::1]:8080").String())
	assert.Nil(t, ParseRemoteIP("not-an-ip"))
}
