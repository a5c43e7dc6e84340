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

// Package client talks to a running daemon's HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/api"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/config"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrRequestFailed = errors.New("request failed")

// Client calls the daemon API.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a client for the API listening on addr (host:port).
func New(addr string) *Client {
	return &Client{
		http:    &http.Client{Timeout: config.APIRequestTimeout},
		baseURL: "http://" + addr,
	}
}

// Do sends body to path and returns the response body. Non-2xx responses
// are returned as ErrRequestFailed with the server's message.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("closing response body")
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var errResp models.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%w: %d: %s", ErrRequestFailed, resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("%w: %d", ErrRequestFailed, resp.StatusCode)
	}
	return data, nil
}

// Watch streams frame notifications to fn until ctx is done or the
// connection drops.
func (c *Client) Watch(ctx context.Context, fn func(models.Notification)) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = api.EventsPath

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to dial events: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()
	defer func() { _ = conn.Close() }()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("events connection closed: %w", err)
		}
		var notif models.Notification
		if err := json.Unmarshal(data, &notif); err != nil {
			log.Warn().Err(err).Msg("invalid notification")
			continue
		}
		fn(notif)
	}
}
