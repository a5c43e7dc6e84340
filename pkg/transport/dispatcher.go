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

package transport

import (
	"context"
	"errors"
	"slices"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSuperseded is returned to a queued request dropped in favour of a
	// newer one with the same supersede key.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrDispatcherClosed is returned for requests made after Run exits.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// Sender runs a single message exchange. Session is the implementation.
type Sender interface {
	Send(ctx context.Context, msg *protocol.Message) error
}

type request struct {
	ctx  context.Context
	msg  *protocol.Message
	done chan error
	id   string
}

// Dispatcher serializes messages onto one sender in FIFO order. Queued
// requests that have not started can be dropped: by a newer request with
// the same supersede key, or by their own context being cancelled. Once a
// request starts it runs to completion.
type Dispatcher struct {
	sender Sender
	wake   chan struct{}
	name   string
	queue  []*request
	mu     syncutil.Mutex
	closed bool
}

// NewDispatcher returns a dispatcher for sender. Nothing is sent until Run
// is called.
func NewDispatcher(name string, sender Sender) *Dispatcher {
	return &Dispatcher{
		name:   name,
		sender: sender,
		wake:   make(chan struct{}, 1),
	}
}

// Enqueue adds msg to the queue and returns a channel that receives the
// result exactly once.
func (d *Dispatcher) Enqueue(ctx context.Context, msg *protocol.Message) <-chan error {
	req := &request{
		ctx:  ctx,
		msg:  msg,
		done: make(chan error, 1),
		id:   uuid.New().String(),
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		req.done <- ErrDispatcherClosed
		return req.done
	}

	if key := msg.SupersedeKey; key != "" {
		d.queue = slices.DeleteFunc(d.queue, func(old *request) bool {
			if old.msg.SupersedeKey != key {
				return false
			}
			log.Debug().
				Str("dispatcher", d.name).
				Str("request", old.id).
				Str("by", req.id).
				Str("key", key).
				Msg("dropping superseded request")
			old.done <- ErrSuperseded
			return true
		})
	}
	d.queue = append(d.queue, req)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return req.done
}

// Submit enqueues msg and waits for its result. If ctx ends while the
// request is still queued it is removed and ctx's error returned; a request
// already on the wire is waited for.
func (d *Dispatcher) Submit(ctx context.Context, msg *protocol.Message) error {
	done := d.Enqueue(ctx, msg)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if d.cancel(done) {
			return ctx.Err()
		}
		return <-done
	}
}

// cancel removes the request owning done if it has not started.
func (d *Dispatcher) cancel(done <-chan error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	before := len(d.queue)
	d.queue = slices.DeleteFunc(d.queue, func(r *request) bool {
		return r.done == done
	})
	return len(d.queue) != before
}

// Pending returns the number of queued requests not yet started.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Run sends queued requests one at a time until ctx is done. Requests still
// queued on exit fail with ErrDispatcherClosed.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Info().Str("dispatcher", d.name).Msg("dispatcher started")
	defer d.shutdown()

	for {
		if ctx.Err() != nil {
			return nil
		}
		req := d.pop()
		if req == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-d.wake:
			}
			continue
		}

		if err := req.ctx.Err(); err != nil {
			log.Debug().
				Str("dispatcher", d.name).
				Str("request", req.id).
				Msg("dropping cancelled request")
			req.done <- err
			continue
		}

		err := d.sender.Send(context.WithoutCancel(req.ctx), req.msg)
		if err != nil {
			log.Error().
				Err(err).
				Str("dispatcher", d.name).
				Str("request", req.id).
				Str("kind", req.msg.Kind).
				Msg("send failed")
		}
		req.done <- err
	}
}

func (d *Dispatcher) pop() *request {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	req := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return req
}

func (d *Dispatcher) shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for _, req := range d.queue {
		req.done <- ErrDispatcherClosed
	}
	d.queue = nil
	log.Info().Str("dispatcher", d.name).Msg("dispatcher stopped")
}
