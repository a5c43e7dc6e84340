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

// Package transport owns the serial links to the panel. A Session holds one
// port and runs single message exchanges on it with ack wait, one retry on
// timeout and reconnection. A Dispatcher queues messages for a session so
// only one exchange is ever on the wire.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/rs/zerolog/log"
)

var (
	// ErrPortUnavailable means the port could not be opened or claimed.
	ErrPortUnavailable = errors.New("port unavailable")
	// ErrDeviceTimeout means no ack arrived in time, even after a retry.
	ErrDeviceTimeout = errors.New("device timeout")
	// ErrErrorAck means the device rejected the message.
	ErrErrorAck = errors.New("device rejected message")
	// ErrNotReady means the session was not in a state that allows the call.
	ErrNotReady = errors.New("session not ready")
)

const (
	DefaultAckTimeout = 2 * time.Second
	DefaultBaudRate   = 115200
	BacklightBaudRate = 9600

	ackPollInterval = 100 * time.Millisecond
)

// Options configure a session.
type Options struct {
	// Name labels the session in logs.
	Name       string
	BaudRate   int
	AckTimeout time.Duration
	// RequireAck waits for an ack byte after each message. Stock firmware
	// never sends one, so a completed write counts as delivered when unset.
	RequireAck bool
}

// Session is a connection to one serial device.
type Session struct {
	port    Port
	factory PortFactory
	state   *StateManager
	path    string
	opts    Options
	mu      syncutil.Mutex
}

// NewSession returns a disconnected session. A nil factory opens real ports.
func NewSession(opts Options, factory PortFactory) *Session {
	if factory == nil {
		factory = DefaultPortFactory
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = DefaultAckTimeout
	}
	if opts.Name == "" {
		opts.Name = "serial"
	}
	return &Session{
		factory: factory,
		opts:    opts,
		state:   NewStateManager(),
	}
}

// State returns the connection state.
func (s *Session) State() State {
	return s.state.State()
}

// Path returns the port path of the last Open call.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Open connects to the port at path. Opening a session that is already
// ready on the same path is a no-op.
func (s *Session) Open(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.State() == StateReady && s.path == path {
		return nil
	}
	if !s.state.Transition(StateDisconnected, StateConnecting) {
		return fmt.Errorf("%w: cannot open while %s", ErrNotReady, s.state.State())
	}
	s.path = path
	return s.connectLocked()
}

// connectLocked opens s.path. The state must be StateConnecting.
func (s *Session) connectLocked() error {
	port, err := s.factory(s.path, serialMode(s.opts.BaudRate))
	if err != nil {
		s.state.ForceState(StateDisconnected)
		return fmt.Errorf("%w: %s: %w", ErrPortUnavailable, s.path, err)
	}

	if err := port.SetReadTimeout(ackPollInterval); err != nil {
		_ = port.Close()
		s.state.ForceState(StateDisconnected)
		return fmt.Errorf("%w: failed to set read timeout: %w", ErrPortUnavailable, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		log.Debug().Err(err).Str("session", s.opts.Name).Msg("failed to reset input buffer")
	}

	s.port = port
	s.state.Transition(StateConnecting, StateReady)
	log.Info().
		Str("session", s.opts.Name).
		Str("path", s.path).
		Int("baud", s.opts.BaudRate).
		Msg("serial port connected")
	return nil
}

// reconnectLocked closes any open port and opens s.path again.
func (s *Session) reconnectLocked() error {
	s.closePortLocked()
	s.state.ForceState(StateDisconnected)
	if s.path == "" {
		return fmt.Errorf("%w: no port configured", ErrPortUnavailable)
	}
	s.state.Transition(StateDisconnected, StateConnecting)
	return s.connectLocked()
}

// Send writes msg and waits for its ack. A session left disconnected by an
// earlier failure reconnects first. A timed out exchange is retried once on
// a fresh connection; a rejected one is not retried.
//
// ctx is only checked before the first byte is written.
func (s *Session) Send(ctx context.Context, msg *protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.State() == StateDisconnected {
		if err := s.reconnectLocked(); err != nil {
			return err
		}
	}

	err := s.exchangeLocked(msg)
	if !errors.Is(err, ErrDeviceTimeout) {
		return err
	}

	log.Warn().
		Str("session", s.opts.Name).
		Str("kind", msg.Kind).
		Msg("device timed out, retrying on a fresh connection")
	if rerr := s.reconnectLocked(); rerr != nil {
		return fmt.Errorf("%w: reconnect failed: %w", ErrDeviceTimeout, rerr)
	}
	return s.exchangeLocked(msg)
}

// exchangeLocked runs one write and ack wait from StateReady.
func (s *Session) exchangeLocked(msg *protocol.Message) error {
	if !s.state.Transition(StateReady, StateSending) {
		return fmt.Errorf("%w: cannot send while %s", ErrNotReady, s.state.State())
	}

	start := time.Now()
	for i, packet := range msg.Packets {
		if err := writeAll(s.port, packet); err != nil {
			s.dropLocked()
			if isDisconnectionError(err) {
				log.Info().Err(err).Str("session", s.opts.Name).Msg("device disconnected during write")
				return fmt.Errorf("%w: %w", ErrPortUnavailable, err)
			}
			return fmt.Errorf("failed to write packet %d of %s: %w", i+1, msg.Kind, err)
		}
	}

	if !s.opts.RequireAck {
		s.state.Transition(StateSending, StateReady)
		log.Debug().
			Str("session", s.opts.Name).
			Str("kind", msg.Kind).
			Int("bytes", msg.Len()).
			Dur("took", time.Since(start)).
			Msg("message written")
		return nil
	}

	ack, err := s.awaitAckLocked()
	switch {
	case err != nil:
		s.dropLocked()
		return err
	case ack == protocol.AckError:
		s.state.Transition(StateSending, StateReady)
		return fmt.Errorf("%w: %s", ErrErrorAck, msg.Kind)
	default:
		s.state.Transition(StateSending, StateReady)
		log.Debug().
			Str("session", s.opts.Name).
			Str("kind", msg.Kind).
			Int("bytes", msg.Len()).
			Dur("took", time.Since(start)).
			Msg("message acknowledged")
		return nil
	}
}

// awaitAckLocked reads until an ack or nak byte arrives or the ack timeout
// passes. Other bytes are discarded.
func (s *Session) awaitAckLocked() (protocol.Ack, error) {
	deadline := time.Now().Add(s.opts.AckTimeout)
	buf := make([]byte, 16)
	for time.Now().Before(deadline) {
		n, err := s.port.Read(buf)
		if err != nil {
			if isDisconnectionError(err) {
				return protocol.AckUnknown, fmt.Errorf("%w: %w", ErrPortUnavailable, err)
			}
			return protocol.AckUnknown, fmt.Errorf("failed to read ack: %w", err)
		}
		for _, b := range buf[:n] {
			if ack := protocol.DecodeAck(b); ack != protocol.AckUnknown {
				return ack, nil
			}
			log.Trace().Str("session", s.opts.Name).Hex("byte", []byte{b}).Msg("ignoring unexpected byte")
		}
	}
	return protocol.AckUnknown, fmt.Errorf("%w: no ack within %s", ErrDeviceTimeout, s.opts.AckTimeout)
}

func writeAll(p Port, data []byte) error {
	for len(data) > 0 {
		n, err := p.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("short write")
		}
		data = data[n:]
	}
	return nil
}

// dropLocked closes the port after a failed exchange.
func (s *Session) dropLocked() {
	s.closePortLocked()
	s.state.ForceState(StateDisconnected)
}

func (s *Session) closePortLocked() {
	if s.port == nil {
		return
	}
	if err := s.port.Close(); err != nil {
		log.Debug().Err(err).Str("session", s.opts.Name).Msg("error closing port")
	}
	s.port = nil
}

// Close releases the port. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		s.state.ForceState(StateDisconnected)
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.state.ForceState(StateDisconnected)
	log.Info().Str("session", s.opts.Name).Str("path", s.path).Msg("serial port closed")
	if err != nil {
		return fmt.Errorf("failed to close port: %w", err)
	}
	return nil
}
