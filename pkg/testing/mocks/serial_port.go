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

package mocks

import (
	"bytes"
	"errors"
	"time"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
)

// MockSerialPort is an in-memory serial port. Writes are recorded and may
// queue bytes for later reads through OnWrite. Reads with nothing queued
// sleep briefly and return no data, like a real port hitting its read
// timeout.
type MockSerialPort struct {
	WriteError error
	ReadError  error
	CloseError error
	TimeoutErr error
	// OnWrite is called with every written buffer; the returned bytes are
	// made available to Read.
	OnWrite func(p []byte) []byte
	readBuf bytes.Buffer
	written [][]byte
	resets  int
	mu      syncutil.Mutex
	closed  bool
}

// NewMockSerialPort creates an open mock port.
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// AckEvery returns an OnWrite hook that replies with ack after every n-th
// write.
func AckEvery(n int, ack byte) func([]byte) []byte {
	count := 0
	return func([]byte) []byte {
		count++
		if count%n == 0 {
			return []byte{ack}
		}
		return nil
	}
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, errors.New("port closed")
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.mu.Unlock()
		return 0, err
	}
	if m.readBuf.Len() > 0 {
		n, _ := m.readBuf.Read(p)
		m.mu.Unlock()
		return n, nil
	}
	m.mu.Unlock()

	time.Sleep(10 * time.Millisecond)
	return 0, nil
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.written = append(m.written, bytes.Clone(p))
	if m.OnWrite != nil {
		m.readBuf.Write(m.OnWrite(p))
	}
	return len(p), nil
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(time.Duration) error {
	return m.TimeoutErr
}

func (m *MockSerialPort) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.readBuf.Reset()
	return nil
}

// QueueRead makes data available to the next reads.
func (m *MockSerialPort) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Write(data)
}

// Written returns copies of every buffer written so far.
func (m *MockSerialPort) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

// IsClosed reports whether Close was called.
func (m *MockSerialPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
