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

import "sync/atomic"

// State is the connection state of a session.
type State int32

const (
	// StateDisconnected means no port is open.
	StateDisconnected State = iota
	// StateConnecting means the port is being opened and configured.
	StateConnecting
	// StateReady means the port is open and idle.
	StateReady
	// StateSending means a message is on the wire or awaiting its ack.
	StateSending
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateReady:
		return "Ready"
	case StateSending:
		return "Sending"
	default:
		return "Unknown"
	}
}

// IsValidTransition checks if a session may move from one state to another.
func IsValidTransition(from, to State) bool {
	switch from {
	case StateDisconnected:
		return to == StateConnecting
	case StateConnecting:
		return to == StateReady || to == StateDisconnected
	case StateReady:
		return to == StateSending || to == StateDisconnected
	case StateSending:
		// A timeout or lost port drops straight to disconnected.
		return to == StateReady || to == StateDisconnected
	default:
		return false
	}
}

// StateManager holds a session state with atomic, validated transitions.
type StateManager struct {
	state atomic.Int32
}

// NewStateManager creates a state manager in StateDisconnected.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// State returns the current state.
func (sm *StateManager) State() State {
	return State(sm.state.Load())
}

// Transition moves from the expected state to next. It fails if the current
// state is not from or the transition is not allowed.
func (sm *StateManager) Transition(from, next State) bool {
	if !IsValidTransition(from, next) {
		return false
	}
	return sm.state.CompareAndSwap(int32(from), int32(next))
}

// SetState moves to next from whatever the current state is, if allowed.
func (sm *StateManager) SetState(next State) bool {
	for {
		current := sm.State()
		if !IsValidTransition(current, next) {
			return false
		}
		if sm.state.CompareAndSwap(int32(current), int32(next)) {
			return true
		}
	}
}

// ForceState sets the state without validation. Only Close uses it, to
// reset from any state.
func (sm *StateManager) ForceState(next State) {
	sm.state.Store(int32(next))
}
