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
	"context"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockSender is a testify mock for transport.Sender and the controller's
// message submitter.
//
// Example:
//
//	sender := &mocks.MockSender{}
//	sender.On("Send", mock.Anything, mock.Anything).Return(nil)
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *protocol.Message) error {
	args := m.Called(ctx, msg)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Error(0)
}

func (m *MockSender) Submit(ctx context.Context, msg *protocol.Message) error {
	args := m.Called(ctx, msg)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return args.Error(0)
}
