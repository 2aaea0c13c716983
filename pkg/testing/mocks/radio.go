// Zaparoo Radio
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Radio.
//
// Zaparoo Radio is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Radio is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Radio.  If not, see <http://www.gnu.org/licenses/>.

package mocks

import (
	"fmt"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRadio mocks the radio as seen by the API server.
type MockRadio struct {
	mock.Mock
}

// NewMockRadio returns a connected radio on /dev/ttyACM0 with no capture
// running. Status calls are optional; everything else must be expected.
func NewMockRadio() *MockRadio {
	m := &MockRadio{}
	m.On("Connected").Return(true).Maybe()
	m.On("Path").Return("/dev/ttyACM0").Maybe()
	m.On("DispatcherState").Return(radio.DispatcherState{Connected: true, LogEnabled: true}).Maybe()
	m.On("Session").Return(capture.SessionInfo{}, false).Maybe()
	return m
}

func mockErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("mock operation failed: %w", err)
}

func (m *MockRadio) Connected() bool {
	return m.Called().Bool(0)
}

func (m *MockRadio) Path() string {
	return m.Called().String(0)
}

func (m *MockRadio) Send(cmd protocol.Command) error {
	return mockErr(m.Called(cmd).Error(0))
}

func (m *MockRadio) Request(mode protocol.Mode) (uuid.UUID, error) {
	args := m.Called(mode)
	id, _ := args.Get(0).(uuid.UUID)
	return id, mockErr(args.Error(1))
}

func (m *MockRadio) PreviewTheme(colors string) error {
	return mockErr(m.Called(colors).Error(0))
}

func (m *MockRadio) SetSleep(on bool) error {
	return mockErr(m.Called(on).Error(0))
}

func (m *MockRadio) SetMemorySlot(slot protocol.MemorySlot) error {
	return mockErr(m.Called(slot).Error(0))
}

func (m *MockRadio) DispatcherState() radio.DispatcherState {
	s, _ := m.Called().Get(0).(radio.DispatcherState)
	return s
}

func (m *MockRadio) Session() (capture.SessionInfo, bool) {
	args := m.Called()
	info, _ := args.Get(0).(capture.SessionInfo)
	return info, args.Bool(1)
}
