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

package api

import (
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/google/uuid"
)

// Radio is the control surface the API drives.
type Radio interface {
	Connected() bool
	Path() string
	Send(cmd protocol.Command) error
	Request(mode protocol.Mode) (uuid.UUID, error)
	PreviewTheme(colors string) error
	SetSleep(on bool) error
	SetMemorySlot(slot protocol.MemorySlot) error
	DispatcherState() radio.DispatcherState
	Session() (capture.SessionInfo, bool)
}

// ControllerRadio adapts a radio.Controller to Radio.
type ControllerRadio struct {
	C *radio.Controller
}

func (r ControllerRadio) Connected() bool { return r.C.Connected() }
func (r ControllerRadio) Path() string    { return r.C.Path() }

func (r ControllerRadio) Send(cmd protocol.Command) error {
	return r.C.Dispatcher().Send(cmd)
}

func (r ControllerRadio) Request(mode protocol.Mode) (uuid.UUID, error) {
	return r.C.Dispatcher().Request(mode)
}

func (r ControllerRadio) PreviewTheme(colors string) error {
	return r.C.Dispatcher().PreviewTheme(colors)
}

func (r ControllerRadio) SetSleep(on bool) error {
	return r.C.Dispatcher().SetSleep(on)
}

func (r ControllerRadio) SetMemorySlot(slot protocol.MemorySlot) error {
	return r.C.Dispatcher().SetMemorySlot(slot)
}

func (r ControllerRadio) DispatcherState() radio.DispatcherState {
	return r.C.Dispatcher().State()
}

func (r ControllerRadio) Session() (capture.SessionInfo, bool) {
	return r.C.Machine().Session()
}
