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

// Package models defines the JSON bodies exchanged over the radio API.
package models

import (
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/ZaparooProject/zaparoo-radio/pkg/service/state"
)

const (
	// EventsPath is the websocket endpoint.
	EventsPath = "/api/events"
	Ping       = "ping"
	Pong       = "pong"
)

// WSRequest is a message sent by a websocket client. Exactly one action
// field should be set.
type WSRequest struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command,omitempty" validate:"omitempty,radiocommand"`
	Capture string `json:"capture,omitempty" validate:"omitempty,capturemode"`
	Theme   string `json:"theme,omitempty" validate:"omitempty,themecolors"`
}

// WSResponse answers a WSRequest with the same ID.
type WSResponse struct {
	ID        string `json:"id,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
	OK        bool   `json:"ok"`
}

type CaptureResponse struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
}

type ThemePreviewRequest struct {
	Colors string `json:"colors" validate:"required,themecolors"`
}

type MemorySlotRequest struct {
	Band        string `json:"band" validate:"required"`
	FrequencyHz string `json:"frequencyHz" validate:"required,numeric"`
	Mode        string `json:"mode" validate:"required,oneof=AM FM LSB USB CW"`
}

type SleepRequest struct {
	On bool `json:"on"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

type StatusResponse struct {
	Capture    *capture.SessionInfo  `json:"capture,omitempty"`
	Port       string                `json:"port,omitempty"`
	State      state.Snapshot        `json:"state"`
	Dispatcher radio.DispatcherState `json:"dispatcher"`
	Connected  bool                  `json:"connected"`
}

// MemoryEntry is a slot as listed by GET /api/memory.
type MemoryEntry struct {
	protocol.MemorySlot
	Display string `json:"display"`
	Empty   bool   `json:"empty"`
}

type MemoryResponse struct {
	Slots    []MemoryEntry `json:"slots"`
	Captured bool          `json:"captured"`
}

type CommandsResponse struct {
	Commands []string `json:"commands"`
}
