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

package capture

import (
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/google/uuid"
)

// payload is the mode specific buffer of an open session.
type payload interface {
	mode() protocol.Mode
	items() int
	// result builds the success event payload; only called when items > 0.
	result(ev *events.Event, elapsed time.Duration, partial bool)
}

type imagePayload struct {
	hex   strings.Builder
	lines int
}

func (*imagePayload) mode() protocol.Mode { return protocol.ModeImage }
func (p *imagePayload) items() int        { return p.lines }

func (p *imagePayload) result(ev *events.Event, elapsed time.Duration, partial bool) {
	ev.Kind = events.KindImageCaptured
	ev.Image = &events.ImageCapture{
		Hex:      p.hex.String(),
		Duration: elapsed,
		Partial:  partial,
	}
}

type memoryPayload struct {
	lines []string
}

func (*memoryPayload) mode() protocol.Mode { return protocol.ModeMemory }
func (p *memoryPayload) items() int        { return len(p.lines) }

func (p *memoryPayload) result(ev *events.Event, _ time.Duration, partial bool) {
	ev.Kind = events.KindMemoryCaptured
	ev.Memory = &events.MemoryCapture{
		Lines:   append([]string(nil), p.lines...),
		Partial: partial,
	}
}

type themePayload struct {
	name   string
	colors string
}

func (*themePayload) mode() protocol.Mode { return protocol.ModeTheme }

func (p *themePayload) items() int {
	if p.colors == "" {
		return 0
	}
	return 1
}

func (p *themePayload) result(ev *events.Event, _ time.Duration, _ bool) {
	ev.Kind = events.KindThemeCaptured
	ev.Theme = &events.ThemeCapture{Name: p.name, Colors: p.colors}
}

func newPayload(mode protocol.Mode) payload {
	switch mode {
	case protocol.ModeImage:
		return &imagePayload{}
	case protocol.ModeMemory:
		return &memoryPayload{}
	case protocol.ModeTheme:
		return &themePayload{}
	default:
		return nil
	}
}

// Session is the one open capture. The machine holds a nil session while
// idle.
type Session struct {
	RequestedAt  time.Time
	LastActivity time.Time
	payload      payload
	ID           uuid.UUID
}

func (s *Session) Mode() protocol.Mode {
	return s.payload.mode()
}

// Items is the number of buffered lines (or colour strings).
func (s *Session) Items() int {
	return s.payload.items()
}

// SessionInfo is a read-only snapshot of the open session.
type SessionInfo struct {
	RequestedAt  time.Time     `json:"requestedAt"`
	LastActivity time.Time     `json:"lastActivity"`
	Mode         protocol.Mode `json:"-"`
	ModeName     string        `json:"mode"`
	Items        int           `json:"items"`
	ID           uuid.UUID     `json:"id"`
}

func (s *Session) info() SessionInfo {
	return SessionInfo{
		ID:           s.ID,
		Mode:         s.Mode(),
		ModeName:     s.Mode().String(),
		Items:        s.Items(),
		RequestedAt:  s.RequestedAt,
		LastActivity: s.LastActivity,
	}
}
