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

// Package events defines what the radio core reports to its consumer and
// the queue those reports travel through.
package events

import (
	"encoding/json"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/google/uuid"
)

type Kind int

const (
	KindTelemetry Kind = iota
	KindImageCaptured
	KindImageCaptureFailed
	KindMemoryCaptured
	KindMemoryCaptureFailed
	KindThemeCaptured
	KindThemeCaptureFailed
	KindConnectionLost
)

// Notification method names, used on the API and as MQTT topic suffixes.
const (
	MethodTelemetry           = "radio.telemetry"
	MethodImageCaptured       = "capture.image"
	MethodImageCaptureFailed  = "capture.image.failed"
	MethodMemoryCaptured      = "capture.memory"
	MethodMemoryCaptureFailed = "capture.memory.failed"
	MethodThemeCaptured       = "capture.theme"
	MethodThemeCaptureFailed  = "capture.theme.failed"
	MethodConnectionLost      = "connection.lost"
)

var kindMethods = map[Kind]string{
	KindTelemetry:           MethodTelemetry,
	KindImageCaptured:       MethodImageCaptured,
	KindImageCaptureFailed:  MethodImageCaptureFailed,
	KindMemoryCaptured:      MethodMemoryCaptured,
	KindMemoryCaptureFailed: MethodMemoryCaptureFailed,
	KindThemeCaptured:       MethodThemeCaptured,
	KindThemeCaptureFailed:  MethodThemeCaptureFailed,
	KindConnectionLost:      MethodConnectionLost,
}

func (k Kind) String() string {
	if m, ok := kindMethods[k]; ok {
		return m
	}
	return "unknown"
}

// Failed reports whether the kind signals a failure.
func (k Kind) Failed() bool {
	switch k {
	case KindImageCaptureFailed, KindMemoryCaptureFailed, KindThemeCaptureFailed, KindConnectionLost:
		return true
	default:
		return false
	}
}

// ImageCapture is a finished screenshot dump. Hex is the raw payload as
// received; Duration runs from the request being written to finalization.
type ImageCapture struct {
	Hex      string        `json:"hex"`
	Duration time.Duration `json:"duration"`
	Partial  bool          `json:"partial,omitempty"`
}

// Bytes is the decoded payload length, assuming valid hex.
func (c *ImageCapture) Bytes() int {
	return len(c.Hex) / 2
}

// MemoryCapture holds slot lines in arrival order.
type MemoryCapture struct {
	Lines   []string `json:"lines"`
	Partial bool     `json:"partial,omitempty"`
}

// Table parses the captured lines into a slot indexed table.
func (c *MemoryCapture) Table() protocol.MemoryTable {
	return protocol.ParseMemoryTable(c.Lines)
}

type ThemeCapture struct {
	Name   string `json:"name"`
	Colors string `json:"colors"`
}

// Event is one item delivered to the consumer. Exactly one payload pointer
// is set for success kinds; failure kinds carry Err.
type Event struct {
	Time      time.Time
	Err       error
	Telemetry *protocol.Telemetry
	Image     *ImageCapture
	Memory    *MemoryCapture
	Theme     *ThemeCapture
	SessionID uuid.UUID
	Kind      Kind
}

// Notification is the wire form of an event.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type failureParams struct {
	Error     string `json:"error"`
	Mode      string `json:"mode,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Items     int    `json:"items,omitempty"`
}

type imageParams struct {
	SessionID  string  `json:"sessionId"`
	Hex        string  `json:"hex"`
	Bytes      int     `json:"bytes"`
	DurationMs int64   `json:"durationMs"`
	Seconds    float64 `json:"seconds"`
	Partial    bool    `json:"partial,omitempty"`
}

type memoryParams struct {
	SessionID string                `json:"sessionId"`
	Lines     []string              `json:"lines"`
	Slots     []protocol.MemorySlot `json:"slots"`
	Partial   bool                  `json:"partial,omitempty"`
}

type themeParams struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Colors    string `json:"colors"`
	Count     int    `json:"count"`
}

// Params builds the JSON parameters for the event's notification.
func (e *Event) Params() any {
	sid := ""
	if e.SessionID != uuid.Nil {
		sid = e.SessionID.String()
	}

	switch {
	case e.Kind.Failed():
		p := failureParams{SessionID: sid}
		if e.Err != nil {
			p.Error = e.Err.Error()
		}
		var ce *CaptureError
		if AsCaptureError(e.Err, &ce) {
			p.Mode = ce.Mode.String()
			p.Items = ce.Items
		}
		return p
	case e.Telemetry != nil:
		return e.Telemetry
	case e.Image != nil:
		return imageParams{
			SessionID:  sid,
			Hex:        e.Image.Hex,
			Bytes:      e.Image.Bytes(),
			DurationMs: e.Image.Duration.Milliseconds(),
			Seconds:    e.Image.Duration.Seconds(),
			Partial:    e.Image.Partial,
		}
	case e.Memory != nil:
		table := e.Memory.Table()
		return memoryParams{
			SessionID: sid,
			Lines:     e.Memory.Lines,
			Slots:     table.Used(),
			Partial:   e.Memory.Partial,
		}
	case e.Theme != nil:
		palette, _ := protocol.ParsePalette(e.Theme.Colors)
		return themeParams{
			SessionID: sid,
			Name:      e.Theme.Name,
			Colors:    e.Theme.Colors,
			Count:     len(palette),
		}
	default:
		return nil
	}
}

// Notification marshals the event for the API and publishers.
func (e *Event) Notification() (Notification, error) {
	n := Notification{Method: e.Kind.String()}
	params := e.Params()
	if params == nil {
		return n, nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return n, err
	}
	n.Params = b
	return n, nil
}
