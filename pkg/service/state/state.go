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

// Package state holds what the service currently knows about the radio,
// built up from the event stream.
//
// Locking: mu guards every field. Notifications are sent after the lock
// is released.
package state

import (
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/ZaparooProject/zaparoo-radio/pkg/screenshot"
	"github.com/rs/zerolog/log"
)

// notificationBuffer leaves room for a burst of telemetry while a slow
// subscriber catches up.
const notificationBuffer = 500

// Display is telemetry rendered the way the receiver shows it.
type Display struct {
	Frequency   string `json:"frequency"`
	Firmware    string `json:"firmware"`
	AGC         string `json:"agc"`
	Calibration string `json:"calibration"`
	Volume      int    `json:"volumePercent"`
	Battery     int    `json:"batteryPercent"`
}

func newDisplay(t *protocol.Telemetry) *Display {
	agc, _ := t.AGCStatus()
	return &Display{
		Frequency:   t.FrequencyString(),
		Firmware:    t.FirmwareString(),
		AGC:         agc,
		Calibration: t.CalibrationString(),
		Volume:      t.VolumePercent(),
		Battery:     t.BatteryPercent(),
	}
}

type ImageInfo struct {
	CapturedAt time.Time          `json:"capturedAt"`
	Saved      *screenshot.Result `json:"saved,omitempty"`
	SessionID  string             `json:"sessionId"`
	Duration   time.Duration      `json:"duration"`
	Bytes      int                `json:"bytes"`
	Partial    bool               `json:"partial,omitempty"`
}

type Failure struct {
	Time   time.Time `json:"time"`
	Method string    `json:"method"`
	Error  string    `json:"error"`
}

// Snapshot is a copy of the state safe to hand out.
type Snapshot struct {
	TelemetryAt time.Time             `json:"telemetryAt,omitzero"`
	Telemetry   *protocol.Telemetry   `json:"telemetry,omitempty"`
	Display     *Display              `json:"display,omitempty"`
	Theme       *events.ThemeCapture  `json:"theme,omitempty"`
	LastImage   *ImageInfo            `json:"lastImage,omitempty"`
	LastFailure *Failure              `json:"lastFailure,omitempty"`
	Memory      []protocol.MemorySlot `json:"memory,omitempty"`
	Events      int                   `json:"events"`
}

type State struct {
	telemetryAt   time.Time
	Notifications chan<- events.Notification
	telemetry     *protocol.Telemetry
	memory        *protocol.MemoryTable
	theme         *events.ThemeCapture
	lastImage     *ImageInfo
	lastFailure   *Failure
	events        int
	mu            syncutil.RWMutex
}

func NewState() (state *State, notifications <-chan events.Notification) {
	ns := make(chan events.Notification, notificationBuffer)
	return &State{Notifications: ns}, ns
}

// Apply folds ev into the state and forwards its notification.
func (s *State) Apply(ev *events.Event) {
	s.mu.Lock()
	s.events++
	switch {
	case ev.Kind.Failed():
		f := &Failure{Time: ev.Time, Method: ev.Kind.String()}
		if ev.Err != nil {
			f.Error = ev.Err.Error()
		}
		s.lastFailure = f
	case ev.Telemetry != nil:
		s.telemetry = ev.Telemetry
		s.telemetryAt = ev.Time
	case ev.Image != nil:
		s.lastImage = &ImageInfo{
			CapturedAt: ev.Time,
			SessionID:  ev.SessionID.String(),
			Duration:   ev.Image.Duration,
			Bytes:      ev.Image.Bytes(),
			Partial:    ev.Image.Partial,
		}
	case ev.Memory != nil:
		table := ev.Memory.Table()
		s.memory = &table
	case ev.Theme != nil:
		theme := *ev.Theme
		s.theme = &theme
	}
	s.mu.Unlock()

	s.notify(ev)
}

func (s *State) notify(ev *events.Event) {
	if s.Notifications == nil {
		return
	}
	n, err := ev.Notification()
	if err != nil {
		log.Error().Err(err).Str("method", ev.Kind.String()).Msg("failed to encode notification")
		return
	}
	select {
	case s.Notifications <- n:
	default:
		log.Warn().Str("method", n.Method).Msg("notification channel full, dropping")
	}
}

// SetImageSaved records where the last image was written.
func (s *State) SetImageSaved(res *screenshot.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastImage != nil {
		s.lastImage.Saved = res
	}
}

func (s *State) Telemetry() (*protocol.Telemetry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.telemetry, s.telemetry != nil
}

// MemoryTable returns the last captured memory bank.
func (s *State) MemoryTable() (protocol.MemoryTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memory == nil {
		return protocol.NewMemoryTable(), false
	}
	return *s.memory, true
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TelemetryAt: s.telemetryAt,
		Telemetry:   s.telemetry,
		Events:      s.events,
	}
	if s.telemetry != nil {
		snap.Display = newDisplay(s.telemetry)
	}
	if s.theme != nil {
		theme := *s.theme
		snap.Theme = &theme
	}
	if s.lastImage != nil {
		img := *s.lastImage
		snap.LastImage = &img
	}
	if s.lastFailure != nil {
		f := *s.lastFailure
		snap.LastFailure = &f
	}
	if s.memory != nil {
		snap.Memory = s.memory.Used()
	}
	return snap
}
