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

package state

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/ZaparooProject/zaparoo-radio/pkg/screenshot"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const telemetryLine = "201,7200,0,0,40M,AM,5k,4k,0,35,20,10,0,3.85,0"

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func telemetryEvent(t *testing.T) *events.Event {
	t.Helper()
	tel, err := protocol.ParseTelemetry(telemetryLine)
	require.NoError(t, err)
	return &events.Event{Kind: events.KindTelemetry, Time: now, Telemetry: tel}
}

func TestApplyTelemetry(t *testing.T) {
	t.Parallel()

	s, ns := NewState()
	s.Apply(telemetryEvent(t))

	tel, ok := s.Telemetry()
	require.True(t, ok)
	assert.Equal(t, 7200, tel.Frequency)

	snap := s.Snapshot()
	require.NotNil(t, snap.Display)
	assert.Equal(t, "7200 kHz", snap.Display.Frequency)
	assert.Equal(t, "v2.01", snap.Display.Firmware)
	assert.Equal(t, "AGC: On", snap.Display.AGC)
	assert.Equal(t, 56, snap.Display.Volume)
	assert.Equal(t, 65, snap.Display.Battery)
	assert.Equal(t, now, snap.TelemetryAt)
	assert.Equal(t, 1, snap.Events)

	n := <-ns
	assert.Equal(t, events.MethodTelemetry, n.Method)
}

func TestApplyCaptures(t *testing.T) {
	t.Parallel()

	s, _ := NewState()
	id := uuid.New()

	s.Apply(&events.Event{
		Kind:      events.KindImageCaptured,
		Time:      now,
		SessionID: id,
		Image:     &events.ImageCapture{Hex: "424d0000", Duration: 3 * time.Second},
	})
	s.SetImageSaved(&screenshot.Result{BMPPath: "/x.bmp", Size: 4})

	lines := []string{"01,FM,102500000,FM", "05,40M,7200000,LSB"}
	s.Apply(&events.Event{Kind: events.KindMemoryCaptured, Memory: &events.MemoryCapture{Lines: lines}})
	s.Apply(&events.Event{Kind: events.KindThemeCaptured, Theme: &events.ThemeCapture{Name: "Default", Colors: "x0000xFFFF"}})

	snap := s.Snapshot()
	require.NotNil(t, snap.LastImage)
	assert.Equal(t, id.String(), snap.LastImage.SessionID)
	assert.Equal(t, 4, snap.LastImage.Bytes)
	require.NotNil(t, snap.LastImage.Saved)
	assert.Equal(t, "/x.bmp", snap.LastImage.Saved.BMPPath)

	require.Len(t, snap.Memory, 2)
	assert.Equal(t, 5, snap.Memory[1].Slot)
	table, ok := s.MemoryTable()
	assert.True(t, ok)
	assert.Equal(t, "LSB", table[4].Mode)

	require.NotNil(t, snap.Theme)
	assert.Equal(t, "Default", snap.Theme.Name)
	assert.Nil(t, snap.LastFailure)
}

func TestApplyFailure(t *testing.T) {
	t.Parallel()

	s, ns := NewState()
	err := &events.CaptureError{Err: events.ErrNoData, Mode: protocol.ModeMemory}
	s.Apply(&events.Event{Kind: events.KindMemoryCaptureFailed, Time: now, Err: err})

	snap := s.Snapshot()
	require.NotNil(t, snap.LastFailure)
	assert.Equal(t, events.MethodMemoryCaptureFailed, snap.LastFailure.Method)
	assert.Contains(t, snap.LastFailure.Error, "memory capture failed")

	n := <-ns
	var params map[string]any
	require.NoError(t, json.Unmarshal(n.Params, &params))
	assert.Equal(t, "memory", params["mode"])
}

func TestEmptyState(t *testing.T) {
	t.Parallel()

	s, _ := NewState()
	_, ok := s.Telemetry()
	assert.False(t, ok)
	table, ok := s.MemoryTable()
	assert.False(t, ok)
	assert.Equal(t, 32, table[31].Slot)
	s.SetImageSaved(&screenshot.Result{})
	assert.Nil(t, s.Snapshot().LastImage)
}

func TestFullNotificationChannelDrops(t *testing.T) {
	t.Parallel()

	s, ns := NewState()
	for i := range notificationBuffer + 10 {
		s.Apply(&events.Event{Kind: events.KindThemeCaptured, Theme: &events.ThemeCapture{Name: fmt.Sprint(i)}})
	}
	assert.Len(t, ns, notificationBuffer)
	assert.Equal(t, fmt.Sprint(notificationBuffer+9), s.Snapshot().Theme.Name)
}
