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

// Package capture decides when the receiver's unframed capture dumps
// (screenshot, memory bank, colour theme) have finished, and turns them into
// events.
package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrCaptureInProgress = errors.New("capture already in progress")
	ErrNotCaptureMode    = errors.New("not a capture mode")
)

// Timeouts are the per mode inactivity windows. A capture finishes once
// no line has arrived for its window.
type Timeouts struct {
	Image  time.Duration
	Memory time.Duration
	Theme  time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Image:  10 * time.Second,
		Memory: 1200 * time.Millisecond,
		Theme:  3 * time.Second,
	}
}

func (t Timeouts) For(mode protocol.Mode) time.Duration {
	switch mode {
	case protocol.ModeImage:
		return t.Image
	case protocol.ModeMemory:
		return t.Memory
	case protocol.ModeTheme:
		return t.Theme
	default:
		return 0
	}
}

// FinalizeFunc is called after every finished capture, success or failure,
// once its events are queued. It is not called for aborted captures.
type FinalizeFunc func(mode protocol.Mode)

// Machine is the capture state machine. All methods are safe for
// concurrent use; events are pushed and the finalize hook runs outside the
// machine lock.
type Machine struct {
	clock      clockwork.Clock
	sink       events.Sink
	onFinalize FinalizeFunc
	session    *Session
	timeouts   Timeouts
	mu         syncutil.Mutex
}

type Option func(*Machine)

func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(m *Machine) {
		m.timeouts = t
	}
}

func NewMachine(sink events.Sink, opts ...Option) *Machine {
	m := &Machine{
		clock:    clockwork.NewRealClock(),
		sink:     sink,
		timeouts: DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetFinalizeHook registers fn to run after each finished capture.
func (m *Machine) SetFinalizeHook(fn FinalizeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinalize = fn
}

// Mode returns the active capture mode, ModeIdle when none is open.
func (m *Machine) Mode() protocol.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return protocol.ModeIdle
	}
	return m.session.Mode()
}

// Session returns a snapshot of the open session.
func (m *Machine) Session() (SessionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return SessionInfo{}, false
	}
	return m.session.info(), true
}

// Begin opens a capture session. It fails, leaving any open session
// untouched, if one is already in progress.
func (m *Machine) Begin(mode protocol.Mode) (uuid.UUID, error) {
	p := newPayload(mode)
	if p == nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNotCaptureMode, mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrCaptureInProgress, m.session.Mode())
	}

	now := m.clock.Now()
	m.session = &Session{
		ID:           uuid.New(),
		RequestedAt:  now,
		LastActivity: now,
		payload:      p,
	}
	log.Debug().Str("mode", mode.String()).Str("session", m.session.ID.String()).Msg("capture started")
	return m.session.ID, nil
}

// MarkRequested restarts the session clocks once the request has actually
// been written, so settle delays don't eat into the window.
func (m *Machine) MarkRequested() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	now := m.clock.Now()
	m.session.RequestedAt = now
	m.session.LastActivity = now
}

// outcome collects what a locked step wants delivered once unlocked.
type outcome struct {
	events   []events.Event
	finished bool
	mode     protocol.Mode
}

func (m *Machine) deliver(o outcome) {
	for _, ev := range o.events {
		m.sink.Push(ev)
	}
	if !o.finished {
		return
	}

	m.mu.Lock()
	hook := m.onFinalize
	m.mu.Unlock()
	if hook != nil {
		hook(o.mode)
	}
}

// HandleLine processes one decoded line.
func (m *Machine) HandleLine(line string) {
	m.mu.Lock()
	o := m.handleLineLocked(line)
	m.mu.Unlock()
	m.deliver(o)
}

func (m *Machine) handleLineLocked(line string) outcome {
	var o outcome
	s := m.session

	if s == nil {
		m.handleIdleLine(line, &o)
		return o
	}

	mode := s.Mode()
	now := m.clock.Now()

	if line == "" {
		if s.Items() > 0 {
			s.LastActivity = now
		}
		return o
	}

	switch protocol.Classify(mode, line) {
	case protocol.KindHexFragment:
		p, _ := s.payload.(*imagePayload)
		p.hex.WriteString(line)
		p.lines++
		s.LastActivity = now
	case protocol.KindMemorySlot:
		p, _ := s.payload.(*memoryPayload)
		p.lines = append(p.lines, line)
		s.LastActivity = now
		if len(p.lines) >= protocol.MemorySlots {
			m.finalizeLocked(&o, "bank complete")
		}
	case protocol.KindThemeFragment:
		p, _ := s.payload.(*themePayload)
		p.name, p.colors, _ = protocol.ParseThemeLine(line)
		s.LastActivity = now
		m.finalizeLocked(&o, "theme received")
	case protocol.KindTelemetry:
		if s.Items() > 0 {
			m.finalizeLocked(&o, "telemetry resumed")
		}
		m.pushTelemetry(line, &o)
	case protocol.KindAcknowledgment:
		log.Debug().Str("line", line).Str("mode", mode.String()).Msg("device acknowledgment")
		s.LastActivity = now
	case protocol.KindUnclassified:
		if mode == protocol.ModeTheme {
			s.LastActivity = now
		}
		log.Debug().Str("line", line).Str("mode", mode.String()).Msg("discarding unclassified line")
	}
	return o
}

func (m *Machine) handleIdleLine(line string, o *outcome) {
	switch {
	case line == "":
	case protocol.Classify(protocol.ModeIdle, line) == protocol.KindTelemetry:
		m.pushTelemetry(line, o)
	case protocol.IsMemorySetEcho(line):
		log.Debug().Str("line", line).Msg("memory set echoed")
	default:
		log.Debug().Str("line", line).Msg("unclassified line while idle")
	}
}

func (m *Machine) pushTelemetry(line string, o *outcome) {
	tel, err := protocol.ParseTelemetry(line)
	if err != nil {
		log.Warn().Err(err).Msg("discarding malformed telemetry")
		return
	}
	o.events = append(o.events, events.Event{
		Kind:      events.KindTelemetry,
		Time:      m.clock.Now(),
		Telemetry: tel,
	})
}

// HandleCorruption reports an undecodable line. While idle it is dropped;
// during a capture the capture fails and whatever was buffered is still
// delivered, marked partial.
func (m *Machine) HandleCorruption(raw []byte) {
	m.mu.Lock()
	s := m.session
	if s == nil {
		m.mu.Unlock()
		log.Debug().Int("bytes", len(raw)).Msg("dropping undecodable line while idle")
		return
	}

	mode := s.Mode()
	items := s.Items()
	m.session = nil
	now := m.clock.Now()

	o := outcome{finished: true, mode: mode}
	o.events = append(o.events, events.Event{
		Kind:      events.FailureKind(mode),
		Time:      now,
		SessionID: s.ID,
		Err:       &events.CaptureError{Mode: mode, Items: items, Err: events.ErrCorruptData},
	})
	if items > 0 {
		ev := events.Event{Time: now, SessionID: s.ID}
		s.payload.result(&ev, now.Sub(s.RequestedAt), true)
		o.events = append(o.events, ev)
	}
	m.mu.Unlock()

	log.Warn().
		Str("mode", mode.String()).
		Int("items", items).
		Int("bytes", len(raw)).
		Msg("undecodable line, capture aborted")
	m.deliver(o)
}

// CheckTimeouts finalizes the open session if it has been inactive for
// its mode's window. It reports whether a capture was finalized.
func (m *Machine) CheckTimeouts() bool {
	m.mu.Lock()
	s := m.session
	if s == nil {
		m.mu.Unlock()
		return false
	}
	if m.clock.Since(s.LastActivity) < m.timeouts.For(s.Mode()) {
		m.mu.Unlock()
		return false
	}

	var o outcome
	m.finalizeLocked(&o, "inactivity timeout")
	m.mu.Unlock()
	m.deliver(o)
	return true
}

// Finalize closes the open session now, emitting its result. On an idle
// machine it does nothing.
func (m *Machine) Finalize() {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	var o outcome
	m.finalizeLocked(&o, "requested")
	m.mu.Unlock()
	m.deliver(o)
}

// Abort discards the open session without emitting anything or running
// the finalize hook.
func (m *Machine) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	log.Debug().
		Str("mode", m.session.Mode().String()).
		Int("items", m.session.Items()).
		Msg("capture discarded")
	m.session = nil
}

func (m *Machine) finalizeLocked(o *outcome, reason string) {
	s := m.session
	m.session = nil

	mode := s.Mode()
	items := s.Items()
	now := m.clock.Now()
	elapsed := now.Sub(s.RequestedAt)

	o.finished = true
	o.mode = mode

	ev := events.Event{Time: now, SessionID: s.ID}
	if items == 0 {
		ev.Kind = events.FailureKind(mode)
		ev.Err = &events.CaptureError{Mode: mode, Err: events.ErrNoData}
		log.Warn().Str("mode", mode.String()).Str("reason", reason).Msg("capture finished with no data")
	} else {
		s.payload.result(&ev, elapsed, false)
		logFinalized(&ev, reason, items)
	}
	o.events = append(o.events, ev)
}

func logFinalized(ev *events.Event, reason string, items int) {
	l := log.Info().
		Str("event", ev.Kind.String()).
		Str("reason", reason).
		Int("items", items)
	if ev.Image != nil {
		size := uint64(ev.Image.Bytes()) //nolint:gosec // lengths are never negative
		l = l.Str("size", humanize.Bytes(size)).Dur("elapsed", ev.Image.Duration)
	}
	l.Msg("capture finished")
}
