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

package radio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected  = errors.New("not connected")
	ErrCaptureActive = errors.New("not allowed while a capture is in progress")
)

// Delays around log suppression. Settle gives the device time to stop
// logging before a capture request; Resume gives it time to finish the
// dump output before logging is switched back on.
type Delays struct {
	Settle time.Duration
	Resume time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Settle: 50 * time.Millisecond,
		Resume: 100 * time.Millisecond,
	}
}

// Dispatcher owns the write side of the port and the device's logging
// state. Every write goes through it so the log toggle never desyncs.
//
// logOn is the dispatcher's belief about whether the device is emitting
// telemetry. suppressed is set when a capture or preview turned logging
// off; it is cleared, and logging turned back on, when the capture
// finishes. A capture's result does not affect the resume.
type Dispatcher struct {
	clock           clockwork.Clock
	machine         *capture.Machine
	port            SerialPort
	onWriteFailure  func(error)
	delays          Delays
	mu              syncutil.Mutex
	logOn           bool
	suppressed      bool
	sleeping        bool
	themeEditor     bool
	// set when a theme capture turned the editor on and must turn it off
	editorByCapture bool
}

func NewDispatcher(machine *capture.Machine, clock clockwork.Clock, delays Delays) *Dispatcher {
	d := &Dispatcher{
		clock:   clock,
		machine: machine,
		delays:  delays,
	}
	machine.SetFinalizeHook(d.captureFinished)
	return d
}

// attach points the dispatcher at a freshly opened port. Logging is
// assumed off until toggled.
func (d *Dispatcher) attach(port SerialPort, onWriteFailure func(error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.port = port
	d.onWriteFailure = onWriteFailure
	d.logOn = false
	d.suppressed = false
	d.sleeping = false
	d.themeEditor = false
	d.editorByCapture = false
}

func (d *Dispatcher) detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.port = nil
	d.onWriteFailure = nil
	d.suppressed = false
	d.editorByCapture = false
}

// DispatcherState is a snapshot for status reporting.
type DispatcherState struct {
	LogEnabled  bool `json:"logEnabled"`
	Suppressed  bool `json:"suppressed"`
	Sleeping    bool `json:"sleeping"`
	ThemeEditor bool `json:"themeEditor"`
	Connected   bool `json:"connected"`
}

func (d *Dispatcher) State() DispatcherState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DispatcherState{
		LogEnabled:  d.logOn,
		Suppressed:  d.suppressed,
		Sleeping:    d.sleeping,
		ThemeEditor: d.themeEditor,
		Connected:   d.port != nil,
	}
}

// writeLocked writes p. A failed write is handed to the failure callback
// and reported as false; callers never see the error.
func (d *Dispatcher) writeLocked(p []byte) bool {
	n, err := d.port.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err == nil {
		return true
	}

	log.Error().Err(err).Str("data", string(p)).Msg("failed to write to serial port")
	if d.onWriteFailure != nil {
		d.onWriteFailure(err)
	}
	return false
}

func (d *Dispatcher) sleep(dur time.Duration) {
	if dur > 0 {
		d.clock.Sleep(dur)
	}
}

// Send writes a single command. Commands with side effects on dispatcher
// state are routed to their dedicated handlers, so sending 'C' is the same
// as RequestImage.
func (d *Dispatcher) Send(cmd protocol.Command) error {
	switch cmd {
	case protocol.CmdToggleLog:
		return d.ToggleLog()
	case protocol.CmdScreenshot:
		_, err := d.RequestImage()
		return err
	case protocol.CmdMemoryDump:
		_, err := d.RequestMemory()
		return err
	case protocol.CmdThemeGet:
		_, err := d.RequestTheme()
		return err
	case protocol.CmdSleepOn:
		return d.SetSleep(true)
	case protocol.CmdSleepOff:
		return d.SetSleep(false)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return ErrNotConnected
	}
	if cmd == protocol.CmdThemeEditor {
		if mode := d.machine.Mode(); mode == protocol.ModeTheme {
			return fmt.Errorf("%w: %s", ErrCaptureActive, mode)
		}
	}

	log.Debug().Str("command", cmd.String()).Msg("sending command")
	if d.writeLocked(cmd.Bytes()) && cmd == protocol.CmdThemeEditor {
		d.themeEditor = !d.themeEditor
	}
	return nil
}

// ToggleLog flips continuous telemetry logging. It is refused while a
// capture is running, since the capture owns the log state until it ends.
func (d *Dispatcher) ToggleLog() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return ErrNotConnected
	}
	if mode := d.machine.Mode(); mode != protocol.ModeIdle {
		return fmt.Errorf("%w: %s", ErrCaptureActive, mode)
	}

	if d.writeLocked(protocol.CmdToggleLog.Bytes()) {
		d.logOn = !d.logOn
		log.Info().Bool("enabled", d.logOn).Msg("telemetry logging toggled")
	}
	return nil
}

// LogEnabled reports whether the device is believed to be logging.
func (d *Dispatcher) LogEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logOn
}

func (d *Dispatcher) SetSleep(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return ErrNotConnected
	}

	cmd := protocol.CmdSleepOff
	if on {
		cmd = protocol.CmdSleepOn
	}
	if d.writeLocked(cmd.Bytes()) {
		d.sleeping = on
	}
	return nil
}

func (d *Dispatcher) Sleeping() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sleeping
}

func (d *Dispatcher) RequestImage() (uuid.UUID, error) {
	return d.request(protocol.ModeImage)
}

func (d *Dispatcher) RequestMemory() (uuid.UUID, error) {
	return d.request(protocol.ModeMemory)
}

// RequestTheme turns the theme editor display on, unless it already is, and
// asks for the colour string. An editor the capture turned on is turned off
// again when the capture finishes.
func (d *Dispatcher) RequestTheme() (uuid.UUID, error) {
	return d.request(protocol.ModeTheme)
}

// Request starts a capture in mode.
func (d *Dispatcher) Request(mode protocol.Mode) (uuid.UUID, error) {
	return d.request(mode)
}

func (d *Dispatcher) request(mode protocol.Mode) (uuid.UUID, error) {
	cmd, ok := mode.Command()
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", capture.ErrNotCaptureMode, mode)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return uuid.Nil, ErrNotConnected
	}

	// mode switches before anything is written so no reply can be
	// misread as idle traffic
	id, err := d.machine.Begin(mode)
	if err != nil {
		return uuid.Nil, err
	}

	if !d.suppressLocked() {
		d.machine.Abort()
		return id, nil
	}

	if mode == protocol.ModeTheme && !d.themeEditor {
		if !d.writeLocked(protocol.CmdThemeEditor.Bytes()) {
			d.machine.Abort()
			return id, nil
		}
		d.themeEditor = true
		d.editorByCapture = true
	}

	log.Info().Str("mode", mode.String()).Str("session", id.String()).Msg("capture requested")
	if !d.writeLocked(cmd.Bytes()) {
		d.machine.Abort()
		return id, nil
	}
	d.machine.MarkRequested()
	return id, nil
}

// suppressLocked turns logging off ahead of a capture or preview. It
// reports false if the toggle could not be written.
func (d *Dispatcher) suppressLocked() bool {
	if !d.logOn {
		return true
	}
	if !d.writeLocked(protocol.CmdToggleLog.Bytes()) {
		return false
	}
	d.logOn = false
	d.suppressed = true
	log.Debug().Msg("telemetry logging suppressed")
	d.sleep(d.delays.Settle)
	return true
}

// resumeLocked turns logging back on if suppressLocked turned it off.
func (d *Dispatcher) resumeLocked() {
	if !d.suppressed {
		return
	}
	d.suppressed = false
	d.sleep(d.delays.Resume)
	if d.port == nil {
		return
	}
	if d.writeLocked(protocol.CmdToggleLog.Bytes()) {
		d.logOn = true
		log.Debug().Msg("telemetry logging resumed")
	}
}

// captureFinished runs on the reader goroutine after every finished
// capture, successful or not.
func (d *Dispatcher) captureFinished(mode protocol.Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		d.suppressed = false
		return
	}

	if mode == protocol.ModeTheme && d.editorByCapture {
		d.editorByCapture = false
		if !d.writeLocked(protocol.CmdThemeEditor.Bytes()) {
			return
		}
		d.themeEditor = false
	}
	d.resumeLocked()
}

// PreviewTheme sends a colour string for the device to display. The input
// may be a bare colour string or a full "Color theme" line.
func (d *Dispatcher) PreviewTheme(colors string) error {
	payload, err := protocol.ThemePreview(colors)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return ErrNotConnected
	}
	if mode := d.machine.Mode(); mode != protocol.ModeIdle {
		return fmt.Errorf("%w: %s", ErrCaptureActive, mode)
	}

	if !d.suppressLocked() {
		return nil
	}
	log.Info().Int("length", len(payload)).Msg("sending theme preview")
	if !d.writeLocked(append([]byte(payload), protocol.LineTerminator)) {
		return nil
	}
	d.resumeLocked()
	return nil
}

// SetMemorySlot stores a station in a memory slot. The device echoes the
// line back, which the reader recognises and ignores.
func (d *Dispatcher) SetMemorySlot(slot protocol.MemorySlot) error {
	if slot.Slot < 1 || slot.Slot > protocol.MemorySlots {
		return fmt.Errorf("%w: slot %d out of range", protocol.ErrInvalidMemorySlot, slot.Slot)
	}
	line := string(protocol.MemorySetPrefix) + protocol.FormatMemorySlotLine(slot)
	if !protocol.IsMemorySetEcho(line) {
		return fmt.Errorf("%w: %q", protocol.ErrInvalidMemorySlot, line)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return ErrNotConnected
	}
	if mode := d.machine.Mode(); mode != protocol.ModeIdle {
		return fmt.Errorf("%w: %s", ErrCaptureActive, mode)
	}

	log.Info().Int("slot", slot.Slot).Msg("setting memory slot")
	d.writeLocked(append([]byte(line), protocol.LineTerminator))
	return nil
}
