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

package protocol

import "strings"

// Mode is the capture mode the line stream is currently interpreted in.
type Mode int

const (
	ModeIdle Mode = iota
	ModeImage
	ModeMemory
	ModeTheme
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeImage:
		return "image"
	case ModeMemory:
		return "memory"
	case ModeTheme:
		return "theme"
	default:
		return "unknown"
	}
}

// Command returns the device command that requests a capture in this mode.
func (m Mode) Command() (Command, bool) {
	switch m {
	case ModeImage:
		return CmdScreenshot, true
	case ModeMemory:
		return CmdMemoryDump, true
	case ModeTheme:
		return CmdThemeGet, true
	default:
		return 0, false
	}
}

// LineKind is what a line turned out to be under the current mode.
type LineKind int

const (
	KindUnclassified LineKind = iota
	KindTelemetry
	KindHexFragment
	KindMemorySlot
	KindThemeFragment
	KindAcknowledgment
)

func (k LineKind) String() string {
	switch k {
	case KindTelemetry:
		return "telemetry"
	case KindHexFragment:
		return "hex"
	case KindMemorySlot:
		return "memory_slot"
	case KindThemeFragment:
		return "theme"
	case KindAcknowledgment:
		return "ack"
	default:
		return "unclassified"
	}
}

// deviceErrors are error strings the firmware prints in response to a
// malformed command. They carry no capture data.
var deviceErrors = []string{
	"Error: Expected newline",
}

// IsAcknowledgment reports whether line is a bare "OK" or a known device
// error response.
func IsAcknowledgment(line string) bool {
	if strings.EqualFold(strings.TrimSpace(line), "OK") {
		return true
	}
	for _, e := range deviceErrors {
		if strings.Contains(line, e) {
			return true
		}
	}
	return false
}

// Classify decides what line is, given the active mode. Rules are
// evaluated in priority order per mode; it never looks at anything but its
// arguments.
func Classify(mode Mode, line string) LineKind {
	switch mode {
	case ModeImage:
		switch {
		case IsHexString(line):
			return KindHexFragment
		case IsTelemetryLine(line):
			return KindTelemetry
		case IsAcknowledgment(line):
			return KindAcknowledgment
		}
	case ModeMemory:
		switch {
		case IsMemorySlotLine(line):
			return KindMemorySlot
		case IsTelemetryLine(line):
			return KindTelemetry
		case IsAcknowledgment(line):
			return KindAcknowledgment
		}
	case ModeTheme:
		if IsThemeLine(line) {
			return KindThemeFragment
		}
	default:
		if IsTelemetryLine(line) {
			return KindTelemetry
		}
	}
	return KindUnclassified
}
