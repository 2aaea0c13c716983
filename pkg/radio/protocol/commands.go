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

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Command is a single ASCII character understood by the receiver firmware.
// Upper case generally means increase/next, lower case decrease/previous.
type Command byte

const (
	CmdVolumeUp        Command = 'V'
	CmdVolumeDown      Command = 'v'
	CmdBandNext        Command = 'B'
	CmdBandPrev        Command = 'b'
	CmdModeNext        Command = 'M'
	CmdModePrev        Command = 'm'
	CmdStepNext        Command = 'S'
	CmdStepPrev        Command = 's'
	CmdBandwidthNext   Command = 'W'
	CmdBandwidthPrev   Command = 'w'
	CmdAGCUp           Command = 'A'
	CmdAGCDown         Command = 'a'
	CmdBacklightUp     Command = 'L'
	CmdBacklightDown   Command = 'l'
	CmdCalibrationUp   Command = 'I'
	CmdCalibrationDown Command = 'i'
	CmdSleepOn         Command = 'O'
	CmdSleepOff        Command = 'o'
	CmdToggleLog       Command = 't'
	CmdScreenshot      Command = 'C'
	CmdMemoryDump      Command = '$'
	CmdThemeEditor     Command = 'T'
	CmdThemeGet        Command = '@'
	CmdEncoderUp       Command = 'R'
	CmdEncoderDown     Command = 'r'
	CmdEncoderButton   Command = 'e'
)

const (
	// MemorySetPrefix starts a memory-set line; the device echoes it back.
	MemorySetPrefix = '#'
	// ThemeSetSuffix terminates a theme preview string.
	ThemeSetSuffix = '!'
	// LineTerminator ends every command and every response item.
	LineTerminator = '\n'
)

var ErrUnknownCommand = errors.New("unknown command")

var commandNames = map[Command]string{
	CmdVolumeUp:        "volume_up",
	CmdVolumeDown:      "volume_down",
	CmdBandNext:        "band_next",
	CmdBandPrev:        "band_prev",
	CmdModeNext:        "mode_next",
	CmdModePrev:        "mode_prev",
	CmdStepNext:        "step_next",
	CmdStepPrev:        "step_prev",
	CmdBandwidthNext:   "bandwidth_next",
	CmdBandwidthPrev:   "bandwidth_prev",
	CmdAGCUp:           "agc_up",
	CmdAGCDown:         "agc_down",
	CmdBacklightUp:     "backlight_up",
	CmdBacklightDown:   "backlight_down",
	CmdCalibrationUp:   "calibration_up",
	CmdCalibrationDown: "calibration_down",
	CmdSleepOn:         "sleep_on",
	CmdSleepOff:        "sleep_off",
	CmdToggleLog:       "toggle_log",
	CmdScreenshot:      "screenshot",
	CmdMemoryDump:      "memory_dump",
	CmdThemeEditor:     "theme_editor",
	CmdThemeGet:        "theme_get",
	CmdEncoderUp:       "encoder_up",
	CmdEncoderDown:     "encoder_down",
	CmdEncoderButton:   "encoder_button",
}

// String returns the snake_case name of the command, or the raw character
// for commands the firmware may accept but we don't know about.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return string(rune(c))
}

// Known reports whether c is part of the command alphabet.
func (c Command) Known() bool {
	_, ok := commandNames[c]
	return ok
}

// IsCapture reports whether the command starts a capture on the device.
func (c Command) IsCapture() bool {
	switch c {
	case CmdScreenshot, CmdMemoryDump, CmdThemeGet:
		return true
	default:
		return false
	}
}

// Bytes returns the wire form of the command, including the terminator.
func (c Command) Bytes() []byte {
	return []byte{byte(c), LineTerminator}
}

// ParseCommand accepts either a command name ("volume_up") or the raw
// single character ("V").
func ParseCommand(s string) (Command, error) {
	if len(s) == 1 {
		c := Command(s[0])
		if c.Known() {
			return c, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}

	name := strings.ToLower(strings.TrimSpace(s))
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// CommandNames lists every known command name, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commandNames))
	for _, n := range commandNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
