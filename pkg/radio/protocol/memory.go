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
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// MemorySlots is the number of memory banks on the receiver.
const MemorySlots = 32

var ErrInvalidMemorySlot = errors.New("invalid memory slot line")

var memorySlotPattern = regexp.MustCompile(`^#?\s*(\d{1,2})\s*,\s*([^,]*?)\s*,\s*(\d+)\s*,\s*([^,]*?)\s*$`)

// MemorySlot is one entry of a memory bank dump. The frequency is kept as
// the decimal string the device sent.
type MemorySlot struct {
	Band        string `json:"band"`
	FrequencyHz string `json:"frequencyHz"`
	Mode        string `json:"mode"`
	Slot        int    `json:"slot"`
}

// IsMemorySlotLine reports whether line looks like a memory slot record.
func IsMemorySlotLine(line string) bool {
	return memorySlotPattern.MatchString(strings.TrimSpace(line))
}

// IsMemorySetEcho reports whether line is the device echoing a memory-set
// command back to us.
func IsMemorySetEcho(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, string(MemorySetPrefix)) && memorySlotPattern.MatchString(line)
}

func ParseMemorySlot(line string) (MemorySlot, error) {
	m := memorySlotPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return MemorySlot{}, fmt.Errorf("%w: %q", ErrInvalidMemorySlot, line)
	}

	slot, err := strconv.Atoi(m[1])
	if err != nil {
		return MemorySlot{}, fmt.Errorf("%w: %w", ErrInvalidMemorySlot, err)
	}
	if slot < 1 || slot > MemorySlots {
		return MemorySlot{}, fmt.Errorf("%w: slot %d out of range", ErrInvalidMemorySlot, slot)
	}

	return MemorySlot{
		Slot:        slot,
		Band:        m[2],
		FrequencyHz: m[3],
		Mode:        m[4],
	}, nil
}

// FormatMemorySlotLine renders s in the device's slot line format, without
// the set prefix or terminator.
func FormatMemorySlotLine(s MemorySlot) string {
	return fmt.Sprintf("%02d,%s,%s,%s", s.Slot, s.Band, s.FrequencyHz, s.Mode)
}

// Empty reports whether the slot holds no station.
func (s MemorySlot) Empty() bool {
	return s.Band == "" && s.Mode == "" && (s.FrequencyHz == "" || s.FrequencyHz == "0")
}

// FrequencyString renders the slot frequency the way the receiver displays
// it: MHz with one decimal for FM, kHz otherwise.
func (s MemorySlot) FrequencyString() string {
	if s.FrequencyHz == "" {
		return "-"
	}
	hz, err := strconv.ParseInt(s.FrequencyHz, 10, 64)
	if err != nil {
		return s.FrequencyHz
	}

	switch {
	case hz == 0 && s.Band == "" && s.Mode == "":
		return "-"
	case s.Mode == string(DemodFM):
		return fmt.Sprintf("%.1f MHz", float64(hz)/1_000_000.0)
	case hz == 0:
		return "0 kHz"
	case hz%1000 == 0:
		return fmt.Sprintf("%d kHz", hz/1000)
	default:
		return fmt.Sprintf("%.3f kHz", float64(hz)/1000.0)
	}
}

// MemoryTable is the full bank, indexed by slot number minus one.
type MemoryTable [MemorySlots]MemorySlot

// NewMemoryTable returns a table with every slot number filled in and no
// stations stored.
func NewMemoryTable() MemoryTable {
	var t MemoryTable
	for i := range t {
		t[i].Slot = i + 1
	}
	return t
}

// ParseMemoryTable builds a table from raw slot lines. Lines that don't
// parse are logged and skipped; later lines for the same slot win.
func ParseMemoryTable(lines []string) MemoryTable {
	t := NewMemoryTable()
	for _, line := range lines {
		s, err := ParseMemorySlot(line)
		if err != nil {
			log.Warn().Err(err).Msg("skipping memory slot line")
			continue
		}
		t[s.Slot-1] = s
	}
	return t
}

// Used returns the stored, non-empty slots in slot order.
func (t *MemoryTable) Used() []MemorySlot {
	used := make([]MemorySlot, 0, MemorySlots)
	for _, s := range t {
		if !s.Empty() {
			used = append(used, s)
		}
	}
	return used
}
