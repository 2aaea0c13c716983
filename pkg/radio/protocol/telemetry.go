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
	"math"
	"regexp"
	"strconv"
	"strings"
)

// TelemetryFields is the minimum number of comma separated fields in a
// telemetry line.
const TelemetryFields = 15

const (
	MaxVolume         = 63
	MinBatteryVoltage = 3.2
	MaxBatteryVoltage = 4.2
)

// DemodMode is the receiver demodulation mode as reported in telemetry.
type DemodMode string

const (
	DemodAM  DemodMode = "AM"
	DemodFM  DemodMode = "FM"
	DemodLSB DemodMode = "LSB"
	DemodUSB DemodMode = "USB"
	DemodCW  DemodMode = "CW"
)

// IsSSB reports whether the mode uses the BFO offset for display.
func (m DemodMode) IsSSB() bool {
	return m == DemodLSB || m == DemodUSB
}

var ErrInvalidTelemetry = errors.New("invalid telemetry line")

// leading integer followed by at least 14 more fields
var telemetryPattern = regexp.MustCompile(`^\s*\d+\s*(?:,[^,]*){14,}$`)

// Telemetry is one periodic status record emitted by the receiver while
// continuous logging is enabled.
type Telemetry struct {
	Band            string    `json:"band"`
	Mode            DemodMode `json:"mode"`
	Step            string    `json:"step"`
	Bandwidth       string    `json:"bandwidth"`
	Raw             string    `json:"raw"`
	Reserved        []string  `json:"reserved,omitempty"`
	FirmwareVersion int       `json:"firmwareVersion"`
	Frequency       int       `json:"frequency"`
	BFO             int       `json:"bfo"`
	Calibration     int       `json:"calibration"`
	AGC             int       `json:"agc"`
	Volume          int       `json:"volume"`
	RSSI            int       `json:"rssi"`
	SNR             int       `json:"snr"`
	Voltage         float64   `json:"voltage"`
}

// IsTelemetryLine reports whether line has the shape of a telemetry record.
func IsTelemetryLine(line string) bool {
	return telemetryPattern.MatchString(line)
}

// ParseTelemetry parses a telemetry line. Lines with fewer than
// TelemetryFields fields, or with non-numeric values in numeric positions,
// are rejected as a whole.
func ParseTelemetry(line string) (*Telemetry, error) {
	if !IsTelemetryLine(line) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTelemetry, line)
	}

	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < TelemetryFields {
		return nil, fmt.Errorf("%w: got %d fields", ErrInvalidTelemetry, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	ints := make(map[int]int, 9)
	for _, idx := range []int{0, 1, 2, 3, 8, 9, 10, 11} {
		v, err := strconv.Atoi(fields[idx])
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidTelemetry, idx, err)
		}
		ints[idx] = v
	}

	voltage, err := strconv.ParseFloat(fields[13], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: field 13: %w", ErrInvalidTelemetry, err)
	}

	reserved := make([]string, 0, len(fields)-13)
	reserved = append(reserved, fields[12])
	reserved = append(reserved, fields[14:]...)

	return &Telemetry{
		FirmwareVersion: ints[0],
		Frequency:       ints[1],
		BFO:             ints[2],
		Calibration:     ints[3],
		Band:            fields[4],
		Mode:            DemodMode(fields[5]),
		Step:            fields[6],
		Bandwidth:       fields[7],
		AGC:             ints[8],
		Volume:          ints[9],
		RSSI:            ints[10],
		SNR:             ints[11],
		Voltage:         voltage,
		Reserved:        reserved,
		Raw:             line,
	}, nil
}

// FormatFrequency renders a raw telemetry frequency for display. SSB modes
// combine the raw kHz value with the BFO offset in Hz, FM reports tens of
// kHz, everything else reports kHz.
func FormatFrequency(raw, bfo int, mode DemodMode) string {
	switch {
	case mode.IsSSB():
		return fmt.Sprintf("%.3f kHz", float64(raw*1000+bfo)/1000.0)
	case mode == DemodFM:
		return fmt.Sprintf("%.2f MHz", float64(raw)/100.0)
	default:
		return fmt.Sprintf("%d kHz", raw)
	}
}

func (t *Telemetry) FrequencyString() string {
	return FormatFrequency(t.Frequency, t.BFO, t.Mode)
}

// FirmwareString renders the packed firmware version, e.g. 201 -> "v2.01".
func (t *Telemetry) FirmwareString() string {
	return fmt.Sprintf("v%d.%02d", t.FirmwareVersion/100, t.FirmwareVersion%100)
}

// AGCStatus returns a short label and a long description of the gain
// control setting.
func (t *Telemetry) AGCStatus() (short, long string) {
	if t.AGC == 0 {
		return "AGC: On", "Gain Control: Auto (AGC On)"
	}
	att := t.AGC - 1
	return fmt.Sprintf("Att: %d", att), fmt.Sprintf("Gain Control: Manual (Att: %ddB)", att)
}

func (t *Telemetry) CalibrationString() string {
	if t.Calibration == 0 {
		return "Cal: None"
	}
	return fmt.Sprintf("Cal: %+d Hz", t.Calibration)
}

func (t *Telemetry) VolumePercent() int {
	return percentage(float64(t.Volume), MaxVolume)
}

// BatteryPercent maps the battery voltage onto 0-100 between
// MinBatteryVoltage and MaxBatteryVoltage.
func (t *Telemetry) BatteryPercent() int {
	v := math.Max(MinBatteryVoltage, math.Min(t.Voltage, MaxBatteryVoltage))
	return percentage(v-MinBatteryVoltage, MaxBatteryVoltage-MinBatteryVoltage)
}

func percentage(value, maxValue float64) int {
	if maxValue == 0 {
		return 0
	}
	p := int(math.Round(value / maxValue * 100))
	return max(0, min(100, p))
}
