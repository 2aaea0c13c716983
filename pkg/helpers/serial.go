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

package helpers

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"
)

var ErrNoSerialPorts = errors.New("no serial ports found")

// radioBridges are product strings of the USB serial bridges receivers
// ship with, matched case-insensitively.
var radioBridges = []string{
	"CH340",
	"CP210",
	"FTDI",
	"USB SERIAL",
	"USB-SERIAL",
	"ACM",
}

type PortInfo struct {
	Name         string `json:"name"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	IsUSB        bool   `json:"isUsb"`
}

// Bridge reports whether the port looks like a known USB serial bridge.
func (p PortInfo) Bridge() bool {
	haystack := strings.ToUpper(p.Product + " " + p.Name)
	for _, b := range radioBridges {
		if strings.Contains(haystack, b) {
			return true
		}
	}
	return false
}

func (p PortInfo) String() string {
	if !p.IsUSB {
		return p.Name
	}
	desc := p.Product
	if desc == "" {
		desc = "USB"
	}
	return fmt.Sprintf("%s (%s %s:%s)", p.Name, desc, p.VID, p.PID)
}

// PortLister enumerates serial ports. Replaced in tests.
type PortLister func() ([]*enumerator.PortDetails, error)

// ListPorts returns every serial port the OS reports, sorted by name.
func ListPorts(lister PortLister) ([]PortInfo, error) {
	if lister == nil {
		lister = enumerator.GetDetailedPortsList
	}
	details, err := lister()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil || d.Name == "" {
			continue
		}
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          strings.ToLower(d.VID),
			PID:          strings.ToLower(d.PID),
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
		})
	}
	sort.Slice(ports, func(i, j int) bool {
		return ports[i].Name < ports[j].Name
	})
	return ports, nil
}

// DetectRadioPort picks the port a receiver is most likely attached to:
// the first USB bridge, else the first USB port, else the first port.
func DetectRadioPort(lister PortLister) (string, error) {
	ports, err := ListPorts(lister)
	if err != nil {
		return "", err
	}
	port, ok := selectRadioPort(ports)
	if !ok {
		return "", ErrNoSerialPorts
	}
	log.Info().Str("port", port.String()).Msg("auto-detected serial port")
	return port.Name, nil
}

func selectRadioPort(ports []PortInfo) (PortInfo, bool) {
	if len(ports) == 0 {
		return PortInfo{}, false
	}
	for _, p := range ports {
		if p.IsUSB && p.Bridge() {
			return p, true
		}
	}
	for _, p := range ports {
		if p.IsUSB {
			return p, true
		}
	}
	return ports[0], true
}
