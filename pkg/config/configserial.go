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

package config

import "time"

const DefaultBaudRate = 115200

type Serial struct {
	Port         string `toml:"port,omitempty"`
	ReadTimeout  string `toml:"read_timeout,omitempty" validate:"omitempty,duration"`
	BaudRate     int    `toml:"baud_rate" validate:"oneof=9600 19200 38400 57600 115200 230400 460800 921600"`
	LogOnConnect bool   `toml:"log_on_connect"`
}

// SerialPort is the configured device path. Empty means auto-detect.
func (c *Instance) SerialPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.Port
}

func (c *Instance) SetSerialPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Serial.Port = port
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Serial.BaudRate == 0 {
		return DefaultBaudRate
	}
	return c.vals.Serial.BaudRate
}

func (c *Instance) ReadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Serial.ReadTimeout, 100*time.Millisecond)
}

func (c *Instance) LogOnConnect() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.LogOnConnect
}
