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

const DefaultAPIListen = "127.0.0.1:7498"

type API struct {
	Listen         string   `toml:"listen,omitempty" validate:"omitempty,hostname_port"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
	AllowedIPs     []string `toml:"allowed_ips,omitempty"`
	Enabled        bool     `toml:"enabled"`
}

// AllowedIPs limits which clients may use the API. Empty allows all.
func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.API.AllowedIPs...)
}

type Publishers struct {
	MQTT []MQTTPublisher `toml:"mqtt,omitempty" validate:"dive"`
}

type MQTTPublisher struct {
	Enabled *bool    `toml:"enabled,omitempty"`
	Broker  string   `toml:"broker" validate:"required"`
	Topic   string   `toml:"topic" validate:"required"`
	Filter  []string `toml:"filter,omitempty"`
}

type Reporting struct {
	DSN     string `toml:"dsn,omitempty" validate:"required_if=Enabled true"`
	Enabled bool   `toml:"enabled"`
}

func (c *Instance) APIEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.API.Enabled
}

func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.API.Listen == "" {
		return DefaultAPIListen
	}
	return c.vals.API.Listen
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.API.AllowedOrigins...)
}

// MQTTPublishers returns the enabled MQTT publishers. A publisher with no
// enabled key counts as enabled.
func (c *Instance) MQTTPublishers() []MQTTPublisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MQTTPublisher, 0, len(c.vals.Publishers.MQTT))
	for _, p := range c.vals.Publishers.MQTT {
		if p.Enabled != nil && !*p.Enabled {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Instance) SetMQTTPublishers(pubs []MQTTPublisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Publishers.MQTT = pubs
}

func (c *Instance) ReportingEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Reporting.Enabled && c.vals.Reporting.DSN != ""
}

func (c *Instance) ReportingDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Reporting.DSN
}
