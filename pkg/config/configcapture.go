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

import (
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
)

type Capture struct {
	ExportPNG     *bool  `toml:"export_png,omitempty"`
	ImageTimeout  string `toml:"image_timeout" validate:"omitempty,duration"`
	MemoryTimeout string `toml:"memory_timeout" validate:"omitempty,duration"`
	ThemeTimeout  string `toml:"theme_timeout" validate:"omitempty,duration"`
	SettleDelay   string `toml:"settle_delay" validate:"omitempty,duration"`
	ResumeDelay   string `toml:"resume_delay" validate:"omitempty,duration"`
	PollInterval  string `toml:"poll_interval" validate:"omitempty,duration"`
	OutputDir     string `toml:"output_dir,omitempty"`
}

// CaptureTimeouts returns the inactivity windows per capture mode.
func (c *Instance) CaptureTimeouts() capture.Timeouts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def := capture.DefaultTimeouts()
	return capture.Timeouts{
		Image:  parseDuration(c.vals.Capture.ImageTimeout, def.Image),
		Memory: parseDuration(c.vals.Capture.MemoryTimeout, def.Memory),
		Theme:  parseDuration(c.vals.Capture.ThemeTimeout, def.Theme),
	}
}

func (c *Instance) SettleDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Capture.SettleDelay, 50*time.Millisecond)
}

func (c *Instance) ResumeDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Capture.ResumeDelay, 100*time.Millisecond)
}

// PollInterval is how often the consumer drains the event queue. Zero
// falls back to the default.
func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := parseDuration(c.vals.Capture.PollInterval, 100*time.Millisecond)
	if d == 0 {
		return 100 * time.Millisecond
	}
	return d
}

// OutputDir is where screenshots are written. Empty disables saving.
func (c *Instance) OutputDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Capture.OutputDir
}

func (c *Instance) SetOutputDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Capture.OutputDir = dir
}

// ExportPNG defaults to true.
func (c *Instance) ExportPNG() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Capture.ExportPNG == nil {
		return true
	}
	return *c.vals.Capture.ExportPNG
}
