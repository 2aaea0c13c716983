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
	"image/color"
	"testing"

	"github.com/ZaparooProject/zaparoo-radio/pkg/config"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/screenshot"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, h := NewConfig(t, "")
	assert.Equal(t, config.DefaultBaudRate, cfg.BaudRate())

	ok, err := afero.Exists(h.Fs, "/config/config.toml")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewConfigContent(t *testing.T) {
	t.Parallel()

	cfg, _ := NewConfig(t, "config_schema = 1\n[serial]\nport = \"/dev/ttyUSB3\"\nbaud_rate = 9600\n")
	assert.Equal(t, "/dev/ttyUSB3", cfg.SerialPort())
	assert.Equal(t, 9600, cfg.BaudRate())
}

func TestSolidBMPDecodes(t *testing.T) {
	t.Parallel()

	hexData := SolidBMPHex(t, 3, 2, color.RGBA{G: 0x80})
	_, img, err := screenshot.Decode(&events.ImageCapture{Hex: hexData})
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"abc\r\n", "de\r\n"}, SplitLines("abcde", 3))
	assert.Equal(t, []string{"abc\r\n"}, SplitLines("abc", 3))
	assert.Empty(t, SplitLines("", 3))
}
