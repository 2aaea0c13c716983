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
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullTheme() string {
	return strings.Repeat("x0000xFFFF", ThemeColors/2)
}

func TestParseThemeLine(t *testing.T) {
	t.Parallel()

	name, colors, ok := ParseThemeLine("Color theme Default: x0000xFFFFx1234")
	require.True(t, ok)
	assert.Equal(t, "Default", name)
	assert.Equal(t, "x0000xFFFFx1234", colors)

	name, colors, ok = ParseThemeLine("  Color theme Night Mode:   xF800 ")
	require.True(t, ok)
	assert.Equal(t, "Night Mode", name)
	assert.Equal(t, "xF800", colors)

	_, _, ok = ParseThemeLine("Color theme Default: x00")
	assert.False(t, ok)
	_, _, ok = ParseThemeLine("Theme: x0000")
	assert.False(t, ok)
	assert.False(t, IsThemeLine(""))
}

func TestParsePalette(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []Color565
		wantErr bool
	}{
		{name: "separated", input: "x0000xFFFFx1234", want: []Color565{0x0000, 0xFFFF, 0x1234}},
		{name: "packed", input: "x0000FFFF1234", want: []Color565{0x0000, 0xFFFF, 0x1234}},
		{name: "single", input: "xF800", want: []Color565{0xF800}},
		{name: "no prefix", input: "0000", wantErr: true},
		{name: "short token", input: "x000xFFFF", wantErr: true},
		{name: "bad digits", input: "xZZZZ", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePalette(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPalette)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPalette(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x0000xFFFFx1234", FormatPalette([]Color565{0, 0xFFFF, 0x1234}))
	assert.Empty(t, FormatPalette(nil))
}

func TestColor565RGBA(t *testing.T) {
	t.Parallel()

	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, Color565(0xF800).RGBA())
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, Color565(0x07E0).RGBA())
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, Color565(0x001F).RGBA())
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, Color565(0xFFFF).RGBA())
	assert.Equal(t, "x07E0", Color565(0x07E0).String())
}

func TestThemePreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "colour string", input: fullTheme(), want: fullTheme() + "!"},
		{name: "full line", input: "Color theme Default: " + fullTheme(), want: fullTheme() + "!"},
		{name: "short palette still sent", input: "x0000xFFFF", want: "x0000xFFFF!"},
		{name: "surrounding space", input: "  xF800\n", want: "xF800!"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "no prefix", input: "F800", wantErr: true},
		{name: "bad length", input: "xF80", wantErr: true},
		{name: "bad digits", input: "xGGGG", wantErr: true},
		{name: "malformed line", input: "Color theme Default: nonsense", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ThemePreview(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTheme)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
