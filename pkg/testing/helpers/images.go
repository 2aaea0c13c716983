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
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// SolidBMP encodes an opaque w by h image filled with c.
func SolidBMP(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	c.A = 0xff
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

// SolidBMPHex is SolidBMP as the receiver sends it: one hex string.
func SolidBMPHex(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	return protocol.EncodeHexPayload(SolidBMP(t, w, h, c))
}

// SplitLines cuts s into lines of at most n characters, each ending in
// "\r\n", the way the firmware chunks long dumps.
func SplitLines(s string, n int) []string {
	var lines []string
	for len(s) > n {
		lines = append(lines, s[:n]+"\r\n")
		s = s[n:]
	}
	if s != "" {
		lines = append(lines, s+"\r\n")
	}
	return lines
}
