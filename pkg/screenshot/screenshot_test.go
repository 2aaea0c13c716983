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

package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func bmpCapture(t *testing.T, w, h int) *events.ImageCapture {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 0x20, A: 0xff}) //nolint:gosec // small test values
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return &events.ImageCapture{
		Hex:      protocol.EncodeHexPayload(buf.Bytes()),
		Duration: 2 * time.Second,
	}
}

var takenAt = time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)

func TestSaveWritesBMPAndPNG(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	c := bmpCapture(t, 4, 3)

	res, err := Save(Options{Fs: fs, Dir: "/shots", ExportPNG: true}, c, takenAt)
	require.NoError(t, err)

	assert.Equal(t, "/shots/screenshot-20260314-150926.535.bmp", res.BMPPath)
	assert.Equal(t, "/shots/screenshot-20260314-150926.535.png", res.PNGPath)
	assert.Equal(t, 4, res.Width)
	assert.Equal(t, 3, res.Height)
	assert.Equal(t, c.Bytes(), res.Size)

	raw, err := afero.ReadFile(fs, res.BMPPath)
	require.NoError(t, err)
	assert.Equal(t, protocol.EncodeHexPayload(raw), c.Hex)

	pngData, err := afero.ReadFile(fs, res.PNGPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pngData, []byte("\x89PNG")))
}

func TestSaveWithoutPNG(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	res, err := Save(Options{Fs: fs, Dir: "/shots"}, bmpCapture(t, 2, 2), takenAt)
	require.NoError(t, err)
	assert.Empty(t, res.PNGPath)

	exists, err := afero.Exists(fs, "/shots/screenshot-20260314-150926.535.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSaveUndecodableImageKeepsRawBytes(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	c := &events.ImageCapture{Hex: "deadbeef", Partial: true}

	res, err := Save(Options{Fs: fs, Dir: "/shots", ExportPNG: true}, c, takenAt)
	require.NoError(t, err)
	assert.Empty(t, res.PNGPath)
	assert.Zero(t, res.Width)
	assert.Equal(t, 4, res.Size)
}

func TestSaveErrors(t *testing.T) {
	t.Parallel()

	opts := Options{Fs: afero.NewMemMapFs(), Dir: "/shots"}

	_, err := Save(opts, &events.ImageCapture{}, takenAt)
	require.ErrorIs(t, err, ErrEmptyCapture)

	_, err = Save(opts, nil, takenAt)
	require.ErrorIs(t, err, ErrEmptyCapture)

	_, err = Save(opts, &events.ImageCapture{Hex: "abc"}, takenAt)
	require.ErrorIs(t, err, protocol.ErrInvalidHexPayload)

	_, err = Save(Options{Fs: afero.NewReadOnlyFs(afero.NewMemMapFs()), Dir: "/shots"},
		&events.ImageCapture{Hex: "00"}, takenAt)
	require.Error(t, err)
}

func TestBitrate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "n/a", Bitrate(100, 0))
	assert.Equal(t, "n/a", Bitrate(0, time.Second))
	assert.Equal(t, "8 kbps", Bitrate(1000, time.Second))
	assert.Equal(t, "1.5 Mbps", Bitrate(375_000, 2*time.Second))
}
