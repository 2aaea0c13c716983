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

// Package screenshot writes captured screen dumps to disk. The receiver
// sends a BMP file as hex; it is stored as is and, when it decodes, also
// as a PNG.
package screenshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
)

const filePrefix = "screenshot"

var ErrEmptyCapture = errors.New("image capture is empty")

type Result struct {
	BMPPath string `json:"bmpPath"`
	PNGPath string `json:"pngPath,omitempty"`
	Size    int    `json:"size"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

type Options struct {
	Fs        afero.Fs
	Dir       string
	ExportPNG bool
}

// Decode turns a captured hex payload into a BMP byte slice and the
// decoded image. The image is nil if the bytes aren't a BMP the decoder
// understands; that is not an error.
func Decode(capture *events.ImageCapture) ([]byte, image.Image, error) {
	if capture == nil || capture.Hex == "" {
		return nil, nil, ErrEmptyCapture
	}
	data, err := protocol.DecodeHexPayload(capture.Hex)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warn().Err(err).Msg("screenshot is not a readable bmp")
		return data, nil, nil
	}
	return data, img, nil
}

// Filename returns the base name, without extension, for a capture taken
// at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("%s-%s", filePrefix, t.Format("20060102-150405.000"))
}

// Save writes the raw BMP and, if enabled and decodable, a PNG next to it.
func Save(opts Options, capture *events.ImageCapture, takenAt time.Time) (*Result, error) {
	data, img, err := Decode(capture)
	if err != nil {
		return nil, err
	}

	if err := opts.Fs.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	base := filepath.Join(opts.Dir, Filename(takenAt))
	res := &Result{
		BMPPath: base + ".bmp",
		Size:    len(data),
	}
	if err := afero.WriteFile(opts.Fs, res.BMPPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write screenshot: %w", err)
	}

	if img != nil {
		b := img.Bounds()
		res.Width, res.Height = b.Dx(), b.Dy()
		if opts.ExportPNG {
			res.PNGPath = base + ".png"
			if err := writePNG(opts.Fs, res.PNGPath, img); err != nil {
				log.Warn().Err(err).Msg("failed to export png, keeping bmp only")
				res.PNGPath = ""
			}
		}
	}

	log.Info().
		Str("path", res.BMPPath).
		Str("size", humanize.Bytes(uint64(res.Size))). //nolint:gosec // len is never negative
		Str("bitrate", Bitrate(res.Size, capture.Duration)).
		Bool("partial", capture.Partial).
		Msg("saved screenshot")

	return res, nil
}

func writePNG(fs afero.Fs, path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// Bitrate renders the effective transfer rate of size bytes over d.
func Bitrate(size int, d time.Duration) string {
	if d <= 0 || size <= 0 {
		return "n/a"
	}
	bps := float64(size*8) / d.Seconds()
	return humanize.SIWithDigits(bps, 1, "bps")
}
