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
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ThemeColors is the number of colours in a complete firmware theme.
const ThemeColors = 32

var (
	ErrInvalidTheme   = errors.New("invalid theme string")
	ErrInvalidPalette = errors.New("invalid palette")
)

var themePattern = regexp.MustCompile(`^Color theme ([^:]*):\s*((?:x[0-9a-fA-F]{4})+)\s*$`)

// ParseThemeLine extracts the theme label and the concatenated colour
// string from a "Color theme <label>: xHHHH..." line.
func ParseThemeLine(line string) (name, colors string, ok bool) {
	m := themePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}

// IsThemeLine reports whether line carries a colour theme.
func IsThemeLine(line string) bool {
	_, _, ok := ParseThemeLine(line)
	return ok
}

// Color565 is a packed 16-bit colour, 5 bits red, 6 green, 5 blue.
type Color565 uint16

// RGBA expands the packed channels to 8 bits each.
func (c Color565) RGBA() color.RGBA {
	r := uint8((c >> 11) & 0x1f)
	g := uint8((c >> 5) & 0x3f)
	b := uint8(c & 0x1f)
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xff,
	}
}

func (c Color565) String() string {
	return fmt.Sprintf("x%04X", uint16(c))
}

// ParsePalette splits a colour string of "xHHHH" tokens into colours. A
// single "x" followed by unseparated hex digits is also accepted, which is
// how older firmware printed the theme.
func ParsePalette(colors string) ([]Color565, error) {
	if colors == "" || colors[0] != 'x' {
		return nil, fmt.Errorf("%w: must start with 'x'", ErrInvalidPalette)
	}

	tokens := strings.Split(colors[1:], "x")
	if len(tokens) == 1 && len(tokens[0]) > 4 && len(tokens[0])%4 == 0 {
		packed := tokens[0]
		tokens = make([]string, 0, len(packed)/4)
		for i := 0; i < len(packed); i += 4 {
			tokens = append(tokens, packed[i:i+4])
		}
	}
	palette := make([]Color565, 0, len(tokens))
	for i, tok := range tokens {
		if len(tok) != 4 {
			return nil, fmt.Errorf("%w: token %d has %d digits", ErrInvalidPalette, i, len(tok))
		}
		v, err := strconv.ParseUint(tok, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d: %w", ErrInvalidPalette, i, err)
		}
		palette = append(palette, Color565(v))
	}
	return palette, nil
}

// FormatPalette is the inverse of ParsePalette.
func FormatPalette(palette []Color565) string {
	var sb strings.Builder
	sb.Grow(len(palette) * 5)
	for _, c := range palette {
		sb.WriteString(c.String())
	}
	return sb.String()
}

// ThemePreview validates a colour string, or a full "Color theme" line,
// and returns the payload to send to the device for a live preview,
// newline excluded. A palette that isn't exactly ThemeColors long is
// still sent, with a warning.
func ThemePreview(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTheme)
	}

	colors := input
	if strings.HasPrefix(input, "Color theme") {
		_, c, ok := ParseThemeLine(input)
		if !ok {
			return "", fmt.Errorf("%w: expected 'Color theme ...: xHHHHxHHHH...'", ErrInvalidTheme)
		}
		colors = c
	}

	if !strings.HasPrefix(colors, "x") {
		return "", fmt.Errorf("%w: theme data must start with 'x'", ErrInvalidTheme)
	}

	hexDigits := strings.ReplaceAll(colors[1:], "x", "")
	if len(hexDigits)%4 != 0 {
		return "", fmt.Errorf("%w: hex colour data length must be a multiple of 4", ErrInvalidTheme)
	}
	if !IsHexString(hexDigits) {
		return "", fmt.Errorf("%w: hex colour data contains invalid characters", ErrInvalidTheme)
	}

	palette, err := ParsePalette(colors)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTheme, err)
	}
	if len(palette) != ThemeColors {
		log.Warn().
			Int("colors", len(palette)).
			Int("expected", ThemeColors).
			Msg("theme has unexpected colour count, previewing anyway")
	}

	return colors + string(ThemeSetSuffix), nil
}
