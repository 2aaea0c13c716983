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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// hexContext is how many characters either side of a bad digit are quoted
// in decode errors.
const hexContext = 20

var ErrInvalidHexPayload = errors.New("invalid hex payload")

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// IsHexString reports whether s is non-empty and made only of hex digits.
func IsHexString(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// DecodeHexPayload turns a captured hex string into bytes. On a bad digit
// the error quotes the surrounding characters and marks the position.
func DecodeHexPayload(s string) ([]byte, error) {
	for i := range len(s) {
		if isHexDigit(s[i]) {
			continue
		}
		start := max(0, i-hexContext)
		end := min(len(s), i+hexContext+1)
		pointer := strings.Repeat(" ", i-start) + "^"
		return nil, fmt.Errorf(
			"%w: non-hex character at position %d\n'%s'\n %s",
			ErrInvalidHexPayload, i, s[start:end], pointer,
		)
	}

	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHexPayload, len(s))
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHexPayload, err)
	}
	return b, nil
}

// EncodeHexPayload is the inverse of DecodeHexPayload, in lower case.
func EncodeHexPayload(b []byte) string {
	return hex.EncodeToString(b)
}
