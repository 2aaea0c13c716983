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
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// MaxLineSize bounds a single line. Image dumps are split into many short
// lines by the firmware, so anything larger is garbage.
const MaxLineSize = 64 * 1024

var ErrUndecodable = errors.New("line is not valid text")

// LineAssembler turns arbitrary read chunks into newline terminated lines,
// carrying the unterminated tail between calls. It is not safe for
// concurrent use; it belongs to the reader loop.
type LineAssembler struct {
	buf        []byte
	maxSize    int
	overflowed bool
}

func NewLineAssembler() *LineAssembler {
	return &LineAssembler{maxSize: MaxLineSize}
}

// Feed appends chunk and returns every line it completed, without the
// terminator or a trailing carriage return. An empty chunk returns nothing.
// Returned slices are owned by the caller.
func (a *LineAssembler) Feed(chunk []byte) [][]byte {
	var lines [][]byte

	for _, b := range chunk {
		if b == LineTerminator {
			if a.overflowed {
				a.overflowed = false
				a.buf = a.buf[:0]
				continue
			}

			line := a.buf
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			lines = append(lines, append([]byte(nil), line...))
			a.buf = a.buf[:0]
			continue
		}

		if a.overflowed {
			continue
		}

		if len(a.buf) >= a.maxSize {
			log.Warn().Int("size", len(a.buf)).Msg("line too long, discarding until next newline")
			a.buf = a.buf[:0]
			a.overflowed = true
			continue
		}

		a.buf = append(a.buf, b)
	}

	return lines
}

// Pending is the number of buffered bytes not yet terminated.
func (a *LineAssembler) Pending() int {
	return len(a.buf)
}

func (a *LineAssembler) Reset() {
	a.buf = a.buf[:0]
	a.overflowed = false
}

// DecodeLine converts a raw line to text. Plain ASCII is tried first; if
// the line has high bytes it must at least be valid UTF-8, otherwise
// ErrUndecodable is returned. Surrounding whitespace is trimmed.
func DecodeLine(raw []byte) (string, error) {
	if isASCII(raw) {
		return strings.TrimSpace(string(raw)), nil
	}

	s, _, err := transform.String(encoding.UTF8Validator, string(raw))
	if err != nil {
		return "", ErrUndecodable
	}
	return strings.TrimSpace(s), nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
