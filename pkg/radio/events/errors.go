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

package events

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
)

var (
	// ErrNoData is a capture that finished without receiving any data.
	ErrNoData = errors.New("no data received")
	// ErrCorruptData is a capture cut short by an undecodable line.
	ErrCorruptData = errors.New("corrupt data received")
	// ErrConnectionLost is the serial link going away under the reader or
	// a write failing.
	ErrConnectionLost = errors.New("connection lost")
	ErrWriteFailed    = errors.New("write failed")
)

// CaptureError describes a failed capture. Items is how much had been
// buffered when it failed.
type CaptureError struct {
	Err   error
	Mode  protocol.Mode
	Items int
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s capture failed after %d items: %v", e.Mode, e.Items, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// AsCaptureError is errors.As for *CaptureError.
func AsCaptureError(err error, target **CaptureError) bool {
	if err == nil {
		return false
	}
	return errors.As(err, target)
}

// FailureKind maps a capture mode to its failure event kind.
func FailureKind(mode protocol.Mode) Kind {
	switch mode {
	case protocol.ModeMemory:
		return KindMemoryCaptureFailed
	case protocol.ModeTheme:
		return KindThemeCaptureFailed
	default:
		return KindImageCaptureFailed
	}
}
