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

package reporting

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no username in path", input: "/usr/local/bin/zaparoo-radio", expected: "/usr/local/bin/zaparoo-radio"},
		{
			name:     "linux home path",
			input:    "/home/alice/.config/zaparoo-radio/config.toml",
			expected: "/home/<user>/.config/zaparoo-radio/config.toml",
		},
		{
			name:     "linux home path uppercase",
			input:    "/Home/Alice/screenshots/a.bmp",
			expected: "/home/<user>/screenshots/a.bmp",
		},
		{
			name:     "macos users path",
			input:    "/Users/alice/Library/Caches/zaparoo-radio/zaparoo-radio.log",
			expected: "/Users/<user>/Library/Caches/zaparoo-radio/zaparoo-radio.log",
		},
		{
			name:     "windows path",
			input:    "C:\\Users\\alice\\AppData\\Roaming\\zaparoo-radio\\config.toml",
			expected: "C:\\Users\\<user>\\AppData\\Roaming\\zaparoo-radio\\config.toml",
		},
		{
			name:     "windows path different drive",
			input:    "d:\\Users\\bob\\radio",
			expected: "C:\\Users\\<user>\\radio",
		},
		{
			name:     "serial by-id link",
			input:    "open /dev/serial/by-id/usb-1a86_USB_Serial_5A7B0012345-if00: busy",
			expected: "open /dev/serial/by-id/<device>: busy",
		},
		{name: "plain tty", input: "/dev/ttyACM0", expected: "/dev/ttyACM0"},
		{
			name:     "multiple paths in message",
			input:    "copying /home/alice/a.bmp to /home/bob/b.bmp",
			expected: "copying /home/<user>/a.bmp to /home/<user>/b.bmp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, redact(tt.input))
		})
	}
}

func TestScrub(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "alices-laptop",
		Message:    "failed to save /home/alice/shot.bmp",
		Extra:      map[string]any{"path": "/Users/alice/x", "count": 3},
		Tags:       map[string]string{"port": "/dev/serial/by-id/usb-CH340_0001-if00"},
		Exception: []sentry.Exception{
			{Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{
				{AbsPath: "/home/alice/go/src/radio/main.go", Filename: "main.go"},
			}}},
			{Value: "open /home/alice/x: denied"},
		},
		Threads: []sentry.Thread{
			{Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{AbsPath: "/Users/alice/y.go"}}}},
		},
		Breadcrumbs: []*sentry.Breadcrumb{{Message: "wrote /home/alice/a.bmp"}},
	}

	got := scrub(event)
	require.NotNil(t, got)
	assert.Empty(t, got.ServerName)
	assert.Equal(t, "failed to save /home/<user>/shot.bmp", got.Message)
	assert.Equal(t, "/Users/<user>/x", got.Extra["path"])
	assert.Equal(t, 3, got.Extra["count"])
	assert.Equal(t, "/dev/serial/by-id/<device>", got.Tags["port"])
	assert.Equal(t, "/home/<user>/go/src/radio/main.go", got.Exception[0].Stacktrace.Frames[0].AbsPath)
	assert.Equal(t, "open /home/<user>/x: denied", got.Exception[1].Value)
	assert.Equal(t, "/Users/<user>/y.go", got.Threads[0].Stacktrace.Frames[0].AbsPath)
	assert.Equal(t, "wrote /home/<user>/a.bmp", got.Breadcrumbs[0].Message)
}

func TestInitWithoutDSN(t *testing.T) {
	t.Parallel()

	require.NoError(t, Init(Options{DeviceID: "x"}))
	assert.False(t, Enabled())
	Flush()
	Close()
}
