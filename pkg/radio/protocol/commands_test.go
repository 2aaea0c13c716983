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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr bool
	}{
		{name: "raw character", input: "V", want: CmdVolumeUp},
		{name: "lower case raw", input: "v", want: CmdVolumeDown},
		{name: "name", input: "memory_dump", want: CmdMemoryDump},
		{name: "name any case", input: "Toggle_Log", want: CmdToggleLog},
		{name: "name with spaces", input: "  screenshot ", want: CmdScreenshot},
		{name: "unknown character", input: "x", wantErr: true},
		{name: "unknown name", input: "self_destruct", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCommand(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "volume_up", CmdVolumeUp.String())
	assert.Equal(t, "theme_get", CmdThemeGet.String())
	assert.Equal(t, "z", Command('z').String())
	assert.False(t, Command('z').Known())
}

func TestCommandBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte("C\n"), CmdScreenshot.Bytes())
	assert.Equal(t, []byte("$\n"), CmdMemoryDump.Bytes())
}

func TestCommandIsCapture(t *testing.T) {
	t.Parallel()

	assert.True(t, CmdScreenshot.IsCapture())
	assert.True(t, CmdMemoryDump.IsCapture())
	assert.True(t, CmdThemeGet.IsCapture())
	assert.False(t, CmdThemeEditor.IsCapture())
	assert.False(t, CmdToggleLog.IsCapture())
}

func TestCommandNames(t *testing.T) {
	t.Parallel()

	names := CommandNames()
	assert.Len(t, names, len(commandNames))
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "encoder_button")

	for _, n := range names {
		c, err := ParseCommand(n)
		require.NoError(t, err, n)
		assert.Equal(t, n, c.String())
	}
}
