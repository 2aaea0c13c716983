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

// Package helpers holds shared fixtures for tests across packages.
package helpers

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-radio/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestConfigDir is where config fixtures live inside a memory filesystem.
const TestConfigDir = "/config"

// FSHelper provides utilities for filesystem mocking in tests
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// WriteConfig writes a raw TOML config file into dir.
func (h *FSHelper) WriteConfig(dir, content string) error {
	if err := h.Fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, config.CfgFile)
	if err := afero.WriteFile(h.Fs, path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// NewConfig loads a config from content, or from the defaults when content
// is empty, on a fresh memory filesystem.
func NewConfig(t *testing.T, content string) (*config.Instance, *FSHelper) {
	t.Helper()
	h := NewMemoryFS()
	if content != "" {
		require.NoError(t, h.WriteConfig(TestConfigDir, content))
	}
	cfg, err := config.NewConfig(h.Fs, TestConfigDir, config.BaseDefaults)
	require.NoError(t, err)
	return cfg, h
}
