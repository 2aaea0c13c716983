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

// Package cli holds the flags shared by every zaparoo-radio entry point.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-radio/internal/reporting"
	"github.com/ZaparooProject/zaparoo-radio/pkg/config"
	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers"
	"github.com/spf13/afero"
)

type Flags struct {
	fs      *flag.FlagSet
	Port    *string
	Config  *string
	Send    *string
	Capture *string
	Output  *string
	Baud    *int
	List    *bool
	Version *bool
	Debug   *bool
}

// SetupFlags defines the common flags on fs, or on the process flag set
// when fs is nil.
func SetupFlags(fs *flag.FlagSet) *Flags {
	if fs == nil {
		fs = flag.CommandLine
	}
	return &Flags{
		fs: fs,
		Port: fs.String(
			"port",
			"",
			"serial port of the receiver (default: auto-detect)",
		),
		Baud: fs.Int(
			"baud",
			0,
			"serial baud rate (default: from config)",
		),
		Config: fs.String(
			"config",
			"",
			"directory holding config.toml",
		),
		List: fs.Bool(
			"list",
			false,
			"list serial ports and exit",
		),
		Send: fs.String(
			"send",
			"",
			"send a command by name or character and exit",
		),
		Capture: fs.String(
			"capture",
			"",
			"capture image, memory or theme and exit",
		),
		Output: fs.String(
			"output",
			"",
			"directory for captured screenshots",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles the flags that need no config or logging.
// It reports whether the program should exit.
func (f *Flags) Pre(args []string, out io.Writer, lister helpers.PortLister) (bool, error) {
	if err := f.fs.Parse(args); err != nil {
		return true, fmt.Errorf("parsing flags: %w", err)
	}

	switch {
	case *f.Version:
		_, _ = fmt.Fprintf(out, "%s v%s\n", helpers.AppName, config.AppVersion)
		return true, nil
	case *f.List:
		return true, listPorts(out, lister)
	}
	return false, nil
}

func listPorts(out io.Writer, lister helpers.PortLister) error {
	ports, err := helpers.ListPorts(lister)
	if err != nil {
		return fmt.Errorf("listing ports: %w", err)
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(out, "no serial ports found")
		return nil
	}

	best, err := helpers.DetectRadioPort(lister)
	if err != nil && !errors.Is(err, helpers.ErrNoSerialPorts) {
		return fmt.Errorf("detecting radio: %w", err)
	}
	for _, p := range ports {
		marker := " "
		if p.Name == best {
			marker = "*"
		}
		_, _ = fmt.Fprintf(out, "%s %s\n", marker, p)
	}
	return nil
}

// Setup initialises logging, loads the config and applies flag overrides
// on top of it. Error reporting starts here when the user has opted in.
//
//nolint:gocritic // config struct copied for immutability
func (f *Flags) Setup(fs afero.Fs, defaults config.Values, writers []io.Writer) (*config.Instance, error) {
	if err := helpers.InitLogging(helpers.LogDir(), writers); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	cfgDir := *f.Config
	if cfgDir == "" {
		dir, err := helpers.ConfigDir()
		if err != nil {
			return nil, err
		}
		cfgDir = dir
	}

	cfg, err := config.NewConfig(fs, filepath.Clean(cfgDir), defaults)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if *f.Debug {
		cfg.SetDebugLogging(true)
	} else {
		cfg.SetDebugLogging(cfg.DebugLogging())
	}
	if *f.Port != "" {
		cfg.SetSerialPort(*f.Port)
	}
	if *f.Output != "" {
		cfg.SetOutputDir(*f.Output)
	}

	if cfg.ReportingEnabled() {
		if err := reporting.Init(reporting.Options{
			DSN:      cfg.ReportingDSN(),
			DeviceID: cfg.DeviceID(),
			Version:  config.AppVersion,
			Port:     cfg.SerialPort(),
		}); err != nil {
			return cfg, fmt.Errorf("initializing error reporting: %w", err)
		}
	}

	return cfg, nil
}

// BaudRate is the -baud flag if set, otherwise the configured rate.
func (f *Flags) BaudRate(cfg *config.Instance) int {
	if *f.Baud > 0 {
		return *f.Baud
	}
	return cfg.BaudRate()
}
