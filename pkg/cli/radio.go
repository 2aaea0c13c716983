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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-radio/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-radio/pkg/config"
	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/ZaparooProject/zaparoo-radio/pkg/screenshot"
	"github.com/ZaparooProject/zaparoo-radio/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const pingTimeout = 500 * time.Millisecond

var (
	ErrMissingValue   = errors.New("flag requires a value")
	ErrUnknownCapture = errors.New("unknown capture kind")
)

// RadioOptions builds controller settings from the config.
func RadioOptions(cfg *config.Instance) radio.Options {
	opts := radio.DefaultOptions()
	opts.Timeouts = cfg.CaptureTimeouts()
	opts.Delays = radio.Delays{
		Settle: cfg.SettleDelay(),
		Resume: cfg.ResumeDelay(),
	}
	opts.ReadTimeout = cfg.ReadTimeout()
	opts.LogOnConnect = cfg.LogOnConnect()
	return opts
}

// ResolvePort returns the configured port, or the best detected one.
func ResolvePort(cfg *config.Instance, lister helpers.PortLister) (string, error) {
	if port := cfg.SerialPort(); port != "" {
		return port, nil
	}
	port, err := helpers.DetectRadioPort(lister)
	if err != nil {
		return "", fmt.Errorf("no port configured: %w", err)
	}
	log.Info().Str("port", port).Msg("auto-detected radio port")
	return port, nil
}

// Runner carries out one-shot commands. It goes through a running service
// when one answers, otherwise it opens the serial port itself.
type Runner struct {
	Config  *config.Instance
	Client  *client.Client
	Lister  helpers.PortLister
	Fs      afero.Fs
	Out     io.Writer
	Options radio.Options
	Baud    int
}

// Post handles the flags that need config and logging. It reports
// whether the program should exit.
func (f *Flags) Post(ctx context.Context, r *Runner) (bool, error) {
	switch {
	case f.isFlagPassed("send"):
		return true, r.Send(ctx, *f.Send)
	case f.isFlagPassed("capture"):
		return true, r.Capture(ctx, *f.Capture)
	}
	return false, nil
}

func (r *Runner) serviceRunning(ctx context.Context) bool {
	if r.Client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Client.Ping(ctx); err != nil {
		log.Debug().Err(err).Msg("no running service, using serial port")
		return false
	}
	return true
}

func (r *Runner) connect() (*radio.Controller, error) {
	port, err := ResolvePort(r.Config, r.Lister)
	if err != nil {
		return nil, err
	}

	opts := r.Options
	opts.LogOnConnect = false
	ctrl := radio.NewController(events.NewQueue(), opts)
	if err := ctrl.Connect(port, r.Baud); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", port, err)
	}
	return ctrl, nil
}

func disconnect(ctrl *radio.Controller) {
	if err := ctrl.Disconnect(); err != nil {
		log.Warn().Err(err).Msg("disconnecting")
	}
}

// Send writes one command, given by name or character.
func (r *Runner) Send(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("send: %w", ErrMissingValue)
	}
	cmd, err := protocol.ParseCommand(name)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	if r.serviceRunning(ctx) {
		if _, err := r.Client.Send(ctx, models.WSRequest{Command: name}); err != nil {
			return fmt.Errorf("send via service: %w", err)
		}
		_, _ = fmt.Fprintf(r.Out, "sent %s\n", cmd)
		return nil
	}

	ctrl, err := r.connect()
	if err != nil {
		return err
	}
	defer disconnect(ctrl)

	if err := ctrl.Dispatcher().Send(cmd); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	_, _ = fmt.Fprintf(r.Out, "sent %s\n", cmd)
	return nil
}

// Capture runs one capture and prints or saves the result.
func (r *Runner) Capture(ctx context.Context, kind string) error {
	if kind == "" {
		return fmt.Errorf("capture: %w", ErrMissingValue)
	}
	mode, ok := validation.ParseCaptureMode(kind)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCapture, kind)
	}

	if r.serviceRunning(ctx) {
		n, err := r.Client.Capture(ctx, kind)
		if n.Method != "" {
			r.printNotification(n)
		}
		if err != nil {
			return fmt.Errorf("capture via service: %w", err)
		}
		return nil
	}

	ctrl, err := r.connect()
	if err != nil {
		return err
	}
	defer disconnect(ctrl)

	id, err := ctrl.Dispatcher().Request(mode)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	log.Debug().Stringer("session", id).Stringer("mode", mode).Msg("capture requested")

	queue := ctrl.Events()
	for {
		var failed *events.Event
		for _, ev := range queue.Drain() {
			switch {
			case ev.Kind == events.KindConnectionLost:
				return fmt.Errorf("capture: %w", ev.Err)
			case ev.SessionID != id:
				continue
			case ev.Kind.Failed():
				failed = &ev
			default:
				if failed != nil {
					log.Warn().Err(failed.Err).Msg("capture incomplete")
				}
				return r.report(&ev)
			}
		}
		if failed != nil {
			return fmt.Errorf("capture: %w", failed.Err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("capture: %w", ctx.Err())
		case <-queue.Notify():
		}
	}
}

func (r *Runner) printNotification(n events.Notification) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, n.Params, "", "  "); err != nil {
		buf.Reset()
		buf.Write(n.Params)
	}
	_, _ = fmt.Fprintf(r.Out, "%s\n%s\n", n.Method, buf.String())
}

func (r *Runner) report(ev *events.Event) error {
	switch {
	case ev.Image != nil:
		dir := r.Config.OutputDir()
		if dir == "" {
			dir = "."
		}
		res, err := screenshot.Save(screenshot.Options{
			Fs:        r.Fs,
			Dir:       dir,
			ExportPNG: r.Config.ExportPNG(),
		}, ev.Image, ev.Time)
		if err != nil {
			return fmt.Errorf("saving screenshot: %w", err)
		}
		_, _ = fmt.Fprintln(r.Out, res.BMPPath)
		if res.PNGPath != "" {
			_, _ = fmt.Fprintln(r.Out, res.PNGPath)
		}
	case ev.Memory != nil:
		table := ev.Memory.Table()
		used := table.Used()
		if len(used) == 0 {
			_, _ = fmt.Fprintln(r.Out, "no stations stored")
		}
		for _, s := range used {
			_, _ = fmt.Fprintf(r.Out, "%02d  %-6s %-14s %s\n", s.Slot, s.Band, s.FrequencyString(), s.Mode)
		}
	case ev.Theme != nil:
		_, _ = fmt.Fprintf(r.Out, "Color theme %s: %s\n", ev.Theme.Name, ev.Theme.Colors)
	}
	return nil
}
