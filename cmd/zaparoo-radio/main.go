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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-radio/internal/reporting"
	"github.com/ZaparooProject/zaparoo-radio/pkg/api"
	"github.com/ZaparooProject/zaparoo-radio/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-radio/pkg/cli"
	"github.com/ZaparooProject/zaparoo-radio/pkg/config"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		reporting.Flush()
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(nil)
	if exit, err := flags.Pre(os.Args[1:], os.Stdout, nil); exit || err != nil {
		return err
	}

	fs := afero.NewOsFs()
	cfg, err := flags.Setup(fs, config.BaseDefaults, []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stderr},
	})
	if cfg == nil {
		return err
	} else if err != nil {
		log.Warn().Err(err).Msg("continuing without error reporting")
	}
	defer reporting.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &cli.Runner{
		Config:  cfg,
		Client:  client.New(cfg.APIListen()),
		Fs:      fs,
		Out:     os.Stdout,
		Options: cli.RadioOptions(cfg),
		Baud:    flags.BaudRate(cfg),
	}
	if exit, err := flags.Post(ctx, runner); exit {
		return err
	}

	port, err := cli.ResolvePort(cfg, nil)
	if err != nil {
		return err
	}

	ctrl := radio.NewController(events.NewQueue(), cli.RadioOptions(cfg))
	if err := ctrl.Connect(port, flags.BaudRate(cfg)); err != nil {
		return fmt.Errorf("connecting to %s: %w", port, err)
	}
	defer func() {
		if err := ctrl.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("error disconnecting")
		}
	}()

	svc := service.New(ctx, service.Deps{
		Config: cfg,
		Queue:  ctrl.Events(),
		Fs:     fs,
	})
	defer svc.Stop()
	svc.StartPublishers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx)
	})

	if cfg.APIEnabled() {
		srv := api.NewServer(api.ControllerRadio{C: ctrl}, svc.State(), svc.Broker(), api.Options{
			AllowedOrigins: cfg.AllowedOrigins(),
			AllowedIPs:     cfg.AllowedIPs(),
		})
		g.Go(func() error {
			return srv.Run(gctx, cfg.APIListen())
		})
	}

	log.Info().Str("port", port).Msg("radio service started")

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info().Msg("shutting down")
		return nil
	default:
		log.Error().Err(err).Msg("radio service stopped")
		return err
	}
}
