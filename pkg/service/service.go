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

// Package service consumes the radio event queue: it keeps the current
// state, saves screenshots and fans notifications out to the API and
// publishers.
package service

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/zaparoo-radio/pkg/config"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/screenshot"
	"github.com/ZaparooProject/zaparoo-radio/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-radio/pkg/service/publishers"
	"github.com/ZaparooProject/zaparoo-radio/pkg/service/state"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const publisherBuffer = 32

type Deps struct {
	Config *config.Instance
	Queue  *events.Queue
	Fs     afero.Fs
	Clock  clockwork.Clock
}

type Service struct {
	cfg        *config.Instance
	queue      *events.Queue
	fs         afero.Fs
	clock      clockwork.Clock
	state      *state.State
	broker     *broker.Broker
	publishers []*publishers.MQTTPublisher
}

// New builds the service and starts its broker, which runs until ctx is
// cancelled.
func New(ctx context.Context, deps Deps) *Service {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	st, ns := state.NewState()
	b := broker.NewBroker(ctx, ns)
	b.Start()

	return &Service{
		cfg:    deps.Config,
		queue:  deps.Queue,
		fs:     deps.Fs,
		clock:  deps.Clock,
		state:  st,
		broker: b,
	}
}

func (s *Service) State() *state.State {
	return s.state
}

func (s *Service) Broker() *broker.Broker {
	return s.broker
}

// StartPublishers connects every configured MQTT publisher. One that
// fails to connect is logged and skipped.
func (s *Service) StartPublishers() {
	for _, pc := range s.cfg.MQTTPublishers() {
		p := publishers.NewMQTTPublisher(pc.Broker, pc.Topic, pc.Filter)
		ch, id := s.broker.Subscribe(publisherBuffer)
		if err := p.Start(ch); err != nil {
			log.Error().Err(err).Str("broker", pc.Broker).Msg("failed to start mqtt publisher")
			s.broker.Unsubscribe(id)
			continue
		}
		s.publishers = append(s.publishers, p)
	}
}

func (s *Service) Stop() {
	for _, p := range s.publishers {
		p.Stop()
	}
	s.publishers = nil
	s.broker.Stop()
}

// Run drains the queue on every poll tick, or sooner when events arrive,
// until ctx is done. It returns an error once the connection is lost.
func (s *Service) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.cfg.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		case <-s.queue.Notify():
		}

		if err := s.drain(); err != nil {
			return err
		}
	}
}

func (s *Service) drain() error {
	for {
		ev, ok := s.queue.Poll()
		if !ok {
			return nil
		}
		if err := s.handle(&ev); err != nil {
			return err
		}
	}
}

func (s *Service) handle(ev *events.Event) error {
	s.state.Apply(ev)

	switch ev.Kind {
	case events.KindTelemetry:
		log.Trace().Int("frequency", ev.Telemetry.Frequency).Int("rssi", ev.Telemetry.RSSI).Msg("telemetry")
	case events.KindImageCaptured:
		s.saveImage(ev)
	case events.KindMemoryCaptured:
		table := ev.Memory.Table()
		log.Info().Int("slots", len(table.Used())).Bool("partial", ev.Memory.Partial).Msg("memory captured")
	case events.KindThemeCaptured:
		log.Info().Str("name", ev.Theme.Name).Msg("theme captured")
	case events.KindConnectionLost:
		log.Error().Err(ev.Err).Msg("radio connection lost")
		return fmt.Errorf("radio disconnected: %w", ev.Err)
	default:
		if ev.Kind.Failed() {
			log.Warn().Err(ev.Err).Str("method", ev.Kind.String()).Msg("capture failed")
		}
	}
	return nil
}

func (s *Service) saveImage(ev *events.Event) {
	dir := s.cfg.OutputDir()
	if dir == "" {
		log.Info().Int("bytes", ev.Image.Bytes()).Msg("screenshot captured, no output dir set")
		return
	}
	res, err := screenshot.Save(screenshot.Options{
		Fs:        s.fs,
		Dir:       dir,
		ExportPNG: s.cfg.ExportPNG(),
	}, ev.Image, ev.Time)
	if err != nil {
		log.Error().Err(err).Msg("failed to save screenshot")
		return
	}
	s.state.SetImageSaved(res)
}
