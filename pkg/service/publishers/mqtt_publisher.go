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

// Package publishers forwards radio notifications to external systems.
package publishers

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// ClientFactory builds the paho client. Replaced in tests.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

// MQTTPublisher publishes each notification's params to
// <topic>/<method with dots as slashes>.
type MQTTPublisher struct {
	client    mqtt.Client
	newClient ClientFactory
	stopCh    chan struct{}
	done      chan struct{}
	broker    string
	topic     string
	filter    []string
}

// NewMQTTPublisher returns a publisher for broker and base topic. An empty
// filter publishes every method.
func NewMQTTPublisher(broker, topic string, filter []string) *MQTTPublisher {
	return &MQTTPublisher{
		broker:    brokerURL(broker),
		topic:     strings.TrimSuffix(topic, "/"),
		filter:    filter,
		newClient: mqtt.NewClient,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Start connects and forwards notifications until Stop is called or the
// channel closes.
func (p *MQTTPublisher) Start(notifications <-chan events.Notification) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.broker)
	opts.SetClientID("zaparoo-radio-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	client := p.newClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	p.client = client

	log.Info().Str("broker", p.broker).Str("topic", p.topic).Msg("mqtt publisher started")

	go p.publishNotifications(notifications)
	return nil
}

// Stop ends publishing and disconnects. It waits for the publish loop if
// Start succeeded.
func (p *MQTTPublisher) Stop() {
	select {
	case <-p.stopCh:
		return
	default:
		close(p.stopCh)
	}

	if p.client == nil {
		return
	}
	<-p.done
	if p.client.IsConnected() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(disconnectQuiesce)
	}
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan events.Notification) {
	defer close(p.done)

	for {
		select {
		case <-p.stopCh:
			return
		case n, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return
			}
			if !p.matchesFilter(n.Method) {
				continue
			}
			if err := p.publish(n); err != nil {
				log.Error().Err(err).Str("method", n.Method).Msg("mqtt publisher: failed to publish")
				continue
			}
			log.Debug().Str("method", n.Method).Msg("mqtt publisher: published")
		}
	}
}

func (p *MQTTPublisher) publish(n events.Notification) error {
	payload := []byte(n.Params)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	token := p.client.Publish(p.Topic(n.Method), 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Topic is the full topic a method is published on.
func (p *MQTTPublisher) Topic(method string) string {
	return p.topic + "/" + strings.ReplaceAll(method, ".", "/")
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, method)
}
