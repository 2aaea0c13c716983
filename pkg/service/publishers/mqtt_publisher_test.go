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

package publishers

import (
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(filter []string) (*MQTTPublisher, *mockMQTTClient) {
	client := newMockMQTTClient()
	p := NewMQTTPublisher("localhost:1883", "radio/", filter)
	p.newClient = client.factory
	return p, client
}

func waitPublished(t *testing.T, client *mockMQTTClient) publishedMessage {
	t.Helper()
	select {
	case msg := <-client.published:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for publish")
		return publishedMessage{}
	}
}

func TestNewMQTTPublisher(t *testing.T) {
	t.Parallel()

	p := NewMQTTPublisher("localhost:1883", "radio/events/", nil)
	assert.Equal(t, "tcp://localhost:1883", p.broker)
	assert.Equal(t, "radio/events", p.topic)

	p = NewMQTTPublisher("ssl://broker:8883", "radio", nil)
	assert.Equal(t, "ssl://broker:8883", p.broker)
}

func TestTopic(t *testing.T) {
	t.Parallel()

	p := NewMQTTPublisher("b:1883", "radio", nil)
	assert.Equal(t, "radio/capture/image/failed", p.Topic(events.MethodImageCaptureFailed))
	assert.Equal(t, "radio/radio/telemetry", p.Topic(events.MethodTelemetry))
}

func TestMatchesFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		filter []string
		want   bool
	}{
		{name: "nil filter", method: events.MethodTelemetry, want: true},
		{name: "empty filter", method: events.MethodTelemetry, filter: []string{}, want: true},
		{name: "listed", method: events.MethodImageCaptured, filter: []string{events.MethodImageCaptured}, want: true},
		{name: "not listed", method: events.MethodTelemetry, filter: []string{events.MethodImageCaptured}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewMQTTPublisher("b:1883", "radio", tt.filter)
			assert.Equal(t, tt.want, p.matchesFilter(tt.method))
		})
	}
}

func TestStartPublishesFilteredNotifications(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher([]string{events.MethodMemoryCaptured})
	ch := make(chan events.Notification, 4)
	require.NoError(t, p.Start(ch))
	assert.True(t, client.IsConnected())

	ch <- events.Notification{Method: events.MethodTelemetry, Params: []byte(`{"rssi":1}`)}
	ch <- events.Notification{Method: events.MethodMemoryCaptured, Params: []byte(`{"lines":[]}`)}

	msg := waitPublished(t, client)
	assert.Equal(t, "radio/capture/memory", msg.topic)
	assert.JSONEq(t, `{"lines":[]}`, string(msg.payload))

	p.Stop()
	assert.Len(t, client.messages(), 1)
	assert.Equal(t, 1, client.disconnects())
}

func TestEmptyParamsPublishEmptyObject(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(nil)
	ch := make(chan events.Notification, 1)
	require.NoError(t, p.Start(ch))

	ch <- events.Notification{Method: events.MethodConnectionLost}
	assert.Equal(t, "{}", string(waitPublished(t, client).payload))
	p.Stop()
}

func TestStartConnectError(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(nil)
	client.connectError = errors.New("refused")

	err := p.Start(make(chan events.Notification))
	require.ErrorContains(t, err, "refused")
	p.Stop()
}

func TestPublishErrorKeepsRunning(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(nil)
	client.publishError = errors.New("nope")
	ch := make(chan events.Notification)
	require.NoError(t, p.Start(ch))

	ch <- events.Notification{Method: events.MethodTelemetry}
	ch <- events.Notification{Method: events.MethodTelemetry}
	assert.Empty(t, client.messages())
	p.Stop()
}

func TestChannelCloseEndsLoop(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(nil)
	ch := make(chan events.Notification)
	require.NoError(t, p.Start(ch))
	close(ch)

	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("publish loop did not exit")
	}
	p.Stop()
	p.Stop()
	assert.Equal(t, 1, client.disconnects())
}
