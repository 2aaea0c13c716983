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

package client

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService runs onConnect for each new connection, then hands every
// message to reply.
func fakeService(t *testing.T, onConnect func(*websocket.Conn), reply func(conn *websocket.Conn, msg []byte)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != models.EventsPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if onConnect != nil {
			onConnect(conn)
		}
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply(conn, msg)
		}
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestSendMatchesResponseID(t *testing.T) {
	t.Parallel()

	addr := fakeService(t, nil, func(conn *websocket.Conn, msg []byte) {
		var req models.WSRequest
		_ = json.Unmarshal(msg, &req)
		_ = conn.WriteJSON(events.Notification{Method: events.MethodTelemetry})
		_ = conn.WriteJSON(models.WSResponse{ID: "someone-else", OK: true})
		_ = conn.WriteJSON(models.WSResponse{ID: req.ID, OK: true, SessionID: "abc"})
	})

	resp, err := New(addr).Send(context.Background(), models.WSRequest{Capture: "image"})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "abc", resp.SessionID)
	assert.NotEmpty(t, resp.ID)
}

func TestSendErrorResponse(t *testing.T) {
	t.Parallel()

	addr := fakeService(t, nil, func(conn *websocket.Conn, msg []byte) {
		var req models.WSRequest
		_ = json.Unmarshal(msg, &req)
		_ = conn.WriteJSON(models.WSResponse{ID: req.ID, Error: "radio not connected"})
	})

	_, err := New(addr).Send(context.Background(), models.WSRequest{ID: "1", Command: "V"})
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "radio not connected")
}

func TestSendTimeout(t *testing.T) {
	t.Parallel()

	addr := fakeService(t, nil, func(*websocket.Conn, []byte) {})
	c := New(addr)
	c.Timeout = 50 * time.Millisecond

	_, err := c.Send(context.Background(), models.WSRequest{Command: "V"})
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestSendCancelled(t *testing.T) {
	t.Parallel()

	addr := fakeService(t, nil, func(*websocket.Conn, []byte) {})
	c := New(addr)
	c.Timeout = 0

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Send(ctx, models.WSRequest{Command: "V"})
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestSendConnectionFailure(t *testing.T) {
	t.Parallel()

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New(addr).Send(context.Background(), models.WSRequest{Command: "V"})
	require.Error(t, err)
}

func TestWaitNotification(t *testing.T) {
	t.Parallel()

	addr := fakeService(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(events.Notification{Method: events.MethodTelemetry})
		_ = conn.WriteJSON(events.Notification{Method: events.MethodImageCaptured, Params: []byte(`{"bytes":2}`)})
	}, func(conn *websocket.Conn, msg []byte) {
		if string(msg) == models.Ping {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(models.Pong))
		}
	})

	c := New(addr)
	require.NoError(t, c.Ping(context.Background()))

	n, err := c.WaitNotification(context.Background(), events.MethodImageCaptured)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bytes":2}`, string(n.Params))
}

func captureService(t *testing.T, method, params string) string {
	t.Helper()
	return fakeService(t, nil, func(conn *websocket.Conn, msg []byte) {
		var req models.WSRequest
		_ = json.Unmarshal(msg, &req)
		_ = conn.WriteJSON(models.WSResponse{ID: req.ID, OK: true, SessionID: "s1"})
		_ = conn.WriteJSON(events.Notification{
			Method: events.MethodImageCaptured,
			Params: json.RawMessage(`{"sessionId":"other"}`),
		})
		_ = conn.WriteJSON(events.Notification{Method: method, Params: json.RawMessage(params)})
	})
}

func TestCapture(t *testing.T) {
	t.Parallel()

	addr := captureService(t, events.MethodMemoryCaptured, `{"sessionId":"s1","lines":["01,FM,1,FM"]}`)
	n, err := New(addr).Capture(context.Background(), "memory")
	require.NoError(t, err)
	assert.Equal(t, events.MethodMemoryCaptured, n.Method)
	assert.Contains(t, string(n.Params), "01,FM")
}

func TestCaptureFailed(t *testing.T) {
	t.Parallel()

	addr := captureService(t, events.MethodThemeCaptureFailed, `{"sessionId":"s1","error":"no data received"}`)
	n, err := New(addr).Capture(context.Background(), "theme")
	require.ErrorIs(t, err, ErrCaptureFailed)
	assert.Contains(t, err.Error(), "no data received")
	assert.Equal(t, events.MethodThemeCaptureFailed, n.Method)
}

func TestCaptureRejected(t *testing.T) {
	t.Parallel()

	addr := fakeService(t, nil, func(conn *websocket.Conn, msg []byte) {
		var req models.WSRequest
		_ = json.Unmarshal(msg, &req)
		_ = conn.WriteJSON(models.WSResponse{ID: req.ID, Error: "capture already in progress"})
	})
	_, err := New(addr).Capture(context.Background(), "image")
	require.ErrorIs(t, err, ErrRequestFailed)
}
