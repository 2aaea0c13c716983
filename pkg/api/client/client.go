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

// Package client talks to a running radio service over its websocket, so
// a second process can send commands without opening the serial port.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 5 * time.Second

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrRequestCancelled = errors.New("request cancelled")
	ErrRequestFailed    = errors.New("request failed")
	ErrCaptureFailed    = errors.New("capture failed")
)

type Client struct {
	addr    string
	Timeout time.Duration
}

// New returns a client for the service listening on addr (host:port).
func New(addr string) *Client {
	return &Client{addr: addr, Timeout: DefaultTimeout}
}

func (c *Client) url() string {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: models.EventsPath}
	return u.String()
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}
	return conn, nil
}

func closeConn(conn *websocket.Conn) {
	if err := conn.Close(); err != nil {
		log.Debug().Err(err).Msg("closing websocket")
	}
}

// await reads messages until match accepts one, the timeout passes or ctx
// is done.
func (c *Client) await(ctx context.Context, conn *websocket.Conn, match func([]byte) bool) error {
	done := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			if match(msg) {
				done <- nil
				return
			}
		}
	}()

	var timeout <-chan time.Time
	if c.Timeout > 0 {
		timer := time.NewTimer(c.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("reading websocket: %w", err)
		}
		return nil
	case <-timeout:
		closeConn(conn)
		<-done
		return ErrRequestTimeout
	case <-ctx.Done():
		closeConn(conn)
		<-done
		return ErrRequestCancelled
	}
}

// Send issues req and waits for its response. A response carrying an
// error is returned as ErrRequestFailed.
func (c *Client) Send(ctx context.Context, req models.WSRequest) (models.WSResponse, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return models.WSResponse{}, err
	}
	defer closeConn(conn)

	if err := conn.WriteJSON(req); err != nil {
		return models.WSResponse{}, fmt.Errorf("sending request: %w", err)
	}

	var resp models.WSResponse
	err = c.await(ctx, conn, func(msg []byte) bool {
		var m models.WSResponse
		if json.Unmarshal(msg, &m) != nil || m.ID != req.ID {
			return false
		}
		resp = m
		return true
	})
	if err != nil {
		return models.WSResponse{}, err
	}
	if resp.Error != "" {
		return resp, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Error)
	}
	return resp, nil
}

// Capture requests a capture of kind and waits, on the same connection, for
// the event that completes its session. A failure event is returned along
// with ErrCaptureFailed.
func (c *Client) Capture(ctx context.Context, kind string) (events.Notification, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return events.Notification{}, err
	}
	defer closeConn(conn)

	req := models.WSRequest{ID: uuid.New().String(), Capture: kind}
	if err := conn.WriteJSON(req); err != nil {
		return events.Notification{}, fmt.Errorf("sending request: %w", err)
	}

	var (
		resp   models.WSResponse
		result events.Notification
		params struct {
			SessionID string `json:"sessionId"`
			Error     string `json:"error"`
		}
	)
	err = c.await(ctx, conn, func(msg []byte) bool {
		if resp.SessionID == "" {
			var m models.WSResponse
			if json.Unmarshal(msg, &m) != nil || m.ID != req.ID {
				return false
			}
			resp = m
			return resp.Error != ""
		}

		var n events.Notification
		if json.Unmarshal(msg, &n) != nil || !strings.HasPrefix(n.Method, "capture.") {
			return false
		}
		if json.Unmarshal(n.Params, &params) != nil || params.SessionID != resp.SessionID {
			return false
		}
		result = n
		return true
	})
	switch {
	case err != nil:
		return events.Notification{}, err
	case resp.Error != "":
		return events.Notification{}, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Error)
	case strings.HasSuffix(result.Method, ".failed"):
		return result, fmt.Errorf("%w: %s", ErrCaptureFailed, params.Error)
	}
	return result, nil
}

// WaitNotification blocks until an event with the given method arrives.
func (c *Client) WaitNotification(ctx context.Context, method string) (events.Notification, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return events.Notification{}, err
	}
	defer closeConn(conn)

	var n events.Notification
	err = c.await(ctx, conn, func(msg []byte) bool {
		var m events.Notification
		if json.Unmarshal(msg, &m) != nil || m.Method != method {
			return false
		}
		n = m
		return true
	})
	return n, err
}

// Ping checks the service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(models.Ping)); err != nil {
		return fmt.Errorf("sending ping: %w", err)
	}
	return c.await(ctx, conn, func(msg []byte) bool {
		return string(msg) == models.Pong
	})
}
