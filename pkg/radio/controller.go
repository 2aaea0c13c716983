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

// Package radio connects to the receiver over a serial port and turns its
// output into events. A Controller owns one connection at a time: a reader
// goroutine feeds the capture machine, and a Dispatcher serialises every
// write.
package radio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyConnected = errors.New("already connected")

// readBufferSize is the most read in one call.
const readBufferSize = 1024

type Options struct {
	Clock        clockwork.Clock
	PortFactory  SerialPortFactory
	Timeouts     capture.Timeouts
	Delays       Delays
	ReadTimeout  time.Duration
	LogOnConnect bool
}

// DefaultOptions are the production settings: real clock, real serial
// ports, logging switched on after connecting.
func DefaultOptions() Options {
	return Options{
		Clock:        clockwork.NewRealClock(),
		PortFactory:  DefaultSerialPortFactory,
		Timeouts:     capture.DefaultTimeouts(),
		Delays:       DefaultDelays(),
		ReadTimeout:  DefaultReadTimeout,
		LogOnConnect: true,
	}
}

type connection struct {
	port      SerialPort
	done      chan struct{}
	path      string
	closeOnce sync.Once
	closeErr  error
}

func (c *connection) close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.port.Close()
	})
	return c.closeErr
}

type Controller struct {
	queue      *events.Queue
	machine    *capture.Machine
	dispatcher *Dispatcher
	conn       *connection
	opts       Options
	mu         syncutil.RWMutex
	running    bool
}

func NewController(queue *events.Queue, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.PortFactory == nil {
		opts.PortFactory = DefaultSerialPortFactory
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.Timeouts == (capture.Timeouts{}) {
		opts.Timeouts = capture.DefaultTimeouts()
	}

	machine := capture.NewMachine(queue,
		capture.WithClock(opts.Clock),
		capture.WithTimeouts(opts.Timeouts),
	)
	return &Controller{
		queue:      queue,
		machine:    machine,
		dispatcher: NewDispatcher(machine, opts.Clock, opts.Delays),
		opts:       opts,
	}
}

func (c *Controller) Events() *events.Queue {
	return c.queue
}

func (c *Controller) Dispatcher() *Dispatcher {
	return c.dispatcher
}

func (c *Controller) Machine() *capture.Machine {
	return c.machine
}

func (c *Controller) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Path returns the port of the current connection, if any.
func (c *Controller) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || !c.running {
		return ""
	}
	return c.conn.path
}

// Connect opens path and starts the reader goroutine.
func (c *Controller) Connect(path string, baud int) error {
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyConnected, c.conn.path)
	}
	stale := c.conn
	c.mu.Unlock()

	// a connection that was lost may still be shutting down
	if stale != nil {
		<-stale.done
	}

	port, err := c.opts.PortFactory(path, serialMode(baud))
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(c.opts.ReadTimeout); err != nil {
		if cerr := port.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close serial port")
		}
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	conn := &connection{
		port: port,
		path: path,
		done: make(chan struct{}),
	}

	c.mu.Lock()
	c.conn = conn
	c.running = true
	c.mu.Unlock()

	c.dispatcher.attach(port, func(err error) {
		c.connectionLost(conn, fmt.Errorf("%w: %w", events.ErrWriteFailed, err))
	})

	log.Info().Str("port", path).Int("baud", baud).Msg("connected to radio")
	go c.readLoop(conn)

	if c.opts.LogOnConnect {
		if err := c.dispatcher.ToggleLog(); err != nil {
			log.Warn().Err(err).Msg("failed to enable telemetry logging")
		}
	}
	return nil
}

// Disconnect stops the reader, discards any open capture and closes the
// port. Nothing is emitted for the discarded capture.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.running = false
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.machine.Abort()
	c.dispatcher.detach()
	err := conn.close()
	<-conn.done

	log.Info().Str("port", conn.path).Msg("disconnected from radio")
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

func (c *Controller) isRunning(conn *connection) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running && c.conn == conn
}

// connectionLost stops conn and emits ConnectionLost, at most once per
// connection and never after a deliberate Disconnect.
func (c *Controller) connectionLost(conn *connection, cause error) {
	c.mu.Lock()
	if !c.running || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	log.Error().Err(cause).Str("port", conn.path).Msg("connection to radio lost")
	c.machine.Abort()
	c.queue.Push(events.Event{
		Kind: events.KindConnectionLost,
		Time: c.opts.Clock.Now(),
		Err:  fmt.Errorf("%w: %w", events.ErrConnectionLost, cause),
	})
}

func (c *Controller) readLoop(conn *connection) {
	defer close(conn.done)
	defer c.cleanupLost(conn)

	asm := protocol.NewLineAssembler()
	buf := make([]byte, readBufferSize)

	for c.isRunning(conn) {
		n, err := conn.port.Read(buf)
		if err != nil {
			c.connectionLost(conn, err)
			return
		}
		if n == 0 {
			c.machine.CheckTimeouts()
			continue
		}

		for _, raw := range asm.Feed(buf[:n]) {
			line, err := protocol.DecodeLine(raw)
			if err != nil {
				c.machine.HandleCorruption(raw)
				continue
			}
			c.machine.HandleLine(line)
		}
	}
}

// cleanupLost releases a connection that ended without Disconnect.
func (c *Controller) cleanupLost(conn *connection) {
	c.mu.Lock()
	owned := c.conn == conn
	c.mu.Unlock()
	if !owned {
		return
	}

	c.dispatcher.detach()
	if err := conn.close(); err != nil {
		log.Debug().Err(err).Msg("error closing lost serial port")
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}
