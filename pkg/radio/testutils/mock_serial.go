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

// Package testutils provides a scriptable serial port for radio tests.
package testutils

import (
	"errors"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers/syncutil"
)

var ErrPortClosed = errors.New("port closed")

// idleRead is how long a read with nothing queued pretends to wait.
const idleRead = 2 * time.Millisecond

// MockSerialPort replays queued read chunks and records writes. With
// nothing queued, Read behaves like a real port hitting its read timeout
// and returns 0, nil.
type MockSerialPort struct {
	readErr     error
	CloseError  error
	TimeoutErr  error
	writeErr    error
	ReadFunc    func(p []byte) (n int, err error)
	OnWrite     func(p []byte)
	chunks      [][]byte
	writes      [][]byte
	readTimeout time.Duration
	mu          syncutil.Mutex
	closed      bool
}

func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// Feed queues chunks to be returned by subsequent reads, one chunk per
// read at most.
func (m *MockSerialPort) Feed(chunks ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks = append(m.chunks, []byte(c))
	}
}

// FeedBytes queues a raw chunk.
func (m *MockSerialPort) FeedBytes(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, append([]byte(nil), b...))
}

// Pending is the number of queued chunks not yet read.
func (m *MockSerialPort) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

// SetReadError makes every following read fail with err.
func (m *MockSerialPort) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes every following write fail with err.
func (m *MockSerialPort) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrPortClosed
	}
	if fn := m.ReadFunc; fn != nil {
		m.mu.Unlock()
		return fn(p)
	}
	if m.readErr != nil {
		err := m.readErr
		m.mu.Unlock()
		return 0, err
	}
	if len(m.chunks) == 0 {
		m.mu.Unlock()
		time.Sleep(idleRead)
		return 0, nil
	}

	chunk := m.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		m.chunks[0] = chunk[n:]
	} else {
		m.chunks = m.chunks[1:]
	}
	m.mu.Unlock()
	return n, nil
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrPortClosed
	}
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return 0, err
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	hook := m.OnWrite
	m.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return len(p), nil
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = t
	return m.TimeoutErr
}

func (m *MockSerialPort) ReadTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readTimeout
}

func (m *MockSerialPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Writes returns every write so far, as strings, in order.
func (m *MockSerialPort) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.writes))
	for _, w := range m.writes {
		out = append(out, string(w))
	}
	return out
}

// Written is every write concatenated.
func (m *MockSerialPort) Written() string {
	return strings.Join(m.Writes(), "")
}

// ResetWrites forgets recorded writes.
func (m *MockSerialPort) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}
