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

package testutils

import (
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/stretchr/testify/require"
)

// WaitForEvent polls q until an event of kind arrives, returning it and
// every event seen before it. Fails the test on timeout.
func WaitForEvent(t *testing.T, q *events.Queue, kind events.Kind, timeout time.Duration) (events.Event, []events.Event) {
	t.Helper()

	var seen []events.Event
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for {
			ev, ok := q.Poll()
			if !ok {
				break
			}
			if ev.Kind == kind {
				return ev, seen
			}
			seen = append(seen, ev)
		}
		time.Sleep(time.Millisecond)
	}
	require.Fail(t, "expected event was not received", "kind: %s, seen: %d", kind, len(seen))
	return events.Event{}, seen
}

// AssertNoEvent checks nothing is queued after waiting for wait.
func AssertNoEvent(t *testing.T, q *events.Queue, wait time.Duration) {
	t.Helper()
	time.Sleep(wait)
	if ev, ok := q.Poll(); ok {
		require.Fail(t, "unexpected event", "kind: %s", ev.Kind)
	}
}

// WaitForWrites waits until the port has recorded at least n writes.
func WaitForWrites(t *testing.T, port *MockSerialPort, n int, timeout time.Duration) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(port.Writes()) >= n
	}, timeout, time.Millisecond, "expected %d writes, got %v", n, port.Writes())
	return port.Writes()
}
