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

package radio

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/events"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/testutils"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

const (
	waitTimeout   = 2 * time.Second
	telemetryLine = "201,7200,0,0,40M,AM,5k,4k,0,35,20,10,0,3.85,0"
)

type controllerFixture struct {
	c     *Controller
	port  *testutils.MockSerialPort
	clock *clockwork.FakeClock
	queue *events.Queue
	mode  *serial.Mode
}

func newControllerFixture(t *testing.T, logOnConnect bool) *controllerFixture {
	t.Helper()

	f := &controllerFixture{
		port:  testutils.NewMockSerialPort(),
		clock: clockwork.NewFakeClock(),
		queue: events.NewQueue(),
	}
	f.c = NewController(f.queue, Options{
		Clock: f.clock,
		PortFactory: func(_ string, mode *serial.Mode) (SerialPort, error) {
			f.mode = mode
			return f.port, nil
		},
		LogOnConnect: logOnConnect,
	})
	t.Cleanup(func() {
		_ = f.c.Disconnect()
	})
	return f
}

func (f *controllerFixture) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, f.c.Connect("/dev/ttyUSB0", 0))
}

// waitForItems blocks until the open capture has buffered n items, so
// the fake clock can be advanced safely.
func (f *controllerFixture) waitForItems(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		info, ok := f.c.Machine().Session()
		return ok && info.Items == n
	}, waitTimeout, time.Millisecond)
}

func TestController_Connect(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.connect(t)

	assert.True(t, f.c.Connected())
	assert.Equal(t, "/dev/ttyUSB0", f.c.Path())
	assert.Equal(t, DefaultReadTimeout, f.port.ReadTimeout())
	require.NotNil(t, f.mode)
	assert.Equal(t, DefaultBaudRate, f.mode.BaudRate)
	assert.Equal(t, 8, f.mode.DataBits)

	assert.Equal(t, []string{"t\n"}, f.port.Writes(), "log toggled on connect")
	assert.True(t, f.c.Dispatcher().LogEnabled())

	err := f.c.Connect("/dev/ttyUSB1", 9600)
	require.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestController_ConnectFactoryError(t *testing.T) {
	t.Parallel()

	q := events.NewQueue()
	c := NewController(q, Options{
		PortFactory: func(string, *serial.Mode) (SerialPort, error) {
			return nil, errors.New("no such device")
		},
	})

	err := c.Connect("/dev/missing", 115200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such device")
	assert.False(t, c.Connected())
	require.NoError(t, c.Disconnect())
}

func TestController_ConnectReadTimeoutError(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	port.TimeoutErr = errors.New("unsupported")
	c := NewController(events.NewQueue(), Options{
		PortFactory: func(string, *serial.Mode) (SerialPort, error) {
			return port, nil
		},
	})

	err := c.Connect("/dev/ttyUSB0", 115200)
	require.Error(t, err)
	assert.True(t, port.IsClosed())
	assert.False(t, c.Connected())
}

func TestController_TelemetryWhileIdle(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)

	half := len(telemetryLine) / 2
	f.port.Feed(telemetryLine[:half], telemetryLine[half:]+"\r\n", "garbage\n")

	ev, seen := testutils.WaitForEvent(t, f.queue, events.KindTelemetry, waitTimeout)
	assert.Empty(t, seen)
	require.NotNil(t, ev.Telemetry)
	assert.Equal(t, 7200, ev.Telemetry.Frequency)
	assert.Equal(t, telemetryLine, ev.Telemetry.Raw)
}

func TestController_ImageCaptureEndToEnd(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.connect(t)

	_, err := f.c.Dispatcher().RequestImage()
	require.NoError(t, err)
	assert.Equal(t, []string{"t\n", "t\n", "C\n"}, f.port.Writes())

	hex := strings.Repeat("00ff", 16)
	f.port.Feed(hex[:20], hex[20:]+"\n", "OK\n", "abcd\n")
	f.waitForItems(t, 2)

	f.clock.Advance(capture.DefaultTimeouts().Image)
	ev, seen := testutils.WaitForEvent(t, f.queue, events.KindImageCaptured, waitTimeout)
	assert.Empty(t, seen)
	require.NotNil(t, ev.Image)
	assert.Equal(t, hex+"abcd", ev.Image.Hex)
	assert.Len(t, ev.Image.Hex, len(hex)+4)

	testutils.WaitForWrites(t, f.port, 4, waitTimeout)
	assert.Equal(t, "t\n", f.port.Writes()[3], "logging resumed")
}

func TestController_MemoryCaptureCompletesAtFullBank(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)

	_, err := f.c.Dispatcher().RequestMemory()
	require.NoError(t, err)

	var sb strings.Builder
	for i := 1; i <= protocol.MemorySlots; i++ {
		sb.WriteString(slotLineFor(i))
		sb.WriteString("\r\n")
	}
	f.port.Feed(sb.String())

	ev, _ := testutils.WaitForEvent(t, f.queue, events.KindMemoryCaptured, waitTimeout)
	require.NotNil(t, ev.Memory)
	assert.Len(t, ev.Memory.Lines, protocol.MemorySlots)
	assert.Equal(t, protocol.ModeIdle, f.c.Machine().Mode())
}

func TestController_TelemetryEndsCapture(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)

	_, err := f.c.Dispatcher().RequestImage()
	require.NoError(t, err)
	f.port.Feed("0011\n2233\n" + telemetryLine + "\n")

	ev, seen := testutils.WaitForEvent(t, f.queue, events.KindTelemetry, waitTimeout)
	require.Len(t, seen, 1)
	assert.Equal(t, events.KindImageCaptured, seen[0].Kind)
	assert.Equal(t, "00112233", seen[0].Image.Hex)
	assert.Equal(t, 7200, ev.Telemetry.Frequency)
}

func TestController_CorruptionDuringCapture(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)

	_, err := f.c.Dispatcher().RequestImage()
	require.NoError(t, err)
	f.port.Feed("aabb\n")
	f.port.FeedBytes([]byte{0xff, 0xfe, 0xfd, '\n'})

	failed, _ := testutils.WaitForEvent(t, f.queue, events.KindImageCaptureFailed, waitTimeout)
	require.ErrorIs(t, failed.Err, events.ErrCorruptData)

	partial, _ := testutils.WaitForEvent(t, f.queue, events.KindImageCaptured, waitTimeout)
	assert.True(t, partial.Image.Partial)
	assert.Equal(t, "aabb", partial.Image.Hex)
}

func TestController_EmptyCaptureTimesOut(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)

	_, err := f.c.Dispatcher().RequestMemory()
	require.NoError(t, err)
	f.clock.Advance(capture.DefaultTimeouts().Memory)

	ev, _ := testutils.WaitForEvent(t, f.queue, events.KindMemoryCaptureFailed, waitTimeout)
	require.ErrorIs(t, ev.Err, events.ErrNoData)
}

func TestController_ReadErrorEmitsConnectionLostOnce(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)

	_, err := f.c.Dispatcher().RequestImage()
	require.NoError(t, err)
	f.port.SetReadError(errors.New("device reports readiness to read but returned no data"))

	ev, _ := testutils.WaitForEvent(t, f.queue, events.KindConnectionLost, waitTimeout)
	require.ErrorIs(t, ev.Err, events.ErrConnectionLost)

	require.Eventually(t, f.port.IsClosed, waitTimeout, time.Millisecond)
	assert.False(t, f.c.Connected())
	assert.Equal(t, protocol.ModeIdle, f.c.Machine().Mode(), "open capture discarded")
	testutils.AssertNoEvent(t, f.queue, 20*time.Millisecond)

	require.ErrorIs(t, f.c.Dispatcher().Send(protocol.CmdVolumeUp), ErrNotConnected)
}

func TestController_WriteErrorEmitsConnectionLost(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)
	f.port.SetWriteError(errors.New("broken pipe"))

	require.NoError(t, f.c.Dispatcher().Send(protocol.CmdVolumeUp), "write errors are not returned")

	ev, _ := testutils.WaitForEvent(t, f.queue, events.KindConnectionLost, waitTimeout)
	require.ErrorIs(t, ev.Err, events.ErrWriteFailed)
	require.ErrorIs(t, ev.Err, events.ErrConnectionLost)

	require.Eventually(t, f.port.IsClosed, waitTimeout, time.Millisecond)
	require.ErrorIs(t, f.c.Dispatcher().Send(protocol.CmdVolumeDown), ErrNotConnected)
	testutils.AssertNoEvent(t, f.queue, 20*time.Millisecond)
}

func TestController_DisconnectDiscardsCapture(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)

	_, err := f.c.Dispatcher().RequestImage()
	require.NoError(t, err)
	f.port.Feed("aabbcc\n")
	f.waitForItems(t, 1)

	require.NoError(t, f.c.Disconnect())
	require.NoError(t, f.c.Disconnect())

	assert.True(t, f.port.IsClosed())
	assert.False(t, f.c.Connected())
	assert.Equal(t, protocol.ModeIdle, f.c.Machine().Mode())
	assert.Zero(t, f.queue.Len(), "nothing emitted for a deliberate stop")
}

func TestController_ReconnectAfterLoss(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.connect(t)
	f.port.SetReadError(errors.New("gone"))
	testutils.WaitForEvent(t, f.queue, events.KindConnectionLost, waitTimeout)

	second := testutils.NewMockSerialPort()
	f.c.opts.PortFactory = func(string, *serial.Mode) (SerialPort, error) {
		return second, nil
	}
	require.NoError(t, f.c.Connect("/dev/ttyUSB1", 115200))
	assert.Equal(t, "/dev/ttyUSB1", f.c.Path())

	second.Feed(telemetryLine + "\n")
	testutils.WaitForEvent(t, f.queue, events.KindTelemetry, waitTimeout)
	require.NoError(t, f.c.Disconnect())
	assert.True(t, second.IsClosed())
}
