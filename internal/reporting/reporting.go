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

// Package reporting forwards error level logs to Sentry once the user has
// opted in with a DSN. Events are scrubbed of usernames and device serial
// numbers before they leave the machine.
package reporting

import (
	"fmt"
	"regexp"
	"runtime"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers"
	"github.com/getsentry/sentry-go"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const flushTimeout = 2 * time.Second

type redaction struct {
	re   *regexp.Regexp
	with string
}

// applied in order to every string that leaves the machine
var redactions = []redaction{
	{regexp.MustCompile(`(?i)/home/[^/]+/`), "/home/<user>/"},
	{regexp.MustCompile(`(?i)/Users/[^/]+/`), "/Users/<user>/"},
	{regexp.MustCompile(`(?i)[a-zA-Z]:\\Users\\[^\\]+\\`), `C:\Users\<user>\`},
	{regexp.MustCompile(`(?i)/dev/serial/by-id/[^\s:]+`), "/dev/serial/by-id/<device>"},
}

var (
	mu     sync.Mutex
	writer *sentryzerolog.Writer
)

type Options struct {
	DSN      string
	DeviceID string
	Version  string
	// Port is reported as a tag, redacted like everything else.
	Port     string
}

// Init starts Sentry and tees error, fatal and panic logs into it. An
// empty DSN leaves reporting off.
func Init(opts Options) error {
	if opts.DSN == "" {
		log.Debug().Msg("error reporting disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          helpers.AppName + "@" + opts.Version,
		Environment:      runtime.GOOS,
		AttachStacktrace: true,
		SendDefaultPII:   false,
		MaxBreadcrumbs:   0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrub(event)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: opts.DeviceID})
		scope.SetTag("arch", runtime.GOARCH)
		if opts.Port != "" {
			scope.SetTag("port", redact(opts.Port))
		}
	})

	w, err := sentryzerolog.NewWithHub(sentry.CurrentHub(), sentryzerolog.Options{
		Levels:       []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		FlushTimeout: flushTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create sentry log writer: %w", err)
	}

	mu.Lock()
	writer = w
	mu.Unlock()

	log.Logger = log.Output(zerolog.MultiLevelWriter(helpers.LogWriter(), w)).
		With().Timestamp().Caller().Logger()
	log.Info().Msg("error reporting enabled")
	return nil
}

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return writer != nil
}

// Flush waits for queued reports to send. Call it before os.Exit.
func Flush() {
	if Enabled() {
		sentry.Flush(flushTimeout)
	}
}

// Close flushes and detaches the log writer. Later calls do nothing.
func Close() {
	mu.Lock()
	w := writer
	writer = nil
	mu.Unlock()

	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		log.Debug().Err(err).Msg("closing sentry log writer")
	}
	sentry.Flush(flushTimeout)
}

func redact(s string) string {
	for _, r := range redactions {
		s = r.re.ReplaceAllString(s, r.with)
	}
	return s
}

func scrubStack(st *sentry.Stacktrace) {
	if st == nil {
		return
	}
	for i := range st.Frames {
		st.Frames[i].AbsPath = redact(st.Frames[i].AbsPath)
		st.Frames[i].Filename = redact(st.Frames[i].Filename)
	}
}

func scrub(event *sentry.Event) *sentry.Event {
	event.ServerName = ""
	event.Message = redact(event.Message)

	for i := range event.Exception {
		event.Exception[i].Value = redact(event.Exception[i].Value)
		scrubStack(event.Exception[i].Stacktrace)
	}
	for i := range event.Threads {
		scrubStack(event.Threads[i].Stacktrace)
	}
	for _, b := range event.Breadcrumbs {
		b.Message = redact(b.Message)
	}
	for k, v := range event.Extra {
		if s, ok := v.(string); ok {
			event.Extra[k] = redact(s)
		}
	}
	for k, v := range event.Tags {
		event.Tags[k] = redact(v)
	}
	return event
}
