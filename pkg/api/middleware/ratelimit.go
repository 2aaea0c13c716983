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

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// The receiver reads commands off a slow serial link, so clients get a
// small steady rate with room for a burst of key presses.
const (
	CommandsPerSecond = 10
	BurstSize         = 20

	staleAfter      = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CommandLimiter hands out one token bucket per client IP.
type CommandLimiter struct {
	clock    clockwork.Clock
	limiters map[string]*limiterEntry
	mu       syncutil.Mutex
}

func NewCommandLimiter(clock clockwork.Clock) *CommandLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CommandLimiter{
		clock:    clock,
		limiters: make(map[string]*limiterEntry),
	}
}

// Allow takes a token for the client at remoteAddr.
func (l *CommandLimiter) Allow(remoteAddr string) bool {
	host := remoteAddr
	if ip := ParseRemoteIP(remoteAddr); ip != nil {
		host = ip.String()
	}
	now := l.clock.Now()

	l.mu.Lock()
	e, ok := l.limiters[host]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(CommandsPerSecond), BurstSize)}
		l.limiters[host] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	if e.limiter.AllowN(now, 1) {
		return true
	}
	log.Warn().Str("ip", host).Msg("command rate limit exceeded")
	return false
}

// Prune forgets clients not seen for a while.
func (l *CommandLimiter) Prune() {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for host, e := range l.limiters {
		if now.Sub(e.lastSeen) > staleAfter {
			delete(l.limiters, host)
		}
	}
}

func (l *CommandLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// StartPruning prunes periodically until ctx is done.
func (l *CommandLimiter) StartPruning(ctx context.Context) {
	go func() {
		ticker := l.clock.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				l.Prune()
			}
		}
	}()
}

func RateLimitMiddleware(l *CommandLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.RemoteAddr) {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMessages wraps a websocket message handler. Rejected messages
// are answered by reject instead of handler.
func RateLimitMessages(
	l *CommandLimiter,
	handler func(*melody.Session, []byte),
	reject func(*melody.Session, []byte),
) func(*melody.Session, []byte) {
	return func(sess *melody.Session, msg []byte) {
		if !l.Allow(sess.Request.RemoteAddr) {
			reject(sess, msg)
			return
		}
		handler(sess, msg)
	}
}
