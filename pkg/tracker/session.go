// Dopamine Lottery
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Dopamine Lottery.
//
// Dopamine Lottery is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Dopamine Lottery is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Dopamine Lottery.  If not, see <http://www.gnu.org/licenses/>.

package tracker

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Store is the subset of the ledger the tracker writes to.
type Store interface {
	Add(k int) (int, error)
	Progress(name string) int
	SaveProgress(name string, seconds int) error
}

// Session is one tracking run against a single executable.
type Session struct {
	store   Store
	procs   ProcessLister
	clock   clockwork.Clock
	src     ConfigSource
	cb      Callbacks
	queue   UIQueue
	ctx     context.Context //nolint:containedctx // lifetime of the loop
	cancel  context.CancelFunc
	done    chan struct{}
	id      string
	target  string
	paused  atomic.Bool
	elapsed atomic.Int64
}

func (s *Session) ID() string {
	return s.id
}

// Target is the executable image name being tracked.
func (s *Session) Target() string {
	return s.target
}

func (s *Session) Pause() {
	s.paused.Store(true)
}

func (s *Session) Resume() {
	s.paused.Store(false)
}

// TogglePause flips the pause flag and returns the new value.
func (s *Session) TogglePause() bool {
	for {
		old := s.paused.Load()
		if s.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (s *Session) Paused() bool {
	return s.paused.Load()
}

// Elapsed returns the cumulative tracked seconds shown to the user,
// including time carried over from earlier sessions.
func (s *Session) Elapsed() int {
	return int(s.elapsed.Load())
}

// Done is closed once the loop has exited and flushed its progress.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) State() State {
	select {
	case <-s.done:
		return StateIdle
	default:
	}
	if s.cancelled() {
		return StateStopping
	}
	if s.paused.Load() {
		return StatePaused
	}
	return StateRunning
}

func (s *Session) cancelled() bool {
	return s.ctx != nil && s.ctx.Err() != nil
}

// Stop signals the loop to exit. It does not wait; use Done for that.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func newSession(
	store Store,
	procs ProcessLister,
	clock clockwork.Clock,
	target string,
	src ConfigSource,
	cb Callbacks,
	queue UIQueue,
) *Session {
	if queue == nil {
		queue = Immediate
	}
	if cb == nil {
		cb = CallbackFuncs{}
	}
	if src == nil {
		src = StaticConfig(Config{})
	}
	return &Session{
		store:  store,
		procs:  procs,
		clock:  clock,
		src:    src,
		cb:     cb,
		queue:  queue,
		done:   make(chan struct{}),
		id:     uuid.New().String(),
		target: target,
	}
}

func (s *Session) push(fn func()) {
	s.queue(fn)
}

// sleep waits for d or until ctx is done. Returns false if cancelled.
func (s *Session) sleep(ctx context.Context, cfg Config) bool {
	timer := s.clock.NewTimer(cfg.tick())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	tracked := s.store.Progress(s.target)
	total := tracked
	s.elapsed.Store(int64(total))

	log.Info().
		Str("session", s.id).
		Str("target", s.target).
		Int("carried", tracked).
		Msg("tracker: session started")

	defer func() {
		if err := s.store.SaveProgress(s.target, tracked); err != nil {
			log.Error().Err(err).Str("target", s.target).Msg("tracker: failed to flush progress")
		}
		log.Info().Str("session", s.id).Int("tracked", total).Msg("tracker: session stopped")
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		cfg := s.src()

		if s.paused.Load() {
			if !s.sleep(ctx, cfg) {
				return
			}
			continue
		}

		running, err := s.procs.Running(ctx, s.target)
		if err != nil {
			log.Debug().Err(err).Msg("tracker: process query failed")
			running = false
		}

		if running {
			step := cfg.stepSeconds()
			tracked += step
			total += step
			s.elapsed.Store(int64(total))

			elapsed := FormatElapsed(total)
			s.push(func() { s.cb.OnTick(elapsed) })

			tracked = s.convert(cfg, tracked)
		}

		// idle ticks flush too, so a failed save is retried while the
		// app is closed
		if err := s.store.SaveProgress(s.target, tracked); err != nil {
			log.Error().Err(err).Str("target", s.target).Msg("tracker: failed to save progress")
		}

		if !s.sleep(ctx, cfg) {
			return
		}
	}
}

// convert turns complete units of tracked time into chances and returns
// the remaining seconds. A failed ledger write keeps the unit for the
// next tick.
func (s *Session) convert(cfg Config, tracked int) int {
	required := cfg.requiredSeconds()
	rolls := cfg.rolls()

	for tracked >= required {
		tracked -= required

		total, err := s.store.Add(1)
		if err != nil {
			tracked += required
			log.Error().Err(err).Msg("tracker: failed to add chance")
			break
		}

		log.Debug().Int("chances", total).Msg("tracker: chance earned")
		s.push(func() { s.cb.OnChancesChanged(total) })
		if total%rolls == 0 {
			s.push(func() { s.cb.OnMilestone(total) })
		} else {
			s.push(func() { s.cb.OnChanceAdded(total) })
		}
	}

	return tracked
}
