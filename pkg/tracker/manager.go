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
	"errors"
	"time"

	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var ErrNoTarget = errors.New("no executable to track")

// DefaultStopTimeout is how long Start and Stop wait for a previous
// session to flush and exit before logging an error. They keep waiting
// after that.
const DefaultStopTimeout = 5 * time.Second

// Manager owns at most one active Session.
type Manager struct {
	store       Store
	procs       ProcessLister
	clock       clockwork.Clock
	current     *Session
	StopTimeout time.Duration
	mu          syncutil.Mutex
}

func NewManager(store Store, procs ProcessLister, clock clockwork.Clock) *Manager {
	if procs == nil {
		procs = SystemProcesses{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		store:       store,
		procs:       procs,
		clock:       clock,
		StopTimeout: DefaultStopTimeout,
	}
}

// Start begins tracking target, which may be a full path or a bare image
// name. Any running session is stopped first and allowed to flush its
// progress before the new one reads the carry-over.
func (m *Manager) Start(
	ctx context.Context,
	target string,
	src ConfigSource,
	cb Callbacks,
	queue UIQueue,
) (*Session, error) {
	name := helpers.ExeName(target)
	if name == "" || name == "." {
		return nil, ErrNoTarget
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	s := newSession(m.store, m.procs, m.clock, name, src, cb, queue)
	s.ctx, s.cancel = context.WithCancel(ctx)
	m.current = s

	go s.run(s.ctx)

	return s, nil
}

// Current returns the active session, or nil if none is running.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	select {
	case <-m.current.Done():
		return nil
	default:
		return m.current
	}
}

// Stop cancels the active session and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.current == nil {
		return
	}

	prev := m.current
	m.current = nil
	prev.Stop()

	timer := time.NewTimer(m.StopTimeout)
	defer timer.Stop()

	select {
	case <-prev.Done():
	case <-timer.C:
		// never let two loops write the same progress key
		log.Error().
			Str("session", prev.ID()).
			Dur("timeout", m.StopTimeout).
			Msg("tracker: session is slow to stop, still waiting")
		<-prev.Done()
	}
}
