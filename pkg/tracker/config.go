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

// Package tracker accrues time while a chosen executable is running and
// turns every complete unit of time into a lottery chance.
package tracker

import (
	"fmt"
	"time"
)

// Config is the per-tick view of tracker settings.
type Config struct {
	TimeRequired  time.Duration
	TickInterval  time.Duration
	RollsPerMulti int
}

// ConfigSource is read at the start of every tick so settings changes
// apply to a running session.
type ConfigSource func() Config

// StaticConfig returns a source that always yields c.
//
//nolint:gocritic // small value struct
func StaticConfig(c Config) ConfigSource {
	return func() Config { return c }
}

// requiredSeconds is TimeRequired in whole seconds, at least 1.
func (c Config) requiredSeconds() int {
	return max(int(c.TimeRequired/time.Second), 1)
}

// stepSeconds is how many seconds one tick accrues, at least 1.
func (c Config) stepSeconds() int {
	return max(int(c.TickInterval/time.Second), 1)
}

func (c Config) tick() time.Duration {
	if c.TickInterval < time.Second {
		return time.Second
	}
	return c.TickInterval
}

func (c Config) rolls() int {
	return max(c.RollsPerMulti, 1)
}

// FormatElapsed renders seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatElapsed(seconds int) string {
	seconds = max(seconds, 0)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
