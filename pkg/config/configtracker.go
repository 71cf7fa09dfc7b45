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

package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeRequired  = time.Hour
	DefaultTickInterval  = time.Second
	DefaultRollsPerMulti = 10
	MinTimeRequired      = time.Second
	MinTickInterval      = time.Second
)

// Tracker configures how tracked time turns into chances.
type Tracker struct {
	TimeRequired  string `toml:"time_required,omitempty"`
	TickInterval  string `toml:"tick_interval,omitempty"`
	LastApp       string `toml:"last_app"`
	RollsPerMulti int    `toml:"rolls_per_multi"`
}

func parseDuration(s string, fallback, minimum time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn().Err(err).Msgf("invalid duration %q, using %s", s, fallback)
		return fallback
	}
	if d < minimum {
		return minimum
	}
	return d
}

// TimeRequired returns how much tracked time earns one chance. Unparseable
// values fall back to one hour; anything under a second reads as a second.
func (c *Instance) TimeRequired() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Tracker.TimeRequired, DefaultTimeRequired, MinTimeRequired)
}

func (c *Instance) SetTimeRequired(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Tracker.TimeRequired = d.String()
}

// TickInterval returns the process poll interval, at least one second.
func (c *Instance) TickInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Tracker.TickInterval, DefaultTickInterval, MinTickInterval)
}

// RollsPerMulti returns the milestone period and the multi-play roll count.
func (c *Instance) RollsPerMulti() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Tracker.RollsPerMulti < 1 {
		return 1
	}
	return c.vals.Tracker.RollsPerMulti
}

func (c *Instance) SetRollsPerMulti(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Tracker.RollsPerMulti = n
}

// LastApp returns the path of the most recently tracked executable.
func (c *Instance) LastApp() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Tracker.LastApp
}

func (c *Instance) SetLastApp(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Tracker.LastApp = path
}
