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

//go:build deadlock

// Package syncutil holds the mutex types used across the module. Building
// with -tags=deadlock swaps them for go-deadlock so lock-order problems
// between the tracker and the presentation layer show up in development.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether the detector is compiled in.
const DeadlockEnabled = true

func init() {
	// The tracker holds the ledger lock for at most one disk write, so
	// anything close to this timeout is a real deadlock.
	deadlock.Opts.DeadlockTimeout = 15 * time.Second
}

// Mutex is a mutual exclusion lock with deadlock detection.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a reader/writer lock with deadlock detection.
type RWMutex struct {
	deadlock.RWMutex
}
