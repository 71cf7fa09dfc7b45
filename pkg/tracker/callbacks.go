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

// Callbacks receives tracker events. Every call is delivered through the
// session's UIQueue, never directly from the tracker goroutine.
type Callbacks interface {
	// OnTick reports the session's cumulative time as HH:MM:SS.
	OnTick(elapsed string)
	// OnChancesChanged reports the ledger total after a chance was added.
	OnChancesChanged(total int)
	// OnMilestone fires when the new total is a multiple of rolls_per_multi.
	OnMilestone(total int)
	// OnChanceAdded fires for every other new chance.
	OnChanceAdded(total int)
}

// CallbackFuncs adapts plain functions to Callbacks. Nil fields are skipped.
type CallbackFuncs struct {
	Tick           func(elapsed string)
	ChancesChanged func(total int)
	Milestone      func(total int)
	ChanceAdded    func(total int)
}

func (f CallbackFuncs) OnTick(elapsed string) {
	if f.Tick != nil {
		f.Tick(elapsed)
	}
}

func (f CallbackFuncs) OnChancesChanged(total int) {
	if f.ChancesChanged != nil {
		f.ChancesChanged(total)
	}
}

func (f CallbackFuncs) OnMilestone(total int) {
	if f.Milestone != nil {
		f.Milestone(total)
	}
}

func (f CallbackFuncs) OnChanceAdded(total int) {
	if f.ChanceAdded != nil {
		f.ChanceAdded(total)
	}
}

// UIQueue schedules fn to run on the presentation thread. tview's
// Application.QueueUpdateDraw is the usual implementation.
type UIQueue func(fn func())

// Immediate runs fn on the calling goroutine. For headless use and tests.
func Immediate(fn func()) {
	fn()
}
