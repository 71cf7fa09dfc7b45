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

// Package lottery implements the reward draw that spends earned chances.
package lottery

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers/syncutil"
)

// Outcome is the result category of a single draw.
type Outcome int

const (
	OutcomeLose Outcome = iota
	OutcomeWin
	OutcomeJackpot
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLose:
		return "lose"
	case OutcomeWin:
		return "win"
	case OutcomeJackpot:
		return "jackpot"
	default:
		return "unknown"
	}
}

// Odds configures one draw. A roll r in [0,1) wins below WinChance, hits
// the jackpot below WinChance+JackpotChance, and loses otherwise.
type Odds struct {
	WinChance     float64
	JackpotChance float64
	MinPrize      int
	MaxPrize      int
	JackpotPrize  int
}

var DefaultOdds = Odds{
	WinChance:     0.49,
	JackpotChance: 0.02,
	MinPrize:      1,
	MaxPrize:      20,
	JackpotPrize:  100,
}

// Result is one draw. Roll is the 1-based position within a multi-play
// batch, or 0 for a single play.
type Result struct {
	Time    time.Time
	Batch   string
	Outcome Outcome
	Prize   int
	Roll    int
}

// Message is the text shown to the player.
func (r Result) Message() string {
	var msg string
	switch r.Outcome {
	case OutcomeWin:
		msg = fmt.Sprintf("You won $%d!", r.Prize)
	case OutcomeJackpot:
		msg = fmt.Sprintf("JACKPOT! You won $%d!", r.Prize)
	default:
		msg = "Keep working!"
	}
	if r.Roll > 0 {
		return fmt.Sprintf("Roll %d: %s", r.Roll, msg)
	}
	return msg
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil //nolint:gosec // seed bits
}

// Drawer rolls outcomes from a seeded source. Safe for concurrent use.
type Drawer struct {
	rng *rand.Rand
	mu  syncutil.Mutex
}

func NewDrawer(seed int64) *Drawer {
	return &Drawer{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // not security sensitive
}

// Draw rolls once against odds and returns the outcome and prize.
//
//nolint:gocritic // small value struct
func (d *Drawer) Draw(odds Odds) (Outcome, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.rng.Float64()
	switch {
	case r < odds.WinChance:
		lo, hi := odds.MinPrize, max(odds.MaxPrize, odds.MinPrize)
		return OutcomeWin, lo + d.rng.Intn(hi-lo+1)
	case r < odds.WinChance+odds.JackpotChance:
		return OutcomeJackpot, odds.JackpotPrize
	default:
		return OutcomeLose, 0
	}
}
