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

package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
)

// Tone is one step of a cue. A zero frequency is a rest.
type Tone struct {
	Freq     float64
	Duration time.Duration
}

// Cue is a named sequence of tones.
type Cue struct {
	Name  string
	Tones []Tone
}

// cueGain keeps generated sine waves well below full scale.
const cueGain = -0.7

var (
	CueStart   = Cue{Name: "start", Tones: []Tone{{600, 150 * time.Millisecond}}}
	CueClick   = Cue{Name: "click", Tones: []Tone{{800, 100 * time.Millisecond}}}
	CueWin     = Cue{Name: "win", Tones: []Tone{{1200, 200 * time.Millisecond}}}
	CueJackpot = Cue{Name: "jackpot", Tones: []Tone{{1500, 500 * time.Millisecond}}}
	CueFail    = Cue{Name: "fail", Tones: []Tone{{500, 300 * time.Millisecond}}}
	CueChance  = Cue{Name: "chance", Tones: []Tone{
		{880, 90 * time.Millisecond},
		{0, 30 * time.Millisecond},
		{1320, 140 * time.Millisecond},
	}}
	CueMilestone = Cue{Name: "milestone", Tones: []Tone{
		{523.25, 120 * time.Millisecond},
		{659.25, 120 * time.Millisecond},
		{783.99, 120 * time.Millisecond},
		{1046.5, 300 * time.Millisecond},
	}}
)

// Duration is the total length of the cue.
func (c Cue) Duration() time.Duration {
	var d time.Duration
	for _, t := range c.Tones {
		d += t.Duration
	}
	return d
}

// Streamer renders the cue at sample rate sr.
func (c Cue) Streamer(sr beep.SampleRate) (beep.Streamer, error) {
	if len(c.Tones) == 0 {
		return nil, fmt.Errorf("cue %q has no tones", c.Name)
	}

	parts := make([]beep.Streamer, 0, len(c.Tones))
	for _, t := range c.Tones {
		n := sr.N(t.Duration)
		if t.Freq <= 0 {
			parts = append(parts, generators.Silence(n))
			continue
		}
		tone, err := generators.SineTone(sr, t.Freq)
		if err != nil {
			return nil, fmt.Errorf("cue %q: %w", c.Name, err)
		}
		parts = append(parts, beep.Take(n, tone))
	}

	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: cueGain}, nil
}
