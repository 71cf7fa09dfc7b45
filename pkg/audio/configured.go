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

import "github.com/rs/zerolog/log"

// Nop is a Player that stays silent. Used when audio is disabled or no
// output device is available.
type Nop struct{}

func (Nop) PlayCue(Cue) error     { return nil }
func (Nop) PlayFile(string) error { return nil }
func (Nop) ClearFileCache()       {}

// PlayConfigured plays a sound based on configuration settings.
// If enabled is false, nothing is played. If path is empty the built-in
// cue is played, otherwise the custom file, falling back to the cue if
// the file can't be played. Errors are logged but not returned.
//
//nolint:gocritic // Cue passed by value like the package-level cues
func PlayConfigured(p Player, path string, enabled bool, fallback Cue) {
	if !enabled || p == nil {
		return
	}

	if path != "" {
		err := p.PlayFile(path)
		if err == nil {
			return
		}
		log.Warn().Str("path", path).Err(err).Msgf("error playing custom %s sound", fallback.Name)
	}

	if err := p.PlayCue(fallback); err != nil {
		log.Warn().Err(err).Msgf("error playing %s sound", fallback.Name)
	}
}
