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

import "path/filepath"

type Audio struct {
	ChanceSound    *string `toml:"chance_sound,omitempty"`
	MilestoneSound *string `toml:"milestone_sound,omitempty"`
	Enabled        bool    `toml:"enabled"`
}

func (c *Instance) AudioEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Audio.Enabled
}

func (c *Instance) SetAudioEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Audio.Enabled = enabled
}

// resolveSound maps a sound setting to a path.
// Returns ("", true) if nil (use the built-in cue), ("", false) if disabled
// (empty string), or (resolved_path, true) if a custom path is configured.
// Relative paths resolve to dataDir/assets/path.
func resolveSound(setting *string, dataDir string) (string, bool) {
	if setting == nil {
		return "", true
	}
	if *setting == "" {
		return "", false
	}
	path := *setting
	if filepath.IsAbs(path) {
		return path, true
	}
	return filepath.Join(dataDir, AssetsDir, path), true
}

// ChanceSoundPath is the sound played when a chance is earned.
func (c *Instance) ChanceSoundPath(dataDir string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveSound(c.vals.Audio.ChanceSound, dataDir)
}

// MilestoneSoundPath is the sound played every rolls_per_multi chances.
func (c *Instance) MilestoneSoundPath(dataDir string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveSound(c.vals.Audio.MilestoneSound, dataDir)
}
