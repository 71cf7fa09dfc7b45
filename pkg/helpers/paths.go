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

package helpers

import (
	"os"
	"path/filepath"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/adrg/xdg"
)

// Dirs is the set of directories the app reads and writes.
type Dirs struct {
	ConfigDir string
	DataDir   string
	LogDir    string
}

// DefaultDirs resolves directories from the XDG base directory spec (which
// maps to AppData and Library paths on Windows and macOS). LOTTERY_DATA
// overrides the data directory, which is handy for portable installs that
// keep the ledger next to the executable.
func DefaultDirs() Dirs {
	dataDir := os.Getenv(config.DataEnv)
	if dataDir == "" {
		dataDir = filepath.Join(xdg.DataHome, config.AppName)
	}

	return Dirs{
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		DataDir:   dataDir,
		LogDir:    filepath.Join(xdg.StateHome, config.AppName),
	}
}

// LogPath returns the full path of the active log file.
func (d Dirs) LogPath() string {
	return filepath.Join(d.LogDir, config.LogFile)
}

// ConfigPath returns the full path of the config file, honouring the
// LOTTERY_CFG override the same way config.NewConfig does.
func (d Dirs) ConfigPath() string {
	if p := os.Getenv(config.CfgEnv); p != "" {
		return p
	}
	return filepath.Join(d.ConfigDir, config.CfgFile)
}
