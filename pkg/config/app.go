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

var AppVersion = "DEVELOPMENT"

const (
	AppName    = "dopamine-lottery"
	DataFile   = "app_data.json"
	DrawsFile  = "draws.db"
	LogFile    = "lottery.log"
	CfgFile    = "config.toml"
	LastAppTxt = "last_app.txt"
	AssetsDir  = "assets"
	PidFile    = "lottery.pid"
)
