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
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
)

// FoldName normalises an executable name for comparison. The result is the
// full Unicode case fold of the trimmed name, so "Game.EXE" and "game.exe"
// map to the same key.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// ExeName returns the image name of a path as the OS process list reports
// it, e.g. "C:\Games\Foo.exe" → "Foo.exe". Both separators are accepted
// regardless of platform so paths copied from Windows work everywhere.
func ExeName(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return filepath.Base(path)
}

// SameName reports whether two executable names match case-insensitively.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
